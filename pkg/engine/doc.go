// Package engine implements the CloudSim stack orchestrator. It turns
// a parsed template into a dependency graph, computes a deterministic
// provisioning order, resolves references as resources come into
// existence, and drives providers through sequential creation with
// best-effort reverse-order rollback on failure.
//
// The lifecycle of a stack:
//
//	parse -> validate -> graph -> order -> provision -> outputs -> COMPLETE
//	                                  \-> failure -> rollback -> ROLLED_BACK
//
// All planning steps are side-effect free; the first write to the
// store happens only after a template has a valid provisioning order.
package engine
