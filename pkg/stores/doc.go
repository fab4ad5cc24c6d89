// Package stores provides persistence layer implementations for CloudSim.
// It includes SQLite-based storage with WAL mode, connection pooling,
// and CRUD operations for stacks, stack resources, and lifecycle events.
package stores
