// Package template implements parsing and validation of declarative
// infrastructure templates for the CloudSim control plane.
//
// A template is accepted in either of two interchangeable
// serializations, JSON and YAML; Parse tries JSON first and reports a
// FormatError only when both fail. The parsed document carries a
// Resources mapping (required), plus optional Parameters and Outputs
// mappings.
//
// Property bags are represented by the closed Value union rather than
// raw interface{} trees, so downstream components (the dependency graph
// builder and the reference resolver in pkg/engine) can switch
// exhaustively over value kinds. Two reference expression shapes are
// recognized anywhere inside a property bag:
//
//	{"Ref": "WebServer"}                  physical id of WebServer
//	{"Fn::GetAtt": ["WebServer", "Id"]}   attribute of WebServer
//
// Parsing is a pure function over the input text: it has no side
// effects and re-parsing the same body yields structurally equal
// results, which lets the validate-only entry point share this code
// path with provisioning.
package template
