package template

// Format identifies which serialization a template body matched.
type Format string

const (
	// FormatJSON indicates the template parsed as JSON.
	FormatJSON Format = "JSON"

	// FormatYAML indicates the template parsed as YAML.
	FormatYAML Format = "YAML"
)

// Template is a parsed declarative infrastructure template. It is
// immutable once parsed; the orchestrator re-derives everything else
// (graph, plan, resolved properties) from it per run.
type Template struct {
	// Description is the optional template description.
	Description string

	// Resources maps logical name to resource declaration.
	Resources map[string]*ResourceDecl

	// ResourceOrder lists logical names in declaration order. The
	// topological sorter uses the position as its deterministic
	// tie-break key.
	ResourceOrder []string

	// Parameters maps parameter name to its declaration.
	Parameters map[string]*Parameter

	// Outputs maps output name to its declaration.
	Outputs map[string]*Output
}

// ResourceDecl is a single resource declaration.
type ResourceDecl struct {
	// Kind is the resource kind string (the declaration's Type field).
	Kind string

	// Properties is the property bag handed to the provider after
	// reference resolution. Always a map or null.
	Properties Value

	// DependsOn lists explicit dependencies on other logical names.
	DependsOn []string

	// Index is the zero-based declaration position within Resources.
	Index int
}

// Parameter is a declared template parameter.
type Parameter struct {
	// Type is the declared type label. Defaults to "String".
	Type string

	// Default is the declared default value, or null when absent.
	Default Value

	// Description is the optional parameter description.
	Description string
}

// HasDefault reports whether the parameter declares a default value.
func (p *Parameter) HasDefault() bool { return !p.Default.IsNull() }

// Output is a declared stack output.
type Output struct {
	// Value is the output's value expression.
	Value Value

	// Description is the optional output description.
	Description string
}

// Kinds returns the set of distinct resource kinds used by the
// template, in lexical order.
func (t *Template) Kinds() []string {
	seen := make(map[string]bool)
	for _, res := range t.Resources {
		seen[res.Kind] = true
	}
	return sortedKeys(seen)
}

// Validate checks the structural invariants the orchestrator relies on:
// a non-empty Resources section and a supported kind on every
// declaration. supported maps kind string to true for every registered
// provider kind.
func (t *Template) Validate(supported map[string]bool) error {
	if len(t.Resources) == 0 {
		return NewValidationError("template must contain a non-empty Resources section")
	}
	for _, name := range t.ResourceOrder {
		res := t.Resources[name]
		if res.Kind == "" {
			return NewValidationError("missing Type").WithResource(name)
		}
		if !supported[res.Kind] {
			return NewValidationError("unsupported resource kind %q (supported: %v)",
				res.Kind, sortedKeys(supported)).WithResource(name)
		}
	}
	return nil
}
