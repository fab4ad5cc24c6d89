package engine

import (
	"github.com/cloudsim/cloudsim/pkg/template"
)

// ResourceEntry records what a provider reported for a created
// resource: its physical identifier and any named attributes.
type ResourceEntry struct {
	PhysicalID string
	Attributes map[string]string
}

// ResourceTable maps logical IDs to their created resources. It grows
// as the provisioning pass walks the plan, so references always see
// exactly the resources created so far.
type ResourceTable map[string]ResourceEntry

// Attribute looks up a named attribute of a created resource, falling
// back to the physical identifier when the attribute is not reported.
func (t ResourceTable) Attribute(logicalID, name string) (string, bool) {
	entry, ok := t[logicalID]
	if !ok {
		return "", false
	}
	if v, ok := entry.Attributes[name]; ok {
		return v, true
	}
	return entry.PhysicalID, true
}

// Resolver substitutes references in property trees. It is pure: input
// values are never mutated and resolving the same value twice yields
// the same result.
type Resolver struct {
	// Parameters holds the effective parameter values: declared
	// defaults overlaid with caller-supplied values.
	Parameters map[string]template.Value

	// Resources is the table of resources created so far.
	Resources ResourceTable
}

// Resolve returns a copy of v with every Ref and Fn::GetAtt replaced.
// A Ref resolves to the physical identifier of a created resource,
// then to a parameter value, and otherwise falls through as the target
// name itself. An Fn::GetAtt resolves to the named attribute of a
// created resource and otherwise falls through as "Target.Attribute".
func (r *Resolver) Resolve(v template.Value) template.Value {
	switch v.Kind() {
	case template.KindRef:
		target := v.Target()
		if entry, ok := r.Resources[target]; ok {
			return template.String(entry.PhysicalID)
		}
		if param, ok := r.Parameters[target]; ok {
			return param
		}
		return template.String(target)

	case template.KindGetAtt:
		if attr, ok := r.Resources.Attribute(v.Target(), v.Attribute()); ok {
			return template.String(attr)
		}
		return template.String(v.Target() + "." + v.Attribute())

	case template.KindList:
		items := v.Items()
		resolved := make([]template.Value, len(items))
		for i, item := range items {
			resolved[i] = r.Resolve(item)
		}
		return template.List(resolved...)

	case template.KindMap:
		fields := make(map[string]template.Value, len(v.Fields()))
		for key, field := range v.Fields() {
			fields[key] = r.Resolve(field)
		}
		return template.Map(fields)

	default:
		return v
	}
}

// ResolveString resolves a value and coerces the result to a string,
// the shape outputs are reported in.
func (r *Resolver) ResolveString(v template.Value) string {
	return r.Resolve(v).CoerceString()
}

// EffectiveParameters merges declared parameter defaults with the
// caller-supplied values. Supplied values win; a declared parameter
// without a default and without a supplied value is absent, so a Ref
// to it falls through as a literal.
func EffectiveParameters(tpl *template.Template, supplied map[string]string) map[string]template.Value {
	params := make(map[string]template.Value, len(tpl.Parameters)+len(supplied))
	for name, decl := range tpl.Parameters {
		if decl.HasDefault() {
			params[name] = decl.Default
		}
	}
	for name, value := range supplied {
		params[name] = template.String(value)
	}
	return params
}
