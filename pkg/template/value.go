package template

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// refKey and getAttKey are the structural markers recognized inside
// property bags.
const (
	refKey    = "Ref"
	getAttKey = "Fn::GetAtt"
)

// ValueKind identifies the variant held by a Value.
type ValueKind uint8

const (
	// KindNull is the absence of a value.
	KindNull ValueKind = iota

	// KindBool is a boolean scalar.
	KindBool

	// KindNumber is a numeric scalar (integers and floats share one variant).
	KindNumber

	// KindString is a string scalar.
	KindString

	// KindList is an ordered sequence of values.
	KindList

	// KindMap is a string-keyed mapping of values.
	KindMap

	// KindRef is a reference to another resource's physical identifier
	// or to a parameter.
	KindRef

	// KindGetAtt is an attribute-style reference to another resource.
	KindGetAtt
)

// String returns the kind name for error messages.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindRef:
		return "ref"
	case KindGetAtt:
		return "getatt"
	default:
		return "unknown"
	}
}

// Value is a closed tagged union over everything that can appear in a
// property bag: scalars, lists, maps, and reference expressions. The
// graph builder and the resolver switch exhaustively on Kind instead of
// type-asserting on interface{} trees.
type Value struct {
	kind ValueKind
	b    bool
	num  float64
	str  string // string scalar, or the reference target logical name
	attr string // attribute name for KindGetAtt
	list []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// List returns a list value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Map returns a map value.
func Map(fields map[string]Value) Value { return Value{kind: KindMap, m: fields} }

// Ref returns a reference expression naming a resource or parameter.
func Ref(target string) Value { return Value{kind: KindRef, str: target} }

// GetAtt returns an attribute-style reference expression.
func GetAtt(target, attribute string) Value {
	return Value{kind: KindGetAtt, str: target, attr: attribute}
}

// Kind returns the variant held by the value.
func (v Value) Kind() ValueKind { return v.kind }

// BoolVal returns the boolean payload; valid only for KindBool.
func (v Value) BoolVal() bool { return v.b }

// NumberVal returns the numeric payload; valid only for KindNumber.
func (v Value) NumberVal() float64 { return v.num }

// StringVal returns the string payload; valid only for KindString.
func (v Value) StringVal() string { return v.str }

// Target returns the referenced logical name for KindRef and KindGetAtt.
func (v Value) Target() string { return v.str }

// Attribute returns the attribute name for KindGetAtt.
func (v Value) Attribute() string { return v.attr }

// Items returns the element slice for KindList.
func (v Value) Items() []Value { return v.list }

// Fields returns the field map for KindMap.
func (v Value) Fields() map[string]Value { return v.m }

// Field looks up a map field by name. The second return is false when
// the value is not a map or the field is absent.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	f, ok := v.m[name]
	return f, ok
}

// FieldString returns the named field coerced to a string, or def when
// the field is absent.
func (v Value) FieldString(name, def string) string {
	f, ok := v.Field(name)
	if !ok || f.kind == KindNull {
		return def
	}
	return f.CoerceString()
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Equal reports structural equality between two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindRef:
		return v.str == o.str
	case KindGetAtt:
		return v.str == o.str && v.attr == o.attr
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, f := range v.m {
			of, ok := o.m[k]
			if !ok || !f.Equal(of) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts the value back to a generic representation.
// Reference expressions round-trip to their marker-map forms.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindRef:
		return map[string]interface{}{refKey: v.str}
	case KindGetAtt:
		return map[string]interface{}{getAttKey: []interface{}{v.str, v.attr}}
	case KindList:
		items := make([]interface{}, len(v.list))
		for i, it := range v.list {
			items[i] = it.Interface()
		}
		return items
	case KindMap:
		fields := make(map[string]interface{}, len(v.m))
		for k, f := range v.m {
			fields[k] = f.Interface()
		}
		return fields
	}
	return nil
}

// MarshalJSON serializes the value in its generic form so property bags
// can be persisted alongside stack resource records.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// CoerceString renders the value as a string the way output resolution
// requires: scalars verbatim, numbers without a trailing ".0" when
// integral, and composites as compact JSON. An unresolved reference
// coerces to its own target name.
func (v Value) CoerceString() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindRef:
		return v.str
	case KindGetAtt:
		return v.str
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v.Interface())
		}
		return string(data)
	}
}

// fromInterface converts a decoded JSON/YAML tree into a Value,
// recognizing the Ref and Fn::GetAtt single-key markers at any depth.
func fromInterface(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case string:
		return String(t), nil
	case []interface{}:
		items := make([]Value, len(t))
		for i, raw := range t {
			v, err := fromInterface(raw)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]interface{}:
		if ref, ok := refMarker(t); ok {
			return ref, nil
		}
		fields := make(map[string]Value, len(t))
		for k, raw := range t {
			v, err := fromInterface(raw)
			if err != nil {
				return Value{}, err
			}
			fields[k] = v
		}
		return Map(fields), nil
	case map[interface{}]interface{}:
		// Older YAML decoders produce interface keys; normalize to strings.
		fields := make(map[string]interface{}, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				return Value{}, fmt.Errorf("non-string map key %v", k)
			}
			fields[ks] = val
		}
		return fromInterface(fields)
	default:
		return Value{}, fmt.Errorf("unsupported value of type %T", raw)
	}
}

// refMarker recognizes the two reference expression shapes. Only
// single-key maps are markers; a map that merely contains a "Ref" field
// among others is ordinary data.
func refMarker(m map[string]interface{}) (Value, bool) {
	if len(m) != 1 {
		return Value{}, false
	}
	if raw, ok := m[refKey]; ok {
		if target, ok := raw.(string); ok {
			return Ref(target), true
		}
		return Value{}, false
	}
	if raw, ok := m[getAttKey]; ok {
		switch t := raw.(type) {
		case []interface{}:
			if len(t) == 0 {
				return Value{}, false
			}
			target, ok := t[0].(string)
			if !ok {
				return Value{}, false
			}
			attr := ""
			if len(t) > 1 {
				if s, ok := t[1].(string); ok {
					attr = s
				}
			}
			return GetAtt(target, attr), true
		case string:
			// "Resource.Attribute" shorthand.
			for i := 0; i < len(t); i++ {
				if t[i] == '.' {
					return GetAtt(t[:i], t[i+1:]), true
				}
			}
			return GetAtt(t, ""), true
		}
	}
	return Value{}, false
}

// sortedKeys returns map keys in lexical order, for stable messages.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
