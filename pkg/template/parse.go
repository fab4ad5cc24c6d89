package template

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Section names of the required document shape.
const (
	sectionResources  = "Resources"
	sectionParameters = "Parameters"
	sectionOutputs    = "Outputs"
)

// Parse parses a template body, trying JSON first and YAML second. It
// returns the parsed template and which serialization matched, or a
// *FormatError when neither parses. Parsing is pure and deterministic:
// the same body always yields a structurally equal template.
func Parse(body string) (*Template, Format, error) {
	data := []byte(body)

	var raw interface{}
	jsonErr := json.Unmarshal(data, &raw)
	if jsonErr == nil {
		order := jsonSectionKeyOrder(data, sectionResources)
		tpl, err := build(raw, order)
		if err != nil {
			return nil, FormatJSON, err
		}
		return tpl, FormatJSON, nil
	}

	var doc yaml.Node
	yamlErr := yaml.Unmarshal(data, &doc)
	if yamlErr != nil {
		return nil, "", &FormatError{JSONErr: jsonErr, YAMLErr: yamlErr}
	}

	raw = nil
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		if err := doc.Content[0].Decode(&raw); err != nil {
			return nil, "", &FormatError{JSONErr: jsonErr, YAMLErr: err}
		}
	}

	tpl, err := build(raw, yamlSectionKeyOrder(&doc, sectionResources))
	if err != nil {
		return nil, FormatYAML, err
	}
	return tpl, FormatYAML, nil
}

// build assembles a Template from a decoded generic tree. resourceOrder
// carries the Resources declaration order recovered from the raw text;
// when it does not line up with the decoded mapping it falls back to
// lexical order, which is still deterministic.
func build(raw interface{}, resourceOrder []string) (*Template, error) {
	tpl := &Template{
		Resources:  make(map[string]*ResourceDecl),
		Parameters: make(map[string]*Parameter),
		Outputs:    make(map[string]*Output),
	}

	root, ok := raw.(map[string]interface{})
	if !ok {
		// A scalar or empty document is not a format error; validation
		// rejects it for the missing Resources section.
		return tpl, nil
	}

	if desc, ok := root["Description"].(string); ok {
		tpl.Description = desc
	}

	if rawRes, ok := root[sectionResources]; ok && rawRes != nil {
		resMap, ok := rawRes.(map[string]interface{})
		if !ok {
			return nil, NewValidationError("Resources must be a mapping")
		}
		if len(resourceOrder) != len(resMap) {
			resourceOrder = sortedKeys(resMap)
		}
		for i, name := range resourceOrder {
			rawDecl, ok := resMap[name]
			if !ok {
				return nil, NewValidationError("internal: declaration order names unknown resource %q", name)
			}
			decl, err := buildResource(rawDecl)
			if err != nil {
				return nil, err.WithResource(name)
			}
			decl.Index = i
			tpl.Resources[name] = decl
			tpl.ResourceOrder = append(tpl.ResourceOrder, name)
		}
	}

	if rawParams, ok := root[sectionParameters]; ok && rawParams != nil {
		paramMap, ok := rawParams.(map[string]interface{})
		if !ok {
			return nil, NewValidationError("Parameters must be a mapping")
		}
		for name, rawDecl := range paramMap {
			param, err := buildParameter(rawDecl)
			if err != nil {
				return nil, NewValidationError("parameter %q: %v", name, err)
			}
			tpl.Parameters[name] = param
		}
	}

	if rawOutputs, ok := root[sectionOutputs]; ok && rawOutputs != nil {
		outMap, ok := rawOutputs.(map[string]interface{})
		if !ok {
			return nil, NewValidationError("Outputs must be a mapping")
		}
		for name, rawDecl := range outMap {
			out, err := buildOutput(rawDecl)
			if err != nil {
				return nil, NewValidationError("output %q: %v", name, err)
			}
			tpl.Outputs[name] = out
		}
	}

	return tpl, nil
}

func buildResource(raw interface{}) (*ResourceDecl, *ValidationError) {
	declMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, NewValidationError("declaration must be a mapping")
	}

	decl := &ResourceDecl{Properties: Null()}
	if kind, ok := declMap["Type"].(string); ok {
		decl.Kind = kind
	}

	if rawProps, ok := declMap["Properties"]; ok && rawProps != nil {
		props, err := fromInterface(rawProps)
		if err != nil {
			return nil, NewValidationError("invalid Properties: %v", err)
		}
		if props.Kind() != KindMap {
			return nil, NewValidationError("Properties must be a mapping, got %s", props.Kind())
		}
		decl.Properties = props
	}

	if rawDeps, ok := declMap["DependsOn"]; ok && rawDeps != nil {
		deps, err := dependsOnList(rawDeps)
		if err != nil {
			return nil, err
		}
		decl.DependsOn = deps
	}

	return decl, nil
}

// dependsOnList accepts the two DependsOn shapes: a single logical name
// or a list of logical names.
func dependsOnList(raw interface{}) ([]string, *ValidationError) {
	switch t := raw.(type) {
	case string:
		return []string{t}, nil
	case []interface{}:
		deps := make([]string, 0, len(t))
		for _, item := range t {
			name, ok := item.(string)
			if !ok {
				return nil, NewValidationError("DependsOn entries must be strings, got %T", item)
			}
			deps = append(deps, name)
		}
		return deps, nil
	default:
		return nil, NewValidationError("DependsOn must be a string or a list of strings, got %T", raw)
	}
}

func buildParameter(raw interface{}) (*Parameter, error) {
	declMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("declaration must be a mapping")
	}

	param := &Parameter{Type: "String", Default: Null()}
	if typ, ok := declMap["Type"].(string); ok && typ != "" {
		param.Type = typ
	}
	if desc, ok := declMap["Description"].(string); ok {
		param.Description = desc
	}
	if rawDefault, ok := declMap["Default"]; ok && rawDefault != nil {
		def, err := fromInterface(rawDefault)
		if err != nil {
			return nil, fmt.Errorf("invalid Default: %v", err)
		}
		param.Default = def
	}
	return param, nil
}

func buildOutput(raw interface{}) (*Output, error) {
	declMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("declaration must be a mapping")
	}

	out := &Output{Value: Null()}
	if desc, ok := declMap["Description"].(string); ok {
		out.Description = desc
	}
	if rawValue, ok := declMap["Value"]; ok && rawValue != nil {
		val, err := fromInterface(rawValue)
		if err != nil {
			return nil, fmt.Errorf("invalid Value: %v", err)
		}
		out.Value = val
	}
	return out, nil
}

// jsonSectionKeyOrder scans the raw JSON token stream and returns the
// key order of the named top-level object. encoding/json decodes
// objects into unordered maps, so the order has to be recovered from
// the text itself. Returns nil when the section is absent or not an
// object; callers fall back to lexical order.
func jsonSectionKeyOrder(data []byte, section string) []string {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil
		}
		if key != section {
			if err := skipJSONValue(dec); err != nil {
				return nil
			}
			continue
		}

		open, err := dec.Token()
		if err != nil {
			return nil
		}
		if d, ok := open.(json.Delim); !ok || d != '{' {
			return nil
		}
		var keys []string
		for dec.More() {
			sectionKey, err := dec.Token()
			if err != nil {
				return nil
			}
			name, ok := sectionKey.(string)
			if !ok {
				return nil
			}
			keys = append(keys, name)
			if err := skipJSONValue(dec); err != nil {
				return nil
			}
		}
		return keys
	}
	return nil
}

// skipJSONValue consumes one complete JSON value from the decoder.
func skipJSONValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); ok && (d == '{' || d == '[') {
		for dec.More() {
			if err := skipJSONValue(dec); err != nil {
				return err
			}
		}
		// Closing delimiter.
		_, err := dec.Token()
		return err
	}
	return nil
}

// yamlSectionKeyOrder walks the YAML document node and returns the key
// order of the named top-level mapping. yaml.Node preserves source
// order, so no re-scan of the text is needed.
func yamlSectionKeyOrder(doc *yaml.Node, section string) []string {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != section {
			continue
		}
		sec := root.Content[i+1]
		if sec.Kind != yaml.MappingNode {
			return nil
		}
		keys := make([]string, 0, len(sec.Content)/2)
		for j := 0; j+1 < len(sec.Content); j += 2 {
			keys = append(keys, sec.Content[j].Value)
		}
		return keys
	}
	return nil
}
