package deploy

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// unmarshalYAML decodes a YAML document into plain maps and lists. Floats
// keep their literal text as json.Number, so an unquoted 1.20 stays "1.20"
// instead of coming back as 1.2.
func unmarshalYAML(data []byte) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, nil
	}

	v, err := nodeValue(&doc)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("line %d: top level must be a mapping", doc.Line)
	}
	return m, nil
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := nodeValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.MappingNode:
		return mappingValue(n)
	case yaml.ScalarNode:
		if n.ShortTag() == "!!float" {
			return json.Number(n.Value), nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
}

func mappingValue(n *yaml.Node) (map[string]any, error) {
	out := make(map[string]any, len(n.Content)/2)
	var merged []map[string]any

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]

		if keyNode.ShortTag() == "!!merge" {
			v, err := nodeValue(valNode)
			if err != nil {
				return nil, err
			}
			maps, ok := mergeSources(v)
			if !ok {
				return nil, fmt.Errorf("line %d: merge value must be a mapping or a list of mappings", keyNode.Line)
			}
			merged = append(merged, maps...)
			continue
		}

		var key any
		if err := keyNode.Decode(&key); err != nil {
			return nil, err
		}
		v, err := nodeValue(valNode)
		if err != nil {
			return nil, err
		}
		out[fmt.Sprint(key)] = v
	}

	// Explicit keys win over merged ones; earlier merge sources win over later.
	for _, m := range merged {
		for k, v := range m {
			if _, set := out[k]; !set {
				out[k] = v
			}
		}
	}
	return out, nil
}

func mergeSources(v any) ([]map[string]any, bool) {
	switch s := v.(type) {
	case map[string]any:
		return []map[string]any{s}, true
	case []any:
		maps := make([]map[string]any, 0, len(s))
		for _, item := range s {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			maps = append(maps, m)
		}
		return maps, true
	}
	return nil, false
}
