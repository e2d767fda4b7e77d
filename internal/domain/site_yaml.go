package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML lets a site list be kept as YAML. Unknown keys are also
// converted to JSON so Extra has one representation whatever the file
// format; the original nodes are what gets written back to YAML.
func (s *Site) UnmarshalYAML(value *yaml.Node) error {
	var f siteFields
	if err := value.Decode(&f); err != nil {
		return err
	}
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = Site{}
	s.setFields(f)
	for k, v := range raw {
		if _, ok := knownKeys[k]; ok {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("site key %q: %w", k, err)
		}
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage)
		}
		s.Extra[k] = b
	}
	s.src = &source{fields: f.clone(), extra: copyExtra(s.Extra), yaml: value}
	return nil
}

// MarshalYAML returns the decoded node untouched when the site has not
// changed. A changed site is rebuilt, but extra values that still match
// what was read keep their original node.
func (s Site) MarshalYAML() (any, error) {
	if s.unchanged() && s.src.yaml != nil {
		return s.src.yaml, nil
	}
	node := &yaml.Node{}
	if err := node.Encode(s.fields()); err != nil {
		return nil, err
	}
	for _, k := range sortedKeys(s.Extra) {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		val := s.originalYAML(k)
		if val == nil {
			var v any
			if err := json.Unmarshal(s.Extra[k], &v); err != nil {
				return nil, fmt.Errorf("site key %q: %w", k, err)
			}
			val = &yaml.Node{}
			if err := val.Encode(v); err != nil {
				return nil, fmt.Errorf("site key %q: %w", k, err)
			}
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// originalYAML finds the node an extra key was read from, provided its
// value has not been replaced since.
func (s Site) originalYAML(key string) *yaml.Node {
	if s.src == nil || s.src.yaml == nil || s.src.yaml.Kind != yaml.MappingNode {
		return nil
	}
	if !bytes.Equal(s.Extra[key], s.src.extra[key]) {
		return nil
	}
	c := s.src.yaml.Content
	for i := 0; i+1 < len(c); i += 2 {
		if c[i].Value == key {
			return c[i+1]
		}
	}
	return nil
}
