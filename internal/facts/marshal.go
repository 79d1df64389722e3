// SPDX-License-Identifier: MPL-2.0

package facts

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes the record as a JSON object in command list order.
func (c CommandOutputs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, co := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(co.Command)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(co.Output)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (c *CommandOutputs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("command outputs: expected object, got %v", tok)
	}

	var out CommandOutputs
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("command outputs: expected string key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("command outputs: value for %q: %w", key, err)
		}
		out = append(out, CommandOutput{Command: key, Output: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = out
	return nil
}

// MarshalYAML encodes the record as a YAML mapping in command list order.
// Multi-line outputs use literal block style.
func (c CommandOutputs) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, co := range c {
		value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: co.Output}
		if bytes.ContainsRune([]byte(co.Output), '\n') {
			value.Style = yaml.LiteralStyle
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: co.Command},
			value,
		)
	}
	return node, nil
}

// UnmarshalYAML decodes a YAML mapping, keeping key order.
func (c *CommandOutputs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("command outputs: expected mapping at line %d", node.Line)
	}
	out := make(CommandOutputs, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, CommandOutput{Command: node.Content[i].Value, Output: node.Content[i+1].Value})
	}
	*c = out
	return nil
}
