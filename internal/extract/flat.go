// SPDX-License-Identifier: AGPL-3.0-or-later
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bartekus/swiftreq/internal/endpoint"
	"github.com/bartekus/swiftreq/internal/generr"
)

// fromFlat reads a flat summary. Unknown keys are ignored.
func fromFlat(root *yaml.Node) (draft, error) {
	var d draft
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := strings.ToLower(root.Content[i].Value)
		v := root.Content[i+1]

		var err error
		switch key {
		case "method":
			d.method, err = scalar(key, v)
		case "path":
			d.path, err = scalar(key, v)
		case "summary":
			d.summary, err = scalar(key, v)
		case "server", "host", "domain":
			d.server, err = scalar(key, v)
		case "params":
			d.params, err = flatParams(v)
		case "response":
			d.response, err = flatResponse(v)
		}
		if err != nil {
			return draft{}, err
		}
	}
	return d, nil
}

func scalar(field string, n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", &generr.InvalidInputError{Field: field, Reason: "must be a single value"}
	}
	return n.Value, nil
}

// flatParams accepts "a:int,b:string", a mapping of name to type, or a list
// of "name:type" items.
func flatParams(n *yaml.Node) ([]endpoint.Parameter, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return ParseParams(n.Value)
	case yaml.MappingNode:
		var out []endpoint.Parameter
		for i := 0; i+1 < len(n.Content); i += 2 {
			typ, err := scalar("params."+n.Content[i].Value, n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out = append(out, parseParam(n.Content[i].Value, typ))
		}
		return out, nil
	case yaml.SequenceNode:
		var out []endpoint.Parameter
		for _, item := range n.Content {
			s, err := scalar("params", item)
			if err != nil {
				return nil, err
			}
			params, err := ParseParams(s)
			if err != nil {
				return nil, err
			}
			out = append(out, params...)
		}
		return out, nil
	}
	return nil, &generr.InvalidInputError{Field: "params", Reason: "unsupported value"}
}

// flatResponse returns a field list as is and re-encodes an inline object
// or array as JSON with its key order intact.
func flatResponse(n *yaml.Node) (string, error) {
	if n.Kind == yaml.ScalarNode {
		return n.Value, nil
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, n); err != nil {
		return "", &generr.InvalidInputError{Field: "response", Reason: err.Error()}
	}
	return buf.String(), nil
}

func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSON(buf, n.Content[0])
	case yaml.AliasNode:
		return writeJSON(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	out, err := json.Marshal(plain(n))
	if err != nil {
		return fmt.Errorf("encoding %q: %w", n.Value, err)
	}
	buf.Write(out)
	return nil
}

// plain converts a node into maps, slices and scalars for encoding/json.
// Mapping keys are always strings.
func plain(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return plain(n.Content[0])
	case yaml.AliasNode:
		return plain(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = plain(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			s = append(s, plain(item))
		}
		return s
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return n.Value
	}
	return v
}

// documentOrder sorts names by where they are declared in the source
// document. A "properties" mapping holding exactly these names wins; otherwise
// the first scalar equal to each name decides. Names that cannot be located
// are appended in lexical order.
func documentOrder(root *yaml.Node, names []string) []string {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	if keys := findProperties(root, want); keys != nil {
		return keys
	}

	pos := make(map[string]int, len(names))
	next := 0
	var walk func(n *yaml.Node)
	walk = func(n *yaml.Node) {
		if n == nil {
			return
		}
		if n.Kind == yaml.ScalarNode && want[n.Value] {
			if _, ok := pos[n.Value]; !ok {
				pos[n.Value] = next
				next++
			}
		}
		for _, c := range n.Content {
			walk(c)
		}
	}
	walk(root)

	out := append([]string(nil), names...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, iok := pos[out[i]]
		pj, jok := pos[out[j]]
		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		}
		return out[i] < out[j]
	})
	return out
}

func findProperties(n *yaml.Node, want map[string]bool) []string {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			v := n.Content[i+1]
			if n.Content[i].Value == "properties" && v.Kind == yaml.MappingNode && sameKeys(v, want) {
				keys := make([]string, 0, len(v.Content)/2)
				for j := 0; j+1 < len(v.Content); j += 2 {
					keys = append(keys, v.Content[j].Value)
				}
				return keys
			}
		}
	}
	for _, c := range n.Content {
		if keys := findProperties(c, want); keys != nil {
			return keys
		}
	}
	return nil
}

func sameKeys(m *yaml.Node, want map[string]bool) bool {
	if len(m.Content)/2 != len(want) {
		return false
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if !want[m.Content[i].Value] {
			return false
		}
	}
	return true
}
