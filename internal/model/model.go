// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model turns an example response into Swift Codable structs.
//
// Two inputs are accepted: a JSON response whose "data" member is walked
// recursively, or a flat field list such as "id:int,tags:[string]". JSON is
// decoded into yaml.v3 nodes so object keys keep their document order.
package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bartekus/swiftreq/internal/generr"
	"github.com/bartekus/swiftreq/internal/naming"
	"github.com/bartekus/swiftreq/internal/render"
	"github.com/bartekus/swiftreq/internal/typemap"
)

// Field is one declared member of a field-list response.
type Field struct {
	Name string
	Type string
}

// IsPayload reports whether raw looks like a JSON document rather than a
// field list.
func IsPayload(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// ParsePayload decodes a JSON response into its root node.
func ParsePayload(raw []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &generr.InvalidInputError{Field: "response", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &generr.InvalidInputError{Field: "response", Reason: "empty response payload"}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode && root.Kind != yaml.SequenceNode {
		return nil, &generr.InvalidInputError{Field: "response", Reason: "response payload must be a JSON object or array"}
	}
	return root, nil
}

// DataMember returns the non-null "data" member of an object payload.
func DataMember(root *yaml.Node) (*yaml.Node, bool) {
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, false
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "data" {
			continue
		}
		v := root.Content[i+1]
		if isNull(v) {
			return nil, false
		}
		return v, true
	}
	return nil, false
}

// ParseFields parses "name:type,name:type" and maps each type with
// typemap.MapResponse.
func ParseFields(s string) ([]Field, []generr.Warning, error) {
	var (
		fields   []Field
		warnings []generr.Warning
	)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, raw, ok := strings.Cut(item, ":")
		if !ok {
			return nil, nil, &generr.InvalidInputError{Field: "response", Reason: fmt.Sprintf("field %q has no type", item)}
		}
		name = strings.TrimSpace(name)
		swift, w, err := typemap.MapResponse(name, raw)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, w...)
		fields = append(fields, Field{Name: name, Type: swift})
	}
	return fields, warnings, nil
}

// FromFields renders a single struct named name from a field list.
func FromFields(name string, fields []Field) (string, error) {
	props := make([]property, 0, len(fields))
	for _, f := range fields {
		p, err := newProperty(f.Name, f.Type)
		if err != nil {
			return "", err
		}
		props = append(props, p)
	}
	return structDefinition(name, props), nil
}

// FromPayload renders the structs describing data. Nested objects become
// <Parent><Key>, object array elements <Parent><Key>Item. Structs are emitted
// children first and joined by blank lines. A top-level array or scalar is
// wrapped in a single-value container struct.
func FromPayload(name string, data *yaml.Node) (string, []generr.Warning, error) {
	b := &builder{used: make(map[string]bool)}

	switch data.Kind {
	case yaml.MappingNode:
		root := b.unique(name)
		if err := b.object(root, data); err != nil {
			return "", nil, err
		}
	case yaml.SequenceNode:
		elem, err := b.element(data, name, "items")
		if err != nil {
			return "", nil, err
		}
		root := b.unique(name)
		b.structs = append(b.structs, singleValueStruct(root, "items", "["+elem+"]"))
	default:
		root := b.unique(name)
		b.structs = append(b.structs, singleValueStruct(root, "value", b.scalar(data, "value")))
	}
	return strings.Join(b.structs, "\n\n"), b.warnings, nil
}

// File wraps rendered structs into model file content.
func File(models string) string {
	return "import Foundation\n\n" + models + "\n"
}

type property struct {
	name     string
	swift    string
	original string
}

func newProperty(key, swift string) (property, error) {
	if !render.IsIdentifier(key) {
		return property{}, &generr.InvalidInputError{
			Field:  "response." + key,
			Reason: "field name is not a valid Swift identifier",
		}
	}
	return property{name: render.Escape(key), swift: swift, original: key}, nil
}

type builder struct {
	used     map[string]bool
	structs  []string
	warnings []generr.Warning
}

func (b *builder) unique(base string) string {
	if !b.used[base] {
		b.used[base] = true
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%d", base, i)
		if !b.used[candidate] {
			b.used[candidate] = true
			return candidate
		}
	}
}

func (b *builder) object(name string, node *yaml.Node) error {
	props := make([]property, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		swift, err := b.value(node.Content[i+1], name, key)
		if err != nil {
			return err
		}
		p, err := newProperty(key, swift)
		if err != nil {
			return err
		}
		props = append(props, p)
	}
	b.structs = append(b.structs, structDefinition(name, props))
	return nil
}

func (b *builder) value(node *yaml.Node, parent, key string) (string, error) {
	switch node.Kind {
	case yaml.MappingNode:
		child := b.unique(parent + typeName(key))
		if err := b.object(child, node); err != nil {
			return "", err
		}
		return child, nil
	case yaml.SequenceNode:
		elem, err := b.element(node, parent, key)
		if err != nil {
			return "", err
		}
		return "[" + elem + "]", nil
	case yaml.AliasNode:
		return b.value(node.Alias, parent, key)
	}
	return b.scalar(node, key), nil
}

// element infers an array's element type from its first non-null item.
func (b *builder) element(node *yaml.Node, parent, key string) (string, error) {
	var first *yaml.Node
	for _, item := range node.Content {
		if !isNull(item) {
			first = item
			break
		}
	}
	if first == nil {
		b.warn(key, fmt.Sprintf("empty array for key %q; defaulting to [String]", key))
		return typemap.Fallback, nil
	}

	switch first.Kind {
	case yaml.MappingNode:
		child := b.unique(parent + typeName(key) + "Item")
		if err := b.object(child, first); err != nil {
			return "", err
		}
		return child, nil
	case yaml.SequenceNode:
		nested, err := b.element(first, parent, key+"Item")
		if err != nil {
			return "", err
		}
		return "[" + nested + "]", nil
	}
	return b.scalar(first, key), nil
}

func (b *builder) scalar(node *yaml.Node, key string) string {
	switch node.ShortTag() {
	case "!!bool":
		return "Bool"
	case "!!int":
		return "Int"
	case "!!float":
		return "Double"
	case "!!str":
		return "String"
	}
	b.warn(key, fmt.Sprintf("null or unknown value for key %q; defaulting to %s", key, typemap.Fallback))
	return typemap.Fallback
}

func (b *builder) warn(key, msg string) {
	b.warnings = append(b.warnings, generr.Warning{Code: generr.ClarificationNeeded, Message: msg, Subject: key})
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// typeName turns a JSON key into a type name fragment.
func typeName(key string) string {
	name := naming.Pascal(key)
	if name == "" {
		return "Type"
	}
	if c := name[0]; c >= '0' && c <= '9' {
		return "Type" + name
	}
	return name
}

func structDefinition(name string, props []property) string {
	lines := []string{fmt.Sprintf("struct %s: Codable {", name)}
	needsKeys := false
	for _, p := range props {
		lines = append(lines, fmt.Sprintf("    let %s: %s?", p.name, p.swift))
		if p.name != p.original {
			needsKeys = true
		}
	}
	if needsKeys {
		lines = append(lines, "", "    private enum CodingKeys: String, CodingKey {")
		for _, p := range props {
			if p.name == p.original {
				lines = append(lines, "        case "+p.name)
			} else {
				lines = append(lines, fmt.Sprintf("        case %s = %q", p.name, p.original))
			}
		}
		lines = append(lines, "    }")
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}

func singleValueStruct(name, prop, swift string) string {
	return strings.Join([]string{
		fmt.Sprintf("struct %s: Codable {", name),
		fmt.Sprintf("    let %s: %s", prop, swift),
		"",
		fmt.Sprintf("    init(%s: %s) {", prop, swift),
		fmt.Sprintf("        self.%s = %s", prop, prop),
		"    }",
		"",
		"    init(from decoder: Decoder) throws {",
		"        let container = try decoder.singleValueContainer()",
		fmt.Sprintf("        %s = try container.decode(%s.self)", prop, swift),
		"    }",
		"",
		"    func encode(to encoder: Encoder) throws {",
		"        var container = encoder.singleValueContainer()",
		fmt.Sprintf("        try container.encode(%s)", prop),
		"    }",
		"}",
	}, "\n")
}
