// SPDX-License-Identifier: AGPL-3.0-or-later
package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	version "github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/bartekus/swiftreq/internal/endpoint"
	"github.com/bartekus/swiftreq/internal/generr"
)

var (
	openAPIVersions = version.MustConstraints(version.NewConstraint(">= 3.0, < 4.0"))
	swaggerVersions = version.MustConstraints(version.NewConstraint(">= 2.0, < 3.0"))
)

// Media types tried in order before any other request body content.
var preferredMedia = []string{"application/json", "*/*"}

type operation struct {
	path   string
	method string
	item   *openapi3.PathItem
	op     *openapi3.Operation
}

func (o operation) String() string { return o.method + " " + o.path }

func fromOpenAPI(doc []byte, root *yaml.Node, kind Kind, ov Overrides) (draft, []generr.Warning, error) {
	t, err := load(doc, root, kind)
	if err != nil {
		return draft{}, nil, err
	}

	op, err := pick(operations(t), ov)
	if err != nil {
		return draft{}, nil, err
	}

	var d draft
	if op == nil {
		d.server = firstServer(t.Servers)
		return d, nil, nil
	}

	d.method = op.method
	d.path = op.path
	d.summary = strings.TrimSpace(op.op.Summary)
	if d.summary == "" {
		d.summary = strings.TrimSpace(op.op.Description)
	}
	d.server = serverFor(t, op)
	d.params = parameters(op, root)
	return d, nil, nil
}

// load parses doc with the loader matching its declared version. Swagger 2
// documents are converted to OpenAPI 3.
func load(doc []byte, root *yaml.Node, kind Kind) (*openapi3.T, error) {
	if kind == KindSwagger {
		if err := checkVersion("swagger", lookup(root, "swagger"), swaggerVersions); err != nil {
			return nil, err
		}
		raw, err := json.Marshal(plain(root))
		if err != nil {
			return nil, fmt.Errorf("re-encoding swagger document: %w", err)
		}
		var doc2 openapi2.T
		if err := json.Unmarshal(raw, &doc2); err != nil {
			return nil, &generr.InvalidInputError{Field: "document", Reason: err.Error()}
		}
		doc3, err := openapi2conv.ToV3(&doc2)
		if err != nil {
			return nil, &generr.InvalidInputError{Field: "document", Reason: err.Error()}
		}
		return doc3, nil
	}

	if v := lookup(root, "openapi"); v != nil {
		if err := checkVersion("openapi", v, openAPIVersions); err != nil {
			return nil, err
		}
	}
	t, err := openapi3.NewLoader().LoadFromData(doc)
	if err != nil {
		return nil, &generr.InvalidInputError{Field: "document", Reason: err.Error()}
	}
	return t, nil
}

func checkVersion(field string, node *yaml.Node, allowed version.Constraints) error {
	raw := strings.TrimSpace(node.Value)
	v, err := version.NewVersion(raw)
	if err != nil {
		return &generr.InvalidInputError{Field: field, Reason: fmt.Sprintf("%q is not a version", raw)}
	}
	if !allowed.Check(v) {
		return &generr.InvalidInputError{Field: field, Reason: fmt.Sprintf("version %s is not supported (want %s)", raw, allowed)}
	}
	return nil
}

// operations lists every path/verb pair sorted by path, then verb.
func operations(t *openapi3.T) []operation {
	if t.Paths == nil {
		return nil
	}
	var ops []operation
	for path, item := range t.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			ops = append(ops, operation{path: path, method: method, item: item, op: op})
		}
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].path != ops[j].path {
			return ops[i].path < ops[j].path
		}
		return ops[i].method < ops[j].method
	})
	return ops
}

// pick selects the operation to describe. A document with a single operation
// always yields it; overrides then replace its method or path. With several
// operations the path and method overrides narrow the set, and nil is
// returned when they name an operation the document does not define, so the
// descriptor is built from the overrides alone.
func pick(ops []operation, ov Overrides) (*operation, error) {
	if len(ops) == 1 {
		return &ops[0], nil
	}

	method := string(endpoint.ParseMethod(ov.Method))
	var matched []operation
	for _, o := range ops {
		if ov.Path != "" && o.path != ov.Path {
			continue
		}
		if method != "" && o.method != method {
			continue
		}
		matched = append(matched, o)
	}

	switch len(matched) {
	case 1:
		return &matched[0], nil
	case 0:
		if ov.Path != "" && method != "" {
			return nil, nil
		}
		if ov.Path == "" {
			return nil, &generr.MissingFieldError{Field: "path"}
		}
		return nil, &generr.MissingFieldError{Field: "method"}
	}

	names := make([]string, len(matched))
	for i, o := range matched {
		names[i] = o.String()
	}
	field := "operation"
	if ov.Path != "" {
		field = "method"
	}
	return nil, &generr.AmbiguousInputError{Field: field, Candidates: names}
}

// serverFor prefers operation servers, then path servers, then document servers.
func serverFor(t *openapi3.T, o *operation) string {
	if o.op.Servers != nil {
		if s := firstServer(*o.op.Servers); s != "" {
			return s
		}
	}
	if s := firstServer(o.item.Servers); s != "" {
		return s
	}
	return firstServer(t.Servers)
}

// firstServer returns the first server URL with variables replaced by their defaults.
func firstServer(servers openapi3.Servers) string {
	for _, s := range servers {
		if s == nil || s.URL == "" {
			continue
		}
		u := s.URL
		for name, v := range s.Variables {
			if v != nil {
				u = strings.ReplaceAll(u, "{"+name+"}", v.Default)
			}
		}
		return u
	}
	return ""
}

// parameters lists operation parameters, then path-level parameters, then
// request body properties. Header and cookie parameters are not request
// properties and are skipped.
func parameters(o *operation, root *yaml.Node) []endpoint.Parameter {
	var out []endpoint.Parameter
	for _, list := range []openapi3.Parameters{o.op.Parameters, o.item.Parameters} {
		for _, ref := range list {
			if ref == nil || ref.Value == nil {
				continue
			}
			p := ref.Value
			if p.In == openapi3.ParameterInHeader || p.In == openapi3.ParameterInCookie {
				continue
			}
			out = append(out, fromSchema(p.Name, p.Schema))
		}
	}

	body := bodySchema(o.op)
	if body == nil || len(body.Properties) == 0 {
		return out
	}
	names := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		names = append(names, name)
	}
	for _, name := range documentOrder(root, names) {
		out = append(out, fromSchema(name, body.Properties[name]))
	}
	return out
}

func bodySchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mt := range preferredMedia {
		if m := content[mt]; m != nil && m.Schema != nil && m.Schema.Value != nil {
			return m.Schema.Value
		}
	}
	types := make([]string, 0, len(content))
	for mt := range content {
		types = append(types, mt)
	}
	sort.Strings(types)
	for _, mt := range types {
		if m := content[mt]; m != nil && m.Schema != nil && m.Schema.Value != nil {
			return m.Schema.Value
		}
	}
	return nil
}

func fromSchema(name string, ref *openapi3.SchemaRef) endpoint.Parameter {
	p := endpoint.Parameter{Name: name, DeclaredType: "unknown"}
	if ref == nil || ref.Value == nil {
		return p
	}
	if typ := firstType(ref.Value.Type); typ != "" {
		p.DeclaredType = typ
	}
	if p.DeclaredType == openapi3.TypeArray && ref.Value.Items != nil && ref.Value.Items.Value != nil {
		p.ItemType = firstType(ref.Value.Items.Value.Type)
	}
	return p
}

// firstType returns the first non-null type of a schema.
func firstType(types *openapi3.Types) string {
	for _, t := range types.Slice() {
		if t != openapi3.TypeNull {
			return t
		}
	}
	return ""
}
