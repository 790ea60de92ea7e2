// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract turns an interface definition into an endpoint.Descriptor.
//
// Three inputs are understood: an OpenAPI 3 document, a Swagger 2 document
// (converted to OpenAPI 3 on load) and a flat summary with the keys method,
// path, summary, server, params and response. Any field can be supplied or
// replaced through Overrides, and an empty document is valid when the
// overrides carry every required field.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bartekus/swiftreq/internal/endpoint"
	"github.com/bartekus/swiftreq/internal/generr"
)

// Overrides are explicit values that take precedence over the document.
type Overrides struct {
	Method  string
	Path    string
	Summary string
	// Server is a URL or bare hostname.
	Server string
	// Params is a "name:type,..." list. When set it replaces every document
	// parameter.
	Params string
}

// Kind is the detected document flavour.
type Kind string

const (
	KindEmpty   Kind = "empty"
	KindFlat    Kind = "flat"
	KindOpenAPI Kind = "openapi3"
	KindSwagger Kind = "swagger2"
)

// draft is the descriptor under construction before overrides and validation.
type draft struct {
	method   string
	path     string
	summary  string
	server   string
	params   []endpoint.Parameter
	response string
}

// Extract reads doc, applies ov and validates the result. Required-field and
// ambiguity failures are returned as generr errors; nothing is written.
func Extract(doc []byte, ov Overrides) (*endpoint.Descriptor, []generr.Warning, error) {
	root, kind, err := Detect(doc)
	if err != nil {
		return nil, nil, err
	}

	var (
		d        draft
		warnings []generr.Warning
	)
	switch kind {
	case KindOpenAPI, KindSwagger:
		d, warnings, err = fromOpenAPI(doc, root, kind, ov)
	case KindFlat:
		d, err = fromFlat(root)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := d.apply(ov); err != nil {
		return nil, nil, err
	}
	params, dupWarnings := dedupe(d.params)
	warnings = append(warnings, dupWarnings...)

	domain := ""
	if d.server != "" {
		if domain, err = hostOf(d.server); err != nil {
			return nil, nil, err
		}
	}

	desc := &endpoint.Descriptor{
		Method:     endpoint.ParseMethod(d.method),
		Path:       strings.TrimSpace(d.path),
		Summary:    strings.TrimSpace(d.summary),
		Domain:     domain,
		Parameters: params,
		Response:   d.response,
	}
	if err := desc.Validate(); err != nil {
		return nil, nil, err
	}
	return desc, warnings, nil
}

// Detect decodes doc and reports which kind of definition it is.
func Detect(doc []byte) (*yaml.Node, Kind, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, KindEmpty, nil
	}
	var n yaml.Node
	if err := yaml.Unmarshal(doc, &n); err != nil {
		return nil, "", &generr.InvalidInputError{Field: "document", Reason: err.Error()}
	}
	if n.Kind != yaml.DocumentNode || len(n.Content) == 0 {
		return nil, KindEmpty, nil
	}
	root := n.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, "", &generr.InvalidInputError{Field: "document", Reason: "top level must be a mapping"}
	}
	switch {
	case lookup(root, "swagger") != nil:
		return root, KindSwagger, nil
	case lookup(root, "openapi") != nil, lookup(root, "paths") != nil:
		return root, KindOpenAPI, nil
	}
	return root, KindFlat, nil
}

func (d *draft) apply(ov Overrides) error {
	if ov.Method != "" {
		d.method = ov.Method
	}
	if ov.Path != "" {
		d.path = ov.Path
	}
	if ov.Summary != "" {
		d.summary = ov.Summary
	}
	if ov.Server != "" {
		d.server = ov.Server
	}
	if ov.Params != "" {
		params, err := ParseParams(ov.Params)
		if err != nil {
			return err
		}
		d.params = params
	}
	return nil
}

// hostOf returns the host of a server URL or bare hostname, without scheme,
// port or path.
func hostOf(server string) (string, error) {
	raw := strings.TrimSpace(server)
	if !strings.Contains(raw, "://") {
		raw = "//" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", &generr.InvalidInputError{Field: "server", Reason: err.Error()}
	}
	host := u.Hostname()
	if host == "" {
		return "", &generr.InvalidInputError{Field: "server", Reason: fmt.Sprintf("%q has no host", server)}
	}
	return strings.ToLower(host), nil
}

// dedupe keeps the first parameter of each name.
func dedupe(params []endpoint.Parameter) ([]endpoint.Parameter, []generr.Warning) {
	seen := make(map[string]bool, len(params))
	out := make([]endpoint.Parameter, 0, len(params))
	var warnings []generr.Warning
	for _, p := range params {
		if seen[p.Name] {
			warnings = append(warnings, generr.Warning{
				Code:    generr.ClarificationNeeded,
				Message: fmt.Sprintf("parameter %q is declared more than once; keeping the first declaration", p.Name),
				Subject: p.Name,
			})
			continue
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	return out, warnings
}

// lookup returns the value node for key in a mapping node.
func lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
