// SPDX-License-Identifier: AGPL-3.0-or-later
package extract

import (
	"fmt"
	"strings"

	"github.com/bartekus/swiftreq/internal/endpoint"
	"github.com/bartekus/swiftreq/internal/generr"
)

// ParseParams parses a comma-separated "name:type" list. Array types may name
// their element type as "T[]", "array<T>" or "[T]".
func ParseParams(s string) ([]endpoint.Parameter, error) {
	var out []endpoint.Parameter
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, typ, ok := strings.Cut(item, ":")
		if !ok {
			return nil, &generr.InvalidInputError{Field: "params", Reason: fmt.Sprintf("parameter %q has no type", item)}
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &generr.InvalidInputError{Field: "params", Reason: fmt.Sprintf("parameter %q has no name", item)}
		}
		out = append(out, parseParam(name, typ))
	}
	return out, nil
}

func parseParam(name, declared string) endpoint.Parameter {
	declared = strings.TrimSpace(declared)
	lower := strings.ToLower(declared)
	switch {
	case strings.HasSuffix(lower, "[]") && len(lower) > 2:
		return endpoint.Parameter{Name: name, DeclaredType: "array", ItemType: declared[:len(declared)-2]}
	case strings.HasPrefix(lower, "array<") && strings.HasSuffix(lower, ">"):
		return endpoint.Parameter{Name: name, DeclaredType: "array", ItemType: declared[len("array<") : len(declared)-1]}
	case strings.HasPrefix(lower, "[") && strings.HasSuffix(lower, "]") && len(lower) > 2:
		return endpoint.Parameter{Name: name, DeclaredType: "array", ItemType: declared[1 : len(declared)-1]}
	}
	return endpoint.Parameter{Name: name, DeclaredType: declared}
}
