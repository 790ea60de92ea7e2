// SPDX-License-Identifier: AGPL-3.0-or-later

// Package typemap maps declared parameter and response types to Swift types.
package typemap

import (
	"fmt"
	"strings"

	"github.com/bartekus/swiftreq/internal/generr"
)

// Fallback is used for any declared type the tables do not recognize.
const Fallback = "String"

var paramTypes = map[string]string{
	"string":  "String",
	"int":     "Int",
	"integer": "Int",
	"long":    "Int64",
	"float":   "Double",
	"double":  "Double",
	"number":  "Double",
	"bool":    "Bool",
	"boolean": "Bool",
	"array":   "[Any]",
	"object":  "[String: Any]",
	"map":     "[String: Any]",
	"dict":    "[String: Any]",
}

var scalarTypes = map[string]string{
	"string":  "String",
	"int":     "Int",
	"integer": "Int",
	"long":    "Int64",
	"float":   "Double",
	"double":  "Double",
	"number":  "Double",
	"bool":    "Bool",
	"boolean": "Bool",
}

// MapParam returns the Swift type for a request parameter. The result is never
// empty: unknown types fall back to String and come with a ClarificationNeeded
// warning naming the parameter. Callers render the type as optional.
func MapParam(name, declared, itemHint string) (string, *generr.Warning) {
	key := strings.ToLower(strings.TrimSpace(declared))
	if key == "array" && strings.EqualFold(strings.TrimSpace(itemHint), "string") {
		return "[String]", nil
	}
	if swift, ok := paramTypes[key]; ok {
		return swift, nil
	}
	return Fallback, &generr.Warning{
		Code:    generr.ClarificationNeeded,
		Message: fmt.Sprintf("parameter %q has unknown type %q; emitted as %s, please confirm", name, declared, Fallback),
		Subject: name,
	}
}

// MapResponse maps a response field type. It accepts the element notations
// "T[]", "array<T>" and "[T]". Bare container types are rejected because the
// element or member types cannot be inferred from the name alone.
func MapResponse(field, raw string) (string, []generr.Warning, error) {
	key := strings.ToLower(strings.TrimSpace(raw))

	if inner, ok := elementType(key); ok {
		swift, w := mapScalar(field, inner)
		return "[" + swift + "]", w, nil
	}

	switch key {
	case "array", "list":
		return "", nil, &generr.InvalidInputError{
			Field:  "response." + field,
			Reason: "array type requires an element type, e.g. items:[string] or items:array<int>",
		}
	case "object", "map", "dict":
		return "", nil, &generr.InvalidInputError{
			Field:  "response." + field,
			Reason: "object type requires a JSON example payload",
		}
	}

	swift, w := mapScalar(field, key)
	return swift, w, nil
}

func elementType(key string) (string, bool) {
	switch {
	case strings.HasSuffix(key, "[]"):
		return strings.TrimSuffix(key, "[]"), true
	case strings.HasPrefix(key, "array<") && strings.HasSuffix(key, ">"):
		return key[len("array<") : len(key)-1], true
	case strings.HasPrefix(key, "[") && strings.HasSuffix(key, "]"):
		return key[1 : len(key)-1], true
	}
	return "", false
}

func mapScalar(field, key string) (string, []generr.Warning) {
	if swift, ok := scalarTypes[key]; ok {
		return swift, nil
	}
	return Fallback, []generr.Warning{{
		Code:    generr.ClarificationNeeded,
		Message: fmt.Sprintf("response field %q has unknown type %q; defaulting to %s", field, key, Fallback),
		Subject: field,
	}}
}
