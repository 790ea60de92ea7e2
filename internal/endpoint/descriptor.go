// SPDX-License-Identifier: AGPL-3.0-or-later

// Package endpoint holds the canonical shape of one extracted API operation.
package endpoint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bartekus/swiftreq/internal/generr"
)

// Method is an upper-case HTTP verb.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// ParseMethod upper-cases and trims s. It does not validate the verb.
func ParseMethod(s string) Method {
	return Method(strings.ToUpper(strings.TrimSpace(s)))
}

// Parameter is one request property. Name is kept exactly as declared.
type Parameter struct {
	Name         string `validate:"required"`
	DeclaredType string
	// ItemType is the declared element type when DeclaredType is an array.
	ItemType string
}

// Descriptor is the canonical endpoint tuple every later stage works from.
type Descriptor struct {
	Method     Method      `validate:"required,oneof=GET POST PUT DELETE PATCH HEAD OPTIONS"`
	Path       string      `validate:"required"`
	Summary    string      `validate:"required"`
	Domain     string      `validate:"required,hostname_rfc1123"`
	Parameters []Parameter `validate:"dive"`
	// Response is an example response body or "name:type" field list carried
	// by the definition, if any.
	Response string `validate:"-"`
}

var validate = validator.New()

// Validate checks the descriptor invariants and reports the first violation
// as an InvalidInputError (or MissingFieldError for empty required fields).
func (d *Descriptor) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating descriptor: %w", err)
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	if fe.Tag() == "required" {
		return &generr.MissingFieldError{Field: field}
	}
	return &generr.InvalidInputError{
		Field:  field,
		Reason: fmt.Sprintf("%q fails %s", fmt.Sprint(fe.Value()), describeTag(fe.Tag(), fe.Param())),
	}
}

func describeTag(tag, param string) string {
	switch tag {
	case "oneof":
		return "must be one of: " + param
	case "hostname_rfc1123":
		return "must be a valid hostname"
	default:
		return tag
	}
}
