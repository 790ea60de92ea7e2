// SPDX-License-Identifier: AGPL-3.0-or-later

// Package generr defines the error taxonomy shared by the generation pipeline.
//
// Every error here is terminal for a generation attempt and is raised before any
// file is written. Warnings are collected separately and never stop generation.
package generr

import (
	"fmt"
	"strings"
)

// MissingFieldError reports a required field that is neither present in the
// input document nor supplied as an override.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q (not found in the definition and no override given)", e.Field)
}

// AmbiguousInputError reports a field with more than one candidate value.
type AmbiguousInputError struct {
	Field      string
	Candidates []string
}

func (e *AmbiguousInputError) Error() string {
	return fmt.Sprintf("ambiguous %s: %d candidates (%s); pass an override to choose one",
		e.Field, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// InvalidInputError reports a value that is present but malformed.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RegistryCorruptError reports a host/path registry that does not have the
// expected section structure.
type RegistryCorruptError struct {
	Path   string
	Reason string
}

func (e *RegistryCorruptError) Error() string {
	return fmt.Sprintf("registry %s is not in the expected shape: %s", e.Path, e.Reason)
}

// ManifestCorruptError reports a project manifest that cannot be parsed into
// its expected structure.
type ManifestCorruptError struct {
	Path   string
	Reason string
}

func (e *ManifestCorruptError) Error() string {
	return fmt.Sprintf("manifest %s is not in the expected shape: %s", e.Path, e.Reason)
}

// BoilerplateMismatchError reports a rendered fixed block that differs from
// its canonical text.
type BoilerplateMismatchError struct {
	Block string
	Got   string
	Want  string
}

func (e *BoilerplateMismatchError) Error() string {
	return fmt.Sprintf("rendered %s block does not match canonical boilerplate:\ngot:\n%s\nwant:\n%s", e.Block, e.Got, e.Want)
}

// WarningCode classifies a non-fatal finding.
type WarningCode string

const (
	// ClarificationNeeded marks input the caller should review by hand,
	// such as an unrecognized parameter type.
	ClarificationNeeded WarningCode = "ClarificationNeeded"
	// GroupSkipped marks a manifest group insertion that was skipped.
	GroupSkipped WarningCode = "GroupSkipped"
	// NoResponseData marks a response payload without a data member.
	NoResponseData WarningCode = "NoResponseData"
)

// Warning is a non-fatal finding surfaced alongside a successful result.
type Warning struct {
	Code WarningCode

	// Message is a human-readable description.
	Message string

	// Subject is the parameter, field or file that triggered the warning, if any.
	Subject string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}
