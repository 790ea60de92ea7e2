// SPDX-License-Identifier: AGPL-3.0-or-later
package clierr

import (
	"errors"
	"fmt"

	"github.com/bartekus/swiftreq/internal/generr"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitInternal    = 1
	ExitInput       = 2
	ExitCorrupt     = 3
	ExitBoilerplate = 4
)

type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError is an error that carries an explicit process exit code.
// It supports wrapping via Unwrap so errors.Is/As work as expected.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

// Unwrap enables errors.Is/As to traverse the underlying cause.
func (e *ExitError) Unwrap() error { return e.cause }

// New creates an ExitError with a message.
func New(code int, msg string) error {
	return &ExitError{code: normalize(code), msg: msg}
}

// Wrap creates an ExitError that wraps an underlying cause.
func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return New(code, msg)
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// ExitCodeOf extracts an exit code from any error. An explicit ExitCoder
// wins; otherwise the generation error taxonomy decides, defaulting to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}

	var (
		missing     *generr.MissingFieldError
		ambiguous   *generr.AmbiguousInputError
		invalid     *generr.InvalidInputError
		registry    *generr.RegistryCorruptError
		manifest    *generr.ManifestCorruptError
		boilerplate *generr.BoilerplateMismatchError
	)
	switch {
	case errors.As(err, &missing), errors.As(err, &ambiguous), errors.As(err, &invalid):
		return ExitInput
	case errors.As(err, &registry), errors.As(err, &manifest):
		return ExitCorrupt
	case errors.As(err, &boilerplate):
		return ExitBoilerplate
	}
	return ExitInternal
}

func normalize(code int) int {
	// Exit code 0 means success; errors should never be 0.
	if code <= 0 {
		return ExitInternal
	}
	return code
}
