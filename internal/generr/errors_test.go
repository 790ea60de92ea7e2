// SPDX-License-Identifier: AGPL-3.0-or-later
package generr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsAreMatchableThroughWrapping(t *testing.T) {
	base := &MissingFieldError{Field: "summary"}
	wrapped := fmt.Errorf("extracting definition: %w", base)

	var mf *MissingFieldError
	require.True(t, errors.As(wrapped, &mf))
	assert.Equal(t, "summary", mf.Field)
	assert.Contains(t, wrapped.Error(), `"summary"`)
}

func TestAmbiguousInputError_ListsCandidates(t *testing.T) {
	err := &AmbiguousInputError{Field: "operation", Candidates: []string{"GET /a", "POST /b"}}
	assert.Equal(t, "ambiguous operation: 2 candidates (GET /a, POST /b); pass an override to choose one", err.Error())
}

func TestWarning_String(t *testing.T) {
	w := Warning{Code: ClarificationNeeded, Message: `parameter "loc" has unknown type "geo"`, Subject: "loc"}
	assert.Equal(t, `ClarificationNeeded: parameter "loc" has unknown type "geo"`, w.String())
}
