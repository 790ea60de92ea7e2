// SPDX-License-Identifier: AGPL-3.0-or-later
package typemap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/swiftreq/internal/generr"
)

func TestMapParam(t *testing.T) {
	tests := []struct {
		declared string
		hint     string
		want     string
	}{
		{declared: "string", want: "String"},
		{declared: "int", want: "Int"},
		{declared: "Integer", want: "Int"},
		{declared: "long", want: "Int64"},
		{declared: "float", want: "Double"},
		{declared: "double", want: "Double"},
		{declared: "number", want: "Double"},
		{declared: "bool", want: "Bool"},
		{declared: "BOOLEAN", want: "Bool"},
		{declared: "array", want: "[Any]"},
		{declared: "array", hint: "string", want: "[String]"},
		{declared: "array", hint: "integer", want: "[Any]"},
		{declared: "object", want: "[String: Any]"},
		{declared: "map", want: "[String: Any]"},
		{declared: " dict ", want: "[String: Any]"},
	}

	for _, tt := range tests {
		t.Run(tt.declared+"/"+tt.hint, func(t *testing.T) {
			got, w := MapParam("p", tt.declared, tt.hint)
			assert.Equal(t, tt.want, got)
			assert.Nil(t, w)
		})
	}
}

func TestMapParam_CountIsInt(t *testing.T) {
	got, w := MapParam("count", "int", "")
	assert.Equal(t, "Int", got)
	assert.Nil(t, w)
}

func TestMapParam_UnknownFallsBackWithWarning(t *testing.T) {
	got, w := MapParam("location", "geo", "")
	assert.Equal(t, "String", got)
	require.NotNil(t, w)
	assert.Equal(t, generr.ClarificationNeeded, w.Code)
	assert.Equal(t, "location", w.Subject)
	assert.Contains(t, w.Message, `"geo"`)
	assert.Contains(t, w.Message, `"location"`)
}

func TestMapParam_IsTotal(t *testing.T) {
	for _, declared := range []string{"", "unknown", "uuid", "date-time", "[]", "ARRAY<int>", "🙂"} {
		got, _ := MapParam("x", declared, "")
		assert.NotEmpty(t, got, "declared %q", declared)
	}
}

func TestMapResponse(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "string", want: "String"},
		{raw: "long", want: "Int64"},
		{raw: "int[]", want: "[Int]"},
		{raw: "array<bool>", want: "[Bool]"},
		{raw: "[number]", want: "[Double]"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, w, err := MapResponse("f", tt.raw)
			require.NoError(t, err)
			assert.Empty(t, w)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapResponse_Errors(t *testing.T) {
	for _, raw := range []string{"array", "list", "object", "map", "dict"} {
		_, _, err := MapResponse("items", raw)
		var ie *generr.InvalidInputError
		require.True(t, errors.As(err, &ie), "raw %q", raw)
		assert.Equal(t, "response.items", ie.Field)
	}
}

func TestMapResponse_UnknownScalar(t *testing.T) {
	got, w, err := MapResponse("when", "timestamp[]")
	require.NoError(t, err)
	assert.Equal(t, "[String]", got)
	require.Len(t, w, 1)
	assert.Equal(t, "when", w[0].Subject)
}
