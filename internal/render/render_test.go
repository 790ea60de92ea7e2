// SPDX-License-Identifier: AGPL-3.0-or-later
package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/swiftreq/internal/endpoint"
	"github.com/bartekus/swiftreq/internal/generr"
	"github.com/bartekus/swiftreq/internal/testutil/golden"
)

func TestRequestFile_Golden(t *testing.T) {
	tests := []struct {
		name      string
		className string
		host      string
		path      string
		props     []Property
		method    endpoint.Method
	}{
		{
			name:      "post_request",
			className: "VoiceGuideClosePopRequest",
			host:      "live",
			path:      "voiceGuideClosePop",
			props:     []Property{{Name: "count", Type: "Int"}, {Name: "location", Type: "String"}},
			method:    endpoint.MethodPost,
		},
		{
			name:      "get_request",
			className: "UserSearchRequest",
			host:      "passport",
			path:      "userSearch",
			props:     []Property{{Name: "keyword", Type: "String"}, {Name: "class", Type: "[String]"}},
			method:    endpoint.MethodGet,
		},
		{
			name:      "empty_request",
			className: "RoomListRequest",
			host:      "live",
			path:      "roomList",
			method:    endpoint.MethodDelete,
		},
	}

	dir := golden.TestdataDir(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := RequestClass(tt.className, tt.host, tt.path, tt.props)
			usage := UsageSnippet(tt.className, tt.props, tt.method)
			require.NoError(t, VerifyBoilerplate(class, usage))
			golden.Assert(t, dir, tt.name, RequestFile(class, usage))
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	props := []Property{{Name: "count", Type: "Int"}}
	a := RequestClass("ARequest", "live", "a", props) + UsageSnippet("ARequest", props, endpoint.MethodPost)
	b := RequestClass("ARequest", "live", "a", props) + UsageSnippet("ARequest", props, endpoint.MethodPost)
	assert.Equal(t, a, b)
}

func TestUsageSnippet_NonGetVerbsPostJSON(t *testing.T) {
	for _, m := range []endpoint.Method{endpoint.MethodPost, endpoint.MethodPut, endpoint.MethodPatch, endpoint.MethodDelete} {
		assert.Contains(t, UsageSnippet("X", nil, m), "postJSONRequestInfo", "method %s", m)
	}
	assert.Contains(t, UsageSnippet("X", nil, endpoint.MethodGet), "getRequestInfo")
}

func TestVerifyBoilerplate_Mismatch(t *testing.T) {
	class := RequestClass("ARequest", "live", "a", nil)
	usage := UsageSnippet("ARequest", nil, endpoint.MethodGet)

	tests := []struct {
		name  string
		class string
		usage string
		block string
	}{
		{
			name:  "import",
			class: strings.Replace(class, ImportLine, "import Foundation", 1),
			usage: usage,
			block: BlockImport,
		},
		{
			name:  "params spacing",
			class: strings.Replace(class, "[AnyHashable : Any]", "[AnyHashable: Any]", 1),
			usage: usage,
			block: BlockParams,
		},
		{
			name:  "params missing",
			class: strings.Replace(class, ParamsOverride, "", 1),
			usage: usage,
			block: BlockParams,
		},
		{
			name:  "error line missing",
			class: class,
			usage: strings.Replace(usage, ErrorLogLine+"\n", "", 1),
			block: BlockError,
		},
		{
			name:  "error line",
			class: class,
			usage: strings.Replace(usage, `" error `, `"error `, 1),
			block: BlockError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyBoilerplate(tt.class, tt.usage)
			var be *generr.BoilerplateMismatchError
			require.True(t, errors.As(err, &be), "got %v", err)
			assert.Equal(t, tt.block, be.Block)
			assert.NotEqual(t, be.Want, be.Got)
		})
	}
}

func TestVerifyBoilerplate_ParameterNamedLikeFixedBlock(t *testing.T) {
	props := []Property{
		{Name: "DDLogError", Type: "String"},
		{Name: "params", Type: "String"},
		{Name: "override", Type: "Bool"},
	}
	for _, m := range []endpoint.Method{endpoint.MethodGet, endpoint.MethodPost} {
		class := RequestClass("LogRequest", "live", "log", props)
		usage := UsageSnippet("LogRequest", props, m)
		require.Contains(t, usage, "//     request.DDLogError = <#DDLogError#>")
		assert.NoError(t, VerifyBoilerplate(class, usage), "method %s", m)
	}
}

func TestUsageSnippet_EscapesMemberKeywords(t *testing.T) {
	props := []Property{{Name: "self", Type: "String"}, {Name: "Type", Type: "Int"}, {Name: "init", Type: "Bool"}, {Name: "class", Type: "String"}}
	usage := UsageSnippet("KRequest", props, endpoint.MethodGet)

	assert.Contains(t, usage, "//     request.`self` = <#self#>")
	assert.Contains(t, usage, "//     request.`Type` = <#Type#>")
	assert.Contains(t, usage, "//     request.`init` = <#init#>")
	assert.Contains(t, usage, "//     request.class = <#class#>")
	assert.NoError(t, VerifyBoilerplate(RequestClass("KRequest", "live", "k", props), usage))
}

func TestEscapeMember(t *testing.T) {
	assert.Equal(t, "`self`", EscapeMember("self"))
	assert.Equal(t, "class", EscapeMember("class"))
	assert.Equal(t, "userId", EscapeMember("userId"))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "`class`", Escape("class"))
	assert.Equal(t, "`Type`", Escape("Type"))
	assert.Equal(t, "type", Escape("type"))
	assert.Equal(t, "userId", Escape("userId"))
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("user_id"))
	assert.True(t, IsIdentifier("_x1"))
	assert.False(t, IsIdentifier("1x"))
	assert.False(t, IsIdentifier("user-id"))
	assert.False(t, IsIdentifier(""))
}
