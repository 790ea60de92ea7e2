// SPDX-License-Identifier: AGPL-3.0-or-later
package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/swiftreq/internal/generr"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "HostPath.swift"))
	require.NoError(t, err)
	return data
}

func TestParse_Entries(t *testing.T) {
	reg, err := Parse("HostPath.swift", loadFixture(t))
	require.NoError(t, err)

	hosts := reg.Entries(KindHost)
	require.Len(t, hosts, 2)
	assert.Equal(t, Entry{Kind: KindHost, Identifier: "live", RawValue: "live.huajiao.com"}, hosts[0])

	paths := reg.Entries(KindPath)
	require.Len(t, paths, 2)
	assert.Equal(t, "voiceGuideClosePop", paths[1].Identifier)
	assert.Equal(t, "关闭引导弹窗", paths[1].Comment)
	assert.False(t, reg.Changed())
}

func TestEnsurePath_AppendsDocumentedEntry(t *testing.T) {
	original := loadFixture(t)
	reg, err := Parse("HostPath.swift", original)
	require.NoError(t, err)

	e, created, err := reg.EnsurePath("/user/search", "用户搜索")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "userSearch", e.Identifier)
	assert.Equal(t, "用户搜索", e.Comment)

	inserted := "\n\n    /// 用户搜索\n    static let userSearch = Path(rawValue: \"/user/search\")"
	got := string(reg.Bytes())
	assert.Contains(t, got, "close_pop\")"+inserted+"\n}\n\nstruct HostPath {")
	assert.Equal(t, string(original), strings.Replace(got, inserted, "", 1), "unrelated content must be preserved")
}

func TestEnsureHost_AppendsAtSectionEnd(t *testing.T) {
	original := loadFixture(t)
	reg, err := Parse("HostPath.swift", original)
	require.NoError(t, err)

	e, created, err := reg.EnsureHost("payment.yuanqijiaoyou.com")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "payment", e.Identifier)
	assert.Empty(t, e.Comment)

	inserted := "\n    static let payment = Host(rawValue: \"payment.yuanqijiaoyou.com\")"
	got := string(reg.Bytes())
	assert.Contains(t, got, "passport.huajiao.com\")"+inserted+"\n}\n")
	assert.Equal(t, string(original), strings.Replace(got, inserted, "", 1))
}

func TestEnsure_ExistingEntriesAreReturned(t *testing.T) {
	reg, err := Parse("HostPath.swift", loadFixture(t))
	require.NoError(t, err)

	host, created, err := reg.EnsureHost("passport.huajiao.com")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "passport", host.Identifier)

	path, created, err := reg.EnsurePath("/voice/guide/close_pop", "ignored summary")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "voiceGuideClosePop", path.Identifier)
	assert.Equal(t, "关闭引导弹窗", path.Comment)

	assert.False(t, reg.Changed())
	assert.Equal(t, loadFixture(t), reg.Bytes())
}

func TestEnsure_Idempotent(t *testing.T) {
	first, err := Parse("HostPath.swift", loadFixture(t))
	require.NoError(t, err)
	h1, _, err := first.EnsureHost("payment.yuanqijiaoyou.com")
	require.NoError(t, err)
	p1, _, err := first.EnsurePath("/user/search", "用户搜索")
	require.NoError(t, err)
	afterFirst := first.Bytes()

	second, err := Parse("HostPath.swift", afterFirst)
	require.NoError(t, err)
	h2, created, err := second.EnsureHost("payment.yuanqijiaoyou.com")
	require.NoError(t, err)
	assert.False(t, created)
	p2, created, err := second.EnsurePath("/user/search", "用户搜索")
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, h1, h2)
	assert.Equal(t, p1, p2)
	assert.Equal(t, string(afterFirst), string(second.Bytes()))
}

func TestEnsureHost_DisambiguatesCollidingKey(t *testing.T) {
	reg, err := Parse("HostPath.swift", loadFixture(t))
	require.NoError(t, err)

	e, _, err := reg.EnsureHost("passport.yuanqijiaoyou.com")
	require.NoError(t, err)
	assert.Equal(t, "passportYuanqijiaoyou", e.Identifier)
}

func TestEnsurePath_DisambiguatesCollidingKey(t *testing.T) {
	reg, err := Parse("HostPath.swift", loadFixture(t))
	require.NoError(t, err)

	e, _, err := reg.EnsurePath("/live/room_info", "房间信息")
	require.NoError(t, err)
	assert.Equal(t, "liveRoomInfo2", e.Identifier)
}

func TestEnsure_EmptySections(t *testing.T) {
	content := "extension Host {\n}\n\nextension Path {\n}\n"
	reg, err := Parse("HostPath.swift", []byte(content))
	require.NoError(t, err)

	_, _, err = reg.EnsureHost("live.huajiao.com")
	require.NoError(t, err)
	_, _, err = reg.EnsurePath("/a/b", "")
	require.NoError(t, err)

	want := "extension Host {\n    static let live = Host(rawValue: \"live.huajiao.com\")\n}\n\nextension Path {\n    static let aB = Path(rawValue: \"/a/b\")\n}\n"
	assert.Equal(t, want, string(reg.Bytes()))
}

func TestEnsure_KeepsSectionIndentation(t *testing.T) {
	content := "extension Host {\n\tstatic let live = Host(rawValue: \"live.huajiao.com\")\n}\n\nextension Path {\n}\n"
	reg, err := Parse("HostPath.swift", []byte(content))
	require.NoError(t, err)

	_, _, err = reg.EnsureHost("payment.yuanqijiaoyou.com")
	require.NoError(t, err)
	assert.Contains(t, string(reg.Bytes()), "\n\tstatic let payment = Host(rawValue: \"payment.yuanqijiaoyou.com\")\n}")
}

func TestEnsure_RejectsUnquotableValues(t *testing.T) {
	reg, err := Parse("HostPath.swift", loadFixture(t))
	require.NoError(t, err)

	_, _, err = reg.EnsurePath(`/a"b`, "x")
	var ie *generr.InvalidInputError
	require.True(t, errors.As(err, &ie))
	assert.False(t, reg.Changed())
}

func TestParse_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{name: "no path section", content: "extension Host {\n}\n", reason: "extension Path section not found"},
		{name: "no host section", content: "extension Path {\n}\n", reason: "extension Host section not found"},
		{name: "unterminated", content: "extension Host {\n    static let a = Host(rawValue: \"a.b\")\n\nextension Path {\n}\n", reason: "not closed"},
		{name: "duplicate", content: "extension Host {\n}\nextension Host {\n}\nextension Path {\n}\n", reason: "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("HostPath.swift", []byte(tt.content))
			var ce *generr.RegistryCorruptError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, "HostPath.swift", ce.Path)
			assert.Contains(t, ce.Reason, tt.reason)
		})
	}
}

func TestEnsure_ReindexFailureIsReported(t *testing.T) {
	reg, err := Parse("HostPath.swift", loadFixture(t))
	require.NoError(t, err)

	// A second Host section appended behind the parser's back makes the
	// post-insert re-index fail.
	reg.lines = append(reg.lines, "extension Host {", "}")
	before := reg.Bytes()

	_, created, err := reg.EnsureHost("payment.yuanqijiaoyou.com")
	var ce *generr.RegistryCorruptError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Contains(t, ce.Reason, "duplicate")
	assert.False(t, created)
	assert.False(t, reg.Changed())
	assert.Equal(t, before, reg.Bytes())

	_, _, err = reg.EnsurePath("/pay/order", "下单")
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, before, reg.Bytes())
}
