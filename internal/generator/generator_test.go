// SPDX-License-Identifier: AGPL-3.0-or-later
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/swiftreq/internal/config"
	"github.com/bartekus/swiftreq/internal/extract"
	"github.com/bartekus/swiftreq/internal/generr"
	"github.com/bartekus/swiftreq/internal/logger"
)

const (
	registryRel = "App/Networking/HostPath.swift"
	manifestRel = "App.xcodeproj/project.pbxproj"
)

type project struct {
	root string
	cfg  *config.Config
}

func newProject(t *testing.T) project {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Project = config.ProjectConfig{
		Registry:   registryRel,
		Manifest:   manifestRel,
		RequestDir: "App/Networking/Request",
		ModelDir:   "App/Networking/Model",
	}

	for src, dst := range map[string]string{
		"HostPath.swift":  registryRel,
		"project.pbxproj": manifestRel,
	} {
		data, err := os.ReadFile(filepath.Join("testdata", src))
		require.NoError(t, err)
		target := filepath.Join(root, dst)
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
		require.NoError(t, os.WriteFile(target, data, 0o644))
	}
	return project{root: root, cfg: cfg}
}

func (p project) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(p.root, rel))
	require.NoError(t, err)
	return string(data)
}

func (p project) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(p.root, rel))
	return err == nil
}

func (p project) generator(opts ...Option) *Generator {
	return New(p.root, p.cfg, logger.Nop(), opts...)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("BBBBBBBBBBBBBBBBBBBBBB%02d", n)
	}
}

var userSearch = extract.Overrides{
	Method:  "POST",
	Path:    "/user/search",
	Summary: "用户搜索",
	Server:  "https://passport.inner.test.huajiao.com",
	Params:  "keyword:string, count:int, location:geo",
}

func TestGenerate_Files(t *testing.T) {
	p := newProject(t)

	res, err := p.generator().Generate(context.Background(), Request{Overrides: userSearch})
	require.NoError(t, err)

	assert.Equal(t, ModeFiles, res.Mode)
	assert.Equal(t, "passport.huajiao.com", res.Domain)
	assert.Equal(t, "UserSearchRequest", res.Names.ClassName)
	assert.Equal(t, "passport", res.Host.Identifier)
	assert.Equal(t, "userSearch", res.Path.Identifier)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, generr.ClarificationNeeded, res.Warnings[0].Code)
	assert.Equal(t, "location", res.Warnings[0].Subject)

	requestRel := "App/Networking/Request/UserSearchRequest.swift"
	assert.Equal(t, []string{
		filepath.Join(p.root, requestRel),
		filepath.Join(p.root, registryRel),
	}, res.Written)

	source := p.read(t, requestRel)
	assert.Equal(t, res.RequestSource, source)
	assert.Contains(t, source, "    var keyword: String?\n    var count: Int?\n    var location: String?\n")
	assert.Contains(t, source, "override var host: String { Host.passport.rawValue }")
	assert.Contains(t, source, "override var path: String { Path.userSearch.rawValue }")
	assert.Contains(t, source, "postJSONRequestInfo(request)")

	reg := p.read(t, registryRel)
	assert.Contains(t, reg, "\n\n    /// 用户搜索\n    static let userSearch = Path(rawValue: \"/user/search\")\n}")
	assert.Equal(t, 1, strings.Count(reg, `Host(rawValue: "passport.huajiao.com")`))

	manifestData, err := os.ReadFile(filepath.Join("testdata", "project.pbxproj"))
	require.NoError(t, err)
	assert.Equal(t, string(manifestData), p.read(t, manifestRel), "files mode leaves the manifest alone")
	assert.False(t, p.exists("App/Networking/Model/UserSearchModel.swift"))
}

func TestGenerate_Idempotent(t *testing.T) {
	p := newProject(t)
	g := p.generator(WithIDSource(sequentialIDs()))
	req := Request{Overrides: userSearch, Mode: ModeFull, Response: `{"errno":0,"data":{"uid":"1","nick":"a"}}`}

	_, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	registry := p.read(t, registryRel)
	manifest := p.read(t, manifestRel)

	res, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Written)
	assert.Equal(t, registry, p.read(t, registryRel))
	assert.Equal(t, manifest, p.read(t, manifestRel))
}

func TestGenerate_Print(t *testing.T) {
	p := newProject(t)

	res, err := p.generator().Generate(context.Background(), Request{
		Overrides: extract.Overrides{
			Method:  "GET",
			Path:    "/pay/order_info",
			Summary: "订单信息",
			Server:  "payment.inner-test.yuanqijiaoyou.com",
			Params:  "orderId:long",
		},
		Response: "orderId:long,paid:bool",
		Mode:     ModePrint,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(p.root, registryRel)}, res.Written)
	assert.False(t, p.exists("App/Networking/Request/PayOrderInfoRequest.swift"))
	assert.False(t, p.exists("App/Networking/Model/PayOrderInfoModel.swift"))

	assert.True(t, strings.HasPrefix(res.Output, "import FalconFoundation\n"))
	assert.Contains(t, res.Output, "    var orderId: Int64?\n")
	assert.Contains(t, res.Output, "struct PayOrderInfoModel: Codable {\n    let orderId: Int64?\n    let paid: Bool?\n}")
	assert.Contains(t, res.Output, "getRequestInfo(request)")
	assert.True(t, strings.HasSuffix(res.Output, "// }\n"))

	reg := p.read(t, registryRel)
	assert.Contains(t, reg, "    static let passport = Host(rawValue: \"passport.huajiao.com\")\n    static let payment = Host(rawValue: \"payment.yuanqijiaoyou.com\")\n}")
	assert.Contains(t, reg, "    /// 订单信息\n    static let payOrderInfo = Path(rawValue: \"/pay/order_info\")")
}

func TestGenerate_Full(t *testing.T) {
	p := newProject(t)

	res, err := p.generator(WithIDSource(sequentialIDs())).Generate(context.Background(), Request{
		Overrides: userSearch,
		Mode:      ModeFull,
		Response:  `{"errno":0,"data":{"total":3,"users":[{"uid":"1","nick":"a"}]}}`,
	})
	require.NoError(t, err)

	modelRel := "App/Networking/Model/UserSearchModel.swift"
	assert.Equal(t, []string{
		filepath.Join(p.root, "App/Networking/Request/UserSearchRequest.swift"),
		filepath.Join(p.root, modelRel),
		filepath.Join(p.root, registryRel),
		filepath.Join(p.root, manifestRel),
	}, res.Written)

	model := p.read(t, modelRel)
	assert.True(t, strings.HasPrefix(model, "import Foundation\n\n"))
	assert.Contains(t, model, "struct UserSearchModelUsersItem: Codable {\n    let uid: String?\n    let nick: String?\n}")
	assert.Contains(t, model, "struct UserSearchModel: Codable {\n    let total: Int?\n    let users: [UserSearchModelUsersItem]?\n}")

	pbx := p.read(t, manifestRel)
	assert.Contains(t, pbx, "BBBBBBBBBBBBBBBBBBBBBB02 /* UserSearchRequest.swift in Sources */ = {isa = PBXBuildFile; fileRef = BBBBBBBBBBBBBBBBBBBBBB01 /* UserSearchRequest.swift */; };")
	assert.Contains(t, pbx, "BBBBBBBBBBBBBBBBBBBBBB04 /* UserSearchModel.swift in Sources */ = {isa = PBXBuildFile; fileRef = BBBBBBBBBBBBBBBBBBBBBB03 /* UserSearchModel.swift */; };")
	assert.Contains(t, pbx, "\t\t\t\tBBBBBBBBBBBBBBBBBBBBBB03 /* UserSearchModel.swift */,\n\t\t\t);\n\t\t\tpath = Model;")
}

func TestGenerate_CorruptManifestWritesNothing(t *testing.T) {
	p := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(p.root, manifestRel), []byte("// !$*UTF8*$!\n{\n}\n"), 0o644))
	before := p.read(t, registryRel)

	_, err := p.generator().Generate(context.Background(), Request{Overrides: userSearch, Mode: ModeFull})
	var mc *generr.ManifestCorruptError
	require.True(t, errors.As(err, &mc), "got %v", err)

	assert.Equal(t, before, p.read(t, registryRel))
	assert.False(t, p.exists("App/Networking/Request/UserSearchRequest.swift"))
}

func TestGenerate_CorruptRegistry(t *testing.T) {
	p := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(p.root, registryRel), []byte("import Foundation\n"), 0o644))

	_, err := p.generator().Generate(context.Background(), Request{Overrides: userSearch})
	var rc *generr.RegistryCorruptError
	require.True(t, errors.As(err, &rc), "got %v", err)
	assert.False(t, p.exists("App/Networking/Request/UserSearchRequest.swift"))

	require.NoError(t, os.Remove(filepath.Join(p.root, registryRel)))
	_, err = p.generator().Generate(context.Background(), Request{Overrides: userSearch})
	require.True(t, errors.As(err, &rc), "got %v", err)
}

func TestGenerate_MissingFieldWritesNothing(t *testing.T) {
	p := newProject(t)
	before := p.read(t, registryRel)

	ov := userSearch
	ov.Summary = ""
	_, err := p.generator().Generate(context.Background(), Request{Overrides: ov})
	var mf *generr.MissingFieldError
	require.True(t, errors.As(err, &mf), "got %v", err)
	assert.Equal(t, "summary", mf.Field)
	assert.Equal(t, before, p.read(t, registryRel))
}

func TestGenerate_ResponseWithoutData(t *testing.T) {
	p := newProject(t)

	res, err := p.generator().Generate(context.Background(), Request{
		Overrides: userSearch,
		Response:  `{"errno":0,"errmsg":"ok"}`,
	})
	require.NoError(t, err)
	assert.Empty(t, res.ModelFile)
	assert.Equal(t, generr.NoResponseData, res.Warnings[len(res.Warnings)-1].Code)
	assert.False(t, p.exists("App/Networking/Model/UserSearchModel.swift"))
}

func TestGenerate_OutOverride(t *testing.T) {
	p := newProject(t)

	res, err := p.generator().Generate(context.Background(), Request{Overrides: userSearch, Out: "Custom/Search.swift"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.root, "Custom/Search.swift"), res.RequestFile)
	assert.True(t, p.exists("Custom/Search.swift"))
}

func TestGenerate_InvalidParameterNameWarns(t *testing.T) {
	p := newProject(t)
	ov := userSearch
	ov.Params = "user-id:string"

	res, err := p.generator().Generate(context.Background(), Request{Overrides: ov, Mode: ModePrint})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "user-id", res.Warnings[0].Subject)
}

func TestGenerate_Canceled(t *testing.T) {
	p := newProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.generator().Generate(ctx, Request{Overrides: userSearch})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, p.exists("App/Networking/Request/UserSearchRequest.swift"))
}

func TestPlan(t *testing.T) {
	p := newProject(t)

	plan, err := p.generator().Plan(Request{Overrides: userSearch})
	require.NoError(t, err)
	assert.Equal(t, "passport.huajiao.com", plan.Domain)
	assert.Equal(t, "userSearch", plan.Names.RegistryKey)
	assert.Len(t, plan.Properties, 3)
	assert.Equal(t, "String", plan.Properties[2].Type)
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"print", "files", " FULL "} {
		_, err := ParseMode(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseMode("stdout")
	var ie *generr.InvalidInputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "output-mode", ie.Field)
}
