// SPDX-License-Identifier: AGPL-3.0-or-later

// Package generator runs one scaffolding pass: extract the endpoint, derive
// names and types, patch the registry and manifest in memory, render and
// self-check the request file, then commit every staged write together.
// Any error before the commit leaves the project untouched.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bartekus/swiftreq/internal/config"
	"github.com/bartekus/swiftreq/internal/endpoint"
	"github.com/bartekus/swiftreq/internal/extract"
	"github.com/bartekus/swiftreq/internal/generr"
	"github.com/bartekus/swiftreq/internal/manifest"
	"github.com/bartekus/swiftreq/internal/model"
	"github.com/bartekus/swiftreq/internal/naming"
	"github.com/bartekus/swiftreq/internal/projection"
	"github.com/bartekus/swiftreq/internal/registry"
	"github.com/bartekus/swiftreq/internal/render"
	"github.com/bartekus/swiftreq/internal/typemap"
)

// SourceExt is the extension of every generated file.
const SourceExt = ".swift"

// Mode selects which artifacts a run writes.
type Mode string

const (
	// ModePrint updates the registry and returns the source instead of writing it.
	ModePrint Mode = "print"
	// ModeFiles writes the request file, the model file and the registry.
	ModeFiles Mode = "files"
	// ModeFull additionally adds the new files to the project manifest.
	ModeFull Mode = "full"
)

// Modes lists the accepted modes in help order.
var Modes = []Mode{ModePrint, ModeFiles, ModeFull}

// ParseMode validates s.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == strings.ToLower(strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", &generr.InvalidInputError{Field: "output-mode", Reason: fmt.Sprintf("unknown mode %q", s)}
}

// Request is the input of one run.
type Request struct {
	// Spec is the interface definition; it may be empty when Overrides carry
	// every required field.
	Spec      []byte
	Overrides extract.Overrides
	// Response is a JSON example or a "name:type,..." field list. It replaces
	// any response found in Spec.
	Response string
	Mode     Mode
	// Out replaces the default request file location. Relative paths are
	// resolved against the project root.
	Out string
}

// Plan is everything derived from the request before any file is read.
type Plan struct {
	Descriptor *endpoint.Descriptor
	Domain     string
	Names      naming.Identifiers
	Properties []render.Property
	Parameters []endpoint.Parameter
	Response   string
	Warnings   []generr.Warning
}

// Result describes a completed run.
type Result struct {
	Plan
	Mode Mode

	Host registry.Entry
	Path registry.Entry

	RequestFile   string
	RequestSource string
	// ModelFile and ModelSource are empty when no response was given.
	ModelFile   string
	ModelSource string

	// Output is the combined source returned in print mode.
	Output string
	// Written lists files whose content changed, in commit order.
	Written []string
}

// Option configures a Generator.
type Option func(*Generator)

// WithIDSource replaces the random manifest object ID source.
func WithIDSource(next func() string) Option {
	return func(g *Generator) { g.manifestOpts = append(g.manifestOpts, manifest.WithIDSource(next)) }
}

// Generator holds the resolved project layout.
type Generator struct {
	root         string
	cfg          *config.Config
	paths        config.ProjectConfig
	log          zerolog.Logger
	manifestOpts []manifest.Option
}

// New returns a Generator for the project at root.
func New(root string, cfg *config.Config, log zerolog.Logger, opts ...Option) *Generator {
	g := &Generator{
		root:  root,
		cfg:   cfg,
		paths: cfg.Project.Resolve(root),
		log:   log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Plan extracts the descriptor and derives names and property types. It
// reads no project files.
func (g *Generator) Plan(req Request) (*Plan, error) {
	desc, warnings, err := extract.Extract(req.Spec, req.Overrides)
	if err != nil {
		return nil, fmt.Errorf("extracting endpoint: %w", err)
	}

	p := &Plan{
		Descriptor: desc,
		Domain:     naming.NormalizeDomain(desc.Domain),
		Names:      naming.DeriveIdentifiers(desc.Path),
		Parameters: desc.Parameters,
		Response:   desc.Response,
		Warnings:   warnings,
	}
	if req.Response != "" {
		p.Response = req.Response
	}

	for _, param := range desc.Parameters {
		swift, w := typemap.MapParam(param.Name, param.DeclaredType, param.ItemType)
		if w != nil {
			p.Warnings = append(p.Warnings, *w)
		}
		if !render.IsIdentifier(param.Name) {
			p.Warnings = append(p.Warnings, generr.Warning{
				Code:    generr.ClarificationNeeded,
				Message: fmt.Sprintf("parameter %q is not a valid Swift identifier; rename the property by hand", param.Name),
				Subject: param.Name,
			})
		}
		p.Properties = append(p.Properties, render.Property{Name: param.Name, Type: swift})
	}

	g.log.Debug().
		Str("method", string(desc.Method)).
		Str("path", desc.Path).
		Str("domain", p.Domain).
		Str("class", p.Names.ClassName).
		Int("params", len(p.Properties)).
		Msg("endpoint planned")
	return p, nil
}

// Generate runs the full pass for req.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	mode := ModeFiles
	if req.Mode != "" {
		m, err := ParseMode(string(req.Mode))
		if err != nil {
			return nil, err
		}
		mode = m
	}

	plan, err := g.Plan(req)
	if err != nil {
		return nil, err
	}
	res := &Result{Plan: *plan, Mode: mode}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reg, err := g.loadRegistry()
	if err != nil {
		return nil, err
	}
	if res.Host, err = g.ensure(reg.EnsureHost(res.Domain)); err != nil {
		return nil, err
	}
	if res.Path, err = g.ensure(reg.EnsurePath(res.Descriptor.Path, res.Descriptor.Summary)); err != nil {
		return nil, err
	}

	class := render.RequestClass(res.Names.ClassName, res.Host.Identifier, res.Path.Identifier, res.Properties)
	usage := render.UsageSnippet(res.Names.ClassName, res.Properties, res.Descriptor.Method)
	if err := render.VerifyBoilerplate(class, usage); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", res.Names.ClassName, err)
	}
	res.RequestSource = render.RequestFile(class, usage)

	models, warnings, err := buildModels(res.Names.ModelName, res.Response)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", res.Names.ModelName, err)
	}
	res.Warnings = append(res.Warnings, warnings...)

	res.RequestFile = g.requestFile(req.Out, res.Names.ClassName)
	if models != "" {
		res.ModelSource = model.File(models)
		res.ModelFile = filepath.Join(g.paths.ModelDir, res.Names.ModelName+SourceExt)
	}

	var batch projection.Batch
	switch mode {
	case ModePrint:
		parts := []string{class}
		if models != "" {
			parts = append(parts, models)
		}
		res.Output = strings.Join(append(parts, usage), "\n\n") + "\n"
	case ModeFiles, ModeFull:
		batch.Stage(res.RequestFile, []byte(res.RequestSource))
		if res.ModelFile != "" {
			batch.Stage(res.ModelFile, []byte(res.ModelSource))
		}
	}
	if reg.Changed() {
		batch.Stage(g.paths.Registry, reg.Bytes())
	}

	if mode == ModeFull {
		content, warnings, err := g.patchManifest(res)
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, warnings...)
		if content != nil {
			batch.Stage(g.paths.Manifest, content)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.logWarnings(res.Warnings)

	written, err := batch.Commit()
	res.Written = written
	if err != nil {
		return res, fmt.Errorf("writing files: %w", err)
	}
	for _, path := range written {
		g.log.Info().Str("file", g.rel(path)).Msg("written")
	}
	return res, nil
}

func (g *Generator) ensure(e registry.Entry, created bool, err error) (registry.Entry, error) {
	if err != nil {
		return registry.Entry{}, fmt.Errorf("patching registry: %w", err)
	}
	g.log.Debug().
		Str("kind", string(e.Kind)).
		Str("identifier", e.Identifier).
		Str("value", e.RawValue).
		Bool("created", created).
		Msg("registry entry")
	return e, nil
}

func (g *Generator) loadRegistry() (*registry.Registry, error) {
	content, err := os.ReadFile(g.paths.Registry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &generr.RegistryCorruptError{Path: g.paths.Registry, Reason: "file not found"}
		}
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	return registry.Parse(g.paths.Registry, content)
}

// patchManifest adds the request file, and the model file when present, next
// to the registry file. It returns nil content when nothing changed.
func (g *Generator) patchManifest(res *Result) ([]byte, []generr.Warning, error) {
	content, err := os.ReadFile(g.paths.Manifest)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &generr.ManifestCorruptError{Path: g.paths.Manifest, Reason: "file not found"}
		}
		return nil, nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := manifest.Parse(g.paths.Manifest, content, g.manifestOpts...)
	if err != nil {
		return nil, nil, err
	}

	anchor := filepath.Base(g.paths.Registry)
	files := []struct {
		path  string
		group string
	}{
		{res.RequestFile, g.cfg.Manifest.RequestGroup},
		{res.ModelFile, g.cfg.Manifest.ModelGroup},
	}

	var warnings []generr.Warning
	for _, f := range files {
		if f.path == "" {
			continue
		}
		name := filepath.Base(f.path)
		added, w, err := m.EnsureReference(name, manifest.Target{
			Anchor:       anchor,
			Group:        f.group,
			RequireGroup: g.cfg.Manifest.RequireGroup,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("patching manifest: %w", err)
		}
		if w != nil {
			warnings = append(warnings, *w)
		}
		g.log.Debug().Str("file", name).Str("group", f.group).Bool("added", added).Msg("manifest reference")
	}

	if !m.Changed() {
		return nil, warnings, nil
	}
	return m.Bytes(), warnings, nil
}

func (g *Generator) requestFile(out, className string) string {
	if out == "" {
		return filepath.Join(g.paths.RequestDir, className+SourceExt)
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(g.root, out)
}

func (g *Generator) rel(path string) string {
	if r, err := filepath.Rel(g.root, path); err == nil {
		return r
	}
	return path
}

func (g *Generator) logWarnings(warnings []generr.Warning) {
	for _, w := range warnings {
		g.log.Warn().Str("code", string(w.Code)).Str("subject", w.Subject).Msg(w.Message)
	}
}

// buildModels renders the Codable structs for response. A JSON payload
// without a data member yields a NoResponseData warning and no model.
func buildModels(name, response string) (string, []generr.Warning, error) {
	if strings.TrimSpace(response) == "" {
		return "", nil, nil
	}

	if !model.IsPayload(response) {
		fields, warnings, err := model.ParseFields(response)
		if err != nil {
			return "", nil, err
		}
		if len(fields) == 0 {
			return "", warnings, nil
		}
		out, err := model.FromFields(name, fields)
		return out, warnings, err
	}

	root, err := model.ParsePayload([]byte(response))
	if err != nil {
		return "", nil, err
	}
	data, ok := model.DataMember(root)
	if !ok {
		return "", []generr.Warning{{
			Code:    generr.NoResponseData,
			Message: "response has no data member; no model generated",
			Subject: name,
		}}, nil
	}
	return model.FromPayload(name, data)
}
