// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads swiftreq settings from defaults, an optional YAML file
// and SWIFTREQ_ environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/bartekus/swiftreq/internal/generr"
)

const (
	// FileName is looked up in the project root when no explicit file is given.
	FileName = ".swiftreq.yaml"
	// EnvPrefix selects environment overrides. A double underscore separates
	// nesting levels: SWIFTREQ_MANIFEST__REQUIRE_GROUP=false.
	EnvPrefix = "SWIFTREQ_"
)

// Config is the full settings tree.
type Config struct {
	Project  ProjectConfig  `koanf:"project"`
	Manifest ManifestConfig `koanf:"manifest"`
	Log      LogConfig      `koanf:"log"`
}

// ProjectConfig locates the files swiftreq reads and writes. Relative paths
// are resolved against the project root.
type ProjectConfig struct {
	Registry   string `koanf:"registry" validate:"required"`
	Manifest   string `koanf:"manifest" validate:"required"`
	RequestDir string `koanf:"request_dir" validate:"required"`
	ModelDir   string `koanf:"model_dir" validate:"required"`
}

// ManifestConfig names the project groups generated files are added to.
type ManifestConfig struct {
	RequestGroup string `koanf:"request_group" validate:"required"`
	ModelGroup   string `koanf:"model_group" validate:"required"`
	RequireGroup bool   `koanf:"require_group"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}

// Options tell Load where to look.
type Options struct {
	// ProjectRoot is searched for FileName.
	ProjectRoot string
	// File is an explicit config file; it must exist when set.
	File string
	// Environ replaces os.Environ.
	Environ func() []string
}

var validate = validator.New()

// Load merges defaults, the config file and the environment, then validates
// the result. Validation failures are InvalidInputError.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	path, err := configFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
		EnvironFunc:   opts.Environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Registry:   "living/Classes/Swift/Networking/HostPath.swift",
			Manifest:   "living.xcodeproj/project.pbxproj",
			RequestDir: "living/Classes/Swift/Networking/Request",
			ModelDir:   "living/Classes/Swift/Networking/Model",
		},
		Manifest: ManifestConfig{
			RequestGroup: "Request",
			ModelGroup:   "Model",
			RequireGroup: true,
		},
		Log: LogConfig{Level: "info", Pretty: true},
	}
}

func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"project.registry":       d.Project.Registry,
		"project.manifest":       d.Project.Manifest,
		"project.request_dir":    d.Project.RequestDir,
		"project.model_dir":      d.Project.ModelDir,
		"manifest.request_group": d.Manifest.RequestGroup,
		"manifest.model_group":   d.Manifest.ModelGroup,
		"manifest.require_group": d.Manifest.RequireGroup,
		"log.level":              d.Log.Level,
		"log.pretty":             d.Log.Pretty,
	}
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	fe := verrs[0]
	return &generr.InvalidInputError{
		Field:  "config." + strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config.")),
		Reason: fmt.Sprintf("%q fails %s %s", fmt.Sprint(fe.Value()), fe.Tag(), fe.Param()),
	}
}

// Resolve returns p with every relative path joined to root.
func (p ProjectConfig) Resolve(root string) ProjectConfig {
	abs := func(rel string) string {
		if filepath.IsAbs(rel) {
			return rel
		}
		return filepath.Join(root, rel)
	}
	return ProjectConfig{
		Registry:   abs(p.Registry),
		Manifest:   abs(p.Manifest),
		RequestDir: abs(p.RequestDir),
		ModelDir:   abs(p.ModelDir),
	}
}

func configFile(opts Options) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", &generr.InvalidInputError{Field: "config", Reason: fmt.Sprintf("config file %s: %v", opts.File, err)}
		}
		return opts.File, nil
	}
	candidate := filepath.Join(opts.ProjectRoot, FileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", nil
}

// transformEnv maps SWIFTREQ_PROJECT__REQUEST_DIR to project.request_dir.
func transformEnv(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return strings.ReplaceAll(key, "__", "."), v
}
