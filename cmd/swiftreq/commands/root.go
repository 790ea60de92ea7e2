// SPDX-License-Identifier: AGPL-3.0-or-later

/*
swiftreq - scaffolds Swift network request classes from an interface definition.
It registers the endpoint's host and path in HostPath.swift, renders the request class and
its response models, and adds the new files to the Xcode project.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bartekus/swiftreq/internal/config"
	"github.com/bartekus/swiftreq/internal/logger"
	"github.com/bartekus/swiftreq/internal/projectroot"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	projectRoot string
	configFile  string
	logLevel    string
	verbose     bool
	// environ replaces os.Environ in tests.
	environ func() []string
}

// session is what a subcommand needs after flags and config are resolved.
type session struct {
	root string
	cfg  *config.Config
	log  zerolog.Logger
}

// NewRootCmd constructs the swiftreq root Cobra command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&globalOptions{})
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	version := os.Getenv("SWIFTREQ_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "swiftreq",
		Short:         "swiftreq - Swift request scaffolding",
		Long:          "swiftreq turns an OpenAPI, Swagger or flat endpoint description into a Swift request class, registry entries and project references.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.projectRoot, "project-root", "", "iOS project root (default: nearest directory with .swiftreq.yaml or *.xcodeproj)")
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: <project-root>/"+config.FileName+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of swiftreq",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "swiftreq version %s\n", version)
		},
	})

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewNormalizeCommand())

	return cmd
}

// open resolves the project root, loads config and builds the logger. Logs go
// to the command's stderr so generated source on stdout stays clean.
func (o *globalOptions) open(cmd *cobra.Command) (*session, error) {
	root := o.projectRoot
	if root == "" {
		found, err := projectroot.Find(".")
		if err != nil {
			return nil, err
		}
		root = found
	}

	cfg, err := config.Load(config.Options{
		ProjectRoot: root,
		File:        o.configFile,
		Environ:     o.environ,
	})
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	if o.verbose {
		level = zerolog.LevelDebugValue
	}

	return &session{
		root: root,
		cfg:  cfg,
		log:  logger.New(level, cfg.Log.Pretty, cmd.ErrOrStderr()),
	}, nil
}
