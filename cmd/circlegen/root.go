// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/circlegen/cmd/circlegen/cli"
	"github.com/bureau-foundation/circlegen/lib/circleci"
	"github.com/bureau-foundation/circlegen/lib/config"
	"github.com/bureau-foundation/circlegen/lib/generate"
	"github.com/bureau-foundation/circlegen/lib/version"
)

// generateParams holds the flags for the generate subcommand. Flag
// values override the corresponding config file entries; empty strings
// mean "not set on the command line".
type generateParams struct {
	ConfigFile   string `flag:"config,c" desc:"path to a circlegen config file (overrides CIRCLEGEN_CONFIG)"`
	Repo         string `flag:"repo" desc:"repository working tree (overrides config)"`
	Examples     string `flag:"examples" desc:"example applications directory (overrides config)"`
	Suites       string `flag:"suites" desc:"test suites directory (overrides config)"`
	BaseTemplate string `flag:"base-template" desc:"base configuration template (overrides config)"`
	Output       string `flag:"output,o" desc:"generated document output path (overrides config)"`
	Branch       string `flag:"branch" desc:"floating branch appended to the version list (overrides config)"`
}

// validateParams holds the flags for the validate subcommand.
type validateParams struct {
	ConfigFile   string `flag:"config,c" desc:"path to a circlegen config file (overrides CIRCLEGEN_CONFIG)"`
	BaseTemplate string `flag:"base-template" desc:"base configuration template (overrides config)"`
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name: "circlegen",
		Description: `circlegen: CircleCI pipeline configuration generator.

Discovers example applications and per-version test suites in a
repository, cross-joins them against released versions, and installs
the resulting job matrix into a base template.`,
		Subcommands: []*cli.Command{
			generateCommand(),
			validateCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Generate the pipeline config for the current repository",
				Command:     "circlegen generate",
			},
			{
				Description: "Generate with an explicit config file",
				Command:     "circlegen generate --config ci/circlegen.yaml",
			},
			{
				Description: "Check that a base template has the required structure",
				Command:     "circlegen validate --base-template templates/base-generated-config.yaml",
			},
		},
	}
}

func generateCommand() *cli.Command {
	var params generateParams
	return &cli.Command{
		Name:    "generate",
		Summary: "Generate the pipeline configuration",
		Description: `Generate the pipeline configuration.

Lists version tags and the floating branch from the repository, checks
out each version to discover its test suites, cross-joins applications,
versions, and suites into job descriptors, applies per-application
override steps, and writes the result to the output path. The document
is also written to stdout.

Discovery checks out versions in the repository working tree; run this
from a clean tree.`,
		Usage: "circlegen generate [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("generate", &params)
		},
		Run: func(args []string) error {
			cfg, err := loadConfig(params.ConfigFile)
			if err != nil {
				return err
			}
			applyOverrideFlags(cfg, &params)

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			resolved, err := cfg.Resolve()
			if err != nil {
				return err
			}

			generator := &generate.Generator{
				Config: resolved,
				Logger: cli.NewCommandLogger().With("command", "generate"),
			}
			return generator.Run(context.Background())
		},
	}
}

func validateCommand() *cli.Command {
	var params validateParams
	return &cli.Command{
		Name:    "validate",
		Summary: "Validate a base template",
		Description: `Validate a base template.

Parses the base template and checks that it has the structure
generation requires: the shared test job with at least one step and the
workflow the job matrix is installed into. All problems are reported at
once. Exits 1 when the template is invalid.`,
		Usage: "circlegen validate [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("validate", &params)
		},
		Run: func(args []string) error {
			cfg, err := loadConfig(params.ConfigFile)
			if err != nil {
				return err
			}
			if params.BaseTemplate != "" {
				cfg.BaseTemplate = params.BaseTemplate
			}
			resolved, err := cfg.Resolve()
			if err != nil {
				return err
			}

			document, err := circleci.ReadFile(resolved.BaseTemplate)
			if err != nil {
				return err
			}
			if err := document.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "%s: invalid base template:\n%v\n", resolved.BaseTemplate, err)
				return &cli.ExitError{Code: 1}
			}
			fmt.Printf("%s: ok\n", resolved.BaseTemplate)
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	var params struct {
		Full bool `flag:"full" desc:"include Go version and platform"`
	}
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "circlegen version [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("version", &params)
		},
		Run: func(args []string) error {
			if params.Full {
				fmt.Printf("circlegen %s\n", version.Full())
				return nil
			}
			fmt.Printf("circlegen %s\n", version.Info())
			return nil
		},
	}
}

// loadConfig loads the configuration from the --config flag when set,
// otherwise from the CIRCLEGEN_CONFIG environment variable, otherwise
// the defaults.
func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load()
}

// applyOverrideFlags copies every generate flag that was set on the
// command line over the loaded configuration.
func applyOverrideFlags(cfg *config.Config, params *generateParams) {
	if params.Repo != "" {
		cfg.Repo = params.Repo
	}
	if params.Examples != "" {
		cfg.Examples = params.Examples
	}
	if params.Suites != "" {
		cfg.Suites = params.Suites
	}
	if params.BaseTemplate != "" {
		cfg.BaseTemplate = params.BaseTemplate
	}
	if params.Output != "" {
		cfg.Output = params.Output
	}
	if params.Branch != "" {
		cfg.Branch = params.Branch
	}
}
