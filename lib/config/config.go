// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for circlegen.
//
// Configuration is loaded from a single file specified by:
//   - CIRCLEGEN_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery beyond the built-in
// defaults, which describe the conventional repository layout (examples
// under examples/, suites under test/, templates under templates/).
// This keeps generation deterministic and auditable: the same config
// file and repository state always produce the same document.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the circlegen configuration. All relative paths are
// resolved against Repo by [Config.Resolve].
type Config struct {
	// Repo is the repository working tree that tags are listed from
	// and versions are checked out in.
	Repo string `yaml:"repo"`

	// Examples is the directory whose subdirectories are the example
	// applications under test.
	Examples string `yaml:"examples"`

	// Suites is the directory whose subdirectories are test suites.
	// Its contents are version-dependent: it is re-listed after each
	// checkout.
	Suites string `yaml:"suites"`

	// BaseTemplate is the static base configuration the matrix and
	// overrides are merged into.
	BaseTemplate string `yaml:"base_template"`

	// Output is where the generated document is written.
	Output string `yaml:"output"`

	// Branch is the floating branch always appended to the version
	// list.
	Branch string `yaml:"branch"`
}

// Default returns the default configuration, matching the conventional
// repository layout.
func Default() *Config {
	return &Config{
		Repo:         ".",
		Examples:     "examples",
		Suites:       "test",
		BaseTemplate: filepath.Join("templates", "base-generated-config.yaml"),
		Output:       filepath.Join("templates", "generated.yml"),
		Branch:       "main",
	}
}

// Load loads configuration from the CIRCLEGEN_CONFIG environment
// variable, falling back to defaults when it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("CIRCLEGEN_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging the
// file's values over the defaults. The config file is the single
// source of truth; environment variables do not override its values.
// The only expansion performed is ${VAR} and ${VAR:-default} in path
// fields, for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	c.Repo = expandVars(c.Repo)
	c.Examples = expandVars(c.Examples)
	c.Suites = expandVars(c.Suites)
	c.BaseTemplate = expandVars(c.BaseTemplate)
	c.Output = expandVars(c.Output)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors, reporting all of them
// at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Repo == "" {
		errs = append(errs, fmt.Errorf("repo is required"))
	}
	if c.Examples == "" {
		errs = append(errs, fmt.Errorf("examples is required"))
	}
	if c.Suites == "" {
		errs = append(errs, fmt.Errorf("suites is required"))
	}
	if c.BaseTemplate == "" {
		errs = append(errs, fmt.Errorf("base_template is required"))
	}
	if c.Output == "" {
		errs = append(errs, fmt.Errorf("output is required"))
	}
	if c.Branch == "" {
		errs = append(errs, fmt.Errorf("branch is required"))
	}

	return errors.Join(errs...)
}

// Resolve returns a copy of the configuration with every path made
// absolute: Repo against the current working directory, all other
// paths against Repo (unless already absolute).
func (c *Config) Resolve() (*Config, error) {
	repo, err := filepath.Abs(c.Repo)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path: %w", err)
	}

	resolve := func(path string) string {
		if filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(repo, path)
	}

	return &Config{
		Repo:         repo,
		Examples:     resolve(c.Examples),
		Suites:       resolve(c.Suites),
		BaseTemplate: resolve(c.BaseTemplate),
		Output:       resolve(c.Output),
		Branch:       c.Branch,
	}, nil
}
