// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package generate assembles the final CircleCI document: it loads the
// base template, discovers applications and versions, installs the
// computed matrix into the workflow's job list, splices every
// application's override steps into the shared job, and serializes the
// result.
//
// Failure policy follows the two-tier model of the rest of the tool:
// skippable conditions (invalid directories, failed checkouts, absent
// overrides) are logged by the components that detect them and the run
// continues; a missing or malformed base template, an unreadable
// examples root, or a broken override fragment is fatal and surfaces
// as a returned error.
package generate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/circlegen/lib/circleci"
	"github.com/bureau-foundation/circlegen/lib/config"
	"github.com/bureau-foundation/circlegen/lib/gitrepo"
	"github.com/bureau-foundation/circlegen/lib/harness"
	"github.com/bureau-foundation/circlegen/lib/matrix"
	"github.com/bureau-foundation/circlegen/lib/release"
)

// Generator produces the generated CircleCI document for one
// repository state.
type Generator struct {
	// Config must be resolved (absolute paths; see config.Resolve).
	Config *config.Config

	// Logger receives progress and skip diagnostics. Defaults to
	// slog.Default when nil.
	Logger *slog.Logger

	// Stdout receives the rendered document, mirroring what is written
	// to the output file. Defaults to os.Stdout when nil.
	Stdout io.Writer
}

// Assemble builds the complete document without serializing it.
// Discovery is strictly sequential: suite listing checks out versions
// in the shared working tree, so nothing here may run concurrently.
func (g *Generator) Assemble(ctx context.Context) (*circleci.Config, error) {
	cfg := g.Config
	logger := g.logger()

	document, err := circleci.ReadFile(cfg.BaseTemplate)
	if err != nil {
		return nil, err
	}
	if err := document.Validate(); err != nil {
		return nil, fmt.Errorf("base template %s: %w", cfg.BaseTemplate, err)
	}

	applications, err := harness.Applications(cfg.Examples)
	if err != nil {
		return nil, err
	}

	source := &release.Source{
		Repo:       gitrepo.NewRepository(cfg.Repo),
		SuitesRoot: cfg.Suites,
		Branch:     cfg.Branch,
		Logger:     logger,
	}
	versions, err := source.Versions(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("discovered matrix inputs",
		"applications", len(applications), "versions", versions)

	builder := &matrix.Builder{
		Suites:     source,
		Valid:      harness.Validator{},
		SuitesRoot: cfg.Suites,
		Logger:     logger,
	}
	entries := builder.Build(ctx, applications, versions)
	if err := document.InstallMatrix(entries); err != nil {
		return nil, err
	}

	if err := g.applyOverrides(document, applications); err != nil {
		return nil, err
	}
	return document, nil
}

// applyOverrides threads the shared job's step sequence through each
// application's override merge, in application discovery order. The
// overrides accumulate once per application, independent of how many
// matrix entries the application produced.
func (g *Generator) applyOverrides(document *circleci.Config, applications []string) error {
	logger := g.logger()
	job := document.Jobs[circleci.SharedJobName]

	for _, application := range applications {
		if !harness.HasOverride(application) {
			logger.Info("application provides no custom steps", "app", application)
			continue
		}

		override, err := harness.LoadOverride(application)
		if err != nil {
			return err
		}
		if override == nil || override.Empty() {
			continue
		}

		appName := harness.NameFromPath(application)
		steps, err := circleci.MergeOverride(job.Steps, appName, override, logger)
		if err != nil {
			return err
		}
		job.Steps = steps
	}
	return nil
}

// Run assembles the document, prints it to stdout, and persists it to
// the configured output path. The file is only rewritten when the
// rendered bytes changed, so repeated runs against identical state
// leave the output untouched.
func (g *Generator) Run(ctx context.Context) error {
	document, err := g.Assemble(ctx)
	if err != nil {
		return err
	}

	rendered, err := document.Render()
	if err != nil {
		return err
	}

	stdout := g.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	if _, err := stdout.Write(rendered); err != nil {
		return fmt.Errorf("writing document to stdout: %w", err)
	}

	changed, err := writeIfChanged(g.Config.Output, rendered)
	if err != nil {
		return err
	}
	g.logger().Info("generated config",
		"output", g.Config.Output,
		"digest", circleci.Digest(rendered),
		"changed", changed)
	return nil
}

// writeIfChanged writes data to path unless the file already holds
// exactly those bytes. Reports whether a write happened.
func writeIfChanged(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
