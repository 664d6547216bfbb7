// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package matrix builds the generated workflow's job list: one entry
// per (application, version, suite) triple where both the application
// and the suite carry the harness entrypoint. Entries come out in
// generation order — applications outer, versions inner, suites
// innermost — and are never sorted, so identical inputs always produce
// an identical document and reviews of the generated config diff
// cleanly.
package matrix

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/bureau-foundation/circlegen/lib/circleci"
	"github.com/bureau-foundation/circlegen/lib/harness"
)

// SuiteSource yields the test suite names available at a version.
// Implemented by release.Source; discovery may mutate the shared
// working tree, so Build calls it strictly sequentially.
type SuiteSource interface {
	SuitesAt(ctx context.Context, version string) []string
}

// Validator decides directory eligibility.
type Validator interface {
	IsValid(path string) bool
}

// Builder combines applications, versions, and suites into job
// descriptor entries.
type Builder struct {
	// Suites yields suite names per version.
	Suites SuiteSource

	// Valid is consulted for every application and suite use. Validity
	// is never cached: an application can be valid at one version and
	// not another, because suite discovery moves the working tree.
	Valid Validator

	// SuitesRoot is the directory suite names resolve under.
	SuitesRoot string

	// Logger receives skip diagnostics. Defaults to slog.Default when
	// nil.
	Logger *slog.Logger
}

// Build enumerates the cross product of applications and versions (in
// the given orders, applications outer) and, for each pair, the suites
// available at that version. Invalid applications are diagnosed and
// skipped per version — the repeat diagnostics are deliberate, since
// validity is re-evaluated at every use. Suites that are missing or
// invalid at a version are likewise diagnosed and skipped.
func (b *Builder) Build(ctx context.Context, applications, versions []string) []circleci.MatrixEntry {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var entries []circleci.MatrixEntry
	for _, application := range applications {
		for _, version := range versions {
			if !b.Valid.IsValid(application) {
				logger.Warn("example app will not be executed: entrypoint script is missing",
					"app", application, "entrypoint", harness.EntrypointName)
				continue
			}

			for _, suite := range b.Suites.SuitesAt(ctx, version) {
				suitePath := filepath.Join(b.SuitesRoot, suite)
				if !b.Valid.IsValid(suitePath) {
					logger.Warn("test suite will not be executed: entrypoint script is missing",
						"suite", suite, "version", version, "entrypoint", harness.EntrypointName)
					continue
				}

				appName := harness.NameFromPath(application)
				entries = append(entries, circleci.MatrixEntry{TestExample: circleci.Descriptor{
					ExampleAppPath: application,
					ExampleAppName: appName,
					TestSuitePath:  suitePath,
					TestSuiteName:  suite,
					BBVersion:      version,
					Name:           circleci.JobName(appName, suite, version),
				}})
			}
		}
	}
	return entries
}
