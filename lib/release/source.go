// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package release discovers the versions the test matrix spans and the
// test suites available at each version. Versions are git tags in
// release form (vX.Y.Z or the literal "latest"); the floating branch
// is always included as the final version so unreleased work is tested
// too. Suites are discovered per version by checking that version out
// and listing the suites root, because the suite set changes across
// the project's history.
package release

import (
	"context"
	"log/slog"
	"os"
	"regexp"

	"github.com/bureau-foundation/circlegen/lib/gitrepo"
)

// tagPattern is the accepted release tag grammar: v<major>.<minor>.<patch>
// with each component either 0 or free of leading zeros, or the literal
// tag "latest".
var tagPattern = regexp.MustCompile(`^(v(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)|latest)$`)

// Source enumerates versions and the suites available at each.
type Source struct {
	// Repo is the repository whose tags and working tree drive
	// discovery.
	Repo *gitrepo.Repository

	// SuitesRoot is the directory listed (after checkout) to find test
	// suites. It lives inside the repository working tree, so its
	// contents change with the checked out revision.
	SuitesRoot string

	// Branch is the floating branch appended after all release tags.
	Branch string

	// Logger receives diagnostics for skippable failures. Defaults to
	// slog.Default when nil.
	Logger *slog.Logger
}

// Versions lists every release tag in the order the tag listing
// reports them, with the floating branch appended last. A repository
// with no matching tags yields just the branch; that is not an error.
func (s *Source) Versions(ctx context.Context) ([]string, error) {
	tags, err := s.Repo.Tags(ctx)
	if err != nil {
		return nil, err
	}

	var versions []string
	for _, tag := range tags {
		if tagPattern.MatchString(tag) {
			versions = append(versions, tag)
		}
	}
	return append(versions, s.Branch), nil
}

// SuitesAt checks out the given version and lists the suites root,
// returning entry names in directory order. Checkout mutates the
// single shared working tree — callers must not interleave SuitesAt
// with other working-tree access, and the method is not safe to call
// concurrently. A failed checkout (or unreadable suites root) is
// logged and yields zero suites rather than an error: that version
// simply contributes nothing to the matrix.
func (s *Source) SuitesAt(ctx context.Context, version string) []string {
	if err := s.Repo.Checkout(ctx, version); err != nil {
		s.logger().Warn("failed to check out version; no test suites for it",
			"version", version, "error", err)
		return nil
	}

	entries, err := os.ReadDir(s.SuitesRoot)
	if err != nil {
		s.logger().Warn("failed to list test suites root",
			"version", version, "root", s.SuitesRoot, "error", err)
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func (s *Source) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
