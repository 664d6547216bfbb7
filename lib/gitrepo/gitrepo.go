// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package gitrepo provides the two git operations circlegen needs:
// listing tags and checking out revisions. Every command targets a
// specific repository directory via the -C flag, which Repository
// injects.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Repository represents a git repository at a specific directory. All
// operations target this directory via "git -C <dir>". There is no
// default directory — callers must always specify which repository
// they mean.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given directory.
// The directory must be a working tree: Checkout mutates the checked
// out revision in place.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Run executes a git command targeting this repository and returns
// stdout. Stderr is captured separately and included in error messages
// on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Tags lists all tags in the repository, one per line of "git tag -l"
// output, in the order git reports them. A repository without tags
// returns an empty slice, not an error.
func (r *Repository) Tags(ctx context.Context) ([]string, error) {
	output, err := r.Run(ctx, "tag", "-l")
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			tags = append(tags, line)
		}
	}
	return tags, nil
}

// Checkout switches the working tree to the given revision (a tag,
// branch, or commit). This mutates shared state: every path under the
// repository reflects the new revision until the next Checkout.
func (r *Repository) Checkout(ctx context.Context, revision string) error {
	if _, err := r.Run(ctx, "checkout", revision); err != nil {
		return fmt.Errorf("checking out %s: %w", revision, err)
	}
	return nil
}
