// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"github.com/bureau-foundation/circlegen/lib/gitrepo"
)

// gitExec runs a git command in dir and fails the test on error.
func gitExec(t *testing.T, dir string, args ...string) {
	t.Helper()

	command := exec.Command("git", append([]string{"-C", dir}, args...)...)
	command.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME=Test",
		"GIT_COMMITTER_EMAIL=test@test.local",
		"GIT_AUTHOR_NAME=Test",
		"GIT_AUTHOR_EMAIL=test@test.local",
	)
	if output, err := command.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, output)
	}
}

// initRepo creates a repository with an initial commit on main.
func initRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	command := exec.Command("git", "init", "-b", "main", dir)
	if output, err := command.CombinedOutput(); err != nil {
		t.Fatalf("git init: %v\n%s", err, output)
	}

	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("test\n"), 0644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	gitExec(t, dir, "add", ".")
	gitExec(t, dir, "commit", "-m", "initial")
	return dir
}

// addSuite commits a test suite directory under test/.
func addSuite(t *testing.T, dir, name string) {
	t.Helper()

	suiteDir := filepath.Join(dir, "test", name)
	if err := os.MkdirAll(suiteDir, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", suiteDir, err)
	}
	entrypoint := filepath.Join(suiteDir, "test_entrypoint.sh")
	if err := os.WriteFile(entrypoint, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("write entrypoint: %v", err)
	}
	gitExec(t, dir, "add", ".")
	gitExec(t, dir, "commit", "-m", "add suite "+name)
}

func newSource(dir string) *Source {
	return &Source{
		Repo:       gitrepo.NewRepository(dir),
		SuitesRoot: filepath.Join(dir, "test"),
		Branch:     "main",
	}
}

func TestVersions_FiltersAndAppendsBranch(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	// Mix of release tags and tags the pattern must reject.
	for _, tag := range []string{
		"v1.0.0", "v10.20.30", "latest", // accepted
		"v01.0.0", "v1.2", "v1.2.3.4", "nightly", "latest-rc", // rejected
	} {
		gitExec(t, dir, "tag", tag)
	}

	versions, err := newSource(dir).Versions(context.Background())
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}

	// git tag -l lists lexicographically; the branch comes last.
	want := []string{"latest", "v1.0.0", "v10.20.30", "main"}
	if !slices.Equal(versions, want) {
		t.Errorf("Versions = %v, want %v", versions, want)
	}
}

func TestVersions_NoMatchingTags(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	gitExec(t, dir, "tag", "nightly")

	versions, err := newSource(dir).Versions(context.Background())
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if want := []string{"main"}; !slices.Equal(versions, want) {
		t.Errorf("Versions = %v, want %v", versions, want)
	}
}

func TestSuitesAt_TracksVersion(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	addSuite(t, dir, "smoke")
	gitExec(t, dir, "tag", "v1.0.0")
	addSuite(t, dir, "integration")

	source := newSource(dir)
	ctx := context.Background()

	// At the tag, only the first suite exists.
	suites := source.SuitesAt(ctx, "v1.0.0")
	if want := []string{"smoke"}; !slices.Equal(suites, want) {
		t.Errorf("SuitesAt(v1.0.0) = %v, want %v", suites, want)
	}

	// On the branch, both do.
	suites = source.SuitesAt(ctx, "main")
	if want := []string{"integration", "smoke"}; !slices.Equal(suites, want) {
		t.Errorf("SuitesAt(main) = %v, want %v", suites, want)
	}
}

func TestSuitesAt_CheckoutFailure(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	addSuite(t, dir, "smoke")

	suites := newSource(dir).SuitesAt(context.Background(), "no-such-version")
	if len(suites) != 0 {
		t.Errorf("SuitesAt on failed checkout = %v, want empty", suites)
	}
}

func TestSuitesAt_MissingSuitesRoot(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)

	// The repository has no test/ directory at all.
	suites := newSource(dir).SuitesAt(context.Background(), "main")
	if len(suites) != 0 {
		t.Errorf("SuitesAt without suites root = %v, want empty", suites)
	}
}

func TestTagPattern(t *testing.T) {
	t.Parallel()

	accepted := []string{"v0.0.0", "v1.0.0", "v10.20.30", "v0.1.0", "latest"}
	rejected := []string{
		"v01.0.0", "v1.02.0", "v1.0.00", // leading zeros
		"v1.0", "v1.0.0.0", "v1", // wrong arity
		"1.0.0", "V1.0.0", "latest-rc", "xlatest", "nightly", "",
	}

	for _, tag := range accepted {
		if !tagPattern.MatchString(tag) {
			t.Errorf("tagPattern rejects %q, want accept", tag)
		}
	}
	for _, tag := range rejected {
		if tagPattern.MatchString(tag) {
			t.Errorf("tagPattern accepts %q, want reject", tag)
		}
	}
}
