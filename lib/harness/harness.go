// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package harness decides which directories participate in the test
// matrix. An example application or test suite is eligible when its
// directory directly contains the entrypoint script; applications may
// additionally carry a CircleCI override fragment.
package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/circlegen/lib/circleci"
)

const (
	// EntrypointName is the marker script whose presence makes a
	// directory a valid application or test suite. The script is the
	// harness's initialization hook; a directory without it is
	// silently excluded from the matrix.
	EntrypointName = "test_entrypoint.sh"

	// OverrideName is the optional per-application override fragment
	// with custom before/after steps for the shared job.
	OverrideName = "circle_config.yml"
)

// Validator reports directory eligibility. It is a value type with no
// state; it exists so matrix building can accept the predicate as an
// interface and tests can substitute their own.
type Validator struct{}

// IsValid reports whether path is an existing directory whose
// immediate contents include the entrypoint script.
func (Validator) IsValid(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(path, EntrypointName))
	return err == nil
}

// HasOverride reports whether the application directory carries an
// override fragment.
func HasOverride(path string) bool {
	info, err := os.Stat(filepath.Join(path, OverrideName))
	return err == nil && !info.IsDir()
}

// LoadOverride reads and parses the application's override fragment.
// Returns (nil, nil) when the file does not exist — including when it
// vanished between a HasOverride check and the read. A malformed
// fragment is an error.
func LoadOverride(path string) (*circleci.Override, error) {
	data, err := os.ReadFile(filepath.Join(path, OverrideName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading override for %s: %w", path, err)
	}

	override, err := circleci.ParseOverride(data)
	if err != nil {
		return nil, fmt.Errorf("override for %s: %w", path, err)
	}
	return override, nil
}

// Applications lists the application directories under root as
// absolute paths, in directory order. Non-directories are skipped.
// Validity is not checked here — the matrix builder evaluates it per
// use, so an application that loses its entrypoint at some version is
// still diagnosed at every (application, version) pair.
func Applications(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("listing examples root %s: %w", root, err)
	}

	var applications []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path, err := filepath.Abs(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", entry.Name(), err)
		}
		applications = append(applications, path)
	}
	return applications, nil
}

// NameFromPath extracts an application or suite display name from its
// path: the base name of the directory.
func NameFromPath(path string) string {
	return filepath.Base(path)
}
