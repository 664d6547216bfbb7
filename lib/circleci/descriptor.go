// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package circleci

import "fmt"

// Descriptor is one generated pipeline job instance: an invocation of
// the shared job for a specific (application, version, suite) triple.
// The field names are the shared job's parameter names in the base
// template and must not change.
type Descriptor struct {
	ExampleAppPath string `yaml:"example-app-path"`
	ExampleAppName string `yaml:"example-app-name"`
	TestSuitePath  string `yaml:"test-suite-path"`
	TestSuiteName  string `yaml:"test-suite-name"`
	BBVersion      string `yaml:"bb-version"`
	Name           string `yaml:"name"`
}

// MatrixEntry wraps a descriptor in the single-key mapping form the
// workflow job list uses: {"test-example": {...}}.
type MatrixEntry struct {
	TestExample Descriptor `yaml:"test-example"`
}

// JobName composes the human-readable job name for a descriptor. The
// exact format, including the space before the comma, is relied on by
// consumers of the generated document.
func JobName(appName, suiteName, version string) string {
	return fmt.Sprintf("%s (%s test suite , version: %s)", appName, suiteName, version)
}
