// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package circleci

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixed key names in the base template. These are external interface:
// the base template and the pipeline engine consuming the generated
// document both refer to them.
const (
	// WorkflowName is the workflow whose job list circlegen replaces.
	WorkflowName = "test_everything"

	// SharedJobName is the parameterized job that every generated
	// matrix entry invokes, and whose step sequence per-application
	// overrides extend.
	SharedJobName = "test-example"
)

// Config is a CircleCI configuration document. Jobs and Workflows are
// typed because circlegen rewrites them; every other top-level key is
// carried in Rest and round-trips unchanged.
type Config struct {
	Jobs      map[string]*Job      `yaml:"jobs,omitempty"`
	Workflows map[string]*Workflow `yaml:"workflows,omitempty"`
	Rest      map[string]any       `yaml:",inline"`
}

// Job is a single job definition. Only the step sequence is typed.
type Job struct {
	Steps []Step         `yaml:"steps,omitempty"`
	Rest  map[string]any `yaml:",inline"`
}

// Workflow is a single workflow definition. Only the job list is typed.
// The jobs key is never omitted: an empty matrix renders as "jobs: []",
// the key is replaced, not removed.
type Workflow struct {
	Jobs []any          `yaml:"jobs"`
	Rest map[string]any `yaml:",inline"`
}

// Parse unmarshals a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &config, nil
}

// ReadFile reads and parses a YAML configuration file. Returns a
// descriptive error if the file cannot be read or the YAML is
// malformed.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Validate checks that the document has the structure circlegen needs:
// the workflow whose job list is replaced, and the shared job with a
// non-empty step sequence for override insertion. All problems are
// reported at once.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := c.Workflows[WorkflowName]; !ok {
		errs = append(errs, fmt.Errorf("missing workflows.%s", WorkflowName))
	}

	job, ok := c.Jobs[SharedJobName]
	if !ok {
		errs = append(errs, fmt.Errorf("missing jobs.%s", SharedJobName))
	} else if len(job.Steps) == 0 {
		errs = append(errs, fmt.Errorf("jobs.%s.steps is empty; override steps have no insertion point", SharedJobName))
	}

	return errors.Join(errs...)
}

// InstallMatrix replaces the job list of the generated workflow with
// the given matrix entries. Returns an error if the workflow is absent
// from the document.
func (c *Config) InstallMatrix(entries []MatrixEntry) error {
	workflow, ok := c.Workflows[WorkflowName]
	if !ok {
		return fmt.Errorf("missing workflows.%s", WorkflowName)
	}

	jobs := make([]any, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, entry)
	}
	workflow.Jobs = jobs
	return nil
}

// Render serializes the document to YAML with two-space indentation.
// yaml.v3 sorts map keys, so rendering is deterministic: identical
// documents produce identical bytes.
func (c *Config) Render() ([]byte, error) {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("rendering config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("rendering config: %w", err)
	}
	return buffer.Bytes(), nil
}
