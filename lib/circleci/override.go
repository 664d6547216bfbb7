// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package circleci

import (
	"fmt"
	"log/slog"
	"slices"

	"gopkg.in/yaml.v3"
)

// Override is a per-application YAML fragment contributing custom steps
// to the shared job. Before steps run between checkout and the shared
// test steps; After steps run after everything else.
type Override struct {
	Before []Step `yaml:"before"`
	After  []Step `yaml:"after"`
}

// ParseOverride unmarshals an override document. An empty document (the
// file exists but has no content) parses to an empty override, which
// merges as a no-op.
func ParseOverride(data []byte) (*Override, error) {
	var override Override
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parsing override: %w", err)
	}
	return &override, nil
}

// Empty reports whether the override contributes no steps.
func (o *Override) Empty() bool {
	return len(o.Before) == 0 && len(o.After) == 0
}

// MergeOverride returns the step sequence with the override's guarded
// blocks spliced in: the Before block inserted at index 1 (immediately
// after the leading checkout step), the After block appended at the
// tail. The input slice is not modified; callers thread the returned
// sequence through successive applications, so accumulation order is
// exactly call order — each Before insertion pushes earlier insertions
// deeper while After blocks stack at the end.
//
// Inserting a Before block into an empty sequence is an error: there is
// no checkout step to insert after, and extending anyway would corrupt
// the job. A leading step other than bare "checkout" is logged as a
// warning but still honored, since the insertion point is positional.
func MergeOverride(steps []Step, appName string, override *Override, logger *slog.Logger) ([]Step, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if override == nil || override.Empty() {
		return steps, nil
	}

	merged := slices.Clone(steps)

	if len(override.Before) > 0 {
		if len(merged) == 0 {
			return nil, fmt.Errorf("inserting before-steps for %s: job has no steps", appName)
		}
		if !merged[0].IsBare("checkout") {
			logger.Warn("first shared-job step is not checkout; before-steps may run earlier than intended",
				"app", appName)
		}
		merged = slices.Insert(merged, 1, GuardFor(appName, override.Before))
	}

	if len(override.After) > 0 {
		merged = append(merged, GuardFor(appName, override.After))
	}

	return merged, nil
}
