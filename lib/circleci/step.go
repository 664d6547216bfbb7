// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package circleci

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParameterReference is the CircleCI matrix-parameter reference that
// override guards compare against the application name. The shared job
// declares this parameter; at execution time it holds the name of the
// example application the job instance is testing.
const ParameterReference = "<< parameters.example-app-name >>"

// Step is one entry in a job's step sequence. Exactly one of the two
// fields is set:
//
//   - When, for a conditional block ({when: {condition: ..., steps: ...}}).
//     This is the only step shape the override merge produces or inspects.
//   - Raw, for every other shape (bare scalars like "checkout", plain
//     mappings like {run: ...}). Raw steps pass through untouched.
type Step struct {
	When *When
	Raw  *yaml.Node
}

// When is a conditional step block: its nested steps execute only when
// the condition holds.
type When struct {
	Condition Condition `yaml:"condition"`
	Steps     []Step    `yaml:"steps"`
}

// Condition is a CircleCI logic condition. Only equality is typed —
// that is the form circlegen generates. Other operators found in a
// base template are carried through Rest.
type Condition struct {
	Equal []any          `yaml:"equal,omitempty"`
	Rest  map[string]any `yaml:",inline"`
}

// whenDocument is the marshal shape for a guarded step.
type whenDocument struct {
	When *When `yaml:"when"`
}

// UnmarshalYAML decodes a step node, classifying single-key "when"
// mappings as conditional blocks and keeping everything else opaque.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode && len(value.Content) == 2 &&
		value.Content[0].Kind == yaml.ScalarNode && value.Content[0].Value == "when" {
		var when When
		if err := value.Content[1].Decode(&when); err != nil {
			return fmt.Errorf("decoding when block: %w", err)
		}
		s.When = &when
		return nil
	}

	s.Raw = value
	return nil
}

// MarshalYAML emits the when-block for conditional steps and the raw
// node for everything else.
func (s Step) MarshalYAML() (any, error) {
	if s.When != nil {
		return whenDocument{When: s.When}, nil
	}
	if s.Raw == nil {
		return nil, fmt.Errorf("step has neither a when block nor a raw node")
	}
	return s.Raw, nil
}

// IsBare reports whether the step is the given bare scalar step name
// (e.g. "checkout").
func (s Step) IsBare(name string) bool {
	return s.Raw != nil && s.Raw.Kind == yaml.ScalarNode && s.Raw.Value == name
}

// GuardFor wraps steps in a conditional block that executes them only
// when the shared job's example-app-name parameter equals appName.
func GuardFor(appName string, steps []Step) Step {
	return Step{When: &When{
		Condition: Condition{Equal: []any{ParameterReference, appName}},
		Steps:     steps,
	}}
}

// GuardedFor reports whether the step is a conditional block guarding
// on equality with the given application name.
func (s Step) GuardedFor(appName string) bool {
	if s.When == nil || len(s.When.Condition.Equal) != 2 {
		return false
	}
	reference, ok := s.When.Condition.Equal[0].(string)
	if !ok || reference != ParameterReference {
		return false
	}
	name, ok := s.When.Condition.Equal[1].(string)
	return ok && name == appName
}

// BareStep returns a step holding the bare scalar step name.
func BareStep(name string) Step {
	return Step{Raw: &yaml.Node{Kind: yaml.ScalarNode, Value: name}}
}

// RunStep returns a plain {run: command} step.
func RunStep(command string) Step {
	return Step{Raw: &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "run"},
			{Kind: yaml.ScalarNode, Value: command},
		},
	}}
}
