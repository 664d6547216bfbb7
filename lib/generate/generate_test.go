// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package generate

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/circlegen/lib/circleci"
	"github.com/bureau-foundation/circlegen/lib/config"
)

const baseTemplate = `version: 2.1
jobs:
  test-example:
    parameters:
      example-app-name:
        type: string
    steps:
      - checkout
      - run: ./run-tests.sh
workflows:
  test_everything:
    jobs: []
`

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

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// buildFixture creates the reference repository: app1 (valid, no
// override) and app2 (valid, with an after-override), one smoke suite,
// one release tag v1.0.0, floating branch main.
func buildFixture(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	command := exec.Command("git", "init", "-b", "main", dir)
	if output, err := command.CombinedOutput(); err != nil {
		t.Fatalf("git init: %v\n%s", err, output)
	}

	writeFile(t, filepath.Join(dir, "templates", "base-generated-config.yaml"), baseTemplate)
	writeFile(t, filepath.Join(dir, "examples", "app1", "test_entrypoint.sh"), "#!/bin/sh\n")
	writeFile(t, filepath.Join(dir, "examples", "app2", "test_entrypoint.sh"), "#!/bin/sh\n")
	writeFile(t, filepath.Join(dir, "examples", "app2", "circle_config.yml"), "after:\n  - run: cleanup\n")
	writeFile(t, filepath.Join(dir, "test", "smoke", "test_entrypoint.sh"), "#!/bin/sh\n")

	gitExec(t, dir, "add", ".")
	gitExec(t, dir, "commit", "-m", "initial")
	gitExec(t, dir, "tag", "v1.0.0")

	cfg := config.Default()
	cfg.Repo = dir
	resolved, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return resolved
}

func TestAssemble_ReferenceScenario(t *testing.T) {
	t.Parallel()

	cfg := buildFixture(t)
	generator := &Generator{Config: cfg}

	document, err := generator.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// 2 applications x 2 versions x 1 suite.
	jobs := document.Workflows[circleci.WorkflowName].Jobs
	if len(jobs) != 4 {
		t.Fatalf("workflow has %d jobs, want 4", len(jobs))
	}

	type triple struct{ app, version string }
	want := []triple{
		{"app1", "v1.0.0"},
		{"app1", "main"},
		{"app2", "v1.0.0"},
		{"app2", "main"},
	}
	for i, job := range jobs {
		entry, ok := job.(circleci.MatrixEntry)
		if !ok {
			t.Fatalf("job %d has type %T, want MatrixEntry", i, job)
		}
		descriptor := entry.TestExample
		if descriptor.ExampleAppName != want[i].app || descriptor.BBVersion != want[i].version {
			t.Errorf("job %d = %s@%s, want %s@%s", i,
				descriptor.ExampleAppName, descriptor.BBVersion, want[i].app, want[i].version)
		}
		if descriptor.TestSuiteName != "smoke" {
			t.Errorf("job %d suite = %q, want smoke", i, descriptor.TestSuiteName)
		}
		wantName := circleci.JobName(want[i].app, "smoke", want[i].version)
		if descriptor.Name != wantName {
			t.Errorf("job %d name = %q, want %q", i, descriptor.Name, wantName)
		}
	}

	// Exactly one guarded block, for app2, appended at the tail — not
	// one per matrix entry.
	steps := document.Jobs[circleci.SharedJobName].Steps
	if len(steps) != 3 {
		t.Fatalf("shared job has %d steps, want 3", len(steps))
	}
	if !steps[0].IsBare("checkout") {
		t.Error("step 0 is no longer checkout")
	}
	if !steps[2].GuardedFor("app2") {
		t.Error("last step is not a guard for app2")
	}
	guards := 0
	for _, step := range steps {
		if step.When != nil {
			guards++
		}
	}
	if guards != 1 {
		t.Errorf("shared job has %d guarded blocks, want 1", guards)
	}
}

func TestRun_WritesOutputAndIsIdempotent(t *testing.T) {
	t.Parallel()

	cfg := buildFixture(t)

	var firstStdout bytes.Buffer
	generator := &Generator{Config: cfg, Stdout: &firstStdout}
	if err := generator.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	written, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Equal(written, firstStdout.Bytes()) {
		t.Error("output file and stdout differ")
	}
	if !strings.Contains(string(written), "run: cleanup") {
		t.Error("generated document lost the override step")
	}
	if strings.Count(string(written), "run: cleanup") != 1 {
		t.Error("override step duplicated in generated document")
	}

	var secondStdout bytes.Buffer
	generator = &Generator{Config: cfg, Stdout: &secondStdout}
	if err := generator.Run(context.Background()); err != nil {
		t.Fatalf("Run (second): %v", err)
	}
	rewritten, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatalf("reading output after second run: %v", err)
	}
	if !bytes.Equal(written, rewritten) {
		t.Error("second run changed the output file")
	}
	if !bytes.Equal(firstStdout.Bytes(), secondStdout.Bytes()) {
		t.Error("second run printed a different document")
	}
}

func TestAssemble_MissingBaseTemplate(t *testing.T) {
	t.Parallel()

	cfg := buildFixture(t)
	cfg.BaseTemplate = filepath.Join(cfg.Repo, "missing.yaml")

	if _, err := (&Generator{Config: cfg}).Assemble(context.Background()); err == nil {
		t.Fatal("Assemble with missing base template succeeded, want error")
	}
}

func TestAssemble_BaseTemplateWithoutRequiredKeys(t *testing.T) {
	t.Parallel()

	cfg := buildFixture(t)
	writeFile(t, cfg.BaseTemplate, "version: 2.1\n")

	_, err := (&Generator{Config: cfg}).Assemble(context.Background())
	if err == nil {
		t.Fatal("Assemble with incomplete base template succeeded, want error")
	}
	if !strings.Contains(err.Error(), circleci.WorkflowName) {
		t.Errorf("error %q does not name the missing workflow", err)
	}
}

func TestAssemble_MalformedOverrideIsFatal(t *testing.T) {
	t.Parallel()

	cfg := buildFixture(t)
	overridePath := filepath.Join(cfg.Examples, "app2", "circle_config.yml")
	writeFile(t, overridePath, "after: [unterminated")

	if _, err := (&Generator{Config: cfg}).Assemble(context.Background()); err == nil {
		t.Fatal("Assemble with malformed override succeeded, want error")
	}
}

func TestWriteIfChanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "generated.yml")

	changed, err := writeIfChanged(path, []byte("a\n"))
	if err != nil {
		t.Fatalf("writeIfChanged: %v", err)
	}
	if !changed {
		t.Error("first write reported unchanged")
	}

	changed, err = writeIfChanged(path, []byte("a\n"))
	if err != nil {
		t.Fatalf("writeIfChanged (same content): %v", err)
	}
	if changed {
		t.Error("identical content reported as changed")
	}

	changed, err = writeIfChanged(path, []byte("b\n"))
	if err != nil {
		t.Fatalf("writeIfChanged (new content): %v", err)
	}
	if !changed {
		t.Error("new content reported unchanged")
	}
}
