package build

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/forgelab/packforge/internal/errors"
	"github.com/forgelab/packforge/internal/history"
	"github.com/forgelab/packforge/internal/packer"
	"github.com/forgelab/packforge/internal/template"
)

// mockRunner is a test double for packer.Runner.
type mockRunner struct {
	buildCalls    int
	validateCalls int
	buildResult   *packer.RunResult
	buildErr      error
}

func (m *mockRunner) Build(_ context.Context, _ string) (*packer.RunResult, error) {
	m.buildCalls++
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	return m.buildResult, nil
}

func (m *mockRunner) Validate(_ context.Context, _ string) (*packer.RunResult, error) {
	m.validateCalls++
	return &packer.RunResult{ExitCode: 0}, nil
}

func validTemplate(t *testing.T) *template.Template {
	t.Helper()
	tpl := template.New(filepath.Join(t.TempDir(), "template.json"))
	tpl.AddVariable("foo", "bar")
	if _, err := tpl.AddBuilder("virtualbox-iso"); err != nil {
		t.Fatalf("AddBuilder: %v", err)
	}
	return tpl
}

func TestServiceRunSuccess(t *testing.T) {
	runner := &mockRunner{buildResult: &packer.RunResult{
		Stdout: []byte("Build finished."),
	}}
	svc := NewService(runner)

	res, err := svc.Run(t.Context(), Request{Template: validTemplate(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Errorf("status = %s, want %s", res.Status, StatusSuccess)
	}
	if res.Stdout != "Build finished." {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if res.ID == "" {
		t.Error("result should carry a build id")
	}
	if runner.buildCalls != 1 {
		t.Errorf("build calls = %d, want 1", runner.buildCalls)
	}
}

func TestServiceRunNonZeroExit(t *testing.T) {
	runner := &mockRunner{buildResult: &packer.RunResult{
		ExitCode: 1,
		Stderr:   []byte("Error: no AMI access"),
	}}
	svc := NewService(runner)

	res, err := svc.Run(t.Context(), Request{Template: validTemplate(t)})
	if err == nil {
		t.Fatal("expected error for non-zero packer exit")
	}
	if !errors.IsCategory(err, errors.CategoryPacker) {
		t.Errorf("error category = %v, want packer", errors.GetCategory(err))
	}
	code, ok := errors.ExitCode(err)
	if !ok || code != 1 {
		t.Errorf("ExitCode = %d/%v, want 1/true", code, ok)
	}
	if res.Status != StatusFailed {
		t.Errorf("status = %s, want %s", res.Status, StatusFailed)
	}
	if res.Stderr != "Error: no AMI access" {
		t.Errorf("stderr = %q", res.Stderr)
	}
}

func TestServiceRunValidationShortCircuits(t *testing.T) {
	runner := &mockRunner{}
	svc := NewService(runner)

	// Zero builders: must fail before any I/O or packer invocation.
	tpl := template.New(filepath.Join(t.TempDir(), "never-written.json"))

	res, err := svc.Run(t.Context(), Request{Template: tpl})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.IsCategory(err, errors.CategoryValidation) {
		t.Errorf("error category = %v, want validation", errors.GetCategory(err))
	}
	if res.Status != StatusFailed {
		t.Errorf("status = %s, want %s", res.Status, StatusFailed)
	}
	if runner.buildCalls != 0 {
		t.Errorf("packer invoked %d times despite validation failure", runner.buildCalls)
	}
}

func TestServiceRunPersistShortCircuits(t *testing.T) {
	runner := &mockRunner{}
	svc := NewService(runner)

	// Parent directory does not exist, so WriteFile fails.
	tpl := template.New(filepath.Join(t.TempDir(), "missing", "template.json"))
	if _, err := tpl.AddBuilder("null"); err != nil {
		t.Fatalf("AddBuilder: %v", err)
	}

	_, err := svc.Run(t.Context(), Request{Template: tpl})
	if err == nil {
		t.Fatal("expected persist error")
	}
	if !errors.IsCategory(err, errors.CategoryFileSystem) {
		t.Errorf("error category = %v, want filesystem", errors.GetCategory(err))
	}
	if runner.buildCalls != 0 {
		t.Errorf("packer invoked %d times despite persist failure", runner.buildCalls)
	}
}

func TestServiceRunDryRun(t *testing.T) {
	runner := &mockRunner{}
	svc := NewService(runner)

	res, err := svc.Run(t.Context(), Request{Template: validTemplate(t), DryRun: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Errorf("status = %s, want %s", res.Status, StatusSuccess)
	}
	if runner.buildCalls != 0 {
		t.Error("dry run must not invoke packer")
	}
}

func TestServiceRunPreflight(t *testing.T) {
	runner := &mockRunner{buildResult: &packer.RunResult{}}
	svc := NewService(runner)

	_, err := svc.Run(t.Context(), Request{Template: validTemplate(t), Preflight: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.validateCalls != 1 {
		t.Errorf("validate calls = %d, want 1", runner.validateCalls)
	}
	if runner.buildCalls != 1 {
		t.Errorf("build calls = %d, want 1", runner.buildCalls)
	}
}

func TestServiceRunRecordsHistory(t *testing.T) {
	store, err := history.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	runner := &mockRunner{buildResult: &packer.RunResult{
		ExitCode: 2,
		Stderr:   []byte("boom"),
	}}
	svc := NewService(runner).WithHistory(store)

	tpl := validTemplate(t)
	res, runErr := svc.Run(t.Context(), Request{Template: tpl})
	if runErr == nil {
		t.Fatal("expected packer failure")
	}

	runs, err := store.ListByTemplate(t.Context(), tpl.Path())
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].BuildID != res.ID {
		t.Errorf("recorded build id %s, want %s", runs[0].BuildID, res.ID)
	}
	if runs[0].ExitCode != 2 || runs[0].Status != string(StatusFailed) {
		t.Errorf("recorded %s/%d, want failed/2", runs[0].Status, runs[0].ExitCode)
	}
}
