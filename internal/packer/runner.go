// Package packer drives the external packer binary against a persisted
// template and reports back its captured output and exit status.
package packer

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"os/exec"
	"time"

	"github.com/forgelab/packforge/internal/errors"
	"github.com/forgelab/packforge/internal/logfields"
)

// RunResult captures one packer invocation.
type RunResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner abstracts packer execution so the build pipeline can be exercised
// without the binary. A non-zero exit status is reported through
// RunResult.ExitCode, not through the error return; the error return is
// reserved for failures to invoke the tool at all.
type Runner interface {
	Build(ctx context.Context, templatePath string) (*RunResult, error)
	Validate(ctx context.Context, templatePath string) (*RunResult, error)
}

// ExecRunner runs the real packer binary via os/exec. The invocation blocks
// until the subprocess exits; cancellation is the caller's context.
type ExecRunner struct {
	bin string
}

// NewExecRunner returns a runner for the given binary. An empty bin falls
// back to "packer" resolved from PATH.
func NewExecRunner(bin string) *ExecRunner {
	if bin == "" {
		bin = "packer"
	}
	return &ExecRunner{bin: bin}
}

// Available reports whether the packer binary can be resolved.
func (r *ExecRunner) Available() bool {
	_, err := exec.LookPath(r.bin)
	return err == nil
}

// Build runs `packer build <templatePath>`.
func (r *ExecRunner) Build(ctx context.Context, templatePath string) (*RunResult, error) {
	return r.run(ctx, "build", templatePath)
}

// Validate runs `packer validate <templatePath>`.
func (r *ExecRunner) Validate(ctx context.Context, templatePath string) (*RunResult, error) {
	return r.run(ctx, "validate", templatePath)
}

func (r *ExecRunner) run(ctx context.Context, subcommand, templatePath string) (*RunResult, error) {
	cmd := exec.CommandContext(ctx, r.bin, subcommand, templatePath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("Running packer",
		logfields.Binary(r.bin), logfields.Subcommand(subcommand), logfields.Template(templatePath))
	start := time.Now()
	err := cmd.Run()
	result := &RunResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			slog.Warn("Packer exited with non-zero status",
				logfields.Subcommand(subcommand), logfields.ExitCode(result.ExitCode))
			return result, nil
		}
		return nil, errors.PackerInvocation(r.bin, err)
	}
	return result, nil
}
