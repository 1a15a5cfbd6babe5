// Package build provides the canonical build execution pipeline for
// packforge: validate the template, persist it, then drive packer against
// the persisted document. All execution paths (CLI, watch mode, tests)
// route through Service.
package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/forgelab/packforge/internal/errors"
	"github.com/forgelab/packforge/internal/history"
	"github.com/forgelab/packforge/internal/logfields"
	"github.com/forgelab/packforge/internal/metrics"
	"github.com/forgelab/packforge/internal/packer"
	"github.com/forgelab/packforge/internal/template"
)

// Request contains the inputs for one pipeline run.
type Request struct {
	// Template is the composed template to build.
	Template *template.Template

	// Preflight runs `packer validate` against the persisted template
	// before building.
	Preflight bool

	// DryRun stops after persisting; packer is never invoked.
	DryRun bool
}

// Status represents the outcome of a pipeline run.
type Status string

const (
	// StatusSuccess indicates packer exited zero (or the dry run persisted).
	StatusSuccess Status = "success"

	// StatusFailed indicates any step of the pipeline failed.
	StatusFailed Status = "failed"
)

// IsSuccess returns true if the run completed successfully.
func (s Status) IsSuccess() bool { return s == StatusSuccess }

// Result contains the outcome of a pipeline run.
type Result struct {
	// ID uniquely identifies this run.
	ID string

	// Status is the overall outcome.
	Status Status

	// TemplatePath is where the serialized template was written.
	TemplatePath string

	// Stdout and Stderr are packer's captured output (empty when packer
	// was never reached).
	Stdout string
	Stderr string

	// ExitCode is packer's exit status.
	ExitCode int

	// StartTime, EndTime, and Duration describe the full pipeline span.
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Service executes the validate → persist → packer pipeline. Each run is
// independent; the service holds no per-run state.
type Service struct {
	runner   packer.Runner
	recorder metrics.Recorder
	store    history.Store
}

// NewService returns a Service driving the given runner, with metrics and
// history disabled until injected.
func NewService(runner packer.Runner) *Service {
	return &Service{
		runner:   runner,
		recorder: metrics.NoopRecorder{},
	}
}

// WithRecorder injects a metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory injects a run store.
func (s *Service) WithHistory(store history.Store) *Service {
	s.store = store
	return s
}

// Run executes the pipeline and short-circuits on the first failing step:
// a validation failure aborts before any I/O, a persist failure aborts
// before packer is invoked, and a non-zero packer exit yields a packer
// error carrying the exit status and captured stderr.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{
		ID:           uuid.NewString(),
		Status:       StatusFailed,
		TemplatePath: req.Template.Path(),
		StartTime:    time.Now(),
	}
	slog.Info("Starting build pipeline", logfields.BuildID(res.ID), logfields.Template(res.TemplatePath))

	if err := req.Template.Validate(); err != nil {
		return s.finish(ctx, res, err)
	}

	if err := req.Template.WriteFile(); err != nil {
		return s.finish(ctx, res, err)
	}
	slog.Info("Template persisted", logfields.Path(res.TemplatePath))

	if req.DryRun {
		res.Status = StatusSuccess
		return s.finish(ctx, res, nil)
	}

	if req.Preflight {
		run, err := s.runner.Validate(ctx, res.TemplatePath)
		if err != nil {
			return s.finish(ctx, res, err)
		}
		if run.ExitCode != 0 {
			res.ExitCode = run.ExitCode
			res.Stderr = string(run.Stderr)
			return s.finish(ctx, res, errors.PackerFailed(run.ExitCode, res.Stderr))
		}
	}

	run, err := s.runner.Build(ctx, res.TemplatePath)
	if err != nil {
		return s.finish(ctx, res, err)
	}
	res.Stdout = string(run.Stdout)
	res.Stderr = string(run.Stderr)
	res.ExitCode = run.ExitCode
	s.recorder.IncPackerExit(run.ExitCode)

	if run.ExitCode != 0 {
		return s.finish(ctx, res, errors.PackerFailed(run.ExitCode, res.Stderr))
	}

	res.Status = StatusSuccess
	return s.finish(ctx, res, nil)
}

func (s *Service) finish(ctx context.Context, res *Result, err error) (*Result, error) {
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)

	s.recorder.IncBuildOutcome(string(res.Status))
	s.recorder.ObserveBuildDuration(res.Duration)

	if s.store != nil {
		recordErr := s.store.Record(ctx, history.Run{
			BuildID:      res.ID,
			TemplatePath: res.TemplatePath,
			Status:       string(res.Status),
			ExitCode:     res.ExitCode,
			Stderr:       res.Stderr,
			StartedAt:    res.StartTime,
			Duration:     res.Duration,
		})
		if recordErr != nil {
			slog.Warn("Failed to record build run", logfields.BuildID(res.ID), logfields.Error(recordErr))
		}
	}

	if err != nil {
		slog.Error("Build pipeline failed", logfields.BuildID(res.ID), logfields.Error(err))
	} else {
		slog.Info("Build pipeline finished",
			logfields.BuildID(res.ID),
			logfields.Status(string(res.Status)),
			logfields.DurationMS(float64(res.Duration.Milliseconds())))
	}
	return res, err
}
