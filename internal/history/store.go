// Package history persists a record of every build pipeline run so past
// outcomes can be inspected after the fact.
package history

import (
	"context"
	"time"
)

// Run is one recorded build invocation.
type Run struct {
	ID           int64
	BuildID      string
	TemplatePath string
	Status       string
	ExitCode     int
	Stderr       string
	StartedAt    time.Time
	Duration     time.Duration
}

// Store defines the interface for persisting and retrieving build runs.
type Store interface {
	// Record appends a completed run to the store.
	Record(ctx context.Context, run Run) error

	// ListByTemplate retrieves all runs for a template path, oldest first.
	ListByTemplate(ctx context.Context, templatePath string) ([]Run, error)

	// Recent retrieves the most recent runs across all templates, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)

	// Close closes the store and releases resources.
	Close() error
}
