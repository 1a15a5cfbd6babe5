package main

import (
	"context"
	"fmt"
	"time"

	"github.com/forgelab/packforge/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Database string `help:"SQLite database recording build runs" default:"packforge.db" type:"path"`
	Template string `help:"Only show runs for this template path"`
	Limit    int    `help:"Number of runs to show" default:"10"`
}

func (h *HistoryCmd) Run(_ *CLI) error {
	store, err := history.NewSQLiteStore(h.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	var runs []history.Run
	if h.Template != "" {
		runs, err = store.ListByTemplate(ctx, h.Template)
	} else {
		runs, err = store.Recent(ctx, h.Limit)
	}
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no recorded build runs")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  %-7s exit=%-3d %-8s %s  %s\n",
			run.StartedAt.Format(time.RFC3339),
			run.Status,
			run.ExitCode,
			run.Duration.Round(time.Millisecond),
			run.BuildID,
			run.TemplatePath)
	}
	return nil
}
