package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/forgelab/packforge/internal/build"
	"github.com/forgelab/packforge/internal/definition"
	"github.com/forgelab/packforge/internal/history"
	"github.com/forgelab/packforge/internal/metrics"
	"github.com/forgelab/packforge/internal/packer"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output    string `short:"o" help:"Path for the rendered template (overrides the definition's output)"`
	Packer    string `help:"Packer binary to invoke" default:"packer"`
	Preflight bool   `help:"Run packer validate before building"`
	DryRun    bool   `name:"dry-run" help:"Render and persist the template without invoking packer"`
	History   string `help:"SQLite database recording build runs" type:"path"`
}

func (b *BuildCmd) Run(root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := runPipeline(ctx, pipelineOptions{
		definitionPath: root.Definition,
		output:         b.Output,
		packerBin:      b.Packer,
		preflight:      b.Preflight,
		dryRun:         b.DryRun,
		historyPath:    b.History,
	})
	if err != nil {
		return err
	}
	if res.Stdout != "" {
		fmt.Print(res.Stdout)
	}
	return nil
}

// pipelineOptions collects everything one pipeline run needs; shared by
// the build and watch commands.
type pipelineOptions struct {
	definitionPath string
	output         string
	packerBin      string
	preflight      bool
	dryRun         bool
	historyPath    string
	recorder       metrics.Recorder
}

func runPipeline(ctx context.Context, opts pipelineOptions) (*build.Result, error) {
	def, err := definition.Load(opts.definitionPath)
	if err != nil {
		return nil, err
	}
	tpl, err := def.Template(opts.output)
	if err != nil {
		return nil, err
	}

	svc := build.NewService(packer.NewExecRunner(opts.packerBin))
	if opts.recorder != nil {
		svc = svc.WithRecorder(opts.recorder)
	}
	if opts.historyPath != "" {
		store, err := history.NewSQLiteStore(opts.historyPath)
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
		svc = svc.WithHistory(store)
	}

	return svc.Run(ctx, build.Request{
		Template:  tpl,
		Preflight: opts.preflight,
		DryRun:    opts.dryRun,
	})
}
