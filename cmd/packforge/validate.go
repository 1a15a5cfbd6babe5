package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/forgelab/packforge/internal/definition"
	"github.com/forgelab/packforge/internal/errors"
	"github.com/forgelab/packforge/internal/packer"
)

// ValidateCmd implements the 'validate' command: structural checks first,
// then `packer validate` against the persisted template when the binary is
// available.
type ValidateCmd struct {
	Output         string `short:"o" help:"Path for the rendered template (overrides the definition's output)"`
	Packer         string `help:"Packer binary to invoke" default:"packer"`
	StructuralOnly bool   `name:"structural-only" help:"Skip invoking packer validate"`
}

func (v *ValidateCmd) Run(root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	def, err := definition.Load(root.Definition)
	if err != nil {
		return err
	}
	tpl, err := def.Template(v.Output)
	if err != nil {
		return err
	}
	if err := tpl.Validate(); err != nil {
		return err
	}
	slog.Info("Template is structurally valid",
		"builders", len(tpl.Builders()),
		"provisioners", len(tpl.Provisioners()),
		"post_processors", len(tpl.PostProcessors()))

	if v.StructuralOnly {
		return nil
	}

	runner := packer.NewExecRunner(v.Packer)
	if !runner.Available() {
		slog.Warn("Packer binary not found; structural checks only", "binary", v.Packer)
		return nil
	}

	if err := tpl.WriteFile(); err != nil {
		return err
	}
	result, err := runner.Validate(ctx, tpl.Path())
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return errors.PackerFailed(result.ExitCode, string(result.Stderr))
	}
	fmt.Print(string(result.Stdout))
	return nil
}
