package main

import (
	"fmt"
	"log/slog"

	"github.com/forgelab/packforge/internal/definition"
	"github.com/forgelab/packforge/internal/template"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Output string `short:"o" help:"Write the rendered template here instead of stdout"`
}

func (r *RenderCmd) Run(root *CLI) error {
	def, err := definition.Load(root.Definition)
	if err != nil {
		return err
	}
	tpl, err := def.Template(r.Output)
	if err != nil {
		return err
	}

	if r.Output == "" {
		data, err := tpl.Marshal(template.FormatJSON)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if err := tpl.WriteFile(); err != nil {
		return err
	}
	slog.Info("Template rendered", "path", tpl.Path())
	return nil
}
