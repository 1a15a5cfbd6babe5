// Command packforge composes HashiCorp Packer JSON templates from
// declarative YAML definitions and drives the packer binary against them.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/forgelab/packforge/internal/version"
)

// CLI definition & global flags.
type CLI struct {
	Definition string           `short:"f" help:"Build definition file path" default:"packforge.yaml"`
	EnvFile    string           `help:"Load environment variables from this file before running" type:"path"`
	Verbose    bool             `short:"v" help:"Enable verbose logging"`
	Version    kong.VersionFlag `name:"version" help:"Show version and exit"`

	Render   RenderCmd   `cmd:"" help:"Render the packer template without building"`
	Validate ValidateCmd `cmd:"" help:"Validate the definition and the rendered template"`
	Build    BuildCmd    `cmd:"" help:"Render the template and run packer build"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild whenever the definition file changes"`
	History  HistoryCmd  `cmd:"" help:"Show recorded build runs"`
}

// AfterApply runs after flag parsing; loads the env file and sets up logging once.
func (c *CLI) AfterApply() error {
	if c.EnvFile != "" {
		if err := godotenv.Load(c.EnvFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("packforge"),
		kong.Description("Compose and run HashiCorp Packer templates."),
		kong.Vars{"version": version.Version},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
