package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/forgelab/packforge/internal/metrics"
)

// WatchCmd implements the 'watch' command: run the pipeline once, then
// re-run it whenever the definition file changes.
type WatchCmd struct {
	Output    string        `short:"o" help:"Path for the rendered template (overrides the definition's output)"`
	Packer    string        `help:"Packer binary to invoke" default:"packer"`
	Preflight bool          `help:"Run packer validate before each build"`
	DryRun    bool          `name:"dry-run" help:"Render and persist on change without invoking packer"`
	History   string        `help:"SQLite database recording build runs" type:"path"`
	Metrics   string        `help:"Serve Prometheus metrics on this address (e.g. :9090)"`
	Debounce  time.Duration `help:"Quiet period after a change before rebuilding" default:"500ms"`
}

func (w *WatchCmd) Run(root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipelineOptions{
		definitionPath: root.Definition,
		output:         w.Output,
		packerBin:      w.Packer,
		preflight:      w.Preflight,
		dryRun:         w.DryRun,
		historyPath:    w.History,
		recorder:       metrics.NoopRecorder{},
	}
	if w.Metrics != "" {
		reg := prom.NewRegistry()
		opts.recorder = metrics.NewPrometheusRecorder(reg)
		go serveMetrics(ctx, w.Metrics, reg)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors replace files instead of writing in place.
	absPath, err := filepath.Abs(root.Definition)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}
	slog.Info("Watching build definition", "path", absPath, "debounce", w.Debounce)

	runOnce := func() {
		if _, err := runPipeline(ctx, opts); err != nil {
			slog.Error("Build failed; watching for further changes", "error", err)
		}
	}
	runOnce()

	debounce := time.NewTimer(w.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping watch")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("Definition changed", "op", event.Op.String())
			debounce.Reset(w.Debounce)
		case <-debounce.C:
			runOnce()
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", watchErr)
		}
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Metrics server failed", "error", err)
	}
}
