package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dshills/rewind/internal/canvas"
	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/engine/history"
	"github.com/dshills/rewind/internal/metrics"
	"github.com/dshills/rewind/internal/tui"
)

const shutdownTimeout = 5 * time.Second

func newTUICmd(o *globalOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit a canvas interactively in the terminal",
		Long: `tui opens a terminal canvas seeded with a few shapes. Arrow keys move
the selected shape, a adds, d deletes, +/- resize, r rotates, c recolors,
l toggles the lock, f brings to front, tab selects the next shape, u undoes
and U or ctrl+r redoes. q or esc quits.

When --config names a file, edits to its [history] section are applied
while the editor runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if metricsAddr == "" {
				metricsAddr = o.cfg.Metrics.Addr
			}
			return o.runTUI(cmd.Context(), metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func (o *globalOptions) runTUI(ctx context.Context, metricsAddr string) error {
	term, err := tui.NewTerminal()
	if err != nil {
		return fmt.Errorf("create terminal: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := canvas.New()
	eng, err := o.newEngine(c,
		engine.WithObserver(metrics.New(reg, o.cfg.Metrics.Namespace)),
		engine.WithObserver(tui.NewNotifier(term)),
	)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := tui.Seed(c, o.cfg.TUI.Objects); err != nil {
		return fmt.Errorf("seed canvas: %w", err)
	}
	if err := eng.CaptureNow(history.ActionAdd, "Initial scene"); err != nil {
		return err
	}
	canvas.Track(c, eng)

	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, reg, o)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if o.configPath != "" {
		w, err := config.NewWatcher(o.configPath, func(cfg config.Config) {
			if err := eng.ApplyConfig(cfg.History); err != nil {
				o.logger.Warn("apply config failed", "error", err)
			}
		},
			config.WithWatcherLogger(o.logger),
			config.WithErrorHandler(func(err error) {
				o.logger.Warn("config watch failed", "error", err)
			}),
		)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer w.Close()
	}

	if err := term.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer term.Shutdown()

	app := tui.New(term, c, eng, o.cfg.TUI, o.logger)
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, o *globalOptions) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	o.logger.Info("serving metrics", "addr", addr)
	return srv
}
