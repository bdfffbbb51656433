// anomalybar is a system tray app that counts down to upcoming Ingress anomalies.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // event zones must resolve on hosts without a zone database

	"github.com/cpuguy83/anomalybar/internal/anomaly"
	"github.com/cpuguy83/anomalybar/internal/board"
	"github.com/cpuguy83/anomalybar/internal/config"
	"github.com/cpuguy83/anomalybar/internal/countdown"
	"github.com/cpuguy83/anomalybar/internal/sync"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (default: ~/.config/anomalybar/config.yaml)")
		source     = flag.String("source", "", "anomaly document URL or file; replaces the configured sources")
		timezone   = flag.String("tz", "", "viewer timezone (default: ui.timezone or the system zone)")
		once       = flag.Bool("once", false, "print the board once and exit")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	// Setup logging
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath, *source)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *timezone != "" {
		cfg.UI.Timezone = *timezone
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid timezone", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		if err := printBoard(ctx, os.Stdout, cfg, logger); err != nil {
			os.Exit(1)
		}
		return
	}

	slog.Info("starting anomalybar",
		"interval", cfg.Sync.Interval,
		"schedule", cfg.Sync.Schedule,
		"sources", len(cfg.Sources),
	)

	app, err := NewApp(cfg, logger)
	if err != nil {
		slog.Error("failed to create app", "error", err)
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		slog.Error("app failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file. With source set, a missing default config
// is not an error and source replaces the configured sources.
func loadConfig(path, source string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
		if err != nil && source != "" && errors.Is(err, os.ErrNotExist) {
			cfg, err = config.Default(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	if source != "" {
		cfg.Sources = []config.SourceConfig{config.SourceFor(source)}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// printBoard refreshes once and writes the board, or the dataset message, to w.
// The returned error is non-nil when the dataset could not be loaded.
func printBoard(ctx context.Context, w io.Writer, cfg *config.Config, logger *slog.Logger) error {
	viewer, err := cfg.UI.Location()
	if err != nil {
		return err
	}

	syncer, err := sync.NewSyncer(cfg, sync.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(w, board.Message(err))
		return err
	}

	events, err := syncer.Sync(ctx)
	if err != nil {
		fmt.Fprintln(w, board.Message(err))
		if errors.Is(err, anomaly.ErrNoEvents) {
			return nil
		}
		return err
	}

	v, err := board.Build(events, countdown.SystemClock().Now(), board.Options{
		Viewer: viewer,
		Style:  anomaly.ParseCountdownStyle(cfg.UI.Countdown),
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintln(w, board.Message(err))
		return nil
	}

	for _, l := range v.Lines() {
		fmt.Fprintln(w, l.Text)
	}
	return nil
}
