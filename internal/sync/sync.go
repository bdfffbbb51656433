// Package sync refreshes anomaly documents from the configured sources.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
	"github.com/cpuguy83/anomalybar/internal/config"
	"github.com/cpuguy83/anomalybar/internal/filter"
)

// sourceWithFilter pairs an anomaly source with its optional filter.
type sourceWithFilter struct {
	source anomaly.Source
	filter *filter.Filter
}

// Syncer fetches, filters and normalizes anomalies from multiple sources.
type Syncer struct {
	sources  []sourceWithFilter
	filter   *filter.Filter
	interval time.Duration
	schedule cron.Schedule
	output   string
	logger   *slog.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) { s.logger = l }
}

// WithSources replaces the configured sources.
func WithSources(sources ...anomaly.Source) Option {
	return func(s *Syncer) {
		s.sources = nil
		for _, src := range sources {
			s.sources = append(s.sources, sourceWithFilter{source: src})
		}
	}
}

// NewSyncer creates a new Syncer from configuration.
func NewSyncer(cfg *config.Config, opts ...Option) (*Syncer, error) {
	sources, err := createSources(cfg.Sources)
	if err != nil {
		return nil, err
	}

	global, err := filter.New(cfg.Filters)
	if err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}

	s := &Syncer{
		sources:  sources,
		filter:   global,
		interval: cfg.Sync.Interval,
		output:   cfg.Sync.Output,
		logger:   slog.Default(),
	}

	if cfg.Sync.Schedule != "" {
		sched, err := cron.ParseStandard(cfg.Sync.Schedule)
		if err != nil {
			return nil, fmt.Errorf("sync.schedule: %w", err)
		}
		s.schedule = sched
	}

	for _, opt := range opts {
		opt(s)
	}
	if len(s.sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}
	return s, nil
}

// Interval returns the configured sync interval.
func (s *Syncer) Interval() time.Duration {
	return s.interval
}

// SourceCount returns the number of configured sources.
func (s *Syncer) SourceCount() int {
	return len(s.sources)
}

// Sync fetches all sources, applies per-source and global filters, and
// returns the normalized events. Sources are merged in configuration order.
// Any failing source aborts the whole refresh.
func (s *Syncer) Sync(ctx context.Context) ([]anomaly.Event, error) {
	s.logger.Info("starting sync", "sources", len(s.sources))

	type result struct {
		records  []anomaly.Record
		fetched  int // count before filtering
		filtered int // count after filtering
		err      error
	}

	results := make([]result, len(s.sources))
	var wg sync.WaitGroup

	for i, swf := range s.sources {
		wg.Go(func() {
			name := swf.source.Name()
			s.logger.Debug("fetching source", "name", name)

			records, err := swf.source.Fetch(ctx)
			if err != nil {
				results[i] = result{err: err}
				return
			}

			fetched := len(records)
			if swf.filter != nil {
				records = swf.filter.Apply(records)
			}

			results[i] = result{
				records:  records,
				fetched:  fetched,
				filtered: len(records),
			}
		})
	}
	wg.Wait()

	var all []anomaly.Record
	for i, r := range results {
		name := s.sources[i].source.Name()
		if r.err != nil {
			s.logger.Warn("failed to fetch source", "name", name, "error", r.err)
			return nil, r.err
		}
		s.logger.Info("fetched source", "name", name, "fetched", r.fetched, "after_filter", r.filtered)
		all = append(all, r.records...)
	}

	all = s.filter.Apply(all)

	events, err := anomaly.Normalize(all, s.logger)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sync complete", "events", len(events))

	if s.output != "" {
		if err := anomaly.WriteICS(s.output, events); err != nil {
			s.logger.Warn("failed to write ICS", "path", s.output, "error", err)
		} else {
			s.logger.Debug("wrote ICS", "path", s.output, "events", len(events))
		}
	}

	return events, nil
}

// next returns when the sync after now should run.
func (s *Syncer) next(now time.Time) time.Time {
	if s.schedule != nil {
		return s.schedule.Next(now)
	}
	return now.Add(s.interval)
}

// Run starts the sync loop, calling onSync after each sync completes.
// The callback receives the synced events (or nil) and any error.
// Run blocks until the context is cancelled.
func (s *Syncer) Run(ctx context.Context, onSync func([]anomaly.Event, error)) {
	// Initial sync
	events, err := s.Sync(ctx)
	onSync(events, err)

	for {
		wait := time.Until(s.next(time.Now()))
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
			events, err := s.Sync(ctx)
			if ctx.Err() != nil {
				return
			}
			onSync(events, err)
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// createSources creates anomaly sources with their per-source filters from configuration.
func createSources(cfgs []config.SourceConfig) ([]sourceWithFilter, error) {
	var sources []sourceWithFilter

	for _, cfg := range cfgs {
		var src anomaly.Source

		switch cfg.Type {
		case "http":
			password, err := cfg.GetPassword()
			if err != nil {
				return nil, err
			}
			src = anomaly.NewHTTPSource(cfg.Name, cfg.URL, cfg.Username, password)

		case "file":
			src = anomaly.NewFileSource(cfg.Name, cfg.Path)

		default:
			slog.Warn("unknown source type", "type", cfg.Type, "name", cfg.Name)
			continue
		}

		// Create per-source filter (if no rules, filter passes everything through)
		f, err := filter.New(cfg.Filters)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
		}

		sources = append(sources, sourceWithFilter{
			source: src,
			filter: f,
		})
	}

	return sources, nil
}
