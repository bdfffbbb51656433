package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
	"github.com/cpuguy83/anomalybar/internal/config"
)

// fakeSource implements anomaly.Source for testing.
type fakeSource struct {
	name    string
	records []anomaly.Record
	err     error
	delay   time.Duration
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) ([]anomaly.Record, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.records, f.err
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSync_MergesAndNormalizes(t *testing.T) {
	slow := &fakeSource{name: "slow", delay: 20 * time.Millisecond, records: []anomaly.Record{
		{Series: "A", City: "Late", Date: "2025-03-09T10:00", Timezone: "UTC"},
	}}
	fast := &fakeSource{name: "fast", records: []anomaly.Record{
		{Series: "B", City: "Early", Date: "2025-03-08T10:00", Timezone: "UTC"},
		{Series: "B", City: "Dropped", Date: "2025-03-08", Timezone: "Nowhere/Zone"},
	}}

	s, err := NewSyncer(config.Default(), WithLogger(quiet()), WithSources(slow, fast))
	if err != nil {
		t.Fatalf("NewSyncer error: %v", err)
	}

	events, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if len(events) != 2 || events[0].City != "Early" || events[1].City != "Late" {
		t.Errorf("unexpected events: %+v", events)
	}
	if s.SourceCount() != 2 {
		t.Errorf("SourceCount = %d", s.SourceCount())
	}
}

func TestSync_FailureAborts(t *testing.T) {
	ok := &fakeSource{name: "ok", records: []anomaly.Record{
		{City: "Lisbon", Date: "2025-03-08", Timezone: "Europe/Lisbon"},
	}}
	broken := &fakeSource{name: "broken", err: &anomaly.TransportError{Source: "broken", Status: 500}}

	s, err := NewSyncer(config.Default(), WithLogger(quiet()), WithSources(ok, broken))
	if err != nil {
		t.Fatalf("NewSyncer error: %v", err)
	}

	events, err := s.Sync(context.Background())
	var te *anomaly.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if events != nil {
		t.Errorf("expected no events on failure, got %d", len(events))
	}
}

func TestSync_NoEvents(t *testing.T) {
	s, err := NewSyncer(config.Default(), WithLogger(quiet()), WithSources(&fakeSource{name: "empty"}))
	if err != nil {
		t.Fatalf("NewSyncer error: %v", err)
	}
	if _, err := s.Sync(context.Background()); !errors.Is(err, anomaly.ErrNoEvents) {
		t.Errorf("expected ErrNoEvents, got %v", err)
	}
}

func TestSync_FiltersAndOutput(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "anomalies.json")
	err := os.WriteFile(doc, []byte(`[
		{"series": "Echo Rift", "city": "Lisbon", "country": "Portugal", "date": "2025-03-08T11:00", "timezone": "Europe/Lisbon"},
		{"series": "Echo Rift", "city": "Osaka", "country": "Japan", "date": "2025-03-08T11:00", "timezone": "Asia/Tokyo"},
		{"series": "Plus Theta", "city": "Denver", "country": "USA", "date": "2025-04-12", "timezone": "America/Denver"}
	]`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Parse([]byte(`
sync:
  output: ` + filepath.Join(dir, "out.ics") + `
sources:
  - name: local
    path: ` + doc + `
    filters:
      rules:
        - field: series
          exact: Echo Rift
filters:
  rules:
    - field: country
      exact: japan
      case_insensitive: true
`))
	if err != nil {
		t.Fatalf("config.Parse error: %v", err)
	}

	s, err := NewSyncer(cfg, WithLogger(quiet()))
	if err != nil {
		t.Fatalf("NewSyncer error: %v", err)
	}

	events, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if len(events) != 1 || events[0].City != "Osaka" {
		t.Errorf("unexpected events: %+v", events)
	}

	if _, err := os.Stat(filepath.Join(dir, "out.ics")); err != nil {
		t.Errorf("ICS output not written: %v", err)
	}
}

func TestNewSyncer_Errors(t *testing.T) {
	if _, err := NewSyncer(config.Default()); err == nil {
		t.Error("expected error with no sources")
	}

	cfg := config.Default()
	cfg.Sync.Schedule = "every now and then"
	if _, err := NewSyncer(cfg, WithSources(&fakeSource{name: "x"})); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestSyncer_Next(t *testing.T) {
	now := time.Date(2025, 3, 8, 12, 7, 30, 0, time.UTC)

	cfg := config.Default()
	s, err := NewSyncer(cfg, WithSources(&fakeSource{name: "x"}))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.next(now); !got.Equal(now.Add(cfg.Sync.Interval)) {
		t.Errorf("interval next = %v", got)
	}

	cfg.Sync.Schedule = "*/15 * * * *"
	s, err = NewSyncer(cfg, WithSources(&fakeSource{name: "x"}))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s.next(now), time.Date(2025, 3, 8, 12, 15, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("cron next = %v, want %v", got, want)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	src := &fakeSource{name: "x", records: []anomaly.Record{
		{City: "Lisbon", Date: "2025-03-08", Timezone: "Europe/Lisbon"},
	}}
	s, err := NewSyncer(config.Default(), WithLogger(quiet()), WithSources(src))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan error, 4)
	done := make(chan struct{})
	go func() {
		s.Run(ctx, func(events []anomaly.Event, err error) { calls <- err })
		close(done)
	}()

	select {
	case err := <-calls:
		if err != nil {
			t.Errorf("initial sync error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial sync")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
