package tray

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
	"github.com/cpuguy83/anomalybar/internal/board"
)

var now = time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)

func view(t *testing.T, starts ...time.Duration) *board.View {
	t.Helper()
	var events []anomaly.Event
	for i, d := range starts {
		events = append(events, anomaly.Event{
			Record:   anomaly.Record{Series: "Echo Rift", City: []string{"Lisbon", "Osaka", "Rome"}[i], Country: "X"},
			ID:       string(rune('a' + i)),
			Start:    now.Add(d),
			HasTime:  true,
			Location: time.UTC,
		})
	}
	v, err := board.Build(events, now, board.Options{
		Viewer: time.UTC,
		Style:  anomaly.CountdownCoarse,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return v
}

func TestStateFor(t *testing.T) {
	refreshErr := errors.New("boom")

	tests := []struct {
		name string
		v    *board.View
		err  error
		want State
	}{
		{"nothing to show", nil, nil, StateNormal},
		{"nothing loaded", nil, refreshErr, StateStale},
		{"refresh failed", view(t, 2*time.Hour), refreshErr, StateStale},
		{"running", view(t, -time.Hour, 2*time.Hour), nil, StateActive},
		{"imminent", view(t, 10*time.Minute), nil, StateImminent},
		{"at threshold", view(t, 15*time.Minute), nil, StateImminent},
		{"far away", view(t, 5*time.Hour), nil, StateNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateFor(tt.v, now, 15*time.Minute, tt.err); got != tt.want {
				t.Errorf("StateFor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTooltip(t *testing.T) {
	if got := Tooltip(nil, now, &anomaly.TransportError{Source: "site", Status: 500}); got != "Failed to load anomalies: fetch site: HTTP 500" {
		t.Errorf("Tooltip(nil) = %q", got)
	}

	if got := Tooltip(nil, now, nil); got != "No upcoming or current anomalies found." {
		t.Errorf("Tooltip(nil, nil) = %q", got)
	}

	v := view(t, -time.Hour, 3*time.Hour)
	got := Tooltip(v, now, nil)
	want := "Now: Echo Rift: Lisbon, X\nNext: Echo Rift: Osaka, X (2025-03-08 15:00 UTC) in 3 hours"
	if got != want {
		t.Errorf("Tooltip = %q, want %q", got, want)
	}

	got = Tooltip(v, now, errors.New("timeout"))
	if !strings.HasSuffix(got, "Last refresh failed: timeout") {
		t.Errorf("Tooltip with error = %q", got)
	}
}

func TestPixmaps(t *testing.T) {
	for _, s := range []State{StateNormal, StateImminent, StateActive, StateStale} {
		p := pixmaps[s]
		if len(p) != iconSize*iconSize*4 {
			t.Errorf("%v: pixmap length %d", s, len(p))
		}
		// Corners stay transparent.
		if p[0] != 0 {
			t.Errorf("%v: corner alpha = %d", s, p[0])
		}
	}
	if string(pixmaps[StateNormal]) == string(pixmaps[StateStale]) {
		t.Error("states should have distinct icons")
	}
}
