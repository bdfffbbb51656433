package anomaly

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNormalize_SortsByInstant(t *testing.T) {
	records := []Record{
		{City: "C", Country: "X", Date: "2025-03-08T14:00", Timezone: "UTC"},
		{City: "A", Country: "X", Date: "2025-03-08T12:00", Timezone: "UTC"},
		{City: "B", Country: "X", Date: "2025-03-08T13:00", Timezone: "UTC"},
	}

	events, err := Normalize(records, nil)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}

	want := []string{"A", "B", "C"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, city := range want {
		if events[i].City != city {
			t.Errorf("events[%d].City = %q, want %q", i, events[i].City, city)
		}
	}
}

func TestNormalize_StableTies(t *testing.T) {
	// Same instant expressed in different zones.
	records := []Record{
		{City: "First", Date: "2025-03-08T12:00", Timezone: "UTC"},
		{City: "Second", Date: "2025-03-08T13:00", Timezone: "Europe/Paris"},
		{City: "Third", Date: "2025-03-08T07:00", Timezone: "America/New_York"},
	}

	events, err := Normalize(records, nil)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	for i, city := range []string{"First", "Second", "Third"} {
		if events[i].City != city {
			t.Errorf("events[%d].City = %q, want %q", i, events[i].City, city)
		}
	}
}

func TestNormalize_DropsUnresolvable(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	records := []Record{
		{Series: "S", City: "Late", Date: "2025-03-09", Timezone: "Europe/Rome"},
		{Series: "S", City: "Broken", Date: "2025-03-08", Timezone: "Nowhere/Special"},
		{Series: "S", City: "Early", Date: "2025-03-08T10:00", Timezone: "Europe/Rome"},
		{Series: "S", City: "Middle", Date: "2025-03-08T18:00", Timezone: "Europe/Rome"},
	}

	events, err := Normalize(records, logger)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, city := range []string{"Early", "Middle", "Late"} {
		if events[i].City != city {
			t.Errorf("events[%d].City = %q, want %q", i, events[i].City, city)
		}
	}

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "city=Broken") {
		t.Errorf("expected a warning naming the dropped record, got:\n%s", out)
	}
}

func TestNormalize_OneBadZoneAmongThree(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	records := []Record{
		{City: "B", Date: "2025-05-01T12:00", Timezone: "UTC"},
		{City: "Bad", Date: "2025-05-01T09:00", Timezone: "Not/AZone"},
		{City: "A", Date: "2025-05-01T10:00", Timezone: "UTC"},
	}

	events, err := Normalize(records, logger)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if len(events) != 2 || events[0].City != "A" || events[1].City != "B" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestNormalize_SetsDerivedFields(t *testing.T) {
	records := []Record{
		{Series: "Echo Rift", City: "Lisbon", Country: "Portugal", Date: "2025-03-08", Timezone: "Europe/Lisbon"},
		{Series: "Echo Rift", City: "Lisbon", Country: "Portugal", Date: "2025-03-08T11:00", Timezone: "Europe/Lisbon"},
	}

	events, err := Normalize(records, nil)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}

	if events[0].HasTime {
		t.Error("date-only record should have HasTime=false")
	}
	if !events[1].HasTime {
		t.Error("date-time record should have HasTime=true")
	}
	if events[0].ID == "" || events[0].ID == events[1].ID {
		t.Errorf("expected distinct non-empty IDs, got %q and %q", events[0].ID, events[1].ID)
	}
	if events[0].Location == nil || events[0].Location.String() != "Europe/Lisbon" {
		t.Errorf("Location = %v", events[0].Location)
	}

	again, _ := Normalize(records[:1], nil)
	if again[0].ID != events[0].ID {
		t.Errorf("ID not stable across runs: %q vs %q", again[0].ID, events[0].ID)
	}
}

func TestNormalize_NoEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	tests := []struct {
		name    string
		records []Record
	}{
		{"empty input", nil},
		{"all unresolvable", []Record{{City: "X", Date: "bogus", Timezone: "UTC"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := Normalize(tt.records, logger)
			if !errors.Is(err, ErrNoEvents) {
				t.Errorf("expected ErrNoEvents, got %v", err)
			}
			if events != nil {
				t.Errorf("expected nil events, got %v", events)
			}
		})
	}
}

func TestEvent_End(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}

	timed := Event{Start: time.Date(2025, 3, 8, 11, 0, 0, 0, tokyo), HasTime: true, Location: tokyo}
	if got, want := timed.End(), time.Date(2025, 3, 8, 14, 0, 0, 0, tokyo); !got.Equal(want) {
		t.Errorf("timed End = %v, want %v", got, want)
	}

	allDay := Event{Start: time.Date(2025, 3, 8, 0, 0, 0, 0, tokyo), Location: tokyo}
	want := time.Date(2025, 3, 9, 0, 0, 0, 0, tokyo).Add(-time.Nanosecond)
	if got := allDay.End(); !got.Equal(want) {
		t.Errorf("date-only End = %v, want %v", got, want)
	}
}
