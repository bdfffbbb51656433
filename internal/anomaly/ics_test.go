package anomaly

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	ics "github.com/emersion/go-ical"
)

func TestWriteICS(t *testing.T) {
	records := []Record{
		{
			Series: "Echo Rift", City: "Lisbon", Country: "Portugal",
			Date: "2025-03-08T11:00", Timezone: "Europe/Lisbon",
			URL: "https://example.com/lisbon", Winner: "enlightened",
		},
		{
			Series: "Echo Rift", City: "Osaka", Country: "Japan",
			Date: "2025-03-15", Timezone: "Asia/Tokyo",
		},
	}
	events, err := Normalize(records, nil)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "anomalies.ics")
	if err := WriteICS(path, events); err != nil {
		t.Fatalf("WriteICS error: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cal, err := ics.NewDecoder(f).Decode()
	if err != nil {
		t.Fatalf("decode written ICS: %v", err)
	}

	var comps []*ics.Component
	for _, c := range cal.Children {
		if c.Name == ics.CompEvent {
			comps = append(comps, c)
		}
	}
	if len(comps) != 2 {
		t.Fatalf("expected 2 VEVENTs, got %d", len(comps))
	}

	lisbon := comps[0]
	if got, _ := lisbon.Props.Text(ics.PropUID); got != events[0].ID {
		t.Errorf("UID = %q, want %q", got, events[0].ID)
	}
	// SUMMARY is TEXT; the comma is escaped on the wire.
	if raw := lisbon.Props.Get(ics.PropSummary).Value; raw != `Echo Rift: Lisbon\, Portugal` {
		t.Errorf("raw SUMMARY = %q", raw)
	}
	if got, err := lisbon.Props.Text(ics.PropSummary); err != nil || got != "Echo Rift: Lisbon, Portugal" {
		t.Errorf("SUMMARY = %q (%v)", got, err)
	}
	start, err := lisbon.Props.DateTime(ics.PropDateTimeStart, time.UTC)
	if err != nil {
		t.Fatalf("DTSTART: %v", err)
	}
	if want := time.Date(2025, 3, 8, 11, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("DTSTART = %v, want %v", start, want)
	}
	end, err := lisbon.Props.DateTime(ics.PropDateTimeEnd, time.UTC)
	if err != nil {
		t.Fatalf("DTEND: %v", err)
	}
	if got := end.Sub(start); got != Duration {
		t.Errorf("duration = %v, want %v", got, Duration)
	}

	osaka := comps[1]
	if got := osaka.Props.Get(ics.PropDateTimeStart).Value; got != "20250315" {
		t.Errorf("date-only DTSTART = %q, want 20250315", got)
	}
	if got := osaka.Props.Get(ics.PropDateTimeEnd).Value; got != "20250316" {
		t.Errorf("date-only DTEND = %q, want 20250316", got)
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"full", Record{Series: "Echo Rift", City: "Lisbon", Country: "Portugal"}, "Echo Rift: Lisbon, Portugal"},
		{"no series", Record{City: "Lisbon", Country: "Portugal"}, "Lisbon, Portugal"},
		{"no country", Record{Series: "Echo Rift", City: "Lisbon"}, "Echo Rift: Lisbon"},
		{"series only", Record{Series: "Echo Rift"}, "Echo Rift"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{Record: tt.rec}
			if got := Summary(&e); got != tt.want {
				t.Errorf("Summary = %q, want %q", got, tt.want)
			}
		})
	}
}
