package anomaly

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
)

// WriteICS writes events to an ICS file atomically.
// It writes to a temp file first, then renames to the final path.
func WriteICS(path string, events []Event) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var buf bytes.Buffer
	if err := ics.NewEncoder(&buf).Encode(Calendar(events, time.Now())); err != nil {
		return fmt.Errorf("encode ICS: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Calendar builds an iCalendar document with one VEVENT per event.
// stamp is used for DTSTAMP.
func Calendar(events []Event, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropVersion, "2.0")
	cal.Props.SetText(ics.PropProductID, "-//AnomalyBar//AnomalyBar//EN")

	for i := range events {
		e := &events[i]
		comp := ics.NewComponent(ics.CompEvent)

		comp.Props.SetText(ics.PropUID, e.ID)
		comp.Props.SetText(ics.PropSummary, Summary(e))
		comp.Props.SetDateTime(ics.PropDateTimeStamp, stamp.UTC())

		if loc := location(e); loc != "" {
			comp.Props.SetText(ics.PropLocation, loc)
		}
		if e.URL != "" {
			comp.Props.SetText(ics.PropURL, e.URL)
		}
		if desc := description(e); desc != "" {
			comp.Props.SetText(ics.PropDescription, desc)
		}

		if e.HasTime {
			comp.Props.SetDateTime(ics.PropDateTimeStart, e.Start.UTC())
			comp.Props.SetDateTime(ics.PropDateTimeEnd, e.End().UTC())
		} else {
			day := e.LocalStart()
			comp.Props.SetDate(ics.PropDateTimeStart, day)
			comp.Props.SetDate(ics.PropDateTimeEnd, day.AddDate(0, 0, 1))
		}

		comp.Props.SetText("X-ANOMALY-SERIES", e.Series)
		comp.Props.SetText("X-ANOMALY-TIMEZONE", e.Timezone)

		cal.Children = append(cal.Children, comp)
	}

	return cal
}

// Summary returns a one-line title for an event.
func Summary(e *Event) string {
	if e.Series == "" {
		return location(e)
	}
	if loc := location(e); loc != "" {
		return e.Series + ": " + loc
	}
	return e.Series
}

func location(e *Event) string {
	var parts []string
	if e.City != "" {
		parts = append(parts, e.City)
	}
	if e.Country != "" {
		parts = append(parts, e.Country)
	}
	return strings.Join(parts, ", ")
}

func description(e *Event) string {
	var lines []string
	if o := e.Outcome(); o != OutcomeNone {
		lines = append(lines, "Winner: "+o.String())
	}
	if e.ResistanceURL != "" {
		lines = append(lines, "Resistance: "+e.ResistanceURL)
	}
	if e.EnlightenedURL != "" {
		lines = append(lines, "Enlightened: "+e.EnlightenedURL)
	}
	return strings.Join(lines, "\n")
}
