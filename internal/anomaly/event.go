// Package anomaly provides the anomaly event model, document decoding,
// date resolution and temporal classification.
package anomaly

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Duration is how long a timed anomaly is considered to run.
const Duration = 3 * time.Hour

// CompletedGrace is how long after an anomaly ends it keeps being shown.
const CompletedGrace = 6 * time.Hour

// Record is a single anomaly site as it appears in the source document.
type Record struct {
	// Series is the anomaly series name (e.g. "Echo Rift").
	Series string

	City    string
	Country string

	// Date is the ISO-ish start date, with or without a time of day.
	Date string

	// Timezone is the IANA zone the date is expressed in.
	Timezone string

	// URL is the event page.
	URL string

	// ResistanceURL and EnlightenedURL are the faction organizing pages.
	ResistanceURL  string
	EnlightenedURL string

	// Winner is the recorded outcome label, if any.
	Winner string

	// Logos are series logo identifiers, in display order.
	Logos []string
}

// Event is a Record whose start has been resolved to an absolute instant.
type Event struct {
	Record

	// ID is a stable identifier derived from the record's identity fields.
	ID string

	// Start is the resolved start instant.
	Start time.Time

	// HasTime is false for date-only records, which span their whole calendar day.
	HasTime bool

	// Location is the resolved event timezone.
	Location *time.Location
}

// End returns when the event is over: three hours after a timed start, or
// the end of the calendar day (in the event's zone) for date-only events.
func (e *Event) End() time.Time {
	if e.HasTime {
		return e.Start.Add(Duration)
	}
	local := e.Start.In(e.loc())
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, e.loc())
	return next.Add(-time.Nanosecond)
}

// StartsIn returns how long until the event starts (negative if already started).
func (e *Event) StartsIn(now time.Time) time.Duration {
	return e.Start.Sub(now)
}

// IsOngoing returns true if a timed event is currently running.
func (e *Event) IsOngoing(now time.Time) bool {
	return e.HasTime && !now.Before(e.Start) && !now.After(e.End())
}

// Outcome returns the parsed winner label.
func (e *Event) Outcome() Outcome {
	return ParseOutcome(e.Winner)
}

// LocalStart returns the start instant in the event's own timezone.
func (e *Event) LocalStart() time.Time {
	return e.Start.In(e.loc())
}

func (e *Event) loc() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}

// idNamespace scopes anomaly IDs so they never collide with other UUIDv5 users.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/cpuguy83/anomalybar"))

// recordID derives a stable ID for a record.
func recordID(r Record) string {
	key := strings.Join([]string{r.Series, r.City, r.Country, r.Date, r.Timezone}, "\x00")
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// Outcome is the recorded winner of an anomaly.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeResistance
	OutcomeEnlightened
)

// ParseOutcome parses a winner label case-insensitively.
// Unknown labels map to OutcomeNone.
func ParseOutcome(s string) Outcome {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resistance":
		return OutcomeResistance
	case "enlightened":
		return OutcomeEnlightened
	default:
		return OutcomeNone
	}
}

// String returns the display label of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeResistance:
		return "Resistance"
	case OutcomeEnlightened:
		return "Enlightened"
	default:
		return ""
	}
}

// Source is the interface that anomaly document sources must implement.
type Source interface {
	// Name returns the display name of this source.
	Name() string

	// Fetch retrieves and decodes the anomaly document.
	Fetch(ctx context.Context) ([]Record, error)
}
