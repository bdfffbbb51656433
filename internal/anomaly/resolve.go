package anomaly

import (
	"strings"
	"time"
)

// Layouts accepted for date-time strings without an explicit offset.
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// Layouts accepted for date-time strings that carry their own offset.
var offsetLayouts = []string{
	"2006-01-02T15:04Z07:00",
	time.RFC3339,
	time.RFC3339Nano,
}

const dateLayout = "2006-01-02"

// Instant is a resolved start time.
type Instant struct {
	// Time is the absolute instant, expressed in Location.
	Time time.Time

	// HasTime reports whether the source string carried a time of day.
	HasTime bool

	// Location is the event timezone the string was resolved in.
	Location *time.Location
}

// Resolve converts a date string expressed in the named IANA timezone into an
// absolute instant. Date-only strings resolve to local midnight in that zone.
// A string with an explicit UTC offset keeps that offset.
//
// Resolve does not depend on the current time.
func Resolve(date, zone string) (Instant, error) {
	loc, err := loadZone(zone)
	if err != nil {
		return Instant{}, &ParseError{Date: date, Timezone: zone, Err: err}
	}

	s := strings.TrimSpace(date)
	if !strings.Contains(s, "T") {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return Instant{}, &ParseError{Date: date, Timezone: zone, Err: ErrInvalidDate}
		}
		return Instant{Time: t, HasTime: false, Location: loc}, nil
	}

	if hasOffset(s) {
		for _, layout := range offsetLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Instant{Time: t.In(loc), HasTime: true, Location: loc}, nil
			}
		}
		return Instant{}, &ParseError{Date: date, Timezone: zone, Err: ErrInvalidDate}
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return Instant{Time: t, HasTime: true, Location: loc}, nil
		}
	}
	return Instant{}, &ParseError{Date: date, Timezone: zone, Err: ErrInvalidDate}
}

// loadZone resolves an IANA zone name. Empty names and "Local" are rejected
// so that resolution never depends on the host's configured zone.
func loadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, ErrUnknownZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrUnknownZone
	}
	return loc, nil
}

// hasOffset reports whether the time part of s ends in Z or a ±hh:mm offset.
func hasOffset(s string) bool {
	i := strings.IndexByte(s, 'T')
	if i < 0 {
		return false
	}
	clock := s[i+1:]
	if strings.HasSuffix(clock, "Z") || strings.HasSuffix(clock, "z") {
		return true
	}
	return strings.ContainsAny(clock, "+-")
}
