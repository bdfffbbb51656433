package anomaly

import (
	"fmt"
	"time"
)

// CountdownStyle selects how remaining time is rendered.
type CountdownStyle string

const (
	// CountdownCoarse shows only the coarsest non-zero unit ("in 3 hours").
	CountdownCoarse CountdownStyle = "coarse"
	// CountdownFull shows the full "1d 02h 03m 04s" breakdown.
	CountdownFull CountdownStyle = "full"
)

// ParseCountdownStyle returns the style for a config value. Empty and unknown
// values map to CountdownCoarse.
func ParseCountdownStyle(s string) CountdownStyle {
	if CountdownStyle(s) == CountdownFull {
		return CountdownFull
	}
	return CountdownCoarse
}

// InProgress is the countdown label of an event that has started and is running.
const InProgress = "In progress"

// FormatCountdown renders the time remaining until a start. Date-only events
// are rendered in whole days; timed events down to the second.
func FormatCountdown(remaining time.Duration, hasTime bool, style CountdownStyle) string {
	if remaining < 0 {
		remaining = 0
	}
	days := int(remaining / (24 * time.Hour))
	hours := int(remaining/time.Hour) % 24
	minutes := int(remaining/time.Minute) % 60
	seconds := int(remaining/time.Second) % 60

	if !hasTime {
		if style == CountdownFull {
			return plural(days, "day") + " remaining"
		}
		if days == 0 {
			return "in under a day"
		}
		return "in " + plural(days, "day")
	}

	if style == CountdownFull {
		return fmt.Sprintf("%dd %02dh %02dm %02ds", days, hours, minutes, seconds)
	}

	switch {
	case days > 0:
		return "in " + plural(days, "day")
	case hours > 0:
		return "in " + plural(hours, "hour")
	case minutes > 0:
		return "in " + plural(minutes, "minute")
	default:
		return "in " + plural(seconds, "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatUTC formats the start instant in UTC. Date-only events keep the
// time too, since local midnight usually falls on another UTC date.
func (e *Event) FormatUTC() string {
	return e.Start.UTC().Format("2006-01-02 15:04") + " UTC"
}

// FormatLocal formats the start instant in the event's own zone.
func (e *Event) FormatLocal() string {
	return e.FormatIn(e.loc())
}

// FormatIn formats the start instant in loc, with the zone abbreviation.
// Date-only events show the event's own calendar date.
func (e *Event) FormatIn(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	if !e.HasTime {
		return e.LocalStart().Format("2006-01-02")
	}
	return e.Start.In(loc).Format("2006-01-02 15:04 MST")
}
