package board

import (
	"fmt"
	"strings"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
)

// Line is one rendered line of the board. Separator lines have no Card.
type Line struct {
	Text string
	Card *Card
}

// IsSeparator reports whether l is a series separator.
func (l Line) IsSeparator() bool {
	return l.Card == nil
}

// Separator formats a section header.
func Separator(title string) string {
	return fmt.Sprintf("━━━━ %s ━━━━", title)
}

// Lines renders the board as text, one line per card, with a separator
// before every series boundary.
func (v *View) Lines() []Line {
	var out []Line
	for _, c := range v.cards {
		if c.SeriesBreak {
			title := c.Event.Series
			if title == "" {
				title = "Anomalies"
			}
			out = append(out, Line{Text: Separator(title)})
		}
		out = append(out, Line{Text: c.Line(), Card: c})
	}
	return out
}

// Line renders the card as a single line.
func (c *Card) Line() string {
	st, label := c.Snapshot()

	var b strings.Builder
	b.WriteString(marker(st.Border()))
	b.WriteString(place(&c.Event))
	b.WriteString("  ")
	b.WriteString(c.ViewerTime)
	if label != "" {
		b.WriteString("  ")
		b.WriteString(label)
	}
	b.WriteString(suffix(st))
	return b.String()
}

// suffix marks finished, past-dated and same-day cards.
func suffix(st anomaly.Status) string {
	switch {
	case st.Highlight() == anomaly.HighlightDim:
		return " (ended)"
	case st.Past:
		return " (past)"
	case st.Highlight() == anomaly.HighlightToday:
		return " (today)"
	}
	return ""
}

func marker(b anomaly.Border) string {
	switch b {
	case anomaly.BorderActive:
		return "▶ "
	case anomaly.BorderResistance:
		return "🔵 "
	case anomaly.BorderEnlightened:
		return "🟢 "
	case anomaly.BorderPreparation:
		return "◆ "
	default:
		return "  "
	}
}

// Place returns "City, Country", or whichever part is known.
func (c *Card) Place() string {
	return place(&c.Event)
}

func place(e *anomaly.Event) string {
	switch {
	case e.City != "" && e.Country != "":
		return e.City + ", " + e.Country
	case e.City != "":
		return e.City
	case e.Country != "":
		return e.Country
	default:
		return "Unknown location"
	}
}
