package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
	"github.com/cpuguy83/anomalybar/internal/board"
	"github.com/cpuguy83/anomalybar/internal/links"
)

// cardClasses lists every CSS class rowFor can set on a card, so a row can
// drop the ones that no longer apply.
var cardClasses = []string{
	"border-active",
	"border-resistance-won",
	"border-enlightened-won",
	"border-prep",
	"pulse",
	"highlight-today",
	"dim",
	"past",
}

// cardRow is what the popup shows for one card.
type cardRow struct {
	Primary   string // countdown or static label
	Secondary string // start in the viewer's zone
	Title     string
	Meta      string
	Classes   []string
	Links     []links.Link
}

// rowFor snapshots c for display.
func rowFor(c *board.Card) cardRow {
	st, label := c.Snapshot()

	r := cardRow{
		Primary:   label,
		Secondary: c.ViewerTime,
		Title:     c.Place(),
		Links:     c.Links,
	}
	if r.Primary == "" {
		r.Primary = "Started"
		if st.Highlight() == anomaly.HighlightDim {
			r.Primary = "Ended"
		}
	}

	var meta []string
	if c.Event.Series != "" {
		meta = append(meta, c.Event.Series)
	}
	if c.LocalTime != c.ViewerTime {
		meta = append(meta, c.LocalTime+" local")
	}
	if st.Past {
		meta = append(meta, "date has passed")
	}
	r.Meta = strings.Join(meta, " • ")

	if b := st.Border(); b != anomaly.BorderDefault {
		r.Classes = append(r.Classes, "border-"+b.String())
	}
	if h := st.Highlight().String(); h != "" {
		r.Classes = append(r.Classes, h)
	}
	if st.Past {
		r.Classes = append(r.Classes, "past")
	}
	return r
}

// statusText returns the status bar text and whether it should be styled as
// stale.
func statusText(loading bool, loadErr error, lastSync time.Time, cards int) (string, bool) {
	switch {
	case loading:
		return "Loading anomalies...", false
	case loadErr != nil && lastSync.IsZero():
		return board.Message(loadErr), true
	case loadErr != nil:
		return fmt.Sprintf("⚠ Showing last good data • Synced %s", lastSync.Format("15:04")), true
	case cards == 1:
		return fmt.Sprintf("1 anomaly • Synced %s", lastSync.Format("15:04")), false
	default:
		return fmt.Sprintf("%d anomalies • Synced %s", cards, lastSync.Format("15:04")), false
	}
}
