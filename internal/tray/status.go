package tray

import (
	"fmt"
	"strings"
	"time"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
	"github.com/cpuguy83/anomalybar/internal/board"
)

// StateFor picks the icon state for the current board. A failed refresh
// marks the tray stale even when an older board is still shown.
func StateFor(v *board.View, now time.Time, imminent time.Duration, refreshErr error) State {
	if refreshErr != nil {
		return StateStale
	}
	if v == nil {
		return StateNormal
	}
	if len(v.Active(now)) > 0 {
		return StateActive
	}
	if next := v.Next(now); next != nil && next.Event.StartsIn(now) <= imminent {
		return StateImminent
	}
	return StateNormal
}

// Tooltip returns the tooltip body for the current board.
func Tooltip(v *board.View, now time.Time, refreshErr error) string {
	if v == nil {
		if refreshErr == nil {
			refreshErr = board.ErrNothingToShow
		}
		return board.Message(refreshErr)
	}

	var lines []string
	for _, c := range v.Active(now) {
		lines = append(lines, "Now: "+anomaly.Summary(&c.Event))
	}
	if next := v.Next(now); next != nil {
		line := fmt.Sprintf("Next: %s (%s)", anomaly.Summary(&next.Event), next.ViewerTime)
		if label := next.Label(); label != "" {
			line += " " + label
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, board.Message(board.ErrNothingToShow))
	}
	if refreshErr != nil {
		lines = append(lines, "Last refresh failed: "+refreshErr.Error())
	}
	return strings.Join(lines, "\n")
}
