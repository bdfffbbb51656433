package menu

import (
	"fmt"
	"strings"

	"github.com/cpuguy83/anomalybar/internal/board"
)

const (
	backAction = "← Back"
	staleLine  = "⚠ Showing last good data"
)

// formatBoard formats the board for the main list.
// Returns lines to display and a map of trimmed line -> card for selection handling.
func formatBoard(v *board.View, loadErr error) ([]string, map[string]*board.Card) {
	cards := make(map[string]*board.Card)
	if v == nil {
		msg := board.ErrNothingToShow
		if loadErr != nil {
			msg = loadErr
		}
		return []string{board.Message(msg)}, cards
	}

	var lines []string
	for _, l := range v.Lines() {
		lines = append(lines, l.Text)
		if !l.IsSeparator() {
			cards[strings.TrimSpace(l.Text)] = l.Card
		}
	}

	if loadErr != nil {
		lines = append(lines, "", staleLine)
	}
	return lines, cards
}

// formatDetails formats one card for the details menu.
// Returns lines to display and a map of trimmed line -> URL.
func formatDetails(c *board.Card) ([]string, map[string]string) {
	e := &c.Event
	label := c.Label()

	var lines []string
	urls := make(map[string]string)

	title := e.Series
	if title == "" {
		title = "Anomaly"
	}
	lines = append(lines, board.Separator(truncate(title, 40)))

	lines = append(lines, "  📍 "+c.Place())
	lines = append(lines, "  🕒 "+c.ViewerTime)
	if c.LocalTime != c.ViewerTime {
		lines = append(lines, "  🌐 "+c.LocalTime+" (local)")
	}
	if c.UTCTime != c.ViewerTime {
		lines = append(lines, "  🌐 "+c.UTCTime)
	}
	if label != "" {
		lines = append(lines, "  ⏳ "+label)
	}
	if c.Status().Past {
		lines = append(lines, "  📅 Date has passed")
	}
	if len(c.Logos) > 0 {
		lines = append(lines, "  🏷 "+strings.Join(c.Logos, ", "))
	}

	if len(c.Links) > 0 {
		lines = append(lines, board.Separator("Links"))
		for _, link := range c.Links {
			line := fmt.Sprintf("  🔗 %s", link.Label)
			lines = append(lines, line)
			// Store with trimmed key since dmenu may strip leading whitespace
			urls[strings.TrimSpace(line)] = link.URL
		}
	}

	lines = append(lines, "", backAction)
	return lines, urls
}

// truncate truncates a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// isSeparator returns true if the line is a visual separator (not selectable).
func isSeparator(line string) bool {
	return strings.HasPrefix(line, "━━━━") || line == "" || line == staleLine
}

// isBackAction returns true if the line is the "Back" action.
func isBackAction(line string) bool {
	return line == backAction
}
