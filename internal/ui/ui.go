// Package ui defines the front ends that present the anomaly board.
package ui

import (
	"github.com/cpuguy83/anomalybar/internal/board"
)

// UI displays the anomaly board to the user.
type UI interface {
	// Show displays the current board.
	Show()

	// Toggle shows the board if it is not already showing.
	Toggle()

	// SetView replaces the board. A nil view with a non-nil error shows the
	// dataset message instead of cards; a view with an error is shown as stale.
	SetView(v *board.View, err error)

	// CardChanged redraws one card after its countdown ticks. It may be
	// called from any goroutine.
	CardChanged(c *board.Card)

	// OnAction sets the callback for when a user performs an action.
	OnAction(fn func(Action))
}

// Action represents a user action from the UI.
type Action struct {
	Type    ActionType
	URL     string // For ActionOpenURL
	EventID string
}

// ActionType identifies the type of action.
type ActionType int

const (
	// ActionOpenURL indicates the user wants to open a URL.
	ActionOpenURL ActionType = iota
)
