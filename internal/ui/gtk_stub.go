//go:build nogtk || !cgo

package ui

import (
	"github.com/cpuguy83/anomalybar/internal/board"
)

// GTK is a stub when GTK is not available.
type GTK struct{}

// NewGTK returns nil when GTK is not available.
func NewGTK() *GTK {
	return nil
}

// GTKAvailable returns false when GTK is not available.
func GTKAvailable() bool {
	return false
}

// Init is a no-op stub.
func (g *GTK) Init() error {
	return nil
}

// Show is a no-op stub.
func (g *GTK) Show() {}

// Hide is a no-op stub.
func (g *GTK) Hide() {}

// Toggle is a no-op stub.
func (g *GTK) Toggle() {}

// SetView is a no-op stub.
func (g *GTK) SetView(*board.View, error) {}

// CardChanged is a no-op stub.
func (g *GTK) CardChanged(*board.Card) {}

// OnAction is a no-op stub.
func (g *GTK) OnAction(func(Action)) {}
