//go:build !nogtk && cgo

package ui

import (
	"github.com/cpuguy83/anomalybar/internal/board"
	"github.com/cpuguy83/anomalybar/internal/links"
)

// GTK wraps the Popup to implement the UI interface.
type GTK struct {
	popup    *Popup
	onAction func(Action)
}

var _ UI = (*GTK)(nil)

// NewGTK creates a new GTK UI backend.
func NewGTK() *GTK {
	return &GTK{popup: NewPopup()}
}

// GTKAvailable reports whether the binary was built with the GTK popup.
// Use the 'nogtk' build tag to build without GTK4 installed.
func GTKAvailable() bool {
	return true
}

// Init initializes the GTK UI. Must be called from GTK main thread.
func (g *GTK) Init() error {
	g.popup.Init()
	g.popup.OnOpen(func(url string) {
		if g.onAction != nil {
			g.onAction(Action{Type: ActionOpenURL, URL: url})
		} else {
			links.Open(url)
		}
	})
	return nil
}

// Show displays the popup.
func (g *GTK) Show() {
	g.popup.Show()
}

// Hide hides the popup.
func (g *GTK) Hide() {
	g.popup.Hide()
}

// Toggle shows or hides the popup.
func (g *GTK) Toggle() {
	g.popup.Toggle()
}

// SetView replaces the board.
func (g *GTK) SetView(v *board.View, err error) {
	g.popup.SetView(v, err)
}

// CardChanged redraws one card.
func (g *GTK) CardChanged(c *board.Card) {
	g.popup.CardChanged(c)
}

// OnAction sets the callback for user actions.
func (g *GTK) OnAction(fn func(Action)) {
	g.onAction = fn
}
