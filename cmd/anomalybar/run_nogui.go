//go:build nogtk || !cgo

package main

import "context"

// Run starts the application and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.runHeadless(ctx)
}
