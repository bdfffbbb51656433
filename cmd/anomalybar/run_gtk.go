//go:build !nogtk && cgo

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cpuguy83/anomalybar/internal/ui"

	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Run starts the application. With the GTK popup it runs the GTK main loop
// until ctx is cancelled; otherwise it runs headless.
func (a *App) Run(ctx context.Context) error {
	if !wantGTK(a.cfg.UI.Backend, os.Getenv) {
		return a.runHeadless(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	gtkApp := gtk.NewApplication("com.github.cpuguy83.anomalybar", gio.ApplicationFlagsNone)

	var startErr error
	gtkApp.ConnectActivate(func() {
		// Hold the application open even without visible windows
		gtkApp.Hold()

		popup := ui.NewGTK()
		if err := popup.Init(); err != nil {
			startErr = fmt.Errorf("init popup: %w", err)
			gtkApp.Quit()
			return
		}
		a.menu = popup

		if err := a.start(ctx); err != nil {
			startErr = err
			gtkApp.Quit()
		}
	})

	go func() {
		<-ctx.Done()
		a.logger.Info("shutting down")
		glib.IdleAdd(func() {
			gtkApp.Quit()
		})
	}()

	code := gtkApp.Run(nil)
	cancel()
	a.shutdown()

	if startErr != nil {
		return startErr
	}
	if code != 0 {
		return fmt.Errorf("GTK application exited with code %d", code)
	}
	return nil
}
