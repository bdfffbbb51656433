package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
	"github.com/cpuguy83/anomalybar/internal/board"
	"github.com/cpuguy83/anomalybar/internal/config"
	"github.com/cpuguy83/anomalybar/internal/countdown"
	"github.com/cpuguy83/anomalybar/internal/links"
	"github.com/cpuguy83/anomalybar/internal/notify"
	"github.com/cpuguy83/anomalybar/internal/sync"
	"github.com/cpuguy83/anomalybar/internal/tray"
	"github.com/cpuguy83/anomalybar/internal/ui"
	"github.com/cpuguy83/anomalybar/internal/ui/menu"
)

// missedStart is how late a start may be observed and still notified.
const missedStart = 5 * time.Minute

// statusIcon is the tray surface the app drives.
type statusIcon interface {
	SetState(tray.State)
	SetTooltip(title, body string)
}

// App is the main anomalybar application.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	viewer *time.Location
	sched  *countdown.Scheduler
	syncer *sync.Syncer

	tray      *tray.Tray
	icon      statusIcon
	menu      ui.UI
	notifier  *notify.Notifier
	sender    notify.Sender
	reminders *notify.Reminders
	openURL   func(string) error
	wg        gosync.WaitGroup

	mu      gosync.Mutex
	view    *board.View
	lastErr error
}

// NewApp creates the application from configuration.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	viewer, err := cfg.UI.Location()
	if err != nil {
		return nil, err
	}
	if cfg.UI.Backend == "gtk" && !ui.GTKAvailable() {
		return nil, errors.New("ui.backend is gtk but anomalybar was built without GTK")
	}

	syncer, err := sync.NewSyncer(cfg, sync.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create syncer: %w", err)
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		viewer: viewer,
		sched: countdown.New(
			countdown.WithStyle(anomaly.ParseCountdownStyle(cfg.UI.Countdown)),
			countdown.WithLogger(logger),
		),
		syncer:    syncer,
		reminders: notify.NewReminders(cfg.Notifications.Before, cfg.Notifications.OnStart),
		openURL:   links.Open,
	}, nil
}

// wantGTK reports whether the GTK popup should front the board. "auto" picks
// it when the binary has GTK and a display is reachable.
func wantGTK(backend string, getenv func(string) string) bool {
	switch backend {
	case "gtk":
		return true
	case "menu":
		return false
	}
	return ui.GTKAvailable() && (getenv("WAYLAND_DISPLAY") != "" || getenv("DISPLAY") != "")
}

// runHeadless runs without a GTK main loop until ctx is cancelled.
func (a *App) runHeadless(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		a.shutdown()
		return err
	}
	<-ctx.Done()
	a.logger.Info("shutting down")
	a.shutdown()
	return nil
}

// start brings up the tray, the board front end and notifications, then
// refreshes anomalies in the background until ctx is cancelled. A front end
// set before start is kept; otherwise the dmenu-style menu is used.
func (a *App) start(ctx context.Context) error {
	t, err := tray.New()
	if err != nil {
		return fmt.Errorf("create tray: %w", err)
	}
	a.tray = t

	if a.menu == nil {
		m, err := menu.New(menu.Config{Program: a.cfg.UI.Menu.Program, Args: a.cfg.UI.Menu.Args}, a.logger)
		if err != nil {
			a.logger.Warn("menu unavailable", "error", err)
		} else {
			a.menu = m
		}
	}
	if front := a.menu; front != nil {
		front.OnAction(a.onAction)
		t.OnActivate(func() {
			a.logger.Debug("tray activated, toggling board")
			front.Toggle()
		})
	}

	if err := t.Start(); err != nil {
		return fmt.Errorf("start tray: %w", err)
	}
	a.icon = t

	if a.cfg.Notifications.Enabled {
		n, err := notify.New("AnomalyBar", a.logger)
		if err != nil {
			a.logger.Warn("failed to initialize notifications", "error", err)
		} else {
			a.notifier = n
			a.sender = n
			if err := n.OnOpen(a.open); err != nil {
				a.logger.Warn("failed to watch notification actions", "error", err)
			}
		}
	}

	a.logger.Info("anomalybar running",
		"sources", a.syncer.SourceCount(),
		"sync_interval", a.syncer.Interval(),
	)

	a.wg.Go(func() {
		a.syncer.Run(ctx, a.onSync)
	})
	a.wg.Go(func() {
		a.housekeeping(ctx)
	})
	return nil
}

// shutdown waits for the background loops, which stop once the context given
// to start is done, then stops the board timers and releases D-Bus.
func (a *App) shutdown() {
	a.wg.Wait()

	a.mu.Lock()
	v := a.view
	a.view = nil
	a.mu.Unlock()
	if v != nil {
		v.Close()
		v.Wait()
	}

	if a.notifier != nil {
		a.notifier.Close()
	}
	if a.tray != nil {
		a.tray.Stop()
	}
}

// housekeeping ticks once a minute until ctx is done.
func (a *App) housekeeping(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.tick()
		case <-ctx.Done():
			return
		}
	}
}

// tick reclassifies cards whose countdown has finished, so a date rolling
// over is still shown, then refreshes the tray and trims notification state.
func (a *App) tick() {
	a.mu.Lock()
	v := a.view
	a.mu.Unlock()

	if v != nil {
		v.Refresh(a.sched.Now())
		if a.menu != nil {
			for _, c := range v.Cards() {
				a.menu.CardChanged(c)
			}
		}
	}
	a.refreshStatus()

	if a.notifier != nil {
		a.notifier.Prune(time.Hour)
	}
}

// onSync replaces the board after a successful refresh. A failed refresh
// keeps the previous board and marks it stale.
func (a *App) onSync(events []anomaly.Event, err error) {
	if err != nil && !errors.Is(err, anomaly.ErrNoEvents) {
		a.logger.Warn("sync failed", "error", err)
		a.mu.Lock()
		a.lastErr = err
		v := a.view
		a.mu.Unlock()
		if a.menu != nil {
			a.menu.SetView(v, err)
		}
		a.refreshStatus()
		return
	}

	v, err := board.Build(events, a.sched.Now(), board.Options{
		Viewer: a.viewer,
		Style:  a.sched.Style(),
		Logger: a.logger,
	})
	if err != nil {
		a.logger.Info("no anomalies to show", "events", len(events))
		v = nil
	}

	a.mu.Lock()
	old := a.view
	a.view = v
	a.lastErr = nil
	a.mu.Unlock()
	if old != nil {
		old.Close()
	}

	keep := make(map[string]bool)
	if v != nil {
		for _, c := range v.Cards() {
			keep[c.Event.ID] = true
		}
		v.Start(a.sched, a.onCardChange)
	}
	a.reminders.Prune(keep)

	if a.menu != nil {
		a.menu.SetView(v, nil)
	}
	a.refreshStatus()
}

// onCardChange runs on a card's timer goroutine after every countdown update.
func (a *App) onCardChange(c *board.Card, u countdown.Update) {
	if a.sender != nil && u.Remaining > -missedStart {
		if n, ok := a.reminders.Due(&c.Event, u.Remaining); ok {
			a.notify(c, n)
		}
	}
	if a.menu != nil {
		a.menu.CardChanged(c)
	}
	a.refreshStatus()
}

// notify sends n, offering the card's first link from the notification.
func (a *App) notify(c *board.Card, n notify.Notification) {
	if len(c.Links) > 0 {
		n.URL = c.Links[0].URL
		n.LinkLabel = c.Links[0].Label
	}

	id, err := a.sender.Send(n)
	if err != nil {
		a.logger.Warn("failed to send notification", "id", c.Event.ID, "error", err)
		return
	}
	a.logger.Debug("sent reminder", "key", n.Key, "notification", id)
}

func (a *App) onAction(act ui.Action) {
	switch act.Type {
	case ui.ActionOpenURL:
		a.open(act.URL)
	}
}

func (a *App) open(url string) {
	if err := a.openURL(url); err != nil {
		a.logger.Warn("failed to open URL", "url", url, "error", err)
	}
}

// refreshStatus updates the tray icon and tooltip from the current board.
func (a *App) refreshStatus() {
	if a.icon == nil {
		return
	}

	a.mu.Lock()
	v, err := a.view, a.lastErr
	a.mu.Unlock()

	now := a.sched.Now()
	a.icon.SetState(tray.StateFor(v, now, a.cfg.UI.Imminent, err))
	a.icon.SetTooltip("AnomalyBar", tray.Tooltip(v, now, err))
}
