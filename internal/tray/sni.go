// Package tray provides system tray integration using StatusNotifierItem (SNI).
package tray

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

const (
	// D-Bus interface names
	sniInterface     = "org.kde.StatusNotifierItem"
	sniPath          = "/StatusNotifierItem"
	watcherInterface = "org.kde.StatusNotifierWatcher"
	watcherPath      = "/StatusNotifierWatcher"
	watcherBusName   = "org.kde.StatusNotifierWatcher"
)

// Tray manages the system tray icon via StatusNotifierItem.
type Tray struct {
	conn    *dbus.Conn
	busName string
	props   *prop.Properties

	mu      sync.Mutex
	state   State
	tooltip toolTip

	// Callbacks
	onActivate func() // Called when tray icon is clicked

	// For clean shutdown of watcher goroutine
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a new system tray icon.
func New() (*Tray, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}

	t := &Tray{
		conn:   conn,
		state:  StateNormal,
		stopCh: make(chan struct{}),
		tooltip: toolTip{
			Title: "AnomalyBar",
			Body:  "Loading anomalies…",
		},
	}

	return t, nil
}

// Start registers the tray icon with the StatusNotifierWatcher.
func (t *Tray) Start() error {
	// Request a unique bus name using process ID
	busName := fmt.Sprintf("org.kde.StatusNotifierItem-%d-1", os.Getpid())
	reply, err := t.conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		// Fall back to a simpler name
		busName = "org.kde.StatusNotifierItem-anomalybar"
		reply, err = t.conn.RequestName(busName, dbus.NameFlagDoNotQueue)
		if err != nil {
			return fmt.Errorf("request bus name: %w", err)
		}
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name already taken")
	}

	t.busName = busName

	// Export the SNI object (methods)
	if err := t.conn.Export(t, sniPath, sniInterface); err != nil {
		return fmt.Errorf("export SNI interface: %w", err)
	}

	// Setup properties using godbus prop package
	propsSpec := prop.Map{
		sniInterface: {
			"Category":      {Value: "ApplicationStatus", Writable: false, Emit: prop.EmitFalse},
			"Id":            {Value: "anomalybar", Writable: false, Emit: prop.EmitFalse},
			"Title":         {Value: "AnomalyBar", Writable: false, Emit: prop.EmitFalse},
			"Status":        {Value: "Active", Writable: false, Emit: prop.EmitTrue},
			"IconName":      {Value: "", Writable: false, Emit: prop.EmitTrue},
			"IconPixmap":    {Value: t.getIconPixmap(), Writable: false, Emit: prop.EmitTrue},
			"IconThemePath": {Value: "", Writable: false, Emit: prop.EmitFalse},
			"Menu":          {Value: dbus.ObjectPath("/NO_DBUSMENU"), Writable: false, Emit: prop.EmitFalse},
			"ItemIsMenu":    {Value: false, Writable: false, Emit: prop.EmitFalse},
			"ToolTip":       {Value: t.getToolTip(), Writable: false, Emit: prop.EmitTrue},
		},
	}

	props, err := prop.Export(t.conn, sniPath, propsSpec)
	if err != nil {
		return fmt.Errorf("export properties: %w", err)
	}
	t.props = props

	// Export introspection data
	node := &introspect.Node{
		Name: sniPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:    sniInterface,
				Methods: sniMethods,
				Signals: sniSignals,
			},
		},
	}
	if err := t.conn.Export(introspect.NewIntrospectable(node), sniPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}

	// Initial registration with the watcher
	t.registerWithWatcher()

	// Watch for StatusNotifierWatcher restarts (e.g., when waybar restarts)
	go t.handleWatcherSignals()

	slog.Info("tray icon registered", "bus_name", t.busName, "connection", t.conn.Names()[0])
	return nil
}

// registerWithWatcher registers this tray icon with the StatusNotifierWatcher.
// This is called on startup and whenever the watcher service restarts.
func (t *Tray) registerWithWatcher() {
	uniqueName := t.conn.Names()[0]
	watcher := t.conn.Object(watcherBusName, watcherPath)
	call := watcher.Call(watcherInterface+".RegisterStatusNotifierItem", 0, uniqueName)
	if call.Err != nil {
		slog.Warn("failed to register with StatusNotifierWatcher", "error", call.Err)
		// Continue anyway - some environments don't have a watcher
	} else {
		slog.Debug("registered with StatusNotifierWatcher", "connection", uniqueName)
	}
}

// handleWatcherSignals listens for D-Bus signals indicating the StatusNotifierWatcher
// service has restarted (e.g., when waybar restarts) and re-registers our tray icon.
func (t *Tray) handleWatcherSignals() {
	// Subscribe to NameOwnerChanged signals for the watcher bus name
	matchRule := fmt.Sprintf(
		"type='signal',interface='org.freedesktop.DBus',member='NameOwnerChanged',arg0='%s'",
		watcherBusName,
	)
	if err := t.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		slog.Warn("failed to add D-Bus match rule for watcher monitoring", "error", err)
		return
	}

	// Channel for D-Bus signals - size 1 acts as a coalescing buffer
	// If multiple signals arrive while we're processing, we only need to
	// re-register once, so dropping intermediate signals is fine
	sigCh := make(chan *dbus.Signal, 1)
	t.conn.Signal(sigCh)

	defer t.conn.RemoveSignal(sigCh)

	for {
		select {
		case <-t.stopCh:
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}
			// NameOwnerChanged has args: (name string, old_owner string, new_owner string)
			if sig.Name != "org.freedesktop.DBus.NameOwnerChanged" {
				continue
			}
			if len(sig.Body) < 3 {
				continue
			}
			name, ok := sig.Body[0].(string)
			if !ok || name != watcherBusName {
				continue
			}
			newOwner, ok := sig.Body[2].(string)
			if !ok {
				continue
			}
			// If the watcher has a new owner (non-empty), re-register
			if newOwner != "" {
				slog.Info("StatusNotifierWatcher restarted, re-registering tray icon")
				t.registerWithWatcher()
			}
		}
	}
}

// Stop removes the tray icon.
func (t *Tray) Stop() error {
	var err error
	t.stopOnce.Do(func() {
		close(t.stopCh)
		err = t.conn.Close()
	})
	return err
}

// SetState updates the tray icon state. Unchanged states are not re-emitted.
func (t *Tray) SetState(state State) {
	t.mu.Lock()
	if t.state == state {
		t.mu.Unlock()
		return
	}
	t.state = state
	pixmap := t.getIconPixmap()
	t.mu.Unlock()

	// Update property and emit signal
	if t.props != nil {
		t.props.SetMust(sniInterface, "IconPixmap", pixmap)
	}
	t.conn.Emit(sniPath, sniInterface+".NewIcon")
}

// SetTooltip updates the tooltip title and body. Unchanged text is not re-emitted.
func (t *Tray) SetTooltip(title, body string) {
	t.mu.Lock()
	if t.tooltip.Title == title && t.tooltip.Body == body {
		t.mu.Unlock()
		return
	}
	t.tooltip.Title = title
	t.tooltip.Body = body
	tip := t.tooltip
	t.mu.Unlock()

	// Update property and emit signal
	if t.props != nil {
		t.props.SetMust(sniInterface, "ToolTip", tip)
	}
	t.conn.Emit(sniPath, sniInterface+".NewToolTip")
}

// OnActivate sets the callback for when the tray icon is clicked.
func (t *Tray) OnActivate(fn func()) {
	t.onActivate = fn
}

// getToolTip returns the current tooltip struct.
func (t *Tray) getToolTip() toolTip {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tooltip
}

// iconData represents a single icon in the pixmap array.
type iconData struct {
	Width  int32
	Height int32
	Data   []byte
}

// toolTip represents the StatusNotifierItem tooltip struct (sa(iiay)ss).
type toolTip struct {
	IconName   string     // Icon name (empty to use pixmap)
	IconPixmap []iconData // Icon pixmap (can be empty)
	Title      string     // Tooltip title
	Body       string     // Tooltip body/description
}

// getIconPixmap returns the icon pixmap for the current state.
// Callers hold t.mu or own t exclusively.
func (t *Tray) getIconPixmap() []iconData {
	return []iconData{
		{Width: iconSize, Height: iconSize, Data: pixmaps[t.state]},
	}
}

// SNI D-Bus method implementations

// Activate is called when the user clicks the tray icon (primary action).
func (t *Tray) Activate(x, y int32) *dbus.Error {
	slog.Debug("tray activated", "x", x, "y", y)
	if t.onActivate != nil {
		go t.onActivate()
	}
	return nil
}

// SecondaryActivate is called on middle-click.
func (t *Tray) SecondaryActivate(x, y int32) *dbus.Error {
	slog.Debug("tray secondary activated", "x", x, "y", y)
	return nil
}

// Scroll is called when the user scrolls on the tray icon.
func (t *Tray) Scroll(delta int32, orientation string) *dbus.Error {
	slog.Debug("tray scroll", "delta", delta, "orientation", orientation)
	return nil
}

// ContextMenu is called to show a context menu (right-click).
func (t *Tray) ContextMenu(x, y int32) *dbus.Error {
	slog.Debug("tray context menu", "x", x, "y", y)
	return nil
}

// D-Bus interface definitions for introspection
var sniMethods = []introspect.Method{
	{Name: "Activate", Args: []introspect.Arg{{Name: "x", Type: "i", Direction: "in"}, {Name: "y", Type: "i", Direction: "in"}}},
	{Name: "SecondaryActivate", Args: []introspect.Arg{{Name: "x", Type: "i", Direction: "in"}, {Name: "y", Type: "i", Direction: "in"}}},
	{Name: "Scroll", Args: []introspect.Arg{{Name: "delta", Type: "i", Direction: "in"}, {Name: "orientation", Type: "s", Direction: "in"}}},
	{Name: "ContextMenu", Args: []introspect.Arg{{Name: "x", Type: "i", Direction: "in"}, {Name: "y", Type: "i", Direction: "in"}}},
}

var sniSignals = []introspect.Signal{
	{Name: "NewIcon"},
	{Name: "NewToolTip"},
	{Name: "NewStatus", Args: []introspect.Arg{{Name: "status", Type: "s"}}},
}
