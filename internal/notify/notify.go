// Package notify sends anomaly reminders as desktop notifications via D-Bus.
package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	notifyInterface = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"

	signalActionInvoked = notifyInterface + ".ActionInvoked"
	signalClosed        = notifyInterface + ".NotificationClosed"

	// dedupeWindow suppresses a repeat of the same key.
	dedupeWindow = time.Minute
)

// Sender delivers notifications.
type Sender interface {
	Send(Notification) (uint32, error)
}

// Notification is one reminder.
type Notification struct {
	Summary string
	Body    string
	Urgency Urgency

	// Key identifies the reminder (event ID and threshold) for deduplication.
	Key string

	// URL, when set, is offered as the notification's action and handed to
	// the OnOpen callback when the user clicks it.
	URL       string
	LinkLabel string
}

// Urgency levels for notifications.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notifier sends notifications over the session bus and remembers which
// page each one links to until the server closes it.
type Notifier struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	appName string
	logger  *slog.Logger

	mu     sync.Mutex
	sent   map[string]time.Time // key -> last sent
	pages  map[uint32]page      // notification ID -> linked page
	onOpen func(url string)
}

type page struct {
	url  string
	sent time.Time
}

// New connects to the session bus.
func New(appName string, logger *slog.Logger) (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}

	n := newNotifier(appName, logger)
	n.conn = conn
	n.obj = conn.Object(notifyInterface, notifyPath)
	return n, nil
}

func newNotifier(appName string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		appName: appName,
		logger:  logger,
		sent:    make(map[string]time.Time),
		pages:   make(map[uint32]page),
	}
}

// Close closes the D-Bus connection.
func (n *Notifier) Close() error {
	return n.conn.Close()
}

// Send delivers notif and returns the server's notification ID. A key sent
// within the last minute is skipped and reported as ID 0.
func (n *Notifier) Send(notif Notification) (uint32, error) {
	if !n.claim(notif.Key, time.Now()) {
		return 0, nil
	}

	actions, hints, timeout := callArgs(notif)
	call := n.obj.Call(
		notifyInterface+".Notify",
		0,
		n.appName,          // app_name
		uint32(0),          // replaces_id
		"appointment-soon", // app_icon
		notif.Summary,      // summary
		notif.Body,         // body
		actions,            // actions
		hints,              // hints
		timeout,            // expire_timeout
	)
	if call.Err != nil {
		return 0, fmt.Errorf("send notification: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("get notification id: %w", err)
	}

	if notif.URL != "" {
		n.mu.Lock()
		n.pages[id] = page{url: notif.URL, sent: time.Now()}
		n.mu.Unlock()
	}

	n.logger.Debug("sent notification", "id", id, "key", notif.Key)
	return id, nil
}

// claim records key as sent at now unless it was sent within dedupeWindow.
// Empty keys are never deduplicated.
func (n *Notifier) claim(key string, now time.Time) bool {
	if key == "" {
		return true
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if last, ok := n.sent[key]; ok && now.Sub(last) < dedupeWindow {
		return false
	}
	n.sent[key] = now
	return true
}

// callArgs builds the actions, hints and timeout of a Notify call.
// Critical notifications stay until dismissed.
func callArgs(notif Notification) ([]string, map[string]dbus.Variant, int32) {
	var actions []string
	if notif.URL != "" {
		label := notif.LinkLabel
		if label == "" {
			label = "Open"
		}
		// "default" is invoked by clicking the notification body.
		actions = []string{"default", "Open", "open", label}
	}

	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(notif.Urgency)),
		"desktop-entry": dbus.MakeVariant("anomalybar"),
	}

	timeout := int32(-1) // server default
	if notif.Urgency == UrgencyCritical {
		timeout = 0
	}
	return actions, hints, timeout
}

// OnOpen subscribes to action and close signals. fn receives the page of a
// clicked notification; closed notifications are forgotten.
func (n *Notifier) OnOpen(fn func(url string)) error {
	n.mu.Lock()
	n.onOpen = fn
	n.mu.Unlock()

	for _, member := range []string{"ActionInvoked", "NotificationClosed"} {
		if err := n.conn.AddMatchSignal(
			dbus.WithMatchInterface(notifyInterface),
			dbus.WithMatchMember(member),
		); err != nil {
			return fmt.Errorf("add match signal %s: %w", member, err)
		}
	}

	ch := make(chan *dbus.Signal, 10)
	n.conn.Signal(ch)

	go func() {
		for sig := range ch {
			n.handleSignal(sig)
		}
	}()
	return nil
}

func (n *Notifier) handleSignal(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return
	}

	n.mu.Lock()
	p, known := n.pages[id]
	fn := n.onOpen
	if sig.Name == signalClosed {
		delete(n.pages, id)
	}
	n.mu.Unlock()

	if sig.Name != signalActionInvoked || !known {
		return
	}
	key, _ := sig.Body[1].(string)
	n.logger.Debug("notification action", "id", id, "action", key, "url", p.url)
	if fn != nil {
		fn(p.url)
	}
}

// Prune drops dedupe entries and linked pages older than maxAge.
func (n *Notifier) Prune(maxAge time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for key, t := range n.sent {
		if t.Before(cutoff) {
			delete(n.sent, key)
		}
	}
	for id, p := range n.pages {
		if p.sent.Before(cutoff) {
			delete(n.pages, id)
		}
	}
}
