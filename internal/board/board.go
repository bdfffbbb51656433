// Package board turns normalized anomalies into display cards and keeps their
// countdown labels live.
package board

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
	"github.com/cpuguy83/anomalybar/internal/countdown"
	"github.com/cpuguy83/anomalybar/internal/links"
)

// ErrNothingToShow is returned by Build when no event is inside the display window.
var ErrNothingToShow = errors.New("nothing to show")

// RenderError reports an event whose display facts could not be derived.
type RenderError struct {
	EventID string
	Err     error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("render anomaly %s: %v", e.EventID, e.Err)
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// Card is the display snapshot of one event. The status and label change as
// the card's countdown ticks; everything else is fixed at Build.
type Card struct {
	Event anomaly.Event

	// UTCTime, LocalTime and ViewerTime are the start formatted in UTC, in
	// the event's zone and in the viewer's zone.
	UTCTime    string
	LocalTime  string
	ViewerTime string

	// Links are the sanitized event and faction pages.
	Links []links.Link

	// Logos are the valid series logo identifiers.
	Logos []string

	// SeriesBreak is set when this card's series differs from the previous card's.
	SeriesBreak bool

	mu     sync.Mutex
	status anomaly.Status
	label  string
	timer  *countdown.Timer
}

// Label returns the current countdown string or static label.
func (c *Card) Label() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.label
}

// Status returns the most recent classification.
func (c *Card) Status() anomaly.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Snapshot returns the current status and label together.
func (c *Card) Snapshot() (anomaly.Status, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.label
}

func (c *Card) update(label string, st anomaly.Status) {
	c.mu.Lock()
	c.label = label
	c.status = st
	c.mu.Unlock()
}

// Options configures Build.
type Options struct {
	// Viewer is the viewer's zone for ViewerTime. Defaults to time.Local.
	Viewer *time.Location

	// Style is the countdown format for initial labels.
	Style anomaly.CountdownStyle

	Logger *slog.Logger
}

// View is an ordered set of cards. A View owns the countdown timers started
// for its cards; Close stops them.
type View struct {
	cards  []*Card
	logger *slog.Logger

	mu        sync.Mutex
	started   bool
	closeOnce sync.Once
}

// Build renders one card per relevant event, in input order. Events that fail
// to render are logged and skipped. ErrNothingToShow is returned when no card
// remains.
func Build(events []anomaly.Event, now time.Time, opts Options) (*View, error) {
	if opts.Viewer == nil {
		opts.Viewer = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	v := &View{logger: opts.Logger}
	var lastSeries string
	for _, e := range events {
		if !anomaly.Relevant(e, now) {
			continue
		}

		c, err := render(e, now, opts)
		if err != nil {
			opts.Logger.Warn("skipping anomaly", "city", e.City, "series", e.Series, "error", err)
			continue
		}

		c.SeriesBreak = len(v.cards) == 0 || e.Series != lastSeries
		lastSeries = e.Series
		v.cards = append(v.cards, c)
	}

	if len(v.cards) == 0 {
		return nil, ErrNothingToShow
	}
	return v, nil
}

func render(e anomaly.Event, now time.Time, opts Options) (*Card, error) {
	if e.Start.IsZero() {
		return nil, &RenderError{EventID: e.ID, Err: errors.New("missing start instant")}
	}
	if e.Location == nil {
		return nil, &RenderError{EventID: e.ID, Err: errors.New("missing timezone")}
	}

	st := anomaly.Classify(e, now)
	c := &Card{
		Event:      e,
		UTCTime:    e.FormatUTC(),
		LocalTime:  e.FormatLocal(),
		ViewerTime: e.FormatIn(opts.Viewer),
		Links:      links.ForEvent(&e),
		Logos:      links.FilterLogos(e.Logos),
	}

	label := countdown.StaticLabel(e)
	if countdown.Eligible(e, now) {
		label = anomaly.FormatCountdown(e.StartsIn(now), e.HasTime, opts.Style)
	}
	c.update(label, st)
	return c, nil
}

// Cards returns the cards in display order.
func (v *View) Cards() []*Card {
	return v.cards
}

// Start starts one countdown per eligible card. onChange, if non-nil, is
// called after a card's label is updated, from that card's timer goroutine.
// Start is a no-op after the first call or after Close.
func (v *View) Start(sched *countdown.Scheduler, onChange func(*Card, countdown.Update)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.started {
		return
	}
	v.started = true

	for _, c := range v.cards {
		c.timer = sched.Start(c.Event, func(u countdown.Update) {
			c.update(u.Text, u.Status)
			if onChange != nil {
				onChange(c, u)
			}
		})
	}
	v.logger.Debug("view started", "cards", len(v.cards))
}

// Close stops every countdown owned by the view. Repeated calls are no-ops.
func (v *View) Close() {
	v.closeOnce.Do(func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.started = true
		for _, c := range v.cards {
			c.timer.Stop()
		}
		v.logger.Debug("view closed", "cards", len(v.cards))
	})
}

// Wait blocks until every countdown owned by the view has exited.
func (v *View) Wait() {
	v.mu.Lock()
	timers := make([]*countdown.Timer, 0, len(v.cards))
	for _, c := range v.cards {
		timers = append(timers, c.timer)
	}
	v.mu.Unlock()

	for _, t := range timers {
		<-t.Done()
	}
}

// Refresh reclassifies cards that no longer have a running countdown, so
// status changes after the start (ending, a new local day) are picked up.
// Labels are left alone.
func (v *View) Refresh(now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range v.cards {
		select {
		case <-c.timer.Done():
		default:
			continue
		}
		c.mu.Lock()
		c.status = anomaly.Classify(c.Event, now)
		c.mu.Unlock()
	}
}

// Next returns the first card that has not started yet, or nil.
func (v *View) Next(now time.Time) *Card {
	for _, c := range v.cards {
		if countdown.Eligible(c.Event, now) {
			return c
		}
	}
	return nil
}

// Active returns the cards currently running.
func (v *View) Active(now time.Time) []*Card {
	var out []*Card
	for _, c := range v.cards {
		if c.Event.IsOngoing(now) {
			out = append(out, c)
		}
	}
	return out
}

// Message maps a dataset-level error to the single message shown instead of
// the board.
func Message(err error) string {
	if errors.Is(err, anomaly.ErrNoEvents) || errors.Is(err, ErrNothingToShow) {
		return "No upcoming or current anomalies found."
	}
	return "Failed to load anomalies: " + err.Error()
}
