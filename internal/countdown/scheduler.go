// Package countdown runs per-event one-second countdown timers.
//
// Each Timer owns one goroutine and one ticker. Ticks for a single event are
// strictly sequential; timers for different events are independent. There is
// no shared registry: whoever starts a Timer owns it and must Stop it.
package countdown

import (
	"log/slog"
	"time"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
)

// Interval is the countdown tick period.
const Interval = time.Second

// Update is the display snapshot produced on every tick.
type Update struct {
	// EventID identifies the event the update belongs to.
	EventID string

	// Text is the countdown string, "In progress", or the static label on
	// the final update.
	Text string

	// Remaining is the time left until start (zero or negative once started).
	Remaining time.Duration

	// Status is the classification at the tick instant.
	Status anomaly.Status

	// Started is true once the start instant has been reached.
	Started bool

	// Final is true on the last update the timer delivers.
	Final bool
}

// Scheduler starts countdown timers.
type Scheduler struct {
	clock     Clock
	newTicker TickerFunc
	style     anomaly.CountdownStyle
	logger    *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used to compute remaining time.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithTicker sets the ticker factory.
func WithTicker(f TickerFunc) Option {
	return func(s *Scheduler) { s.newTicker = f }
}

// WithStyle sets the countdown format.
func WithStyle(style anomaly.CountdownStyle) Option {
	return func(s *Scheduler) { s.style = style }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:     SystemClock(),
		newTicker: DefaultTicker,
		style:     anomaly.CountdownCoarse,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Style returns the configured countdown format.
func (s *Scheduler) Style() anomaly.CountdownStyle {
	return s.style
}

// Eligible reports whether a countdown would be started for e at now.
func Eligible(e anomaly.Event, now time.Time) bool {
	return now.Before(e.Start)
}

// StaticLabel is what is shown instead of a countdown once the start has
// passed: the recorded outcome, or nothing.
func StaticLabel(e anomaly.Event) string {
	return e.Outcome().String()
}

// Start begins a countdown for e. onUpdate is called from the timer's
// goroutine, once immediately and then every Interval, until the timer stops.
//
// Start returns nil when the event has already started; the caller shows
// StaticLabel instead.
func (s *Scheduler) Start(e anomaly.Event, onUpdate func(Update)) *Timer {
	if !Eligible(e, s.clock.Now()) {
		return nil
	}

	t := &Timer{
		event:    e,
		clock:    s.clock,
		style:    s.style,
		onUpdate: onUpdate,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	tk := s.newTicker(Interval)
	s.logger.Debug("countdown started", "event", e.ID, "city", e.City, "start", e.Start)
	go t.run(tk, s.logger)
	return t
}
