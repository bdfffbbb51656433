package countdown

import (
	"log/slog"
	"sync"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
)

// Timer is a running countdown for one event.
type Timer struct {
	event    anomaly.Event
	clock    Clock
	style    anomaly.CountdownStyle
	onUpdate func(Update)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// closedCh is returned by Done on a nil Timer.
var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Stop cancels the timer. It is idempotent, never blocks, and may be called
// from inside the update callback. No update is delivered after Stop returns,
// other than one already in progress.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() {
		close(t.stop)
	})
}

// Done is closed when the timer's goroutine has exited.
func (t *Timer) Done() <-chan struct{} {
	if t == nil {
		return closedCh
	}
	return t.done
}

// EventID returns the ID of the event the timer counts down to.
func (t *Timer) EventID() string {
	if t == nil {
		return ""
	}
	return t.event.ID
}

func (t *Timer) run(tk Ticker, logger *slog.Logger) {
	defer close(t.done)
	defer tk.Stop()

	if !t.tick() {
		logger.Debug("countdown finished", "event", t.event.ID)
		return
	}
	for {
		select {
		case <-t.stop:
			logger.Debug("countdown stopped", "event", t.event.ID)
			return
		case <-tk.C():
			if !t.tick() {
				logger.Debug("countdown finished", "event", t.event.ID)
				return
			}
		}
	}
}

// tick computes and delivers one update. It returns false when the timer
// should exit.
func (t *Timer) tick() bool {
	select {
	case <-t.stop:
		return false
	default:
	}

	now := t.clock.Now()
	st := anomaly.Classify(t.event, now)
	remaining := t.event.StartsIn(now)

	u := Update{
		EventID:   t.event.ID,
		Remaining: remaining,
		Status:    st,
	}
	switch {
	case remaining > 0:
		u.Text = anomaly.FormatCountdown(remaining, t.event.HasTime, t.style)
	case st.Active:
		u.Text = anomaly.InProgress
		u.Started = true
	default:
		u.Text = StaticLabel(t.event)
		u.Started = true
		u.Final = true
	}

	if t.onUpdate != nil {
		t.onUpdate(u)
	}
	return !u.Final
}
