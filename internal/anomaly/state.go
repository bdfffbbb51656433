package anomaly

import "time"

// State is the lifecycle state of an anomaly relative to the viewer's clock.
type State int

const (
	// StateFuture has no same-day styling.
	StateFuture State = iota
	// StateUpcomingToday starts later on the current UTC day.
	StateUpcomingToday
	// StateActive is running now.
	StateActive
	// StateCompletedRecently ended less than CompletedGrace ago, on the current UTC day.
	StateCompletedRecently
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUpcomingToday:
		return "upcoming-today"
	case StateActive:
		return "active"
	case StateCompletedRecently:
		return "completed-recently"
	default:
		return "future"
	}
}

// Border is the outcome styling of an anomaly card.
type Border int

const (
	BorderDefault Border = iota
	BorderActive
	BorderResistance
	BorderEnlightened
	BorderPreparation
)

// String returns the border class name.
func (b Border) String() string {
	switch b {
	case BorderActive:
		return "active"
	case BorderResistance:
		return "resistance-won"
	case BorderEnlightened:
		return "enlightened-won"
	case BorderPreparation:
		return "prep"
	default:
		return "default"
	}
}

// Highlight is the same-day emphasis of an anomaly card.
type Highlight int

const (
	HighlightNone Highlight = iota
	HighlightPulse
	HighlightToday
	HighlightDim
)

// String returns the highlight class name.
func (h Highlight) String() string {
	switch h {
	case HighlightPulse:
		return "pulse"
	case HighlightToday:
		return "highlight-today"
	case HighlightDim:
		return "dim"
	default:
		return ""
	}
}

// Status is the classification of an Event at a given instant.
type Status struct {
	State State

	// Active is true while a timed event runs, regardless of calendar day.
	Active bool

	// Preparation is true when both faction pages are published and the
	// event is not active.
	Preparation bool

	// Past is true when the viewer's date, in the event's zone, is after
	// the event's date. It only affects formatting.
	Past bool

	Outcome Outcome
}

// Border returns the outcome styling. Precedence is fixed: active, then a
// recorded resistance win, then an enlightened win, then preparation.
func (s Status) Border() Border {
	switch {
	case s.Active:
		return BorderActive
	case s.Outcome == OutcomeResistance:
		return BorderResistance
	case s.Outcome == OutcomeEnlightened:
		return BorderEnlightened
	case s.Preparation:
		return BorderPreparation
	default:
		return BorderDefault
	}
}

// Highlight returns the same-day emphasis for the state.
func (s Status) Highlight() Highlight {
	switch s.State {
	case StateActive:
		return HighlightPulse
	case StateUpcomingToday:
		return HighlightToday
	case StateCompletedRecently:
		return HighlightDim
	default:
		return HighlightNone
	}
}

// Classify computes the status of e at now. It is pure and cheap enough to
// run on every countdown tick.
//
// The same-day check compares UTC calendar dates while Past compares dates
// in the event's own zone.
func Classify(e Event, now time.Time) Status {
	end := e.End()
	active := e.IsOngoing(now)

	st := Status{
		State:       StateFuture,
		Active:      active,
		Preparation: !active && e.ResistanceURL != "" && e.EnlightenedURL != "",
		Past:        laterDay(now.In(e.loc()), e.Start.In(e.loc())),
		Outcome:     e.Outcome(),
	}

	if !sameDay(e.Start.UTC(), now.UTC()) {
		return st
	}

	if !e.HasTime {
		st.State = StateUpcomingToday
		return st
	}

	switch {
	case now.Before(e.Start):
		st.State = StateUpcomingToday
	case active:
		st.State = StateActive
	case now.After(end) && !now.After(end.Add(CompletedGrace)):
		st.State = StateCompletedRecently
	}
	return st
}

// Relevant reports whether e is still inside the display window: it has not
// ended more than CompletedGrace before now.
func Relevant(e Event, now time.Time) bool {
	return !e.End().Add(CompletedGrace).Before(now)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// laterDay reports whether a falls on a later calendar date than b.
// Both must be in the same location.
func laterDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
