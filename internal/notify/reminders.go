package notify

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cpuguy83/anomalybar/internal/anomaly"
)

// Reminders decides which anomaly notifications are due. Each threshold
// fires at most once per event, and crossing several thresholds at once
// (e.g. after a late start) produces a single notification for the closest.
type Reminders struct {
	before  []time.Duration // descending
	onStart bool

	mu   sync.Mutex
	sent map[string]map[string]bool // event ID -> fired keys
}

// NewReminders creates a Reminders for the given lead times.
func NewReminders(before []time.Duration, onStart bool) *Reminders {
	b := append([]time.Duration(nil), before...)
	sort.Slice(b, func(i, j int) bool { return b[i] > b[j] })
	return &Reminders{
		before:  b,
		onStart: onStart,
		sent:    make(map[string]map[string]bool),
	}
}

// Due returns the notification to send for e given the time remaining until
// its start, if any.
func (r *Reminders) Due(e *anomaly.Event, remaining time.Duration) (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fired := r.sent[e.ID]
	if fired == nil {
		fired = make(map[string]bool)
		r.sent[e.ID] = fired
	}

	if remaining <= 0 {
		// Thresholds never reached are moot once started.
		for _, b := range r.before {
			fired[b.String()] = true
		}
		if !r.onStart || fired["start"] {
			return Notification{}, false
		}
		fired["start"] = true
		return Notification{
			Summary: anomaly.Summary(e),
			Body:    "Started at " + e.FormatLocal(),
			Urgency: UrgencyCritical,
			Key:     e.ID + "/start",
		}, true
	}

	var due time.Duration
	found := false
	for _, b := range r.before {
		if remaining > b || fired[b.String()] {
			continue
		}
		fired[b.String()] = true
		due = b
		found = true
	}
	if !found {
		return Notification{}, false
	}

	return Notification{
		Summary: anomaly.Summary(e),
		Body:    fmt.Sprintf("Starts %s (%s)", anomaly.FormatCountdown(remaining, e.HasTime, anomaly.CountdownCoarse), e.FormatLocal()),
		Urgency: UrgencyNormal,
		Key:     e.ID + "/" + due.String(),
	}, true
}

// Prune drops state for events not in keep.
func (r *Reminders) Prune(keep map[string]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.sent {
		if !keep[id] {
			delete(r.sent, id)
		}
	}
}
