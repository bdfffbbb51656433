package anomaly

import (
	"log/slog"
	"sort"
)

// Normalize resolves each record into an Event and returns them ordered by
// start instant. Records that fail resolution are logged and dropped; the
// remaining records are never affected. Events with equal starts keep their
// input order.
//
// ErrNoEvents is returned when no record survives.
func Normalize(records []Record, logger *slog.Logger) ([]Event, error) {
	if logger == nil {
		logger = slog.Default()
	}

	events := make([]Event, 0, len(records))
	for _, r := range records {
		inst, err := Resolve(r.Date, r.Timezone)
		if err != nil {
			logger.Warn("dropping anomaly with unresolvable date",
				"series", r.Series,
				"city", r.City,
				"date", r.Date,
				"timezone", r.Timezone,
				"error", err,
			)
			continue
		}

		events = append(events, Event{
			Record:   r,
			ID:       recordID(r),
			Start:    inst.Time,
			HasTime:  inst.HasTime,
			Location: inst.Location,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	logger.Debug("normalized anomalies", "records", len(records), "events", len(events))
	return events, nil
}
