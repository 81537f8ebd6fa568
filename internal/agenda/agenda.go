// Package agenda answers "what happens between two dates" over a vdir
// store: it lists every collection and item, extracts the events of the
// iCalendar items and expands their recurrences within a window.
package agenda

import (
	"context"
	"time"

	"vdir/internal/fsio"
	"vdir/internal/ics"
	appLog "vdir/internal/log"
	"vdir/internal/model"
	"vdir/internal/vdir"
)

// Window is the time range an agenda covers. Occurrences are converted to
// Location, time.Local when nil.
type Window struct {
	Start    time.Time
	End      time.Time
	Location *time.Location

	// MaxPerEvent caps the expansion of one recurring event; zero keeps
	// the expander's default.
	MaxPerEvent int
}

// Days returns the window of the given number of whole days starting at
// midnight of now's day in loc.
func Days(now time.Time, loc *time.Location, days int) Window {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{
		Start:    start,
		End:      start.AddDate(0, 0, days),
		Location: loc,
	}
}

// Agenda is the expanded content of a window.
type Agenda struct {
	Occurrences []model.Occurrence
	// Truncated lists "<item path>#<uid>" keys whose expansion hit the cap.
	Truncated []string
}

// Build lists every item under root through exec and expands the events
// of all iCalendar items into w. vCard items are ignored.
func Build(ctx context.Context, exec fsio.Executor, root string, w Window, opts ...vdir.Option) (Agenda, error) {
	all, err := fsio.Run(ctx, exec, vdir.NewListAllItems(root, opts...))
	if err != nil {
		return Agenda{}, err
	}

	events := make([]ics.ParsedEvent, 0)
	items := 0
	for _, ci := range all {
		for _, item := range ci.Items {
			if item.Kind != vdir.KindIcal || item.Ical == nil {
				continue
			}
			items++
			events = append(events, ics.ParseEvents(ci.Collection.Path, item.Path, item.Ical)...)
		}
	}

	res, err := ics.ExpandOccurrences(events, ics.ExpandConfig{
		DisplayLocation:        w.Location,
		RangeStart:             w.Start,
		RangeEnd:               w.End,
		MaxOccurrencesPerEvent: w.MaxPerEvent,
	})
	if err != nil {
		return Agenda{}, err
	}

	appLog.Info("agenda built",
		"collections", len(all),
		"calendar_items", items,
		"events", len(events),
		"occurrences", len(res.Occurrences),
	)

	return Agenda{Occurrences: res.Occurrences, Truncated: res.TruncatedEvents}, nil
}
