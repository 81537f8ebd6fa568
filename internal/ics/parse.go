package ics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "vdir/internal/log"
)

var (
	ErrEmpty        = errors.New("ics: empty body")
	ErrMissingUID   = errors.New("ics: component without UID")
	ErrMultipleUIDs = errors.New("ics: more than one UID")
)

// Options tunes how strictly calendar objects are accepted.
type Options struct {
	// RequireUID rejects objects whose components (VTIMEZONE aside) do
	// not all carry the same single UID.
	RequireUID bool
}

// Parse parses one iCalendar object.
func Parse(text string, opts Options) (*ical.Calendar, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmpty
	}

	cal, err := ical.ParseCalendar(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("ics: %w", err)
	}

	if opts.RequireUID {
		if _, err := UID(cal); err != nil {
			return nil, err
		}
	}
	return cal, nil
}

// Format serializes cal back to its canonical text form.
func Format(cal *ical.Calendar) string {
	return cal.Serialize()
}

// UID returns the single UID shared by every component of cal.
func UID(cal *ical.Calendar) (string, error) {
	uid := ""
	for _, comp := range cal.Components {
		if _, ok := comp.(*ical.VTimezone); ok {
			continue
		}

		value := ""
		for _, p := range comp.UnknownPropertiesIANAProperties() {
			if p.IANAToken == string(ical.ComponentPropertyUniqueId) {
				value = strings.TrimSpace(p.Value)
				break
			}
		}

		switch {
		case value == "":
			return "", ErrMissingUID
		case uid == "":
			uid = value
		case uid != value:
			return "", fmt.Errorf("%w: %q and %q", ErrMultipleUIDs, uid, value)
		}
	}

	if uid == "" {
		return "", ErrMissingUID
	}
	return uid, nil
}

// ParsedEvent is the normalized representation of a VEVENT read from a
// vdir item. Recurrence expansion operates on this type.
type ParsedEvent struct {
	Collection string
	ItemPath   string

	UID string
	Seq int

	Summary     string
	Description string
	Location    string

	Start   time.Time
	End     time.Time
	AllDay  bool
	StartTZ string
	EndTZ   string

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID (if present) in event's own timezone
	IsOverride bool       // true if this VEVENT is an override for a recurring instance
}

// ParseEvents extracts the VEVENTs of one calendar item.
//
//   - It relies on the underlying library's VTIMEZONE/TZID handling to
//     construct proper time.Time values (with Location set).
//   - It detects all-day events by inspecting the DTSTART value format.
//   - It records RRULE/EXDATE/RECURRENCE-ID but does not expand recurrences;
//     expansion is done in expand.go.
//
// Events that cannot be normalized are logged and skipped.
func ParseEvents(collection, itemPath string, cal *ical.Calendar) []ParsedEvent {
	events := make([]ParsedEvent, 0)

	for _, comp := range cal.Events() {
		ev, err := parseVEvent(comp)
		if err != nil {
			appLog.Error("ics vevent parse failed", err, "item", itemPath)
			continue
		}
		ev.Collection = collection
		ev.ItemPath = itemPath
		events = append(events, ev)
	}

	appLog.Debug("ics events extracted", "item", itemPath, "event_count", len(events))
	return events
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, ErrMissingUID
	}
	out.UID = uidProp.Value

	// SEQUENCE is optional.
	if seqProp := ve.GetProperty(ical.ComponentPropertySequence); seqProp != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(seqProp.Value)); err == nil {
			out.Seq = n
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil {
		return out, errors.New("missing DTSTART")
	}

	// All-day if VALUE=DATE or the value has no time part.
	allDay := !strings.Contains(dtStartProp.Value, "T") || paramEquals(dtStartProp, "VALUE", "DATE")
	out.AllDay = allDay
	out.StartTZ = param(dtStartProp, "TZID")

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start

	if dtEndProp := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEndProp != nil {
		out.EndTZ = param(dtEndProp, "TZID")
		end, err := ve.GetEndAt()
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
		out.End = end
	} else if allDay {
		out.End = out.Start.AddDate(0, 0, 1)
	} else {
		out.End = out.Start
	}

	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE can appear multiple times, each with a comma separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, out.Start.Location()); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	// Raw property name; the constant is not exported by every library version.
	if ridProp := ve.GetProperty("RECURRENCE-ID"); ridProp != nil {
		if t, err := parseICSTime(ridProp.Value, out.Start.Location()); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

func param(p *ical.IANAProperty, name string) string {
	if vs, ok := p.ICalParameters[name]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func paramEquals(p *ical.IANAProperty, name, want string) bool {
	return strings.EqualFold(param(p, name), want)
}

// parseICSTime parses a basic DATE / DATE-TIME value of an EXDATE or
// RECURRENCE-ID. Floating values are read in loc, the event's own zone.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if loc == nil {
		loc = time.Local
	}

	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
