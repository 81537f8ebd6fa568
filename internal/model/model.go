package model

import "time"

// Occurrence represents a single concrete instance of a calendar event
// stored in a vdir collection (after recurrence expansion and timezone
// normalization).
type Occurrence struct {
	Collection string // collection directory the item lives in
	ItemPath   string // .ics file the event was read from
	UID        string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}
