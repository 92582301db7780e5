package domain

import "time"

// EventStatus is the lifecycle state of an Event.
type EventStatus string

const (
	EventScheduled EventStatus = "SCHEDULED"
	EventClosed    EventStatus = "CLOSED"
)

// eventCloseAfter is the cut-off past which a SCHEDULED event transitions to
// CLOSED regardless of upstream confirmation (invariant I6).
const eventCloseAfter = 4 * time.Hour

// Event is a single fixture belonging to a Competition.
type Event struct {
	ExternalID      string
	CompetitionID   string
	ScheduledStart  time.Time
	Status          EventStatus
}

// MinutesToStart returns the minutes remaining until ScheduledStart, evaluated
// against the given instant. Negative once the event has started.
func (e Event) MinutesToStart(now time.Time) float64 {
	return e.ScheduledStart.Sub(now).Minutes()
}

// ShouldClose reports whether the event's scheduled start is old enough that it
// must transition to CLOSED (invariant I6), evaluated against now.
func (e Event) ShouldClose(now time.Time) bool {
	return e.Status == EventScheduled && now.Sub(e.ScheduledStart) > eventCloseAfter
}
