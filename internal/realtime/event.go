package realtime

import "time"

// Event types pushed to class subscribers
const (
	EventEntryChanged   = "entry.changed"
	EventSessionCreated = "session.created"
	EventTimerStarted   = "timer.started"
	EventTimerStopped   = "timer.stopped"
	EventTimerReset     = "timer.reset"
	EventAreaUpdated    = "area.updated"
	EventScoreSubmitted = "score.submitted"
	EventSessionRemoved = "session.removed"
)

// Event is one message fanned out to everyone watching a class
type Event struct {
	Type    string    `json:"type"`
	ClassID string    `json:"class_id"`
	EntryID string    `json:"entry_id,omitempty"`
	Data    any       `json:"data,omitempty"`
	At      time.Time `json:"at"`
}
