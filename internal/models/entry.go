package models

import (
	"time"

	"github.com/rbeezley/myk9q-scoring/internal/timing"
)

// Entry is one dog/handler team entered in a class
type Entry struct {
	ID           string            `json:"id"`
	ClassID      string            `json:"class_id"`
	Armband      int               `json:"armband"`
	Handler      string            `json:"handler"`
	DogName      string            `json:"dog_name"`
	AreaTimes    timing.AreaValues `json:"area_times"`
	Result       *Result           `json:"result,omitempty"`
	SearchTimeMs int               `json:"search_time_ms"`
	ScoredAt     *time.Time        `json:"scored_at,omitempty"`
}

// IsScored reports whether a result has been submitted
func (e *Entry) IsScored() bool {
	return e.Result != nil
}

// Score is the final write for an entry after a session is submitted
type Score struct {
	EntryID      string            `json:"entry_id"`
	AreaTimes    timing.AreaValues `json:"area_times"`
	Result       Result            `json:"result"`
	SearchTimeMs int               `json:"search_time_ms"`
	ScoredAt     time.Time         `json:"scored_at"`
}
