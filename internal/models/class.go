package models

import (
	"github.com/rbeezley/myk9q-scoring/internal/timing"
)

// Class is a trial class record: one element/level judged by one judge
type Class struct {
	ID         string            `json:"id"`
	TrialID    string            `json:"trial_id"`
	TrialName  string            `json:"trial_name"`
	Element    string            `json:"element"`
	Level      string            `json:"level"`
	AreaCount  int               `json:"area_count"`
	TimeLimits timing.AreaLimits `json:"time_limits"`
	Judge      string            `json:"judge,omitempty"`
}

// ElementLevel returns the competition category of the class
func (c *Class) ElementLevel() timing.ElementLevel {
	return timing.ElementLevel{Element: c.Element, Level: c.Level}
}

// AreaConfig validates the class record into an area configuration
func (c *Class) AreaConfig() (timing.AreaConfig, error) {
	return timing.NewAreaConfig(c.AreaCount, c.ElementLevel())
}

// ActiveAreas reports which of the three area fields apply to this class
func (c *Class) ActiveAreas() [timing.MaxAreas]bool {
	var active [timing.MaxAreas]bool
	for i := range active {
		active[i] = timing.IsAreaActive(i+1, c.AreaCount, c.Element, c.Level)
	}
	return active
}

// ClassFilters narrows class listings
type ClassFilters struct {
	TrialID string
	Element string
	Level   string
}
