package scoring

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbeezley/myk9q-scoring/internal/models"
	"github.com/rbeezley/myk9q-scoring/internal/timing"
)

// Common errors
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrClassNotFound     = errors.New("class not found")
	ErrAlreadyScored     = errors.New("entry already scored")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrTimerDisabled     = errors.New("timer controls disabled")
	ErrInvalidArea       = errors.New("area is not active for this class")
	ErrIncomplete        = errors.New("not every area has a recorded time")
)

// State is where a scoring session is in the run
type State string

const (
	StateIdle             State = "idle"
	StateRunning          State = "running"
	StateStopped          State = "stopped"
	StateAllAreasRecorded State = "all_areas_recorded"
	StateSubmitted        State = "submitted"
)

// Session is the timer and area state of one entry being scored
type Session struct {
	ID             string            `json:"id"`
	EntryID        string            `json:"entry_id"`
	ClassID        string            `json:"class_id"`
	Config         timing.AreaConfig `json:"config"`
	Limits         timing.AreaLimits `json:"limits"`
	Values         timing.AreaValues `json:"values"`
	State          State             `json:"state"`
	Completed      int               `json:"completed"`
	CurrentArea    int               `json:"current_area"`
	PresetMs       int               `json:"preset_ms"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	Result         *models.Result    `json:"result,omitempty"`
	Disabled       bool              `json:"disabled"`
	DisabledReason string            `json:"disabled_reason,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Countdown is what the countdown display shows at a moment
type Countdown struct {
	PresetMs    int                   `json:"preset_ms"`
	ElapsedMs   int                   `json:"elapsed_ms"`
	RemainingMs int                   `json:"remaining_ms"`
	Phase       timing.CountdownPhase `json:"phase"`
	Display     string                `json:"display"`
}

// NewSession builds an idle session for entry. Area times already stored on
// the entry are carried over. Bad class data disables the timer controls
// rather than failing, so the screen can still show the entry.
func NewSession(id string, entry *models.Entry, class *models.Class, limits timing.AreaLimits, now time.Time) *Session {
	s := &Session{
		ID:        id,
		EntryID:   entry.ID,
		ClassID:   class.ID,
		Limits:    limits,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	cfg, err := class.AreaConfig()
	if err != nil {
		s.Config = timing.AreaConfig{AreaCount: class.AreaCount, ElementLevel: class.ElementLevel()}
		s.disable(err)
		return s
	}
	s.Config = cfg

	if err := limits.Check(cfg.ActiveAreas()); err != nil {
		s.disable(err)
	}

	for area := 1; area <= timing.MaxAreas; area++ {
		if cfg.IsActive(area) && entry.AreaTimes.Recorded(area) {
			s.Values[area-1] = entry.AreaTimes[area-1]
		}
	}
	s.Completed = s.recorded()
	if s.Completed == cfg.ActiveAreas() {
		s.State = StateAllAreasRecorded
	}

	if s.Disabled {
		return s
	}
	if err := s.rearm(); err != nil {
		s.disable(err)
	}
	return s
}

// Start arms the countdown for the current area and starts it
func (s *Session) Start(now time.Time) error {
	if s.Disabled {
		return ErrTimerDisabled
	}
	if s.State != StateIdle && s.State != StateStopped {
		return fmt.Errorf("%w: cannot start from %s", ErrInvalidTransition, s.State)
	}

	if err := s.rearm(); err != nil {
		return err
	}
	s.State = StateRunning
	s.StartedAt = &now
	s.UpdatedAt = now
	return nil
}

// Stop records the elapsed time into the area being timed
func (s *Session) Stop(now time.Time) error {
	if s.State != StateRunning || s.StartedAt == nil {
		return fmt.Errorf("%w: timer is not running", ErrInvalidTransition)
	}

	elapsed := timing.ElapsedMs(*s.StartedAt, now)
	s.Values[s.CurrentArea-1] = timing.Format(elapsed, false, true)
	s.StartedAt = nil

	active := s.Config.ActiveAreas()
	s.Completed = timing.NextActiveArea(s.Completed, s.CurrentArea, active)
	if r := s.recorded(); r > s.Completed {
		s.Completed = r
	}

	s.State = StateStopped
	if s.recorded() == active {
		s.State = StateAllAreasRecorded
	}
	s.UpdatedAt = now
	if err := s.rearm(); err != nil {
		s.disable(err)
	}
	return nil
}

// Reset abandons the running timer and re-arms the preset. Recorded areas are kept.
func (s *Session) Reset(now time.Time) error {
	if s.Disabled {
		return ErrTimerDisabled
	}
	if s.State != StateRunning && s.State != StateStopped {
		return fmt.Errorf("%w: cannot reset from %s", ErrInvalidTransition, s.State)
	}

	s.State = StateIdle
	s.StartedAt = nil
	s.UpdatedAt = now
	return s.rearm()
}

// SetAreaTime stores a manually entered area time. Empty text clears the area.
func (s *Session) SetAreaTime(area int, text string, now time.Time) error {
	if s.Disabled {
		return ErrTimerDisabled
	}
	if s.State == StateSubmitted {
		return fmt.Errorf("%w: session already submitted", ErrInvalidTransition)
	}
	if !s.Config.IsActive(area) {
		return fmt.Errorf("%w: area %d", ErrInvalidArea, area)
	}
	running := s.State == StateRunning
	if running && area == s.CurrentArea {
		return fmt.Errorf("%w: area %d is being timed", ErrInvalidTransition, area)
	}

	if strings.TrimSpace(text) == "" {
		text = ""
	} else if err := timing.ValidateAreaTime(text, s.Limits[area-1]); err != nil {
		return err
	}
	s.Values[area-1] = text
	s.Completed = s.recorded()
	s.UpdatedAt = now

	if running {
		return nil
	}
	switch {
	case s.Completed == s.Config.ActiveAreas():
		s.State = StateAllAreasRecorded
	case s.State == StateAllAreasRecorded:
		s.State = StateStopped
	}
	return s.rearm()
}

// Submit closes the session with result. Qualified needs every area recorded.
func (s *Session) Submit(result models.Result, now time.Time) error {
	switch s.State {
	case StateSubmitted:
		return fmt.Errorf("%w: session already submitted", ErrInvalidTransition)
	case StateRunning:
		return fmt.Errorf("%w: stop the timer before submitting", ErrInvalidTransition)
	}
	if err := result.Validate(); err != nil {
		return err
	}
	if result.Status == models.ResultQualified && s.State != StateAllAreasRecorded {
		return ErrIncomplete
	}

	s.Result = &result
	s.State = StateSubmitted
	s.UpdatedAt = now
	return nil
}

// Countdown returns the countdown display at now
func (s *Session) Countdown(now time.Time, warningMs int) Countdown {
	elapsed := 0
	if s.State == StateRunning && s.StartedAt != nil {
		elapsed = timing.ElapsedMs(*s.StartedAt, now)
	}
	remaining := timing.RemainingMs(s.PresetMs, elapsed)
	return Countdown{
		PresetMs:    s.PresetMs,
		ElapsedMs:   elapsed,
		RemainingMs: remaining,
		Phase:       timing.Phase(remaining, warningMs),
		Display:     timing.Format(remaining, false, false),
	}
}

// SearchTimeMs sums the recorded area times
func (s *Session) SearchTimeMs() int {
	total := 0
	for _, v := range s.Values {
		if v == "" {
			continue
		}
		if ms, err := timing.Parse(v); err == nil {
			total += ms
		}
	}
	return total
}

// Score builds the storage write for a submitted session
func (s *Session) Score() *models.Score {
	score := &models.Score{
		EntryID:      s.EntryID,
		AreaTimes:    s.Values,
		SearchTimeMs: s.SearchTimeMs(),
		ScoredAt:     s.UpdatedAt,
	}
	if s.Result != nil {
		score.Result = *s.Result
	}
	return score
}

// rearm recomputes the current area and countdown preset
func (s *Session) rearm() error {
	active := s.Config.ActiveAreas()
	area, err := timing.CurrentArea(active, s.Values)
	if err != nil {
		return err
	}
	preset, err := timing.ResolvePreset(active, s.Values, s.Limits)
	if err != nil {
		return err
	}
	s.CurrentArea = area
	s.PresetMs = preset
	return nil
}

func (s *Session) recorded() int {
	n := 0
	for area := 1; area <= timing.MaxAreas; area++ {
		if s.Config.IsActive(area) && s.Values.Recorded(area) {
			n++
		}
	}
	return n
}

func (s *Session) disable(err error) {
	s.Disabled = true
	s.DisabledReason = err.Error()
}

func (s *Session) clone() *Session {
	cp := *s
	if s.StartedAt != nil {
		t := *s.StartedAt
		cp.StartedAt = &t
	}
	if s.Result != nil {
		r := *s.Result
		cp.Result = &r
	}
	return &cp
}
