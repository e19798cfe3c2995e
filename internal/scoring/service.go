package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbeezley/myk9q-scoring/internal/catalog"
	"github.com/rbeezley/myk9q-scoring/internal/models"
	"github.com/rbeezley/myk9q-scoring/internal/realtime"
	"github.com/rbeezley/myk9q-scoring/internal/storage"
	"github.com/rbeezley/myk9q-scoring/internal/timing"
)

// Publisher receives session events for broadcast
type Publisher interface {
	Publish(ev realtime.Event)
}

// Service drives scoring sessions against trial storage
type Service struct {
	repo      storage.Repository
	store     Store
	catalog   *catalog.Loader
	publisher Publisher
	warningMs int
	now       func() time.Time

	// serialises read-modify-write of sessions within this process
	mu sync.Mutex
}

// Option configures a Service
type Option func(*Service)

// WithPublisher sends session events to p
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithWarningThreshold sets when the countdown enters its warning phase
func WithWarningThreshold(d time.Duration) Option {
	return func(s *Service) { s.warningMs = int(d.Milliseconds()) }
}

// NewService creates a scoring service. loader may be nil, in which case
// missing class time limits are not backfilled.
func NewService(repo storage.Repository, store Store, loader *catalog.Loader, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		store:     store,
		catalog:   loader,
		warningMs: timing.DefaultWarningMs,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionView is a session plus its countdown at the time of the request
type SessionView struct {
	*Session
	Countdown Countdown `json:"countdown"`
}

// View attaches the current countdown to sess
func (s *Service) View(sess *Session) *SessionView {
	return &SessionView{Session: sess, Countdown: sess.Countdown(s.now(), s.warningMs)}
}

// CreateSession opens a scoring session for an unscored entry
func (s *Service) CreateSession(ctx context.Context, entryID string) (*Session, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if entry.IsScored() {
		return nil, ErrAlreadyScored
	}

	class, err := s.repo.GetClass(ctx, entry.ClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	if class == nil {
		return nil, ErrClassNotFound
	}

	sess := NewSession(uuid.New().String(), entry, class, s.limitsFor(class), s.now())
	if sess.Disabled {
		slog.Error("class configuration invalid, timer disabled",
			"class_id", class.ID,
			"entry_id", entry.ID,
			"element", class.Element,
			"level", class.Level,
			"reason", sess.DisabledReason,
		)
	}

	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}

	slog.Info("scoring session created",
		"session_id", sess.ID,
		"entry_id", entry.ID,
		"class_id", class.ID,
		"active_areas", sess.Config.ActiveAreas(),
	)
	s.publish(realtime.EventSessionCreated, sess)
	return sess, nil
}

// Get returns a stored session
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// Start starts the countdown for the current area
func (s *Service) Start(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, realtime.EventTimerStarted, func(sess *Session, now time.Time) error {
		return sess.Start(now)
	})
}

// Stop records the running area time
func (s *Service) Stop(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, realtime.EventTimerStopped, func(sess *Session, now time.Time) error {
		return sess.Stop(now)
	})
}

// Reset abandons the running timer
func (s *Service) Reset(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, realtime.EventTimerReset, func(sess *Session, now time.Time) error {
		return sess.Reset(now)
	})
}

// SetAreaTime stores a manually entered area time
func (s *Service) SetAreaTime(ctx context.Context, id string, area int, text string) (*Session, error) {
	return s.mutate(ctx, id, realtime.EventAreaUpdated, func(sess *Session, now time.Time) error {
		return sess.SetAreaTime(area, text, now)
	})
}

// Submit closes the session and writes the score to storage.
// The session is only marked submitted once the score is saved.
func (s *Service) Submit(ctx context.Context, id string, result models.Result) (*Session, error) {
	return s.mutate(ctx, id, realtime.EventScoreSubmitted, func(sess *Session, now time.Time) error {
		if err := sess.Submit(result, now); err != nil {
			return err
		}
		if err := s.repo.SaveScore(ctx, sess.Score()); err != nil {
			switch {
			case errors.Is(err, storage.ErrEntryNotFound):
				return ErrEntryNotFound
			case errors.Is(err, storage.ErrAlreadyScored):
				return ErrAlreadyScored
			}
			return fmt.Errorf("failed to save score: %w", err)
		}
		slog.Info("score submitted",
			"session_id", sess.ID,
			"entry_id", sess.EntryID,
			"result", sess.Result.String(),
			"search_time_ms", sess.SearchTimeMs(),
		)
		return nil
	})
}

// Delete drops a session without scoring it
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(realtime.EventSessionRemoved, sess)
	return nil
}

// ExpireIdle deletes sessions untouched for longer than ttl and returns how many went
func (s *Service) ExpireIdle(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := s.now().Add(-ttl)
	ids, err := s.store.IdleSince(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		ok, err := s.expire(ctx, id, cutoff)
		if err != nil {
			if !errors.Is(err, ErrSessionNotFound) {
				slog.Error("failed to expire session", "session_id", id, "error", err)
			}
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// expire deletes id if it is still idle once the lock is held.
// A session touched after the sweep listed it is kept.
func (s *Service) expire(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if !sess.UpdatedAt.Before(cutoff) {
		return false, nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) mutate(ctx context.Context, id, event string, fn func(*Session, time.Time) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}

	s.publish(event, sess)
	return sess, nil
}

// limitsFor fills blank class limits from the catalog defaults
func (s *Service) limitsFor(class *models.Class) timing.AreaLimits {
	limits := class.TimeLimits
	if s.catalog == nil {
		return limits
	}
	defaults := s.catalog.Lookup(class.Element, class.Level)
	if defaults == nil {
		return limits
	}
	for i := range limits {
		if limits[i] == "" {
			limits[i] = defaults.TimeLimits[i]
		}
	}
	return limits
}

func (s *Service) publish(eventType string, sess *Session) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(realtime.Event{
		Type:    eventType,
		ClassID: sess.ClassID,
		EntryID: sess.EntryID,
		Data:    s.View(sess),
		At:      s.now(),
	})
}
