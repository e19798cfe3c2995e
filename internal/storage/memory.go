package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rbeezley/myk9q-scoring/internal/models"
)

// MemoryRepository keeps trial data in process memory.
// It backs STORAGE_DRIVER=memory and handler tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	classes map[string]models.Class
	entries map[string]models.Entry
	clients map[string]models.ApiClient
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		classes: make(map[string]models.Class),
		entries: make(map[string]models.Entry),
		clients: make(map[string]models.ApiClient),
	}
}

// AddClass inserts or replaces a class
func (r *MemoryRepository) AddClass(c *models.Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[c.ID] = *c
}

// AddEntry inserts or replaces an entry
func (r *MemoryRepository) AddEntry(e *models.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.ID] = copyEntry(*e)
}

// AddClient registers an API client
func (r *MemoryRepository) AddClient(c *models.ApiClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	cp.Permissions = append([]string(nil), c.Permissions...)
	r.clients[c.ApiKey] = cp
}

func (r *MemoryRepository) GetClass(ctx context.Context, id string) (*models.Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryRepository) ListClasses(ctx context.Context, filters models.ClassFilters) ([]*models.Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Class
	for _, c := range r.classes {
		if filters.TrialID != "" && c.TrialID != filters.TrialID {
			continue
		}
		if filters.Element != "" && c.Element != filters.Element {
			continue
		}
		if filters.Level != "" && c.Level != filters.Level {
			continue
		}
		c := c
		result = append(result, &c)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.TrialID != b.TrialID {
			return a.TrialID < b.TrialID
		}
		if a.Element != b.Element {
			return a.Element < b.Element
		}
		return a.Level < b.Level
	})
	return result, nil
}

func (r *MemoryRepository) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	e = copyEntry(e)
	return &e, nil
}

func (r *MemoryRepository) ListEntries(ctx context.Context, classID string) ([]*models.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Entry
	for _, e := range r.entries {
		if e.ClassID != classID {
			continue
		}
		e = copyEntry(e)
		result = append(result, &e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Armband < result[j].Armband })
	return result, nil
}

func (r *MemoryRepository) SaveScore(ctx context.Context, score *models.Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[score.EntryID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, score.EntryID)
	}
	if e.Result != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyScored, score.EntryID)
	}

	result := score.Result
	scoredAt := score.ScoredAt
	e.AreaTimes = score.AreaTimes
	e.Result = &result
	e.SearchTimeMs = score.SearchTimeMs
	e.ScoredAt = &scoredAt
	r.entries[e.ID] = e
	return nil
}

func (r *MemoryRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[apiKey]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[apiKey]
	if !ok {
		return nil
	}
	now := time.Now()
	c.LastUsedAt = &now
	r.clients[apiKey] = c
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

func copyEntry(e models.Entry) models.Entry {
	if e.Result != nil {
		res := *e.Result
		e.Result = &res
	}
	if e.ScoredAt != nil {
		t := *e.ScoredAt
		e.ScoredAt = &t
	}
	return e
}
