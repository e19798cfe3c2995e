package storage

import (
	"context"
	"errors"

	"github.com/rbeezley/myk9q-scoring/internal/models"
)

var (
	// ErrEntryNotFound is returned when a score targets an unknown entry
	ErrEntryNotFound = errors.New("entry not found")
	// ErrAlreadyScored is returned when a score targets an entry that already has a result
	ErrAlreadyScored = errors.New("entry already scored")
)

// Repository defines the interface for trial data persistence.
// Lookups return nil, nil when the record does not exist.
type Repository interface {
	// Classes
	GetClass(ctx context.Context, id string) (*models.Class, error)
	ListClasses(ctx context.Context, filters models.ClassFilters) ([]*models.Class, error)

	// Entries
	GetEntry(ctx context.Context, id string) (*models.Entry, error)
	ListEntries(ctx context.Context, classID string) ([]*models.Entry, error)
	SaveScore(ctx context.Context, score *models.Score) error

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
