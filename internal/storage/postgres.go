package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rbeezley/myk9q-scoring/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}
	poolConfig.MinConns = 2
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Classes ---

const classColumns = `id, trial_id, trial_name, element, level, area_count, time_limit_1, time_limit_2, time_limit_3, judge`

// GetClass retrieves a class by ID
func (r *PostgresRepository) GetClass(ctx context.Context, id string) (*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1`

	c, err := scanClass(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	return c, nil
}

// ListClasses returns classes matching filters ordered by trial, element and level
func (r *PostgresRepository) ListClasses(ctx context.Context, filters models.ClassFilters) ([]*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE 1=1`
	args := make([]interface{}, 0, 3)

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		query += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}
	add("trial_id", filters.TrialID)
	add("element", filters.Element)
	add("level", filters.Level)

	query += " ORDER BY trial_id, element, level"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	var classes []*models.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classes: %w", err)
	}

	return classes, nil
}

func scanClass(row pgx.Row) (*models.Class, error) {
	var c models.Class
	err := row.Scan(
		&c.ID,
		&c.TrialID,
		&c.TrialName,
		&c.Element,
		&c.Level,
		&c.AreaCount,
		&c.TimeLimits[0],
		&c.TimeLimits[1],
		&c.TimeLimits[2],
		&c.Judge,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// --- Entries ---

const entryColumns = `id, class_id, armband, handler, dog_name, area_time_1, area_time_2, area_time_3, result_status, result_reason, search_time_ms, scored_at`

// GetEntry retrieves an entry by ID
func (r *PostgresRepository) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`

	e, err := scanEntry(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, nil
}

// ListEntries returns the entries of a class in armband order
func (r *PostgresRepository) ListEntries(ctx context.Context, classID string) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE class_id = $1 ORDER BY armband`

	rows, err := r.pool.Query(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}

func scanEntry(row pgx.Row) (*models.Entry, error) {
	var e models.Entry
	var status, reason sql.NullString
	var scoredAt sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.ClassID,
		&e.Armband,
		&e.Handler,
		&e.DogName,
		&e.AreaTimes[0],
		&e.AreaTimes[1],
		&e.AreaTimes[2],
		&status,
		&reason,
		&e.SearchTimeMs,
		&scoredAt,
	)
	if err != nil {
		return nil, err
	}

	if status.Valid {
		e.Result = &models.Result{
			Status: models.ResultStatus(status.String),
			Reason: reason.String,
		}
	}
	if scoredAt.Valid {
		e.ScoredAt = &scoredAt.Time
	}
	return &e, nil
}

// SaveScore writes the area times and result of a submitted run
func (r *PostgresRepository) SaveScore(ctx context.Context, score *models.Score) error {
	query := `
		UPDATE entries
		SET area_time_1 = $2, area_time_2 = $3, area_time_3 = $4,
		    result_status = $5, result_reason = $6, search_time_ms = $7,
		    scored_at = $8, updated_at = NOW()
		WHERE id = $1 AND result_status IS NULL
	`

	result, err := r.pool.Exec(ctx, query,
		score.EntryID,
		score.AreaTimes[0],
		score.AreaTimes[1],
		score.AreaTimes[2],
		string(score.Result.Status),
		nullString(score.Result.Reason),
		score.SearchTimeMs,
		score.ScoredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM entries WHERE id = $1)`, score.EntryID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check entry: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrAlreadyScored, score.EntryID)
		}
		return fmt.Errorf("%w: %s", ErrEntryNotFound, score.EntryID)
	}

	return nil
}

// --- API Clients ---

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, trial_id, created_at, last_used_at, permissions
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var trialID sql.NullString
	var lastUsedAt sql.NullTime
	var permissionsJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&trialID,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	client.TrialID = trialID.String
	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`
	if _, err := r.pool.Exec(ctx, query, apiKey); err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
