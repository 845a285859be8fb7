// Package postgres provides the Postgres-backed URL repository.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avkazmin/page-analyzer/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// Config controls the Postgres connection pool behind the store.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// for tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// URLStore implements store.URLRepository on top of a pgx connection pool.
// Each method is one unit of work: the pool hands out a connection, the
// statement runs, and the connection is returned on every exit path.
type URLStore struct {
	pool pool
}

// NewURLStore connects a pool using the provided config and verifies the
// connection with a ping.
func NewURLStore(ctx context.Context, cfg Config) (*URLStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &URLStore{pool: p}, nil
}

// NewURLStoreWithPool constructs a store from an existing pool (primarily
// for testing).
func NewURLStoreWithPool(p pool) (*URLStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &URLStore{pool: p}, nil
}

// Close releases the underlying pool resources.
func (s *URLStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies store connectivity for readiness probes.
func (s *URLStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema. The statements are idempotent, so
// running it on every startup is safe.
func (s *URLStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// FindByName looks up a URL by its exact normalized name.
func (s *URLStore) FindByName(ctx context.Context, name string) (store.URL, error) {
	query := `SELECT id, name, created_at FROM urls WHERE name = $1;`
	var u store.URL
	err := s.pool.QueryRow(ctx, query, name).Scan(&u.ID, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.URL{}, store.ErrNotFound
		}
		return store.URL{}, fmt.Errorf("find url by name: %w", err)
	}
	return u, nil
}

// FindByID loads a single URL by primary key.
func (s *URLStore) FindByID(ctx context.Context, id int64) (store.URL, error) {
	query := `SELECT id, name, created_at FROM urls WHERE id = $1;`
	var u store.URL
	err := s.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.URL{}, store.ErrNotFound
		}
		return store.URL{}, fmt.Errorf("find url by id: %w", err)
	}
	return u, nil
}

// SaveURL inserts a new URL row and returns the generated id. The unique
// constraint on name is authoritative: a concurrent duplicate insert comes
// back as store.ErrDuplicateURL.
func (s *URLStore) SaveURL(ctx context.Context, name string) (int64, error) {
	query := `INSERT INTO urls (name) VALUES ($1) RETURNING id;`
	var id int64
	if err := s.pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, store.ErrDuplicateURL
		}
		return 0, fmt.Errorf("insert url: %w", err)
	}
	return id, nil
}

// ListURLs returns every URL joined with its most recent check, newest URL
// first. URLs without checks carry nil summary fields.
func (s *URLStore) ListURLs(ctx context.Context) ([]store.URLSummary, error) {
	query := `
		SELECT u.id, u.name, u.created_at, lc.created_at, lc.status_code
		FROM urls AS u
		LEFT JOIN LATERAL (
			SELECT created_at, status_code
			FROM url_checks
			WHERE url_id = u.id
			ORDER BY id DESC
			LIMIT 1
		) AS lc ON TRUE
		ORDER BY u.id DESC;
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}
	defer rows.Close()

	var summaries []store.URLSummary
	for rows.Next() {
		var sum store.URLSummary
		err := rows.Scan(
			&sum.URL.ID,
			&sum.URL.Name,
			&sum.URL.CreatedAt,
			&sum.LastCheckedAt,
			&sum.LastStatusCode,
		)
		if err != nil {
			return nil, fmt.Errorf("scan url summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate url summaries: %w", err)
	}
	return summaries, nil
}

// ListChecks returns the check history for a URL, newest first. Rows without
// a status code never made it past the transport and are excluded from the
// view.
func (s *URLStore) ListChecks(ctx context.Context, urlID int64) ([]store.URLCheck, error) {
	query := `
		SELECT id, url_id, created_at, status_code, h1, title, description
		FROM url_checks
		WHERE url_id = $1 AND status_code IS NOT NULL
		ORDER BY id DESC;
	`
	rows, err := s.pool.Query(ctx, query, urlID)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	var checks []store.URLCheck
	for rows.Next() {
		var c store.URLCheck
		err := rows.Scan(
			&c.ID,
			&c.URLID,
			&c.CreatedAt,
			&c.StatusCode,
			&c.H1,
			&c.Title,
			&c.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("scan check row: %w", err)
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check rows: %w", err)
	}
	return checks, nil
}

// SaveCheck appends one check row to a URL's history.
func (s *URLStore) SaveCheck(ctx context.Context, urlID int64, result store.CheckResult) error {
	query := `
		INSERT INTO url_checks (url_id, status_code, h1, title, description)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := s.pool.Exec(ctx, query,
		urlID,
		result.StatusCode,
		result.H1,
		result.Title,
		result.Description,
	)
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}
	return nil
}
