// Package postgres provides the SQL-backed storage adapter.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ufukayyildiz/tocwtr2b/internal/storage"
)

// Store implements the storage contract on PostgreSQL. Uniqueness relies on
// INSERT ... ON CONFLICT DO NOTHING, the database's conditional-write
// primitive, and expiry is filtered in every read so lookups stay correct
// even before a dead row is physically removed.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database and prepares the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Store{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. Intended for tests.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the record and uniqueness tables if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			collection  TEXT        NOT NULL,
			key         TEXT        NOT NULL,
			data        JSONB       NOT NULL,
			expires_at  TIMESTAMPTZ,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, key)
		);
		CREATE TABLE IF NOT EXISTS unique_claims (
			collection  TEXT        NOT NULL,
			field       TEXT        NOT NULL,
			value       TEXT        NOT NULL,
			key         TEXT        NOT NULL,
			expires_at  TIMESTAMPTZ,
			PRIMARY KEY (collection, field, value)
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
}

func expiresAt(ttl time.Duration) sql.NullTime {
	if ttl <= 0 {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: time.Now().UTC().Add(ttl), Valid: true}
}

func (s *Store) Get(ctx context.Context, collection, key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowxContext(ctx, `
		SELECT data FROM records
		WHERE collection = $1 AND key = $2
		  AND (expires_at IS NULL OR expires_at > now())
	`, collection, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap(err)
	}
	return data, true, nil
}

func (s *Store) FindBy(ctx context.Context, collection, field, value string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowxContext(ctx, `
		SELECT data FROM records
		WHERE collection = $1 AND data->>$2 = $3
		  AND (expires_at IS NULL OR expires_at > now())
		LIMIT 1
	`, collection, field, value).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap(err)
	}
	return data, true, nil
}

func (s *Store) List(ctx context.Context, collection string) ([][]byte, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT data FROM records
		WHERE collection = $1
		  AND (expires_at IS NULL OR expires_at > now())
		ORDER BY created_at
	`, collection)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var result [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, wrap(err)
		}
		result = append(result, data)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}
	return result, nil
}

func (s *Store) CreateIfAbsent(ctx context.Context, collection, key string, unique storage.Uniqueness, data []byte, ttl time.Duration) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap(err)
	}
	defer tx.Rollback()

	exp := expiresAt(ttl)

	if unique.Field != "" {
		// Claim the slot; an expired prior claim may be taken over.
		res, err := tx.ExecContext(ctx, `
			INSERT INTO unique_claims (collection, field, value, key, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (collection, field, value) DO UPDATE
				SET key = EXCLUDED.key, expires_at = EXCLUDED.expires_at
				WHERE unique_claims.expires_at IS NOT NULL
				  AND unique_claims.expires_at <= now()
		`, collection, unique.Field, unique.Value, key, exp)
		if err != nil {
			return wrap(err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return storage.ErrConflict
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO records (collection, key, data, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, key) DO UPDATE
			SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, created_at = now()
			WHERE records.expires_at IS NOT NULL AND records.expires_at <= now()
	`, collection, key, data, exp)
	if err != nil {
		return wrap(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return storage.ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, collection, key string, data []byte, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (collection, key, data, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, key) DO UPDATE
			SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at
	`, collection, key, data, expiresAt(ttl))
	return wrap(err)
}

func (s *Store) Delete(ctx context.Context, collection, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM records WHERE collection = $1 AND key = $2
	`, collection, key)
	return wrap(err)
}

var _ storage.Adapter = (*Store)(nil)
