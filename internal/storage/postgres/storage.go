package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/database"
)

// DB is the subset of *pgxpool.Pool used by Storage.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Storage implements storage.Backend using the local_storage table.
type Storage struct {
	db DB
}

// NewStorage creates a new PostgreSQL-backed storage backend.
func NewStorage(db DB) *Storage {
	return &Storage{db: db}
}

// Get reads a value for the namespace and key.
func (s *Storage) Get(ctx context.Context, namespace, key string) (_ string, _ bool, err error) {
	query := `SELECT value FROM local_storage WHERE namespace = $1 AND key = $2`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "GetValue", query)
	defer func() { end(err) }()

	var value string
	if err := s.db.QueryRow(ctx, query, namespace, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get local storage value: %w", err)
	}

	return value, true, nil
}

// Set upserts a value for the namespace and key.
func (s *Storage) Set(ctx context.Context, namespace, key, value string) (err error) {
	query := `
		INSERT INTO local_storage (namespace, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "SetValue", query)
	defer func() { end(err) }()

	if _, err := s.db.Exec(ctx, query, namespace, key, value); err != nil {
		return fmt.Errorf("set local storage value: %w", err)
	}

	return nil
}

// Delete removes the value for the namespace and key. Missing rows are ignored.
func (s *Storage) Delete(ctx context.Context, namespace, key string) (err error) {
	query := `DELETE FROM local_storage WHERE namespace = $1 AND key = $2`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "DeleteValue", query)
	defer func() { end(err) }()

	if _, err := s.db.Exec(ctx, query, namespace, key); err != nil {
		return fmt.Errorf("delete local storage value: %w", err)
	}

	return nil
}

// Ping checks database connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
