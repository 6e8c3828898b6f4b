package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/tourneyhub/tourney-client/application/port/outbound"
)

const schema = `
	CREATE TABLE IF NOT EXISTS session_tokens (
		namespace  TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      TEXT        NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (namespace, key)
	)
`

type tokenStore struct {
	db        *sql.DB
	namespace string
	ownsDB    bool
}

// Open connects to databaseURL, verifies the connection and creates the
// session_tokens table when missing.
func Open(ctx context.Context, databaseURL, namespace string) (outbound.TokenStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", outbound.ErrStoreUnavailable, err)
	}

	store := &tokenStore{db: db, namespace: namespace, ownsDB: true}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewTokenStore wraps a caller-owned *sql.DB. Close leaves db open.
func NewTokenStore(db *sql.DB, namespace string) outbound.TokenStore {
	return &tokenStore{db: db, namespace: namespace}
}

func (s *tokenStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create session_tokens table: %w", err)
	}
	return nil
}

func (s *tokenStore) Get(ctx context.Context, key string) (string, error) {
	query := `
		SELECT value
		FROM session_tokens
		WHERE namespace = $1 AND key = $2
	`

	var value string
	err := s.db.QueryRowContext(ctx, query, s.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", outbound.ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (s *tokenStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO session_tokens (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, s.namespace, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *tokenStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query := `
		DELETE FROM session_tokens
		WHERE namespace = $1 AND key = ANY($2)
	`

	if _, err := s.db.ExecContext(ctx, query, s.namespace, pq.Array(keys)); err != nil {
		return fmt.Errorf("failed to delete session keys: %w", err)
	}
	return nil
}

func (s *tokenStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
