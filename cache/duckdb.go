// Package cache persists finished analyses in an embedded DuckDB file, so
// repeated requests for the same position skip the search entirely.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog/log"

	"azul/engine"
	"azul/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	hash     BIGINT NOT NULL,
	kind     VARCHAR NOT NULL,
	response VARCHAR NOT NULL,
	created  TIMESTAMP NOT NULL,
	PRIMARY KEY (hash, kind)
)`

// Store is a DuckDB-backed engine.Cache. A single file holds every analyzed
// position; concurrent lookups go through database/sql's pooled connections.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache file. Pass ":memory:" for an ephemeral
// cache in tests.
func Open(path string) (*Store, error) {
	dsn := path
	if path == ":memory:" {
		dsn = ""
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	log.Info().Str("path", path).Msg("analysis cache open")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the stored analysis for (key, kind), if any.
func (s *Store) Lookup(ctx context.Context, key game.StateHash, kind string) (engine.Response, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT response FROM analyses WHERE hash = ? AND kind = ?`,
		int64(key), kind).Scan(&raw)
	if err == sql.ErrNoRows {
		return engine.Response{}, false, nil
	}
	if err != nil {
		return engine.Response{}, false, fmt.Errorf("cache lookup: %w", err)
	}
	var resp engine.Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return engine.Response{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return resp, true, nil
}

// Store upserts an analysis, keeping the newest result per (key, kind).
func (s *Store) Store(ctx context.Context, key game.StateHash, kind string, resp engine.Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO analyses (hash, kind, response, created) VALUES (?, ?, ?, ?)`,
		int64(key), kind, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Count reports how many analyses the cache holds.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

// Purge drops entries older than the retention window.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analyses WHERE created < ?`, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
