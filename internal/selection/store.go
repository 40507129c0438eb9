// Package selection persists each session's ordered set of chosen NFTs.
package selection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/youruser/nftview/internal/nft"
	"github.com/youruser/nftview/internal/util"
)

const schema = `
CREATE TABLE IF NOT EXISTS selections (
	session  TEXT    NOT NULL,
	token_id TEXT    NOT NULL,
	position INTEGER NOT NULL,
	payload  TEXT    NOT NULL,
	PRIMARY KEY (session, token_id)
);
CREATE INDEX IF NOT EXISTS idx_selections_order ON selections(session, position);
`

// ErrEmptyID is returned when a token without an id is added.
var ErrEmptyID = errors.New("selection: token id is required")

// Store keeps selections in SQLite. Every mutation is committed before it returns.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := util.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("selection: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("selection: open %s: %w", path, err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("selection: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("selection: schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Add appends tok to the session. Adding an id already present is a no-op
// and reports false.
func (s *Store) Add(ctx context.Context, session string, tok nft.Token) (bool, error) {
	if tok.ID == "" {
		return false, ErrEmptyID
	}
	payload, err := json.Marshal(tok)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO selections (session, token_id, position, payload)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM selections WHERE session = ?), ?)
		ON CONFLICT (session, token_id) DO NOTHING`,
		session, tok.ID, session, string(payload))
	if err != nil {
		return false, fmt.Errorf("selection: add: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Remove drops one token. Removing an absent id is not an error.
func (s *Store) Remove(ctx context.Context, session, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM selections WHERE session = ? AND token_id = ?`, session, id)
	if err != nil {
		return false, fmt.Errorf("selection: remove: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Clear empties the session.
func (s *Store) Clear(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM selections WHERE session = ?`, session); err != nil {
		return fmt.Errorf("selection: clear: %w", err)
	}
	return nil
}

// List returns the session's tokens in the order they were added.
func (s *Store) List(ctx context.Context, session string) ([]nft.Token, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM selections WHERE session = ? ORDER BY position`, session)
	if err != nil {
		return nil, fmt.Errorf("selection: list: %w", err)
	}
	defer rows.Close()

	out := []nft.Token{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var tok nft.Token
		if err := json.Unmarshal([]byte(payload), &tok); err != nil {
			return nil, fmt.Errorf("selection: decode %q: %w", payload, err)
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

func (s *Store) Contains(ctx context.Context, session, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM selections WHERE session = ? AND token_id = ?`, session, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("selection: contains: %w", err)
	}
	return true, nil
}

func (s *Store) Count(ctx context.Context, session string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM selections WHERE session = ?`, session).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("selection: count: %w", err)
	}
	return n, nil
}
