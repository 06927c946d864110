package internal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrSessionNotArchived is returned when a session id is not in the archive.
var ErrSessionNotArchived = errors.New("session not archived")

const archiveSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL DEFAULT '',
	fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	request_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	endpoint   TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL DEFAULT '',
	prompt_id  TEXT NOT NULL DEFAULT '',
	body_url   TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);`

// SessionSummary is one row of the archive listing.
type SessionSummary struct {
	ID        string
	Name      string
	Path      string
	FetchedAt time.Time
	TurnCount int
}

// Archive persists fetched sessions locally so they can be listed, shown,
// exported and replayed without re-querying the service. Saving a session
// replaces any previous copy wholesale; fetched content is never edited in
// place.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (creating if needed) the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &ArchiveError{Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &ArchiveError{Op: "open", Err: err}
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, &ArchiveError{Op: "open", Err: err}
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, &ArchiveError{Op: "open", Err: fmt.Errorf("creating schema: %w", err)}
	}

	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveSession archives a session, replacing any previously stored copy.
func (a *Archive) SaveSession(sess *Session) error {
	if sess == nil || sess.ID == "" {
		return &ArchiveError{Op: "save", Err: fmt.Errorf("session has no id")}
	}

	tx, err := a.db.Begin()
	if err != nil {
		return &ArchiveError{Op: "save", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM turns WHERE session_id = ?", sess.ID); err != nil {
		return &ArchiveError{Op: "save", Err: err}
	}

	fetchedAt := sess.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	_, err = tx.Exec(
		`INSERT INTO sessions (id, name, path, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, path = excluded.path, fetched_at = excluded.fetched_at`,
		sess.ID, sess.Name, sess.Path, fetchedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return &ArchiveError{Op: "save", Err: err}
	}

	for seq, turn := range sess.Turns {
		body, err := json.Marshal(turn.Body)
		if err != nil {
			return &ArchiveError{Op: "save", Err: fmt.Errorf("encoding turn %d: %w", seq, err)}
		}
		_, err = tx.Exec(
			`INSERT INTO turns (session_id, seq, request_id, created_at, endpoint, path, prompt_id, body_url, body)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, seq, turn.RequestID, turn.CreatedAt.Format(time.RFC3339Nano),
			turn.Endpoint, turn.Path, turn.PromptID, turn.BodyURL, string(body),
		)
		if err != nil {
			return &ArchiveError{Op: "save", Err: fmt.Errorf("inserting turn %d: %w", seq, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &ArchiveError{Op: "save", Err: err}
	}
	return nil
}

// LoadSession returns an archived session with its turns in stored order.
func (a *Archive) LoadSession(id string) (*Session, error) {
	sess := &Session{ID: id}

	var fetchedAt string
	err := a.db.QueryRow("SELECT name, path, fetched_at FROM sessions WHERE id = ?", id).
		Scan(&sess.Name, &sess.Path, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ArchiveError{Op: "load", Err: fmt.Errorf("%w: %s", ErrSessionNotArchived, id)}
	}
	if err != nil {
		return nil, &ArchiveError{Op: "load", Err: err}
	}
	if t, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
		sess.FetchedAt = t
	}

	rows, err := a.db.Query(
		`SELECT request_id, created_at, endpoint, path, prompt_id, body_url, body
		 FROM turns WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, &ArchiveError{Op: "load", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var turn Turn
		var createdAt, body string
		if err := rows.Scan(&turn.RequestID, &createdAt, &turn.Endpoint, &turn.Path, &turn.PromptID, &turn.BodyURL, &body); err != nil {
			return nil, &ArchiveError{Op: "load", Err: err}
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			turn.CreatedAt = t
		}
		if err := json.Unmarshal([]byte(body), &turn.Body); err != nil {
			return nil, &ArchiveError{Op: "load", Err: fmt.Errorf("decoding turn body: %w", err)}
		}
		turn.SessionID = id
		sess.Turns = append(sess.Turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, &ArchiveError{Op: "load", Err: err}
	}

	return sess, nil
}

// ListSessions returns summaries of all archived sessions, newest fetch
// first.
func (a *Archive) ListSessions() ([]SessionSummary, error) {
	rows, err := a.db.Query(
		`SELECT s.id, s.name, s.path, s.fetched_at, COUNT(t.session_id)
		 FROM sessions s LEFT JOIN turns t ON t.session_id = s.id
		 GROUP BY s.id ORDER BY s.fetched_at DESC`)
	if err != nil {
		return nil, &ArchiveError{Op: "list", Err: err}
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var fetchedAt string
		if err := rows.Scan(&s.ID, &s.Name, &s.Path, &fetchedAt, &s.TurnCount); err != nil {
			return nil, &ArchiveError{Op: "list", Err: err}
		}
		if t, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
			s.FetchedAt = t
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &ArchiveError{Op: "list", Err: err}
	}
	return summaries, nil
}

// DeleteSession removes a session and its turns from the archive.
func (a *Archive) DeleteSession(id string) error {
	res, err := a.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return &ArchiveError{Op: "delete", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &ArchiveError{Op: "delete", Err: fmt.Errorf("%w: %s", ErrSessionNotArchived, id)}
	}
	return nil
}
