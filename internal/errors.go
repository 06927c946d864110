package internal

import "fmt"

// RetrievalError represents a failed query against the observability service
type RetrievalError struct {
	URL    string
	Status int // zero when the request never completed
	Err    error
}

func (e *RetrievalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("retrieval error: %s returned status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("retrieval error: %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// EmptySessionError means a session query matched zero records. Recoverable:
// the caller decides whether to abort.
type EmptySessionError struct {
	SessionID string
}

func (e *EmptySessionError) Error() string {
	return fmt.Sprintf("session %s has no logged turns", e.SessionID)
}

// ReplayError represents a single turn failing to re-issue. Turns already
// replayed are not unwound; the partial session stays visible upstream.
type ReplayError struct {
	TurnIndex int    // zero-based position in the replay sequence
	PromptID  string // prompt identifier of the failed turn, may be empty
	SessionID string // replay session identifier, for locating the partial run
	Err       error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay error: turn %d (prompt %q) in session %s: %v", e.TurnIndex, e.PromptID, e.SessionID, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}

// ArchiveError represents errors accessing the local session archive
type ArchiveError struct {
	Op  string // "open", "save", "load", "list", "delete"
	Err error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive error: %s: %v", e.Op, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
