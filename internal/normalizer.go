package internal

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Normalizer shapes raw query records into an ordered session.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeSession maps records to turns and orders them ascending by
// creation time. The sort is stable: equal timestamps keep their retrieval
// order, which is the only tie-break this pipeline defines. Records whose
// body cannot be parsed are skipped with a warning rather than failing the
// whole session.
func (n *Normalizer) NormalizeSession(sessionID string, records []RawRecord) (*Session, error) {
	if len(records) == 0 {
		return nil, &EmptySessionError{SessionID: sessionID}
	}

	sess := &Session{
		ID:        sessionID,
		FetchedAt: time.Now().UTC(),
		Turns:     make([]Turn, 0, len(records)),
	}

	for _, rec := range records {
		turn, err := n.normalizeRecord(rec)
		if err != nil {
			LogWarn("Skipping record %s: %v", rec.RequestID, err)
			continue
		}
		// Name and path are session-level on the service side; take the
		// first non-empty value seen.
		if sess.Name == "" {
			sess.Name = rec.SessionName()
		}
		if sess.Path == "" {
			sess.Path = rec.SessionPath()
		}
		sess.Turns = append(sess.Turns, turn)
	}

	if len(sess.Turns) == 0 {
		return nil, &EmptySessionError{SessionID: sessionID}
	}

	sort.SliceStable(sess.Turns, func(i, j int) bool {
		return sess.Turns[i].CreatedAt.Before(sess.Turns[j].CreatedAt)
	})

	return sess, nil
}

func (n *Normalizer) normalizeRecord(rec RawRecord) (Turn, error) {
	if len(rec.RequestBody) == 0 {
		return Turn{}, fmt.Errorf("record has no request body")
	}

	var body ChatBody
	if err := json.Unmarshal(rec.RequestBody, &body); err != nil {
		return Turn{}, fmt.Errorf("parsing request body: %w", err)
	}
	if len(body.Messages) == 0 {
		return Turn{}, fmt.Errorf("request body has no messages")
	}

	return Turn{
		RequestID: rec.RequestID,
		SessionID: rec.SessionID(),
		CreatedAt: rec.RequestCreatedAt,
		Endpoint:  rec.RequestPath,
		Path:      rec.SessionPath(),
		PromptID:  rec.PromptID(),
		BodyURL:   rec.SignedBodyURL,
		Body:      body,
	}, nil
}
