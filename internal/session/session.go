// Package session owns the per-session state: the document store and
// the append-only chat history. Everything here is in-memory; the only
// way state leaves the process is through the explicit export surface.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docquest/internal/document"
)

// Turn is one completed question/answer exchange. Immutable once
// appended.
type Turn struct {
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	AskedAt      time.Time `json:"asked_at"`
}

// Session aggregates one logical session's state. It is created at
// startup, reset on explicit user action, and passed explicitly — never
// shared across sessions.
type Session struct {
	id    string
	store *document.Store

	mu      sync.Mutex
	history []Turn
}

func New() *Session {
	return &Session{
		id:    uuid.NewString(),
		store: document.NewStore(),
	}
}

func (s *Session) ID() string             { return s.id }
func (s *Session) Store() *document.Store { return s.store }

// Append records a completed turn. Only successful answers reach here;
// a failed question leaves the history untouched.
func (s *Session) Append(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, t)
}

// History returns a copy of the turns in append order.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// TurnCount returns the number of completed turns.
func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Reset empties the document store and chat history.
func (s *Session) Reset() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
	s.store.Clear()
}

// TurnReport is the exportable form of a single turn.
type TurnReport struct {
	Turn         int    `json:"turn"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Report returns the export report for the i-th turn (0-based).
func (s *Session) Report(i int) (TurnReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.history) {
		return TurnReport{}, fmt.Errorf("turn %d out of range (have %d)", i, len(s.history))
	}
	t := s.history[i]
	return TurnReport{
		Turn:         i + 1,
		Question:     t.Question,
		Answer:       t.Answer,
		InputTokens:  t.InputTokens,
		OutputTokens: t.OutputTokens,
	}, nil
}

// DocumentExport is the full document store as a nested structure,
// serializable to JSON for the export boundary.
type DocumentExport struct {
	SessionID string             `json:"session_id"`
	Documents []*document.Record `json:"documents"`
}

// ExportDocuments returns the store's content in upload order.
func (s *Session) ExportDocuments() DocumentExport {
	return DocumentExport{
		SessionID: s.id,
		Documents: s.store.All(),
	}
}
