package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docquest/internal/qa"
	"github.com/dgallion1/docquest/internal/session"
)

// handleAsk answers one question over the current document set. The
// turn is appended to history only after the model call succeeds.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}
	if s.sess.Store().Len() == 0 {
		jsonError(w, "no documents ingested yet", http.StatusBadRequest)
		return
	}

	ans, err := s.orch.Ask(r.Context(), s.sess.Store(), question, s.sess.History())
	if err != nil {
		var aerr *qa.AnsweringError
		if errors.As(err, &aerr) {
			status := http.StatusBadGateway
			if aerr.Kind == qa.KindContextTooLarge {
				status = http.StatusRequestEntityTooLarge
			}
			writeJSON(w, status, map[string]string{
				"error": aerr.Error(),
				"kind":  string(aerr.Kind),
			})
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.sess.Append(session.Turn{
		Question:     question,
		Answer:       ans.Text,
		InputTokens:  ans.InputTokens,
		OutputTokens: ans.OutputTokens,
		AskedAt:      time.Now(),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"answer":        ans.Text,
		"input_tokens":  ans.InputTokens,
		"output_tokens": ans.OutputTokens,
		"turn":          s.sess.TurnCount(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": s.sess.ID(),
		"turns":      s.sess.History(),
	})
}

func (s *Server) handleExportDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.ExportDocuments())
}

// handleExportTurn exports one turn (1-based index) as a short report.
func (s *Server) handleExportTurn(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 1 {
		jsonError(w, "index must be a positive integer", http.StatusBadRequest)
		return
	}
	report, err := s.sess.Report(idx - 1)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
