package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docquest/internal/config"
	"github.com/dgallion1/docquest/internal/ingest"
	"github.com/dgallion1/docquest/internal/llm"
	"github.com/dgallion1/docquest/internal/qa"
	"github.com/dgallion1/docquest/internal/session"
)

// Server is the HTTP API server for docquest.
type Server struct {
	router chi.Router
	sess   *session.Session
	coord  *ingest.Coordinator
	orch   *qa.Orchestrator
	model  *llm.AzureClient
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sess *session.Session, coord *ingest.Coordinator, orch *qa.Orchestrator, model *llm.AzureClient, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sess:  sess,
		coord: coord,
		orch:  orch,
		model: model,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.DocquestAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.DocquestAPIKey, s.log))
		}

		r.Post("/api/documents", s.handleUpload)
		r.Get("/api/documents", s.handleListDocuments)
		r.Delete("/api/documents/{name}", s.handleDeleteDocument)

		r.Post("/api/ask", s.handleAsk)
		r.Get("/api/history", s.handleHistory)

		r.Get("/api/export/documents", s.handleExportDocuments)
		r.Get("/api/export/turns/{index}", s.handleExportTurn)

		r.Get("/api/stats/llm", s.handleLLMStats)
		r.Post("/api/session/reset", s.handleReset)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.model.Model(),
		"stats": s.model.Stats.Snapshot(),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.sess.Reset()
	s.log.Info("session reset", "session_id", s.sess.ID())
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
