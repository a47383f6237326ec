package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgallion1/docquest/internal/config"
	"github.com/dgallion1/docquest/internal/ingest"
	"github.com/dgallion1/docquest/internal/llm"
	"github.com/dgallion1/docquest/internal/qa"
	"github.com/dgallion1/docquest/internal/session"
	"github.com/dgallion1/docquest/internal/tokens"
)

// newTestServer wires a full server against a fake Azure endpoint.
func newTestServer(t *testing.T, modelHandler http.HandlerFunc) (*Server, *session.Session, *tokens.Counter) {
	t.Helper()

	modelSrv := httptest.NewServer(modelHandler)
	t.Cleanup(modelSrv.Close)

	model := llm.NewAzureClient(llm.Config{
		Endpoint:   modelSrv.URL,
		APIKey:     "test",
		APIVersion: "2024-02-01",
		Model:      "gpt-4o",
	})
	t.Cleanup(model.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	counter := tokens.NewCounter(tokens.SchemeOpenAI)
	sess := session.New()
	coord := ingest.NewCoordinator(log, 2)
	orch := qa.NewOrchestrator(model, counter, 100000, log)
	cfg := config.Config{MaxUploadBytes: 1 << 20}

	return NewServer(sess, coord, orch, model, log, cfg), sess, counter
}

func answerWith(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": text}},
			},
		})
	}
}

func uploadRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doJSON(t *testing.T, srv *Server, req *http.Request) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response (%d): %v: %s", rr.Code, err, rr.Body.String())
	}
	return rr.Code, body
}

func TestUploadAndAsk(t *testing.T) {
	srv, sess, counter := newTestServer(t, answerWith("The revenue was $10."))

	code, body := doJSON(t, srv, uploadRequest(t, map[string]string{
		"doc-a.txt": "Revenue was $10.",
	}))
	if code != http.StatusOK {
		t.Fatalf("upload status %d: %v", code, body)
	}
	if sess.Store().Len() != 1 {
		t.Fatalf("store has %d records", sess.Store().Len())
	}

	question := "What was the revenue?"
	askBody, _ := json.Marshal(map[string]string{"question": question})
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(askBody))
	code, body = doJSON(t, srv, req)
	if code != http.StatusOK {
		t.Fatalf("ask status %d: %v", code, body)
	}

	answer, _ := body["answer"].(string)
	if !strings.Contains(answer, "$10") {
		t.Errorf("answer = %q", answer)
	}
	if out := body["output_tokens"].(float64); out <= 0 {
		t.Errorf("output_tokens = %v", out)
	}
	wantInput := float64(counter.Count(qa.BuildContext(sess.Store())) + counter.Count(question))
	if in := body["input_tokens"].(float64); in != wantInput {
		t.Errorf("input_tokens = %v, want %v", in, wantInput)
	}
	if sess.TurnCount() != 1 {
		t.Errorf("history length = %d, want 1", sess.TurnCount())
	}
}

func TestUpload_PartialFailure(t *testing.T) {
	srv, sess, _ := newTestServer(t, answerWith("unused"))

	code, body := doJSON(t, srv, uploadRequest(t, map[string]string{
		"sales.csv":  "Region,Revenue\nNorth,100\n",
		"broken.pdf": "this is not a pdf",
	}))
	if code != http.StatusOK {
		t.Fatalf("upload status %d", code)
	}

	if sess.Store().Len() != 1 {
		t.Errorf("store has %d records, want 1", sess.Store().Len())
	}
	if sess.Store().Get("sales.csv") == nil {
		t.Error("valid spreadsheet missing from store")
	}

	statuses := map[string]string{}
	for _, r := range body["results"].([]any) {
		m := r.(map[string]any)
		statuses[m["filename"].(string)] = m["status"].(string)
	}
	if statuses["sales.csv"] != "ok" {
		t.Errorf("sales.csv status = %q", statuses["sales.csv"])
	}
	if statuses["broken.pdf"] != "error" {
		t.Errorf("broken.pdf status = %q", statuses["broken.pdf"])
	}
}

func TestUpload_DuplicateRejected(t *testing.T) {
	srv, sess, _ := newTestServer(t, answerWith("unused"))

	doJSON(t, srv, uploadRequest(t, map[string]string{"a.txt": "original content"}))
	_, body := doJSON(t, srv, uploadRequest(t, map[string]string{"a.txt": "different content"}))

	results := body["results"].([]any)
	if status := results[0].(map[string]any)["status"]; status != "duplicate" {
		t.Errorf("status = %v, want duplicate", status)
	}
	if sess.Store().Len() != 1 {
		t.Errorf("store has %d records", sess.Store().Len())
	}
	if got := sess.Store().Get("a.txt").Units[0].Text; got != "original content" {
		t.Errorf("stored content replaced: %q", got)
	}
}

func TestAsk_FailedTurnLeavesHistoryUnchanged(t *testing.T) {
	srv, sess, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	})

	doJSON(t, srv, uploadRequest(t, map[string]string{"a.txt": "some content"}))

	askBody, _ := json.Marshal(map[string]string{"question": "anything?"})
	code, body := doJSON(t, srv, httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(askBody)))
	if code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", code)
	}
	if body["kind"] != string(qa.KindModelTransportFailure) {
		t.Errorf("kind = %v", body["kind"])
	}
	if sess.TurnCount() != 0 {
		t.Errorf("history length = %d after failed turn", sess.TurnCount())
	}
}

func TestAsk_WithoutDocuments(t *testing.T) {
	srv, _, _ := newTestServer(t, answerWith("unused"))
	askBody, _ := json.Marshal(map[string]string{"question": "anything?"})
	code, _ := doJSON(t, srv, httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(askBody)))
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestExportEndpoints(t *testing.T) {
	srv, sess, _ := newTestServer(t, answerWith("Exported answer."))

	doJSON(t, srv, uploadRequest(t, map[string]string{"a.txt": "alpha content"}))
	askBody, _ := json.Marshal(map[string]string{"question": "q1?"})
	doJSON(t, srv, httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(askBody)))

	code, body := doJSON(t, srv, httptest.NewRequest(http.MethodGet, "/api/export/documents", nil))
	if code != http.StatusOK {
		t.Fatalf("export documents status %d", code)
	}
	if body["session_id"] != sess.ID() {
		t.Errorf("session_id = %v", body["session_id"])
	}
	docs := body["documents"].([]any)
	if len(docs) != 1 || docs[0].(map[string]any)["name"] != "a.txt" {
		t.Errorf("documents = %v", docs)
	}

	code, body = doJSON(t, srv, httptest.NewRequest(http.MethodGet, "/api/export/turns/1", nil))
	if code != http.StatusOK {
		t.Fatalf("export turn status %d: %v", code, body)
	}
	if body["question"] != "q1?" || body["answer"] != "Exported answer." {
		t.Errorf("turn report = %v", body)
	}

	code, _ = doJSON(t, srv, httptest.NewRequest(http.MethodGet, "/api/export/turns/2", nil))
	if code != http.StatusNotFound {
		t.Errorf("missing turn status = %d", code)
	}
}

func TestDeleteThenReupload(t *testing.T) {
	srv, sess, _ := newTestServer(t, answerWith("unused"))

	doJSON(t, srv, uploadRequest(t, map[string]string{"a.txt": "v1"}))

	code, _ := doJSON(t, srv, httptest.NewRequest(http.MethodDelete, "/api/documents/a.txt", nil))
	if code != http.StatusOK {
		t.Fatalf("delete status %d", code)
	}

	_, body := doJSON(t, srv, uploadRequest(t, map[string]string{"a.txt": "v2 corrected"}))
	if status := body["results"].([]any)[0].(map[string]any)["status"]; status != "ok" {
		t.Errorf("re-upload after delete status = %v", status)
	}
	if got := sess.Store().Get("a.txt").Units[0].Text; got != "v2 corrected" {
		t.Errorf("content = %q", got)
	}
}

func TestSessionReset(t *testing.T) {
	srv, sess, _ := newTestServer(t, answerWith("fine."))

	doJSON(t, srv, uploadRequest(t, map[string]string{"a.txt": "content"}))
	askBody, _ := json.Marshal(map[string]string{"question": "q?"})
	doJSON(t, srv, httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(askBody)))

	code, _ := doJSON(t, srv, httptest.NewRequest(http.MethodPost, "/api/session/reset", nil))
	if code != http.StatusOK {
		t.Fatalf("reset status %d", code)
	}
	if sess.Store().Len() != 0 || sess.TurnCount() != 0 {
		t.Error("session not emptied by reset")
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, _, _ := newTestServer(t, answerWith("unused"))
	srv.cfg.DocquestAPIKey = "secret"
	srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("authenticated status = %d", rr.Code)
	}

	// Health stays public.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("health status = %d", rr.Code)
	}
}
