package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(serverURL string) *AzureClient {
	return NewAzureClient(Config{
		Endpoint:   serverURL,
		APIKey:     "test-key",
		APIVersion: "2024-02-01",
		Model:      "gpt-4o",
		MaxTokens:  256,
	})
}

func TestChat_Success(t *testing.T) {
	var gotPath, gotKey string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"The revenue was $10."}}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	defer c.Close()

	got, err := c.Chat(context.Background(), []Message{
		{Role: "system", Content: "context"},
		{Role: "user", Content: "question"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "The revenue was $10." {
		t.Errorf("answer = %q", got)
	}
	if gotPath != "/openai/deployments/gpt-4o/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api-key header = %q", gotKey)
	}
	if len(gotReq.Messages) != 2 || gotReq.MaxTokens != 256 {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestChat_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"429","message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	defer c.Close()

	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "q"}})
	if err == nil {
		t.Fatal("expected error for 429")
	}
	if errors.Is(err, ErrMalformedResponse) {
		t.Error("transport status should not be a malformed-response error")
	}
}

func TestChat_EmptyChoicesIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	defer c.Close()

	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "q"}})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestChat_UndecodableBodyIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	defer c.Close()

	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "q"}})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestChat_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read and
		// notices the client disconnect; otherwise r.Context() is never
		// cancelled and srv.Close hangs on this connection.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Chat(ctx, []Message{{Role: "user", Content: "q"}})
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestChat_RecordsLatency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	defer c.Close()

	if _, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "q"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap := c.Stats.Snapshot(); snap.Count != 1 {
		t.Errorf("stats count = %d, want 1", snap.Count)
	}
}
