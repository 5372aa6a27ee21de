package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codesight/internal/llm"
)

func newChatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestLocalClientQuery(t *testing.T) {
	var gotReq chatRequest
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hello back"}},
			},
		})
	})

	c := NewLocalClient(srv.URL, "", "test-model")
	out, err := c.Query(context.Background(), "hello", "be brief")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello back" {
		t.Fatalf("out = %q", out)
	}
	if gotReq.Model != "test-model" {
		t.Fatalf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "hello" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
}

func TestLocalClientQueryNoSystemPrompt(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	})

	c := NewLocalClient(srv.URL, "", "m")
	if _, err := c.Query(context.Background(), "p", ""); err != nil {
		t.Fatal(err)
	}
}

func TestLocalClientEmptyChoices(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	c := NewLocalClient(srv.URL, "", "m")
	if _, err := c.Query(context.Background(), "p", ""); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("got %v, want ErrEmptyResponse", err)
	}
}

func TestLocalClientContextLengthIsPermanent(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"context_length_exceeded"}}`))
	})

	c := NewLocalClient(srv.URL, "", "m")
	_, err := c.Query(context.Background(), "p", "")
	var pErr *llm.PermanentError
	if !errors.As(err, &pErr) {
		t.Fatalf("got %v, want PermanentError", err)
	}
}

func TestLocalClientServerErrorIsTransient(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c := NewLocalClient(srv.URL, "", "m")
	_, err := c.Query(context.Background(), "p", "")
	if err == nil {
		t.Fatal("expected an error")
	}
	var pErr *llm.PermanentError
	if errors.As(err, &pErr) {
		t.Fatal("a 500 must stay retryable")
	}
}

func TestLocalClientRecordsRateLimitHeaders(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ratelimit-remaining-requests", "41")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	})

	c := NewLocalClient(srv.URL, "", "m")
	var handled RateLimitHeaders
	c.SetRateLimitHeaderHandler(func(h RateLimitHeaders) { handled = h })

	if _, err := c.Query(context.Background(), "p", ""); err != nil {
		t.Fatal(err)
	}
	last, ok := c.LastRateLimitHeaders()
	if !ok || last.RemainingRequests != 41 {
		t.Fatalf("last headers = %+v ok=%v", last, ok)
	}
	if handled.RemainingRequests != 41 {
		t.Fatalf("handler saw %+v", handled)
	}
}

func TestLocalClientHealthCheck(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[]}`))
	})

	c := NewLocalClient(srv.URL, "", "m")
	if !c.HealthCheck(context.Background()) {
		t.Fatal("expected healthy")
	}

	srv.Close()
	if c.HealthCheck(context.Background()) {
		t.Fatal("expected unhealthy after shutdown")
	}
}
