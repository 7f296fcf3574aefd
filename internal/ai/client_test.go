package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCompleteRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("missing auth header")
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Fatalf("unexpected messages: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "```json\n{\"ok\":true}\n```"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "test-model", 5*time.Second)
	content, err := client.Complete(context.Background(), "sys", "user", 100)
	if err != nil {
		t.Fatalf("complete error: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("expected fences stripped, got %q", content)
	}
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "test-model", 5*time.Second)
	if _, err := client.Complete(context.Background(), "sys", "user", 100); err == nil {
		t.Fatalf("expected error on non-200 status")
	}
}

func TestCompleteUnconfigured(t *testing.T) {
	client := NewClient("", "http://127.0.0.1:0", "m", time.Second)
	if client.Available() {
		t.Fatalf("client without key must not report available")
	}
	if _, err := client.Complete(context.Background(), "s", "u", 10); err == nil {
		t.Fatalf("expected error for unconfigured client")
	}
}
