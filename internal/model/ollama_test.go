package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaClient_FormatJSONUsedWhenSupported(t *testing.T) {
	var gotFormats []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotFormats = append(gotFormats, req.Format)
		json.NewEncoder(w).Encode(ollamaResponse{Response: `{"ok": true}`})
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "test", FormatJSON: true}, nil)
	text, err := c.Generate(context.Background(), Request{Prompt: "p", WantJSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"ok": true}` {
		t.Errorf("unexpected response text: %q", text)
	}
	if len(gotFormats) != 1 || gotFormats[0] != "json" {
		t.Errorf("expected one format=json request, got %v", gotFormats)
	}
}

func TestOllamaClient_FormatJSONDisabledAfterFailure(t *testing.T) {
	var gotFormats []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotFormats = append(gotFormats, req.Format)
		if req.Format == "json" {
			http.Error(w, `{"error":"format not supported"}`, http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "plain text"})
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "test", FormatJSON: true}, nil)

	// First call: format attempt fails, plain retry succeeds.
	text, err := c.Generate(context.Background(), Request{Prompt: "p", WantJSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "plain text" {
		t.Errorf("unexpected response text: %q", text)
	}

	// Second call: the constraint stays disabled for this client.
	if _, err := c.Generate(context.Background(), Request{Prompt: "p", WantJSON: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"json", "", ""}
	if len(gotFormats) != len(want) {
		t.Fatalf("expected %d requests, got %d (%v)", len(want), len(gotFormats), gotFormats)
	}
	for i := range want {
		if gotFormats[i] != want[i] {
			t.Errorf("request %d: expected format %q, got %q", i, want[i], gotFormats[i])
		}
	}
}

func TestOllamaClient_FormatJSONNeverTriedWhenDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Format != "" {
			t.Errorf("unexpected format %q", req.Format)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "ok"})
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "test", FormatJSON: false}, nil)
	if _, err := c.Generate(context.Background(), Request{Prompt: "p", WantJSON: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOllamaClient_EmptyResponseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Response: "   "})
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Model: "test"}, nil)
	if _, err := c.Generate(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Error("expected empty response to error")
	}
}
