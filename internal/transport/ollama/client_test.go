package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterProviderMetrics()
	os.Exit(m.Run())
}

func TestClient_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if req.Prompt != "hello" {
			t.Errorf("unexpected prompt: %s", req.Prompt)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2}})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Logger: zap.NewNop()})

	result, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(result.Embedding) != 2 {
		t.Fatalf("expected 2 dims, got %d", len(result.Embedding))
	}
	if c.Model() != "nomic-embed-text" {
		t.Errorf("unexpected model id: %s", c.Model())
	}
}

func TestClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if req.Options == nil || req.Options.NumPredict != 512 {
			t.Errorf("unexpected options: %+v", req.Options)
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "an answer", Done: true})
	}))
	defer server.Close()

	c := New(Config{
		BaseURL:     server.URL,
		ChatModel:   "llama3.2:3b",
		Temperature: 0.05,
		TopP:        0.85,
		MaxTokens:   512,
		Logger:      zap.NewNop(),
	})

	answer, err := c.Complete(context.Background(), "question")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "an answer" {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestClient_Unload(t *testing.T) {
	var unloaded []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.KeepAlive == nil || *req.KeepAlive != "0" {
			t.Errorf("expected keep_alive 0, got %v", req.KeepAlive)
		}
		unloaded = append(unloaded, req.Model)
		json.NewEncoder(w).Encode(generateResponse{Done: true})
	}))
	defer server.Close()

	c := New(Config{
		BaseURL:    server.URL,
		EmbedModel: "embed-m",
		ChatModel:  "chat-m",
		Logger:     zap.NewNop(),
	})

	if err := c.Unload(context.Background()); err != nil {
		t.Fatalf("Unload failed: %v", err)
	}
	if len(unloaded) != 2 {
		t.Fatalf("expected 2 unload requests, got %d", len(unloaded))
	}
}

func TestClient_Embed_DaemonDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Logger: zap.NewNop()})

	_, err := c.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Errorf("expected ErrProviderFailure, got: %v", err)
	}
}

func TestClient_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/version" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"version":"0.5.0"}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Logger: zap.NewNop()})

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}
