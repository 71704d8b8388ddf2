package tei

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestClientEncode(t *testing.T) {
	var got embedRequest
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != embedPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		_ = json.NewEncoder(gz).Encode([][]float32{{0.5, -0.5, 1}})
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/", "", "secret", zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vec, err := c.Encode(context.Background(), "python django")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(vec) != 3 || vec[1] != -0.5 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if len(got.Inputs) != 1 || got.Inputs[0] != "python django" || !got.Truncate {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
	if c.Model() != defaultModel || c.Provider() != Provider {
		t.Fatalf("unexpected description: %s/%s", c.Provider(), c.Model())
	}
}

func TestClientEncodeBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "minilm", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.Encode(context.Background(), "go"); err == nil {
		t.Fatal("expected error on bad status")
	}
}

func TestClientEncodeEmptyVectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "", "", nil)
	if _, err := c.Encode(context.Background(), "go"); err == nil {
		t.Fatal("expected error for empty vectors")
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New("  ", "", "", nil); err == nil {
		t.Fatal("expected error for missing url")
	}
}
