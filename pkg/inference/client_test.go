package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_GenerateSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" {
			t.Errorf("Expected /generate, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %q", auth)
		}

		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "base" {
			t.Errorf("Expected model base, got %q", req.Model)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"text": "hello there",
			"usage": map[string]any{
				"prompt_tokens":     10,
				"completion_tokens": 5,
				"neurons":           3,
			},
		})
	}))
	defer upstream.Close()

	client := NewClient(ClientConfig{BaseURL: upstream.URL, APIKey: "test-key"})

	result, err := client.Generate(context.Background(), &Request{
		Model: "base", Prompt: "hi", MaxTokens: 64,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Text != "hello there" {
		t.Errorf("Expected reply text, got %q", result.Text)
	}
	if result.UnitsUsed != 3 {
		t.Errorf("Expected 3 units from upstream usage, got %d", result.UnitsUsed)
	}
}

func TestClient_GenerateFallsBackToCostTable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No neurons reported; token counts only
		json.NewEncoder(w).Encode(map[string]any{
			"text": "ok",
			"usage": map[string]any{
				"prompt_tokens":     600,
				"completion_tokens": 400,
			},
		})
	}))
	defer upstream.Close()

	client := NewClient(ClientConfig{BaseURL: upstream.URL})

	result, err := client.Generate(context.Background(), &Request{Model: "large", Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// 1000 tokens on "large" at 8 per 1K
	if result.UnitsUsed != 8 {
		t.Errorf("Expected 8 estimated units, got %d", result.UnitsUsed)
	}
}

func TestClient_GenerateUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	client := NewClient(ClientConfig{BaseURL: upstream.URL})

	_, err := client.Generate(context.Background(), &Request{Model: "base", Prompt: "hi"})
	if err == nil {
		t.Fatal("Expected an error")
	}

	var infErr *Error
	if !errors.As(err, &infErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if infErr.Kind != KindUpstream {
		t.Errorf("Expected upstream kind, got %q", infErr.Kind)
	}
	if infErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", infErr.StatusCode)
	}
}

func TestClient_GenerateMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"empty text", `{"text": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer upstream.Close()

			client := NewClient(ClientConfig{BaseURL: upstream.URL})

			_, err := client.Generate(context.Background(), &Request{Model: "base", Prompt: "hi"})
			var infErr *Error
			if !errors.As(err, &infErr) {
				t.Fatalf("Expected *Error, got %v", err)
			}
			if infErr.Kind != KindMalformed {
				t.Errorf("Expected malformed kind, got %q", infErr.Kind)
			}
		})
	}
}

func TestClient_GenerateTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer upstream.Close()

	client := NewClient(ClientConfig{BaseURL: upstream.URL, Timeout: 50 * time.Millisecond})

	_, err := client.Generate(context.Background(), &Request{Model: "base", Prompt: "hi"})
	var infErr *Error
	if !errors.As(err, &infErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if infErr.Kind != KindTimeout {
		t.Errorf("Expected timeout kind, got %q", infErr.Kind)
	}
	if !infErr.Retryable() {
		t.Error("Expected timeout to be retryable")
	}
}

func TestClient_HealthCheck(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	client := NewClient(ClientConfig{BaseURL: upstream.URL})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("Expected health check to pass: %v", err)
	}
}

func TestError_Classification(t *testing.T) {
	tests := []struct {
		kind      Kind
		retryable bool
	}{
		{KindTimeout, true},
		{KindTransport, true},
		{KindUpstream, false},
		{KindMalformed, false},
	}

	for _, tt := range tests {
		err := &Error{Kind: tt.kind, Model: "base", Message: "x"}
		if err.Retryable() != tt.retryable {
			t.Errorf("Kind %q retryable = %v, want %v", tt.kind, err.Retryable(), tt.retryable)
		}
	}
}

func TestAsError_WrapsUnclassified(t *testing.T) {
	plain := errors.New("boom")
	infErr := AsError(plain, "base")
	if infErr.Kind != KindTransport {
		t.Errorf("Expected transport kind for unclassified error, got %q", infErr.Kind)
	}
	if !errors.Is(infErr, plain) {
		t.Error("Expected wrapped error to unwrap to the original")
	}

	classified := &Error{Kind: KindUpstream, Model: "base"}
	if got := AsError(classified, "base"); got.Kind != KindUpstream {
		t.Errorf("Expected classified error to pass through, got %q", got.Kind)
	}
}
