package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"

	"marketpulse-go/internal/market"
)

func testSnapshot() market.Snapshot {
	return market.Snapshot{
		Ticker:    "AAPL",
		LastDate:  "2024-06-28",
		LastPrice: 210.25,
		Ret1M:     null.FloatFrom(0.042),
		High52W:   null.FloatFrom(220.20),
		Low52W:    null.FloatFrom(164.08),
	}
}

func TestNormalizePersona(t *testing.T) {
	cases := map[string]string{
		"Skeptic":    "skeptic",
		"RISK_TAKER": "risk_taker",
		"optimist":   "optimist",
		"":           DefaultPersona,
		"pirate":     DefaultPersona,
	}
	for in, want := range cases {
		if got := NormalizePersona(in); got != want {
			t.Fatalf("NormalizePersona(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildPromptContainsSnapshot(t *testing.T) {
	prompt, err := BuildPrompt(testSnapshot(), "skeptic", 300)
	if err != nil {
		t.Fatalf("BuildPrompt returned error: %v", err)
	}
	if !strings.Contains(prompt, `"ticker": "AAPL"`) {
		t.Fatalf("prompt missing snapshot JSON")
	}
	if !strings.Contains(prompt, "# AAPL — Plain-English Overview") {
		t.Fatalf("prompt missing report heading")
	}
	if !strings.Contains(prompt, StyleFor("skeptic")) {
		t.Fatalf("prompt missing persona instructions")
	}
	if !strings.Contains(prompt, "roughly 300 days") {
		t.Fatalf("prompt missing horizon")
	}
}

func TestGenerate(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 {
			t.Fatalf("unexpected request: %+v", req)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": "# AAPL report\nbody"}},
			},
		})
	}))
	defer srv.Close()

	g := NewGenerator(zerolog.Nop(), Options{BaseURL: srv.URL, APIKey: "secret", Model: "test-model", MaxTokens: 512})
	result, err := g.Generate(context.Background(), testSnapshot(), "Skeptic", 300)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if result.Persona != "skeptic" {
		t.Fatalf("persona not normalized: %s", result.Persona)
	}
	if !strings.HasPrefix(result.ReportMarkdown, "# AAPL report") {
		t.Fatalf("unexpected report body: %q", result.ReportMarkdown)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("missing auth header, got %q", gotAuth)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	g := NewGenerator(zerolog.Nop(), Options{BaseURL: srv.URL, Model: "test-model"})
	if _, err := g.Generate(context.Background(), testSnapshot(), "balanced", 300); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGenerator(zerolog.Nop(), Options{BaseURL: srv.URL, Model: "test-model"})
	if _, err := g.Generate(context.Background(), testSnapshot(), "balanced", 300); err == nil {
		t.Fatalf("expected error for upstream failure")
	}
}
