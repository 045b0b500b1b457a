// Package report turns a stock snapshot into a persona-styled markdown
// report through an OpenAI-compatible chat-completions endpoint. It holds
// no algorithmic content; the snapshot is the sole numerical input.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"marketpulse-go/internal/market"
)

// Generator calls the configured text-generation service.
type Generator struct {
	client    *resty.Client
	log       zerolog.Logger
	model     string
	maxTokens int
}

// Options configures the outbound chat-completions call.
type Options struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Result is the generated report together with its request echo.
type Result struct {
	Ticker         string `json:"ticker"`
	Persona        string `json:"persona"`
	ReportMarkdown string `json:"report_markdown"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		FinishReason string      `json:"finish_reason"`
		Message      chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// NewGenerator builds a Generator around a resty client.
func NewGenerator(log zerolog.Logger, opts Options) *Generator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/"))
	client.SetTimeout(timeout)
	if opts.APIKey != "" {
		client.SetAuthToken(opts.APIKey)
	}
	return &Generator{
		client:    client,
		log:       log,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}
}

// Generate renders the prompt for one snapshot and returns the markdown
// report. The persona is normalized before use; unknown personas fall back
// to the balanced style.
func (g *Generator) Generate(ctx context.Context, snapshot market.Snapshot, persona string, horizonDays int) (Result, error) {
	persona = NormalizePersona(persona)
	prompt, err := BuildPrompt(snapshot, persona, horizonDays)
	if err != nil {
		return Result{}, err
	}

	body := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: g.maxTokens,
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return Result{}, fmt.Errorf("call report model: %w", err)
	}
	if resp.StatusCode() != 200 {
		return Result{}, fmt.Errorf("report model returned %d: %s", resp.StatusCode(), resp.String())
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return Result{}, fmt.Errorf("parse report response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("empty report returned from model")
	}

	g.log.Debug().
		Str("ticker", snapshot.Ticker).
		Str("finish_reason", parsed.Choices[0].FinishReason).
		Int("total_tokens", parsed.Usage.TotalTokens).
		Msg("report generated")

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return Result{}, fmt.Errorf("empty report text returned from model")
	}

	return Result{
		Ticker:         snapshot.Ticker,
		Persona:        persona,
		ReportMarkdown: text,
	}, nil
}
