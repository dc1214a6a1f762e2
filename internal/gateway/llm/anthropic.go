// Package llm implements gateway.TextCompleter for the Anthropic Messages API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/relay-service/internal/gateway"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

const (
	gatewayName      = "classifier"
	anthropicVersion = "2023-06-01"
)

// Anthropic sends single-turn, non-streaming requests.
type Anthropic struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	http      *http.Client
}

// NewAnthropic builds a completer. httpClient may be nil.
func NewAnthropic(apiKey, baseURL, model string, maxTokens int, httpClient *http.Client) *Anthropic {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Anthropic{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		maxTokens: maxTokens,
		http:      httpClient,
	}
}

var _ gateway.TextCompleter = (*Anthropic)(nil)

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete returns the concatenated text blocks of the model's reply.
func (a *Anthropic) Complete(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(messageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", apperrors.NewGatewayError(gatewayName, "complete", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewGatewayError(gatewayName, "complete", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	res, err := a.http.Do(req)
	if err != nil {
		return "", apperrors.NewGatewayError(gatewayName, "complete", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", apperrors.NewGatewayError(gatewayName, "complete", err)
	}

	var resp messageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", apperrors.NewGatewayError(gatewayName, "complete", fmt.Errorf("status %d: decode: %w", res.StatusCode, err))
	}
	if res.StatusCode >= 300 {
		msg := fmt.Sprintf("status %d", res.StatusCode)
		if resp.Error != nil {
			msg += ": " + resp.Error.Message
		}
		return "", apperrors.NewGatewayError(gatewayName, "complete", fmt.Errorf("%s", msg))
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}
