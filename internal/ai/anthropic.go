package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cuongbtq/botmr-be/internal/domain"
)

const anthropicVersion = "2023-06-01"

// AnthropicSummarizer calls the Anthropic messages API.
type AnthropicSummarizer struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

func NewAnthropicSummarizer(apiKey, baseURL, model string, maxTokens int, client *http.Client) *AnthropicSummarizer {
	if client == nil {
		client = http.DefaultClient
	}
	return &AnthropicSummarizer{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		maxTokens: maxTokens,
		client:    client,
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (s *AnthropicSummarizer) Summarize(ctx context.Context, transcript string) (Summary, error) {
	reqBody, err := json.Marshal(anthropicRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: SummaryPrompt(transcript)},
		},
	})
	if err != nil {
		return Summary{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(reqBody))
	if err != nil {
		return Summary{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	respBody, err := do(s.client, req)
	if err != nil {
		return Summary{}, domain.NewExternalServiceError("anthropic", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return Summary{}, domain.NewExternalServiceError("anthropic", fmt.Errorf("parsing response: %w", err))
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Summary{}, domain.NewExternalServiceError("anthropic", errors.New("empty response"))
	}

	return ParseSummary(text.String()), nil
}
