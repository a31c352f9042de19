// Package llm extracts key phrases and sentiment with an OpenAI-compatible chat model.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"live-transcript-service/internal/config"
)

// ErrEmptyResponse is returned when the model returns no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

const (
	keyPhrasesPrompt = `You extract key phrases from call transcripts.
Return JSON only: {"keyPhrases": ["..."]}.
List at most 10 phrases copied verbatim from the transcript, most important first.`

	sentimentPrompt = `You rate the sentiment of a customer's utterance on a phone call.
Return JSON only: {"score": <number>}.
The score is between 0 (very negative) and 1 (very positive); 0.5 is neutral.`
)

// openAIClientInterface is the subset of the OpenAI client used here, mockable in tests.
type openAIClientInterface interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	model        string
	openaiClient openAIClientInterface
}

func NewClient(cfg config.Analysis) *Client {
	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = cfg.BaseURL
	}
	return &Client{
		model:        cfg.Model,
		openaiClient: openai.NewClientWithConfig(openaiConfig),
	}
}

type keyPhrasesResult struct {
	KeyPhrases []string `json:"keyPhrases"`
}

type sentimentResult struct {
	Score float64 `json:"score"`
}

// KeyPhrases asks the model for the transcript's key phrases.
func (c *Client) KeyPhrases(ctx context.Context, text string) ([]string, error) {
	content, err := c.complete(ctx, keyPhrasesPrompt, text)
	if err != nil {
		return nil, err
	}
	var out keyPhrasesResult
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("parse key phrases: %w", err)
	}

	phrases := out.KeyPhrases[:0]
	for _, p := range out.KeyPhrases {
		if p = strings.TrimSpace(p); p != "" {
			phrases = append(phrases, p)
		}
	}
	return phrases, nil
}

// Sentiment asks the model for a score in [0, 1]. Out-of-range values are clamped.
func (c *Client) Sentiment(ctx context.Context, text string) (float64, error) {
	content, err := c.complete(ctx, sentimentPrompt, text)
	if err != nil {
		return 0, err
	}
	var out sentimentResult
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return 0, fmt.Errorf("parse sentiment: %w", err)
	}
	return min(max(out.Score, 0), 1), nil
}

func (c *Client) complete(ctx context.Context, systemPrompt, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
		MaxTokens:   300,
	}

	resp, err := c.openaiClient.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content), nil
}
