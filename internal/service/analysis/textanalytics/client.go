// Package textanalytics calls the Text Analytics v2 REST API for key phrases and sentiment.
package textanalytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"live-transcript-service/internal/config"
)

const (
	DefaultEndpoint = "https://eastus.api.cognitive.microsoft.com"
	keyPhrasesPath  = "/text/analytics/v2.0/keyPhrases"
	sentimentPath   = "/text/analytics/v2.0/sentiment"
	documentID      = "1"
)

// ErrNoDocument is returned when the response carries no result for the request document.
var ErrNoDocument = errors.New("text analytics: no document in response")

type document struct {
	Language string `json:"language"`
	ID       string `json:"id"`
	Text     string `json:"text"`
}

type request struct {
	Documents []document `json:"documents"`
}

type documentError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type keyPhrasesResponse struct {
	Documents []struct {
		ID         string   `json:"id"`
		KeyPhrases []string `json:"keyPhrases"`
	} `json:"documents"`
	Errors []documentError `json:"errors"`
}

type sentimentResponse struct {
	Documents []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"documents"`
	Errors []documentError `json:"errors"`
}

// Client is a Text Analytics v2 client.
type Client struct {
	endpoint string
	apiKey   string
	language string
	c        *http.Client
}

// New creates a client from configuration. An empty endpoint uses DefaultEndpoint.
func New(cfg config.Analysis) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   cfg.APIKey,
		language: language,
		c:        &http.Client{Timeout: timeout},
	}
}

// KeyPhrases returns the key phrases of text in service rank order.
func (c *Client) KeyPhrases(ctx context.Context, text string) ([]string, error) {
	var out keyPhrasesResponse
	if err := c.post(ctx, keyPhrasesPath, text, &out); err != nil {
		return nil, err
	}
	if err := firstError(out.Errors); err != nil {
		return nil, err
	}
	for _, d := range out.Documents {
		if d.ID == documentID {
			return d.KeyPhrases, nil
		}
	}
	return nil, ErrNoDocument
}

// Sentiment returns the sentiment score of text in [0, 1].
func (c *Client) Sentiment(ctx context.Context, text string) (float64, error) {
	var out sentimentResponse
	if err := c.post(ctx, sentimentPath, text, &out); err != nil {
		return 0, err
	}
	if err := firstError(out.Errors); err != nil {
		return 0, err
	}
	for _, d := range out.Documents {
		if d.ID == documentID {
			return d.Score, nil
		}
	}
	return 0, ErrNoDocument
}

func (c *Client) post(ctx context.Context, path, text string, out any) error {
	payload, err := json.Marshal(request{Documents: []document{{Language: c.language, ID: documentID, Text: text}}})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.c.Do(req)
	if err != nil {
		return fmt.Errorf("text analytics %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("text analytics %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func firstError(errs []documentError) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("text analytics document %s: %s", errs[0].ID, errs[0].Message)
}
