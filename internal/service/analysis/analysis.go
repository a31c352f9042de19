// Package analysis defines the external key-phrase and sentiment collaborator and
// selects an implementation from configuration.
package analysis

import (
	"context"
	"fmt"

	"live-transcript-service/internal/config"
	"live-transcript-service/internal/service/analysis/llm"
	"live-transcript-service/internal/service/analysis/mock"
	"live-transcript-service/internal/service/analysis/textanalytics"
)

// Provider names accepted by ANALYSIS_PROVIDER.
const (
	ProviderMock          = "mock"
	ProviderTextAnalytics = "textanalytics"
	ProviderOpenAI        = "openai"
)

// KeyPhraseExtractor returns the key phrases of a text, most salient first.
type KeyPhraseExtractor interface {
	KeyPhrases(ctx context.Context, text string) ([]string, error)
}

// SentimentScorer returns a sentiment score in [0, 1] where 1 is most positive.
type SentimentScorer interface {
	Sentiment(ctx context.Context, text string) (float64, error)
}

// Analyzer is the full collaborator used by the insight pipeline.
type Analyzer interface {
	KeyPhraseExtractor
	SentimentScorer
}

// New builds the analyzer selected by cfg.Provider.
func New(cfg config.Analysis) (Analyzer, error) {
	switch cfg.Provider {
	case "", ProviderMock:
		return mock.New(), nil
	case ProviderTextAnalytics:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("analysis provider %q requires ANALYSIS_API_KEY", cfg.Provider)
		}
		return textanalytics.New(cfg), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("analysis provider %q requires ANALYSIS_API_KEY", cfg.Provider)
		}
		return llm.NewClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.Provider)
	}
}
