package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-transcript-service/internal/config"
	"live-transcript-service/internal/service/analysis/llm"
	"live-transcript-service/internal/service/analysis/mock"
	"live-transcript-service/internal/service/analysis/textanalytics"
)

var (
	_ Analyzer = (*mock.Analyzer)(nil)
	_ Analyzer = (*textanalytics.Client)(nil)
	_ Analyzer = (*llm.Client)(nil)
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Analysis
		want    any
		wantErr bool
	}{
		{"default is mock", config.Analysis{}, &mock.Analyzer{}, false},
		{"mock", config.Analysis{Provider: ProviderMock}, &mock.Analyzer{}, false},
		{"text analytics", config.Analysis{Provider: ProviderTextAnalytics, APIKey: "k"}, &textanalytics.Client{}, false},
		{"openai", config.Analysis{Provider: ProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"}, &llm.Client{}, false},
		{"text analytics without key", config.Analysis{Provider: ProviderTextAnalytics}, nil, true},
		{"openai without key", config.Analysis{Provider: ProviderOpenAI}, nil, true},
		{"unknown", config.Analysis{Provider: "watson"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}
