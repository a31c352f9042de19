package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"live-transcript-service/internal/config"
)

type mockOpenAIClient struct {
	mock.Mock
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func newTestClient(m openAIClientInterface) *Client {
	return &Client{model: "gpt-4o-mini", openaiClient: m}
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
	}
}

func TestClient_KeyPhrases(t *testing.T) {
	m := new(mockOpenAIClient)
	m.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "gpt-4o-mini" &&
			len(req.Messages) == 2 &&
			req.Messages[0].Content == keyPhrasesPrompt &&
			req.Messages[1].Content == "I want to cancel\nmy subscription"
	})).Return(reply("```json\n{\"keyPhrases\": [\"subscription\", \" \", \"cancel\"]}\n```"), nil)

	phrases, err := newTestClient(m).KeyPhrases(context.Background(), "I want to cancel\nmy subscription")
	require.NoError(t, err)
	assert.Equal(t, []string{"subscription", "cancel"}, phrases)
	m.AssertExpectations(t)
}

func TestClient_Sentiment(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    float64
	}{
		{"plain", `{"score": 0.73}`, 0.73},
		{"clamped high", `{"score": 1.4}`, 1},
		{"clamped low", `{"score": -0.2}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(mockOpenAIClient)
			m.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(reply(tt.content), nil)

			got, err := newTestClient(m).Sentiment(context.Background(), "thanks")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestClient_APIError(t *testing.T) {
	m := new(mockOpenAIClient)
	m.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("api error"))

	_, err := newTestClient(m).KeyPhrases(context.Background(), "x")
	assert.ErrorContains(t, err, "api error")
}

func TestClient_EmptyChoices(t *testing.T) {
	m := new(mockOpenAIClient)
	m.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{Choices: nil}, nil)

	_, err := newTestClient(m).Sentiment(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClient_InvalidJSON(t *testing.T) {
	m := new(mockOpenAIClient)
	m.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(reply("not valid json"), nil)

	_, err := newTestClient(m).KeyPhrases(context.Background(), "x")
	assert.Error(t, err)
}

func TestNewClient_BaseURL(t *testing.T) {
	c := NewClient(configFor("http://localhost:11434/v1"))
	assert.Equal(t, "gpt-4o-mini", c.model)
	assert.NotNil(t, c.openaiClient)
}

func configFor(baseURL string) config.Analysis {
	return config.Analysis{Provider: "openai", APIKey: "k", Model: "gpt-4o-mini", BaseURL: baseURL}
}
