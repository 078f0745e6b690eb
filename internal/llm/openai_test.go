package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/aviation-bay/internal/common"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid config",
			config: Config{APIKey: "test-key"},
		},
		{
			name:    "missing API key",
			config:  Config{},
			wantErr: true,
		},
		{
			name: "custom model and settings",
			config: Config{
				APIKey:      "test-key",
				Model:       "gpt-4o",
				ChatModel:   "gpt-4o-mini",
				Temperature: 0.5,
				MaxTokens:   200,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrMissingConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ProviderOpenAI, client.Provider())
		})
	}
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return client
}

func writeOpenAIContent(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"id":    "chatcmpl-1",
		"model": "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}))
}

func TestOpenAIClient_AnalyzeImage(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					ImageURL *struct {
						URL string `json:"url"`
					} `json:"image_url"`
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOpenAIModel, req.Model)
		require.Len(t, req.Messages, 1)
		require.Len(t, req.Messages[0].Content, 2)
		assert.Equal(t, "text", req.Messages[0].Content[0].Type)
		assert.Equal(t, "image_url", req.Messages[0].Content[1].Type)
		require.NotNil(t, req.Messages[0].Content[1].ImageURL)
		assert.Equal(t, testImage.DataURL(), req.Messages[0].Content[1].ImageURL.URL)

		writeOpenAIContent(t, w, `{"jets":[{"jetType":"boeing","confidence":0.88,"description":"737-800 on final"}]}`)
	})

	jets, err := client.AnalyzeImage(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, []model.DetectedJet{{JetType: "commercial airliner", Confidence: 0.88, Description: "737-800 on final"}}, jets)
}

func TestOpenAIClient_Reply(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "assistant", req.Messages[1].Role)
		assert.InDelta(t, DefaultTemperature, req.Temperature, 1e-9)
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)

		writeOpenAIContent(t, w, "Rotor wash is the downdraft from a helicopter.")
	})

	turn, err := client.Reply(context.Background(), []model.Turn{
		{Role: model.RoleUser, Text: "What is rotor wash?"},
		{Role: model.RoleModel, Text: "Let me explain."},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleModel, turn.Role)
	assert.Equal(t, "Rotor wash is the downdraft from a helicopter.", turn.Text)
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		body    string
		status  int
	}{
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`,
			wantErr: common.ErrQuotaExceeded,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantErr: common.ErrMissingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.AnalyzeImage(context.Background(), testImage)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOpenAIClient_BadRequestIsNotRetryable(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid image"}}`))
	})

	_, err := client.AnalyzeImage(context.Background(), testImage)
	require.Error(t, err)
	assert.False(t, common.IsRetryable(err))
	assert.Contains(t, err.Error(), "Invalid image")
}

func TestOpenAIClient_ContentFilter(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"finish_reason":"content_filter","message":{"role":"assistant","content":""}}]}`))
	})

	_, err := client.Reply(context.Background(), []model.Turn{{Role: model.RoleUser, Text: "?"}})
	assert.ErrorIs(t, err, ErrContentBlocked)
}

func TestOpenAIClient_MalformedResponse(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.Reply(context.Background(), []model.Turn{{Role: model.RoleUser, Text: "?"}})
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(context.Background(), Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, client.Provider())

	client, err = NewClient(context.Background(), Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, client.Provider())

	_, err = NewClient(context.Background(), Config{Provider: "anthropic", APIKey: "k"})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
