package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Veraticus/aviation-bay/internal/capture"
	"github.com/Veraticus/aviation-bay/internal/common"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testImage = capture.Image{MIMEType: "image/png", Data: []byte("\x89PNG\r\n\x1a\nfake")}

func newTestGemini(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := newGeminiClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func writeGeminiText(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": "STOP",
		}},
	}))
}

func writeGeminiError(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": message, "status": status},
	})
}

func TestNewGeminiClient_MissingKey(t *testing.T) {
	_, err := newGeminiClient(Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
	assert.Contains(t, common.UserMessage(err), "GEMINI_API_KEY")
}

func TestGeminiClient_AnalyzeImage(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Contains(t, req.Contents[0].Parts[0].Text, `"jets"`)
		require.NotNil(t, req.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "image/png", req.Contents[0].Parts[1].InlineData.MIMEType)
		assert.Equal(t, testImage.Base64(), req.Contents[0].Parts[1].InlineData.Data)

		writeGeminiText(t, w, "```json\n{\"jets\":[{\"jetType\":\"fighter-jet\",\"confidence\":0.91,\"description\":\"F-16 banking left\"}]}\n```")
	})

	jets, err := client.AnalyzeImage(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, []model.DetectedJet{{JetType: "fighter jet", Confidence: 0.91, Description: "F-16 banking left"}}, jets)
}

func TestGeminiClient_AnalyzeImageEmpty(t *testing.T) {
	client := newTestGemini(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.AnalyzeImage(context.Background(), capture.Image{})
	assert.ErrorIs(t, err, common.ErrEmptyCapture)
}

func TestGeminiClient_Reply(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 3)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "model", req.Contents[1].Role)
		assert.Equal(t, "And the A380?", req.Contents[2].Parts[0].Text)
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, 512, req.GenerationConfig.MaxOutputTokens)
		assert.InDelta(t, 0.7, req.GenerationConfig.Temperature, 1e-9)

		writeGeminiText(t, w, "The A380 is the largest passenger airliner.")
	})

	turn, err := client.Reply(context.Background(), []model.Turn{
		{Role: model.RoleUser, Text: "What is the biggest airliner?"},
		{Role: model.RoleModel, Text: "The Airbus A380."},
		{Role: model.RoleUser, Text: "And the A380?"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleModel, turn.Role)
	assert.Equal(t, "The A380 is the largest passenger airliner.", turn.Text)
}

func TestGeminiClient_Errors(t *testing.T) {
	tests := []struct {
		handler     http.HandlerFunc
		wantErr     error
		name        string
		wantMessage string
	}{
		{
			name: "quota",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeGeminiError(w, http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "Resource has been exhausted (e.g. check quota).")
			},
			wantErr:     common.ErrQuotaExceeded,
			wantMessage: MsgQuotaExceeded,
		},
		{
			name: "bad key",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeGeminiError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "API key not valid. Please pass a valid API key.")
			},
			wantErr:     common.ErrMissingConfig,
			wantMessage: MsgInvalidKey,
		},
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeGeminiError(w, http.StatusForbidden, "PERMISSION_DENIED", "denied")
			},
			wantErr:     common.ErrMissingConfig,
			wantMessage: MsgInvalidKey,
		},
		{
			name: "blocked prompt",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
			},
			wantErr: ErrContentBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestGemini(t, tt.handler)

			_, err := client.Reply(context.Background(), []model.Turn{{Role: model.RoleUser, Text: "hi"}})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, common.UserMessage(err))
			}
		})
	}
}

func TestGeminiClient_ServerErrorIsRetryable(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		writeGeminiError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "overloaded")
	})

	_, err := client.AnalyzeImage(context.Background(), testImage)
	require.Error(t, err)
	assert.True(t, common.IsRetryable(err))
}

func TestGeminiClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(srv.Close)

	client, err := newGeminiClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.AnalyzeImage(context.Background(), testImage)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTimeout)
	assert.Equal(t, MsgTimeout, common.UserMessage(err))
}

func TestGeminiClient_Ping(t *testing.T) {
	reply := "OK"
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		writeGeminiText(t, w, reply)
	})

	require.NoError(t, client.Ping(context.Background()))

	reply = "Hello there"
	err := client.Ping(context.Background())
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
}

func TestGeminiClient_SafetyFinishWithoutText(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[]},"finishReason":"SAFETY"}]}`))
	})

	_, err := client.AnalyzeImage(context.Background(), testImage)
	assert.ErrorIs(t, err, ErrContentBlocked)
}

func TestGeminiClient_MalformedBody(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.Reply(context.Background(), []model.Turn{{Role: model.RoleUser, Text: "hi"}})
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
}

func TestNewGeminiClient_Defaults(t *testing.T) {
	client, err := newGeminiClient(Config{APIKey: "k"})
	require.NoError(t, err)

	gc, ok := client.(*geminiClient)
	require.True(t, ok)
	assert.Equal(t, DefaultGeminiBaseURL, gc.baseURL)
	assert.Equal(t, DefaultGeminiModel, gc.model)
	assert.Equal(t, DefaultGeminiChatModel, gc.chatModel)
}
