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

	"github.com/Veraticus/aviation-bay/internal/capture"
	"github.com/Veraticus/aviation-bay/internal/common"
	"github.com/Veraticus/aviation-bay/internal/model"
)

// Default OpenAI settings.
const (
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// openAIClient implements the Client interface for the OpenAI API.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	chatModel   string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, common.NewUserError(
			"OpenAI API key not found. Set OPENAI_API_KEY or ai.openai_api_key in your config.",
			common.ErrMissingConfig)
	}

	visionModel := cfg.Model
	if visionModel == "" {
		visionModel = DefaultOpenAIModel
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = visionModel
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	return &openAIClient{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       visionModel,
		chatModel:   chatModel,
		temperature: cfg.temperature(),
		maxTokens:   cfg.maxTokens(),
		timeout:     cfg.timeout(),
		httpClient:  newHTTPClient(),
	}, nil
}

func (c *openAIClient) Provider() string {
	return ProviderOpenAI
}

// openAIMessage is a chat message. Content is either a string or a list of
// typed parts.
type openAIMessage struct {
	Content any    `json:"content"`
	Role    string `json:"role"`
}

type openAIPart struct {
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
}

type openAIErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// AnalyzeImage sends the photo as a data URL with the analysis prompt.
func (c *openAIClient) AnalyzeImage(ctx context.Context, img capture.Image) ([]model.DetectedJet, error) {
	if img.Empty() {
		return nil, common.ErrEmptyCapture
	}

	content, err := c.complete(ctx, openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{{
			Role: "user",
			Content: []openAIPart{
				{Type: "text", Text: analysisPrompt},
				{Type: "image_url", ImageURL: &openAIImageURL{URL: img.DataURL()}},
			},
		}},
	})
	if err != nil {
		return nil, err
	}

	return ParseDetections(content), nil
}

// Reply continues a conversation. Model turns are sent as the assistant role.
func (c *openAIClient) Reply(ctx context.Context, turns []model.Turn) (model.Turn, error) {
	messages := make([]openAIMessage, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == model.RoleModel {
			role = "assistant"
		}
		messages = append(messages, openAIMessage{Role: role, Content: t.Text})
	}

	content, err := c.complete(ctx, openAIRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return model.Turn{}, err
	}

	return model.Turn{Role: model.RoleModel, Text: content}, nil
}

// Ping checks that the API key works.
func (c *openAIClient) Ping(ctx context.Context) error {
	content, err := c.complete(ctx, openAIRequest{
		Model:    c.model,
		Messages: []openAIMessage{{Role: "user", Content: pingPrompt}},
	})
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(content), "ok") {
		return fmt.Errorf("%w: unexpected ping reply %q", common.ErrMalformedResponse, content)
	}
	return nil
}

func (c *openAIClient) complete(ctx context.Context, body openAIRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", callError(ctx, "OpenAI", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", callError(ctx, "OpenAI", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		message := string(respBody)
		var errBody openAIErrorBody
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Error.Message != "" {
			message = errBody.Error.Message
		}
		return "", statusError("OpenAI", resp.StatusCode, message)
	}

	var response openAIResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %w", common.ErrMalformedResponse, err)
	}

	if len(response.Choices) == 0 {
		return "", nil
	}

	choice := response.Choices[0]
	if choice.Message.Content == "" && choice.FinishReason == "content_filter" {
		return "", ErrContentBlocked
	}
	return choice.Message.Content, nil
}
