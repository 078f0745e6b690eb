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

// Default Gemini settings.
const (
	DefaultGeminiModel     = "gemini-2.0-flash"
	DefaultGeminiChatModel = "gemini-2.5-flash"
	DefaultGeminiBaseURL   = "https://generativelanguage.googleapis.com"
)

// geminiClient implements the Client interface for the Gemini REST API.
type geminiClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	chatModel   string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// newGeminiClient creates a new Gemini API client.
func newGeminiClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, common.NewUserError(
			"Gemini API key not found. Set GEMINI_API_KEY or ai.gemini_api_key in your config.",
			common.ErrMissingConfig)
	}

	visionModel := cfg.Model
	if visionModel == "" {
		visionModel = DefaultGeminiModel
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultGeminiChatModel
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}

	return &geminiClient{
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

func (c *geminiClient) Provider() string {
	return ProviderGemini
}

type geminiBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	InlineData *geminiBlob `json:"inlineData,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
	Contents         []geminiContent         `json:"contents"`
}

// geminiResponse is the subset of GenerateContentResponse the client reads.
type geminiResponse struct {
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Candidates []struct {
		Content      *geminiContent `json:"content"`
		FinishReason string         `json:"finishReason"`
	} `json:"candidates"`
}

type geminiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// AnalyzeImage sends the photo inline with the analysis prompt.
func (c *geminiClient) AnalyzeImage(ctx context.Context, img capture.Image) ([]model.DetectedJet, error) {
	if img.Empty() {
		return nil, common.ErrEmptyCapture
	}

	text, err := c.generate(ctx, c.model, geminiRequest{
		Contents: []geminiContent{{
			Role: string(model.RoleUser),
			Parts: []geminiPart{
				{Text: analysisPrompt},
				{InlineData: &geminiBlob{MIMEType: img.MIMEType, Data: img.Base64()}},
			},
		}},
	})
	if err != nil {
		return nil, err
	}

	return ParseDetections(text), nil
}

// Reply continues a conversation. Turns must alternate user and model roles.
func (c *geminiClient) Reply(ctx context.Context, turns []model.Turn) (model.Turn, error) {
	contents := make([]geminiContent, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, geminiContent{
			Role:  string(t.Role),
			Parts: []geminiPart{{Text: t.Text}},
		})
	}

	text, err := c.generate(ctx, c.chatModel, geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: c.maxTokens,
			Temperature:     c.temperature,
		},
	})
	if err != nil {
		return model.Turn{}, err
	}

	return model.Turn{Role: model.RoleModel, Text: text}, nil
}

// Ping checks that the API key works.
func (c *geminiClient) Ping(ctx context.Context) error {
	text, err := c.generate(ctx, c.model, geminiRequest{
		Contents: []geminiContent{{
			Role:  string(model.RoleUser),
			Parts: []geminiPart{{Text: pingPrompt}},
		}},
	})
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(text), "ok") {
		return fmt.Errorf("%w: unexpected ping reply %q", common.ErrMalformedResponse, text)
	}
	return nil
}

func (c *geminiClient) generate(ctx context.Context, modelName string, body geminiRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/v1beta/models/" + modelName + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", callError(ctx, "Gemini", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", callError(ctx, "Gemini", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		message := string(respBody)
		var errBody geminiErrorBody
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Error.Message != "" {
			message = errBody.Error.Message
		}
		return "", statusError("Gemini", resp.StatusCode, message)
	}

	var response geminiResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %w", common.ErrMalformedResponse, err)
	}

	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w (%s)", ErrContentBlocked, response.PromptFeedback.BlockReason)
	}
	if len(response.Candidates) == 0 {
		return "", nil
	}

	candidate := response.Candidates[0]
	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 && candidate.FinishReason == "SAFETY" {
		return "", ErrContentBlocked
	}

	return text.String(), nil
}
