package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hyperjump/photostory/internal/imaging"
	"github.com/hyperjump/photostory/internal/models"
)

// OpenAIConfig configures the chat completions endpoint and HTTP behavior.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
}

// OpenAIAnalyzer calls an OpenAI-compatible vision model.
type OpenAIAnalyzer struct {
	cfg OpenAIConfig
}

// NewOpenAIAnalyzer builds an analyzer for cfg.
func NewOpenAIAnalyzer(cfg OpenAIConfig) *OpenAIAnalyzer {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAIAnalyzer{cfg: cfg}
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the image and the rendered history and parses the JSON answer.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, img imaging.Image, history []models.ChapterContext) (*models.Analysis, error) {
	if strings.TrimSpace(a.cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(a.cfg.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("image is required")
	}

	body, err := json.Marshal(chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: buildUserPrompt(history)},
				{Type: "image_url", ImageURL: &imageURL{URL: img.DataURL()}},
			}},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		MaxTokens:      a.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key only travels in the Authorization header; it never appears in errors.
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	res, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		excerpt, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("read analysis error body: %w", err)
		}
		return nil, fmt.Errorf("analysis request status %d: %s", res.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	var payload chatResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return nil, fmt.Errorf("analysis response has no choices")
	}
	return parseAnalysis(payload.Choices[0].Message.Content)
}

// parseAnalysis decodes the model's JSON answer, tolerating a markdown code fence.
func parseAnalysis(content string) (*models.Analysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis content: %w", err)
	}
	analysis.Narrative = strings.TrimSpace(analysis.Narrative)
	if analysis.Narrative == "" {
		return nil, fmt.Errorf("analysis response missing narrative")
	}
	analysis.Normalize()
	return &analysis, nil
}
