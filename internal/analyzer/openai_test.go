package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/photostory/internal/imaging"
	"github.com/hyperjump/photostory/internal/models"
	"github.com/hyperjump/photostory/internal/testutil"
)

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestOpenAIAnalyzer_Analyze(t *testing.T) {
	var got chatRequest
	var rawUser []contentPart
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model          string            `json:"model"`
			ResponseFormat map[string]string `json:"response_format"`
			Messages       []json.RawMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got.Model = req.Model
		got.ResponseFormat = req.ResponseFormat
		require.Len(t, req.Messages, 2)
		var user struct {
			Content []contentPart `json:"content"`
		}
		require.NoError(t, json.Unmarshal(req.Messages[1], &user))
		rawUser = user.Content

		_, _ = w.Write([]byte(chatReply(`{"narrative":"A cat sits on a mat","connections":["Chapter 1: the same mat"],"tags":["cat","indoor"]}`)))
	}))
	defer srv.Close()

	a := NewOpenAIAnalyzer(OpenAIConfig{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "gpt-4o", HTTPClient: srv.Client()})
	img := imaging.Image{Data: testutil.PNG(1), MIMEType: "image/png"}
	history := []models.ChapterContext{{Narrative: "A mat lies empty", Tags: []string{"mat"}, ChapterNumber: 1}}

	analysis, err := a.Analyze(context.Background(), img, history)
	require.NoError(t, err)
	assert.Equal(t, "A cat sits on a mat", analysis.Narrative)
	assert.Equal(t, []string{"Chapter 1: the same mat"}, analysis.Connections)
	assert.Equal(t, []string{"cat", "indoor"}, analysis.Tags)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	require.Len(t, rawUser, 2)
	assert.Contains(t, rawUser[0].Text, "Chapter 1: A mat lies empty (tags: mat)")
	require.NotNil(t, rawUser[1].ImageURL)
	assert.True(t, strings.HasPrefix(rawUser[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestOpenAIAnalyzer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewOpenAIAnalyzer(OpenAIConfig{BaseURL: srv.URL, APIKey: "sk-secret", Model: "gpt-4o", HTTPClient: srv.Client()})
	_, err := a.Analyze(context.Background(), imaging.Image{Data: testutil.PNG(1), MIMEType: "image/png"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.NotContains(t, err.Error(), "sk-secret")
}

func TestOpenAIAnalyzer_RequiresKeyAndImage(t *testing.T) {
	a := NewOpenAIAnalyzer(OpenAIConfig{Model: "gpt-4o"})
	_, err := a.Analyze(context.Background(), imaging.Image{Data: testutil.PNG(1)}, nil)
	assert.Error(t, err)

	a = NewOpenAIAnalyzer(OpenAIConfig{APIKey: "k", Model: "gpt-4o"})
	_, err = a.Analyze(context.Background(), imaging.Image{}, nil)
	assert.Error(t, err)
}

func TestParseAnalysis(t *testing.T) {
	t.Run("fenced json", func(t *testing.T) {
		a, err := parseAnalysis("```json\n{\"narrative\":\"n\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "n", a.Narrative)
		assert.NotNil(t, a.Connections)
		assert.NotNil(t, a.Tags)
	})
	t.Run("missing narrative", func(t *testing.T) {
		_, err := parseAnalysis(`{"tags":["a"]}`)
		assert.Error(t, err)
	})
	t.Run("not json", func(t *testing.T) {
		_, err := parseAnalysis("once upon a time")
		assert.Error(t, err)
	})
}
