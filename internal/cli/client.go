package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hyperjump/photostory/internal/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Details interface{}
}

func (e *APIError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("server returned %d: %s (%v)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to a running photostory server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// ListChapters returns every chapter, ascending.
func (c *Client) ListChapters(ctx context.Context) ([]*models.Chapter, error) {
	var out []*models.Chapter
	err := c.do(ctx, http.MethodGet, "/api/chapters", nil, "", &out)
	return out, err
}

// GetChapter returns one chapter.
func (c *Client) GetChapter(ctx context.Context, id string) (*models.Chapter, error) {
	var out models.Chapter
	if err := c.do(ctx, http.MethodGet, "/api/chapters/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeImage uploads the file at path as the next chapter.
func (c *Client) AnalyzeImage(ctx context.Context, path string) (*models.Chapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	var out models.Chapter
	if err := c.do(ctx, http.MethodPost, "/api/analyze-image", &body, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateChapter asks the server to build a chapter from an image URL.
func (c *Client) CreateChapter(ctx context.Context, imageURL, base64Image string) (*models.Chapter, error) {
	payload, err := json.Marshal(map[string]string{"imageUrl": imageURL, "base64Image": base64Image})
	if err != nil {
		return nil, err
	}
	var out models.Chapter
	if err := c.do(ctx, http.MethodPost, "/api/chapters", bytes.NewReader(payload), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reset deletes every chapter.
func (c *Client) Reset(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/chapters", nil, "", &out)
	return out.Message, err
}

// Export downloads the story document.
func (c *Client) Export(ctx context.Context) (*models.StoryExport, error) {
	var out models.StoryExport
	if err := c.do(ctx, http.MethodGet, "/api/export", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a keyword search. limit <= 0 uses the server default.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]*models.Chapter, error) {
	params := url.Values{"q": {query}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out []*models.Chapter
	err := c.do(ctx, http.MethodGet, "/api/chapters/search?"+params.Encode(), nil, "", &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{Status: res.StatusCode}
		var envelope struct {
			Error   string      `json:"error"`
			Details interface{} `json:"details"`
		}
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
			apiErr.Details = envelope.Details
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
