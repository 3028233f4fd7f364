package imaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/photostory/internal/apperrors"
)

// Fetcher downloads remote images with a size bound.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher returns a fetcher with the given timeout and size bound.
// A nil client uses a new http.Client with timeout.
func NewFetcher(client *http.Client, timeout time.Duration, maxBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{client: client, maxBytes: maxBytes}
}

// Fetch downloads rawURL. Unreachable URLs, non-2xx answers, and oversized bodies
// are validation errors: the client supplied a URL we cannot use.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, apperrors.Validation("Unable to process image")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.TypeValidation, "Invalid image URL", err)
	}
	res, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.TypeValidation, "Failed to fetch image from URL", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, apperrors.Wrap(apperrors.TypeValidation, "Failed to fetch image from URL",
			fmt.Errorf("status %d", res.StatusCode))
	}
	limit := f.maxBytes
	if limit <= 0 {
		limit = 1 << 62
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.TypeValidation, "Failed to fetch image from URL", err)
	}
	if int64(len(data)) > limit {
		return nil, apperrors.Validationf("Image exceeds the %d byte limit", limit)
	}
	return data, nil
}
