// Package analyzer turns a photo plus the story so far into the next chapter's
// narrative, connections, and tags.
package analyzer

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/photostory/internal/config"
	"github.com/hyperjump/photostory/internal/imaging"
	"github.com/hyperjump/photostory/internal/models"
)

// Analyzer produces an analysis for one image given the earlier chapters,
// ordered by chapter number.
type Analyzer interface {
	Analyze(ctx context.Context, img imaging.Image, history []models.ChapterContext) (*models.Analysis, error)
}

// New builds the analyzer selected by cfg.Provider, wrapped in a circuit breaker when enabled.
func New(cfg *config.AnalyzerConfig, logger *zap.Logger) (Analyzer, error) {
	var a Analyzer
	switch cfg.Provider {
	case config.ProviderMock:
		a = NewMockAnalyzer()
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("analyzer.api_key (or OPENAI_API_KEY) is required for the openai provider")
		}
		a = NewOpenAIAnalyzer(OpenAIConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			MaxTokens:  cfg.MaxTokens,
			HTTPClient: &http.Client{Timeout: cfg.Timeout},
		})
	default:
		return nil, fmt.Errorf("unknown analyzer provider %q", cfg.Provider)
	}
	if cfg.Breaker.Enabled {
		a = NewBreaker(a, cfg.Breaker, logger)
	}
	return a, nil
}
