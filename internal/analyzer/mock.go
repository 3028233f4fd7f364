package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/hyperjump/photostory/internal/imaging"
	"github.com/hyperjump/photostory/internal/models"
)

var mockTags = []string{"light", "street", "portrait", "nature", "indoor", "water", "night", "color"}

// MockAnalyzer is a deterministic analyzer for tests and offline development.
// The same image and history always give the same analysis.
type MockAnalyzer struct{}

// NewMockAnalyzer returns a deterministic analyzer.
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// Analyze derives a narrative from the image digest and links to the previous chapter.
func (m *MockAnalyzer) Analyze(ctx context.Context, img imaging.Image, history []models.ChapterContext) (*models.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum := sha256.Sum256(img.Data)
	digest := hex.EncodeToString(sum[:4])
	n := len(history) + 1
	analysis := &models.Analysis{
		Narrative: fmt.Sprintf("Chapter %d unfolds around a %s photo marked %s.", n, img.MIMEType, digest),
		Tags: []string{
			mockTags[int(sum[0])%len(mockTags)],
			mockTags[int(sum[1])%len(mockTags)],
		},
	}
	if len(history) > 0 {
		prev := history[len(history)-1]
		analysis.Connections = []string{fmt.Sprintf("Chapter %d: the story continues", prev.ChapterNumber)}
	}
	analysis.Normalize()
	return analysis, nil
}
