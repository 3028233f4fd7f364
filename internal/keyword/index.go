// Package keyword provides keyword search over chapter narratives, tags, and connections.
package keyword

import (
	"context"

	"github.com/hyperjump/photostory/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// TagBoost multiplies the score contribution from matches in tags.
	// Values > 1 make tag matches rank above narrative matches. Use 1.0 for no boost.
	TagBoost float64
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance (1 or 2). Default is 1.
	Fuzziness int
}

// Index defines keyword index operations over chapters.
type Index interface {
	Index(ctx context.Context, chapter *models.Chapter) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	// Reset drops every indexed chapter.
	Reset() error
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID    string
	Score float64
}
