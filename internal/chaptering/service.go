// Package chaptering turns photos into story chapters: it validates the image, hands it to the
// analyzer with every earlier chapter as context, numbers the result, and stores it.
package chaptering

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/photostory/internal/analyzer"
	"github.com/hyperjump/photostory/internal/apperrors"
	"github.com/hyperjump/photostory/internal/imaging"
	"github.com/hyperjump/photostory/internal/keyword"
	"github.com/hyperjump/photostory/internal/models"
	"github.com/hyperjump/photostory/internal/storage"
)

// Metrics receives chaptering events. Implemented by metrics.Collector.
type Metrics interface {
	ChapterCreated(total int)
	AnalysisObserved(d time.Duration, err error)
	StoryReset()
}

// Options configures a Service. Zero values pick defaults.
type Options struct {
	MaxImageBytes   int64
	AnalysisTimeout time.Duration
	Fetcher         *imaging.Fetcher
	Index           keyword.Index
	Metrics         Metrics
	Logger          *zap.Logger
}

// Service orchestrates chapter creation and reset.
//
// AddChapter and Reset run inside one critical section: reading the existing
// chapters, calling the analyzer, numbering, and inserting happen as one step,
// so numbers stay unique and every chapter sees all earlier chapters as context.
type Service struct {
	store    storage.Storage
	analyzer analyzer.Analyzer
	fetcher  *imaging.Fetcher
	index    keyword.Index
	metrics  Metrics
	logger   *zap.Logger

	maxImageBytes   int64
	analysisTimeout time.Duration

	mu        sync.Mutex
	onResetFn []func()
}

// NewService creates a service over store and a.
func NewService(store storage.Storage, a analyzer.Analyzer, opts Options) *Service {
	s := &Service{
		store:           store,
		analyzer:        a,
		fetcher:         opts.Fetcher,
		index:           opts.Index,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		maxImageBytes:   opts.MaxImageBytes,
		analysisTimeout: opts.AnalysisTimeout,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.maxImageBytes <= 0 {
		s.maxImageBytes = 10 * 1024 * 1024
	}
	if s.fetcher == nil {
		s.fetcher = imaging.NewFetcher(nil, 30*time.Second, s.maxImageBytes)
	}
	return s
}

// OnReset registers fn to run, inside the critical section, after every successful reset.
func (s *Service) OnReset(fn func()) {
	s.mu.Lock()
	s.onResetFn = append(s.onResetFn, fn)
	s.mu.Unlock()
}

// MaxImageBytes returns the upload bound.
func (s *Service) MaxImageBytes() int64 {
	return s.maxImageBytes
}

// AddChapter validates data, analyzes it against the story so far, and appends the next chapter.
// imageURL is stored as the chapter's image; when empty a data: URL of the image is used.
// Exactly one chapter is stored on success and none on failure.
func (s *Service) AddChapter(ctx context.Context, data []byte, imageURL string) (*models.Chapter, error) {
	img, err := imaging.Validate(data, s.maxImageBytes)
	if err != nil {
		return nil, err
	}
	if imageURL == "" {
		imageURL = img.DataURL()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.ListChapters(ctx)
	if err != nil {
		return nil, apperrors.Storage("Failed to fetch chapters", err)
	}
	history := BuildContext(existing)

	analysis, err := s.analyze(ctx, img, history)
	if err != nil {
		s.logger.Error("image analysis failed", zap.Int("chapters", len(existing)), zap.Error(err))
		return nil, apperrors.Analysis(err)
	}

	chapter, err := s.store.CreateChapter(ctx, &models.ChapterInput{
		UserID:        nil,
		ImageURL:      imageURL,
		Narrative:     analysis.Narrative,
		Connections:   analysis.Connections,
		Tags:          analysis.Tags,
		ChapterNumber: NextChapterNumber(existing),
	})
	if err != nil {
		s.logger.Error("chapter insert failed", zap.Error(err))
		return nil, apperrors.Storage("Failed to create chapter", err)
	}

	if s.index != nil {
		if err := s.index.Index(ctx, chapter); err != nil {
			s.logger.Warn("keyword index failed", zap.String("id", chapter.ID), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.ChapterCreated(chapter.ChapterNumber)
	}
	s.logger.Info("chapter created",
		zap.String("id", chapter.ID),
		zap.Int("chapter_number", chapter.ChapterNumber),
		zap.Strings("tags", chapter.Tags),
	)
	return chapter, nil
}

func (s *Service) analyze(ctx context.Context, img imaging.Image, history []models.ChapterContext) (*models.Analysis, error) {
	if s.analysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.analysisTimeout)
		defer cancel()
	}
	start := time.Now()
	analysis, err := s.analyzer.Analyze(ctx, img, history)
	if err == nil && (analysis == nil || analysis.Narrative == "") {
		err = errors.New("analyzer returned an empty narrative")
	}
	if s.metrics != nil {
		s.metrics.AnalysisObserved(time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	analysis.Normalize()
	return analysis, nil
}

// AddChapterFromURL creates a chapter for an image referenced by imageURL.
// base64Image, when set, is used instead of downloading; http(s) URLs are fetched and
// data: URLs decoded. The chapter keeps imageURL as its image.
func (s *Service) AddChapterFromURL(ctx context.Context, imageURL, base64Image string) (*models.Chapter, error) {
	var data []byte
	var err error
	switch {
	case base64Image != "":
		data, err = imaging.DecodeBase64(base64Image)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.TypeValidation, "Invalid base64 image", err)
		}
	case imaging.IsDataURL(imageURL):
		data, err = imaging.DecodeDataURL(imageURL)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.TypeValidation, "Unable to process image", err)
		}
	default:
		data, err = s.fetcher.Fetch(ctx, imageURL)
		if err != nil {
			return nil, err
		}
	}
	return s.AddChapter(ctx, data, imageURL)
}

// Chapters returns every chapter ascending by chapter number.
func (s *Service) Chapters(ctx context.Context) ([]*models.Chapter, error) {
	chapters, err := s.store.ListChapters(ctx)
	if err != nil {
		return nil, apperrors.Storage("Failed to fetch chapters", err)
	}
	return chapters, nil
}

// Chapter returns one chapter by id.
func (s *Service) Chapter(ctx context.Context, id string) (*models.Chapter, error) {
	c, err := s.store.GetChapter(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NotFound("Chapter not found")
	}
	if err != nil {
		return nil, apperrors.Storage("Failed to fetch chapter", err)
	}
	return c, nil
}

// Reset deletes every chapter and clears the keyword index.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteAllChapters(ctx); err != nil {
		return apperrors.Storage("Failed to delete chapters", err)
	}
	if s.index != nil {
		if err := s.index.Reset(); err != nil {
			s.logger.Warn("keyword index reset failed", zap.Error(err))
		}
	}
	for _, fn := range s.onResetFn {
		fn()
	}
	if s.metrics != nil {
		s.metrics.StoryReset()
	}
	s.logger.Info("story reset")
	return nil
}

// Search returns chapters matching q, best first. Hits whose chapter is gone are skipped.
func (s *Service) Search(ctx context.Context, q *models.SearchQuery, opts *keyword.SearchOptions) ([]*models.Chapter, error) {
	if s.index == nil {
		return nil, apperrors.Unavailable("Search is disabled")
	}
	hits, err := s.index.Search(ctx, q.Query, q.Limit, opts)
	if err != nil {
		return nil, apperrors.Storage("Failed to search chapters", err)
	}
	out := make([]*models.Chapter, 0, len(hits))
	for _, hit := range hits {
		c, err := s.store.GetChapter(ctx, hit.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperrors.Storage("Failed to fetch chapter", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Count returns the number of chapters.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.CountChapters(ctx)
}

// BuildContext extracts the analyzer context from chapters, ascending by chapter number.
func BuildContext(chapters []*models.Chapter) []models.ChapterContext {
	out := make([]models.ChapterContext, 0, len(chapters))
	for _, c := range chapters {
		out = append(out, c.Context())
	}
	return out
}

// NextChapterNumber returns count(existing) + 1.
func NextChapterNumber(existing []*models.Chapter) int {
	return len(existing) + 1
}
