package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/photostory/internal/apperrors"
	"github.com/hyperjump/photostory/internal/export"
	"github.com/hyperjump/photostory/internal/models"
	"github.com/hyperjump/photostory/pkg/utils"
)

// multipartOverhead is the room left for form boundaries and headers around the image.
const multipartOverhead = 1 << 20

type createChapterRequest struct {
	ImageURL    string `json:"imageUrl" validate:"required,url"`
	Base64Image string `json:"base64Image,omitempty"`
}

type errorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := s.chapters.Chapters(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, chapters)
}

func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	chapter, err := s.chapters.Chapter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, chapter)
}

func (s *Server) handleSearchChapters(w http.ResponseWriter, r *http.Request) {
	q := &models.SearchQuery{Query: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, r, apperrors.Validation("limit must be an integer"))
			return
		}
		q.Limit = limit
	}
	if err := q.Validate(s.config.Search.DefaultLimit, s.config.Search.MaxLimit); err != nil {
		s.respondError(w, r, apperrors.Wrap(apperrors.TypeValidation, "Search query is required", err))
		return
	}
	s.logger.Debug("search request", zap.String("query", q.Query), zap.Int("limit", q.Limit))
	chapters, err := s.chapters.Search(r.Context(), q, nil)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, chapters)
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.chapters.MaxImageBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, apperrors.Validationf("Image exceeds the %d byte limit", maxBytes))
			return
		}
		s.respondError(w, r, apperrors.Validation("No image file provided"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		s.respondError(w, r, apperrors.Validation("No image file provided"))
		return
	}
	defer file.Close()
	if header.Size > maxBytes {
		s.respondError(w, r, apperrors.Validationf("Image exceeds the %d byte limit", maxBytes))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		s.respondError(w, r, apperrors.Wrap(apperrors.TypeValidation, "No image file provided", err))
		return
	}
	s.logger.Debug("analyze image request", zap.String("filename", header.Filename), zap.Int("bytes", len(data)))

	chapter, err := s.chapters.AddChapter(r.Context(), data, "")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, chapter)
}

func (s *Server) handleCreateChapter(w http.ResponseWriter, r *http.Request) {
	var req createChapterRequest
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.chapters.MaxImageBytes()+multipartOverhead)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, apperrors.Wrap(apperrors.TypeValidation, "Invalid request body", err))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		var fields utils.FieldErrors
		if errors.As(err, &fields) {
			s.respondError(w, r, apperrors.Validation("Invalid request body").WithDetails(fields))
			return
		}
		s.respondError(w, r, apperrors.Wrap(apperrors.TypeValidation, "Invalid request body", err))
		return
	}

	chapter, err := s.chapters.AddChapterFromURL(r.Context(), req.ImageURL, req.Base64Image)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, chapter)
}

func (s *Server) handleDeleteChapters(w http.ResponseWriter, r *http.Request) {
	if err := s.chapters.Reset(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "All chapters deleted successfully"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	story, err := s.exporter.Export(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(s.now())))
	s.respondJSON(w, http.StatusOK, story)
}

func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		s.respondError(w, r, apperrors.Unavailable("Failed to get upload URL").WithDetails("object storage is not configured"))
		return
	}
	url, err := s.uploads.UploadURL(r.Context())
	if err != nil {
		s.respondError(w, r, apperrors.Wrap(apperrors.TypeUnavailable, "Failed to get upload URL", err))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"uploadURL": url})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.chapters.Count(r.Context())
	if err != nil {
		s.logger.Error("health: count chapters failed", zap.Error(err))
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "chapters": count})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes the error envelope. Client errors echo their message; analysis
// failures carry the cause as details; anything unclassified becomes a generic 500.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.StatusCode(err)
	body := errorResponse{Error: "Internal server error"}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
		body.Details = appErr.Details
		if appErr.Type == apperrors.TypeAnalysis && appErr.Cause != nil && body.Details == nil {
			body.Details = appErr.Cause.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	s.respondJSON(w, status, body)
}
