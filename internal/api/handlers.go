// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/catalog"
	"github.com/shelfmark/shelfmark/internal/metrics"
	"github.com/shelfmark/shelfmark/internal/models"
	"github.com/shelfmark/shelfmark/internal/recommend"
)

const queryTimeout = 10 * time.Second

// Handler exposes the query service over HTTP.
type Handler struct {
	service *recommend.Service
	logger  zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(service *recommend.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// recommendationsRequest carries the validated query parameters of the
// recommendations endpoint.
type recommendationsRequest struct {
	UserID int `validate:"required,min=1"`
	Count  int `validate:"min=0,max=50"`
}

// Recommendations handles GET /api/v1/recommendations.
//
// Query parameters:
//   - user_id (required): the user to recommend for
//   - book_id (optional): seed book; defaults to the user's highest-rated
//   - num_recommendations (optional): number of results; count is accepted
//     as an alias
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	count := getIntParam(r, "num_recommendations", 0)
	if count == 0 {
		count = getIntParam(r, "count", 0)
	}
	req := recommendationsRequest{
		UserID: getIntParam(r, "user_id", 0),
		Count:  count,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	bookID := strings.TrimSpace(r.URL.Query().Get("book_id"))

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	recs, err := h.service.Recommend(ctx, req.UserID, bookID, req.Count)
	if err != nil {
		h.respondRecommendError(w, err)
		return
	}

	metrics.RecommendationRequests.WithLabelValues("success").Inc()
	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())

	entries := make([]models.RecommendationEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, models.RecommendationEntry{
			Book:  toBookSummary(rec.Book),
			Score: rec.Score,
		})
	}
	respondSuccess(w, models.RecommendationsResponse{
		UserID:          req.UserID,
		SeedBookID:      bookID,
		Recommendations: entries,
	}, start)
}

// respondRecommendError maps domain errors to status codes without
// leaking internals.
func (h *Handler) respondRecommendError(w http.ResponseWriter, err error) {
	var (
		missingSeed *recommend.MissingSeedError
		unknownBook *recommend.UnknownBookError
		scoring     *recommend.InternalScoringError
	)
	switch {
	case errors.As(err, &missingSeed):
		metrics.RecommendationRequests.WithLabelValues("missing_seed").Inc()
		respondError(w, http.StatusBadRequest, "MISSING_SEED",
			"No seed book given and the user has no rating history", nil)
	case errors.As(err, &unknownBook):
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, recommend.ErrNotTrained):
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		respondError(w, http.StatusServiceUnavailable, "MODEL_NOT_TRAINED",
			"The model has not been trained yet", nil)
	case errors.As(err, &scoring):
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to generate recommendations", err)
	default:
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to generate recommendations", err)
	}
}

// searchRequest carries the validated query parameters of the search
// endpoint. Queries shorter than 3 characters are rejected.
type searchRequest struct {
	Query string `validate:"required,min=3"`
}

// SearchBooks handles GET /api/v1/books/search.
//
// Query parameters:
//   - query (required, min 3 chars): title/author substring
//   - genre (optional): exact genre filter
func (h *Handler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := searchRequest{Query: strings.TrimSpace(r.URL.Query().Get("query"))}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	genre := strings.TrimSpace(r.URL.Query().Get("genre"))

	books := h.service.Search(req.Query, genre)
	results := make([]models.BookSummary, 0, len(books))
	for _, b := range books {
		results = append(results, toBookSummary(b))
	}

	respondSuccess(w, models.SearchResponse{
		Query:   req.Query,
		Genre:   genre,
		Total:   len(results),
		Results: results,
	}, start)
}

// Train handles POST /api/v1/recommendations/train. A refit already in
// flight yields 409; queries keep serving the previous snapshot while
// the new one trains.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	err := h.service.Fit(r.Context())
	switch {
	case errors.Is(err, recommend.ErrTrainingInProgress):
		metrics.RecordTraining("rejected", 0)
		respondError(w, http.StatusConflict, "TRAINING_IN_PROGRESS",
			"A training run is already in progress", nil)
		return
	case err != nil:
		metrics.RecordTraining("error", 0)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Training failed", err)
		return
	}

	metrics.RecordTraining("success", time.Since(start))
	st := h.service.Status()
	metrics.ModelVersion.Set(float64(st.ModelVersion))

	respondSuccess(w, toStatusResponse(st), start)
}

// TrainingStatus handles GET /api/v1/recommendations/status.
func (h *Handler) TrainingStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, toStatusResponse(h.service.Status()), start)
}

// HealthLive handles GET /api/v1/health/live. The process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /api/v1/health/ready. Ready means a trained
// model snapshot is live.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	st := h.service.Status()
	if !st.Trained {
		respondError(w, http.StatusServiceUnavailable, "MODEL_NOT_TRAINED",
			"The model has not been trained yet", nil)
		return
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "ready"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

func toBookSummary(b catalog.Book) models.BookSummary {
	return models.BookSummary{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Genre:         b.Genre,
		Year:          b.Year,
		AverageRating: b.AverageRating,
		ImageURL:      b.ImageURL,
		Description:   b.Description,
	}
}

func toStatusResponse(st recommend.Status) models.TrainingStatusResponse {
	return models.TrainingStatusResponse{
		Trained:      st.Trained,
		ModelVersion: st.ModelVersion,
		TrainedAt:    st.TrainedAt,
		HoldoutRMSE:  st.HoldoutRMSE,
		Books:        st.Books,
		Ratings:      st.Ratings,
		Users:        st.Users,
	}
}
