// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/catalog"
)

// Service is the query-facing layer above the engine. It resolves the
// seed book for a user, builds the exclusion set from the user's rating
// history, and maps ranked IDs back to full book records.
type Service struct {
	engine *Engine
	store  *catalog.Store
	logger zerolog.Logger
}

// NewService creates a new query service.
func NewService(engine *Engine, store *catalog.Store, logger zerolog.Logger) *Service {
	return &Service{
		engine: engine,
		store:  store,
		logger: logger.With().Str("component", "service").Logger(),
	}
}

// Recommend returns up to count recommendations for the user. When
// bookID is empty the seed is resolved to the user's highest-rated
// book; a user with no ratings and no explicit bookID gets a
// *MissingSeedError. The seed and every book the user has rated are
// excluded from the results.
func (s *Service) Recommend(ctx context.Context, userID int, bookID string, count int) ([]Recommendation, error) {
	seed := bookID
	if seed == "" {
		resolved, ok := s.store.HighestRatedBook(userID)
		if !ok {
			return nil, &MissingSeedError{UserID: userID}
		}
		seed = resolved
	}

	rated := s.store.RatedBookIDs(userID)
	excluded := make(map[string]struct{}, len(rated)+1)
	for id := range rated {
		excluded[id] = struct{}{}
	}
	excluded[seed] = struct{}{}

	ranked, err := s.engine.Recommend(ctx, userID, seed, excluded, count, Weights{})
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(ranked))
	for _, sb := range ranked {
		book, ok := s.store.Book(sb.BookID)
		if !ok {
			// Snapshot and store are loaded together, so every
			// ranked ID resolves; skip rather than fail if not.
			continue
		}
		recs = append(recs, Recommendation{Book: book, Score: sb.Score})
	}
	return recs, nil
}

// Search returns catalog books matching the query and optional genre
// filter. An empty result is a valid match set, not an error.
func (s *Service) Search(query, genre string) []catalog.Book {
	return s.store.Search(query, genre)
}

// Status describes the current model snapshot.
type Status struct {
	Trained      bool      `json:"trained"`
	ModelVersion int       `json:"model_version"`
	TrainedAt    time.Time `json:"trained_at,omitempty"`
	HoldoutRMSE  float64   `json:"holdout_rmse,omitempty"`
	Books        int       `json:"books"`
	Ratings      int       `json:"ratings"`
	Users        int       `json:"users"`
}

// Status reports whether a snapshot is live and what it was built from.
func (s *Service) Status() Status {
	st := Status{
		Books:   len(s.store.Books()),
		Ratings: len(s.store.Ratings()),
		Users:   len(s.store.Users()),
	}
	if m := s.engine.Model(); m != nil {
		st.Trained = true
		st.ModelVersion = m.Version
		st.TrainedAt = m.TrainedAt
		if h, ok := m.Predictor.(interface{ HoldoutRMSE() (float64, int) }); ok {
			if rmse, n := h.HoldoutRMSE(); n > 0 {
				st.HoldoutRMSE = rmse
			}
		}
	}
	return st
}

// Fit delegates to the engine.
func (s *Service) Fit(ctx context.Context) error {
	return s.engine.Fit(ctx)
}
