// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/catalog"
	"github.com/shelfmark/shelfmark/internal/metrics"
)

// Model is one immutable trained snapshot: a fitted content index and a
// fitted collaborative predictor, published together. Queries read a
// whole snapshot, so a refit can never mix old and new model halves.
type Model struct {
	Content   ContentIndex
	Predictor Predictor
	Version   int
	TrainedAt time.Time
}

// Engine blends content and collaborative candidates into a single
// ranked list. It is safe for concurrent use: queries are lock-free
// reads of the current snapshot, and at most one refit runs at a time.
type Engine struct {
	store  *catalog.Store
	config Config
	logger zerolog.Logger

	// newContent and newPredictor build fresh untrained models for
	// each refit.
	newContent   func() ContentIndex
	newPredictor func() Predictor

	model   atomic.Pointer[Model]
	trainMu sync.Mutex
}

// NewEngine creates a new hybrid engine. The factories are invoked on
// every Fit so each snapshot is built from scratch.
func NewEngine(store *catalog.Store, cfg Config, newContent func() ContentIndex, newPredictor func() Predictor, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if newContent == nil || newPredictor == nil {
		return nil, fmt.Errorf("model factories are required")
	}

	return &Engine{
		store:        store,
		config:       cfg,
		logger:       logger.With().Str("component", "engine").Logger(),
		newContent:   newContent,
		newPredictor: newPredictor,
	}, nil
}

// Model returns the current snapshot, or nil before the first fit.
func (e *Engine) Model() *Model {
	return e.model.Load()
}

// Fit trains a fresh snapshot and atomically publishes it. Only one fit
// runs at a time; a concurrent call returns ErrTrainingInProgress.
// Queries keep serving the previous snapshot until the swap.
func (e *Engine) Fit(ctx context.Context) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	start := time.Now()
	books := e.store.Books()
	ratings := e.store.Ratings()

	content := e.newContent()
	predictor := e.newPredictor()

	var wg sync.WaitGroup
	var contentErr, predictErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		contentErr = content.Train(ctx, books, ratings)
	}()
	go func() {
		defer wg.Done()
		predictErr = predictor.Train(ctx, books, ratings)
	}()
	wg.Wait()

	if contentErr != nil {
		return fmt.Errorf("training %s: %w", content.Name(), contentErr)
	}
	if predictErr != nil {
		return fmt.Errorf("training %s: %w", predictor.Name(), predictErr)
	}

	version := 1
	if prev := e.model.Load(); prev != nil {
		version = prev.Version + 1
	}
	e.model.Store(&Model{
		Content:   content,
		Predictor: predictor,
		Version:   version,
		TrainedAt: time.Now(),
	})

	if h, ok := predictor.(interface{ HoldoutRMSE() (float64, int) }); ok {
		if rmse, n := h.HoldoutRMSE(); n > 0 {
			metrics.ModelHoldoutRMSE.Set(rmse)
		}
	}

	e.logger.Info().
		Int("version", version).
		Int("books", len(books)).
		Int("ratings", len(ratings)).
		Dur("duration", time.Since(start)).
		Msg("Model snapshot published")

	return nil
}

// Recommend returns up to k books for the user, blending content
// candidates seeded at seedBookID with collaborative candidates.
// Books in excluded never appear. Zero weights fall back to the
// engine defaults; k <= 0 falls back to DefaultK.
//
// A seed absent from the content index degrades to a purely
// collaborative result rather than failing.
func (e *Engine) Recommend(ctx context.Context, userID int, seedBookID string, excluded map[string]struct{}, k int, weights Weights) ([]ScoredBook, error) {
	m := e.model.Load()
	if m == nil {
		return nil, ErrNotTrained
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if k <= 0 {
		k = e.config.DefaultK
	}
	if k > e.config.MaxK {
		k = e.config.MaxK
	}
	if weights.Content+weights.Collaborative <= 0 {
		weights = e.config.Weights
	}
	w := weights.normalized()

	// Over-fetch so the blend still fills k slots after overlap.
	fetch := 2 * k

	var (
		wg          sync.WaitGroup
		contentList []ScoredBook
		contentErr  error
		collabList  []ScoredBook
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		contentList, contentErr = m.Content.Similar(seedBookID, fetch)
	}()
	go func() {
		defer wg.Done()
		collabList = m.Predictor.RecommendForUser(userID, excluded, fetch)
	}()
	wg.Wait()

	if contentErr != nil {
		var unknown *UnknownBookError
		if !errors.As(contentErr, &unknown) {
			return nil, &InternalScoringError{Err: contentErr}
		}
		e.logger.Debug().
			Str("book_id", seedBookID).
			Msg("Seed not in content index, serving collaborative only")
		contentList = nil
	}

	// Rank-decay blend: position i in a list of n contributes
	// weight * (1 - i/n), so both sources are compared on rank
	// rather than on incomparable raw scores.
	scores := make(map[string]float64, len(contentList)+len(collabList))
	for i, sb := range contentList {
		if _, skip := excluded[sb.BookID]; skip {
			continue
		}
		scores[sb.BookID] += w.Content * (1 - float64(i)/float64(len(contentList)))
	}
	for i, sb := range collabList {
		scores[sb.BookID] += w.Collaborative * (1 - float64(i)/float64(len(collabList)))
	}
	delete(scores, seedBookID)

	ranked := make([]ScoredBook, 0, len(scores))
	for id, score := range scores {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return nil, &InternalScoringError{Err: fmt.Errorf("non-finite score for book %q", id)}
		}
		ranked = append(ranked, ScoredBook{BookID: id, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return e.store.BookOrder(ranked[i].BookID) < e.store.BookOrder(ranked[j].BookID)
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, nil
}
