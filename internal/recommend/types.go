// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package recommend

import (
	"context"

	"github.com/shelfmark/shelfmark/internal/catalog"
)

// ScoredBook is a book ID with a relevance score. Lists are ordered by
// descending score with ties broken by catalog order.
type ScoredBook struct {
	BookID string  `json:"book_id"`
	Score  float64 `json:"score"`
}

// Algorithm is the contract shared by all recommendation models.
type Algorithm interface {
	// Name returns the algorithm identifier.
	Name() string

	// Train fits the model on the catalog and rating history.
	// Training replaces any previous model state.
	Train(ctx context.Context, books []catalog.Book, ratings []catalog.Rating) error

	// IsTrained returns whether the model has been trained.
	IsTrained() bool
}

// ContentIndex scores books by metadata similarity to a seed book.
type ContentIndex interface {
	Algorithm

	// Similar returns up to k books most similar to the given seed,
	// seed excluded. An unseen seed returns *UnknownBookError.
	Similar(bookID string, k int) ([]ScoredBook, error)
}

// Predictor estimates per-user ratings from the collaborative model.
type Predictor interface {
	Algorithm

	// Predict estimates the rating the user would give the book.
	// It is open-world: unknown users or books fall back toward the
	// global mean and it never errors.
	Predict(userID int, bookID string) float64

	// RecommendForUser returns up to k books with the highest
	// predicted ratings for the user, excluding the given IDs.
	RecommendForUser(userID int, excluded map[string]struct{}, k int) []ScoredBook
}

// Recommendation is one entry of a hybrid result list.
type Recommendation struct {
	Book  catalog.Book `json:"book"`
	Score float64      `json:"score"`
}
