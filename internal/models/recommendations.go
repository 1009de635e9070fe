// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package models

import "time"

// BookSummary is the catalog view returned to clients.
type BookSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Genre         string  `json:"genre"`
	Year          string  `json:"year"`
	AverageRating float64 `json:"average_rating"`
	ImageURL      string  `json:"image_url"`
	Description   string  `json:"description,omitempty"`
}

// RecommendationEntry is one ranked result.
type RecommendationEntry struct {
	Book  BookSummary `json:"book"`
	Score float64     `json:"score"`
}

// RecommendationsResponse is the payload of the recommendations endpoint.
type RecommendationsResponse struct {
	UserID          int                   `json:"user_id"`
	SeedBookID      string                `json:"seed_book_id,omitempty"`
	Recommendations []RecommendationEntry `json:"recommendations"`
}

// SearchResponse is the payload of the book search endpoint.
type SearchResponse struct {
	Query   string        `json:"query"`
	Genre   string        `json:"genre,omitempty"`
	Total   int           `json:"total"`
	Results []BookSummary `json:"results"`
}

// TrainingStatusResponse describes the live model snapshot.
type TrainingStatusResponse struct {
	Trained      bool      `json:"trained"`
	ModelVersion int       `json:"model_version"`
	TrainedAt    time.Time `json:"trained_at,omitempty"`
	HoldoutRMSE  float64   `json:"holdout_rmse,omitempty"`
	Books        int       `json:"books"`
	Ratings      int       `json:"ratings"`
	Users        int       `json:"users"`
}
