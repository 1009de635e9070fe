// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package catalog

// Sentinel values substituted for missing catalog fields during load.
const (
	UnknownTitle   = "Unknown Title"
	UnknownAuthor  = "Unknown Author"
	UnknownYear    = "N/A"
	PlaceholderURL = "https://via.placeholder.com/150"
	UnknownGenre   = "Unknown"
)

// Book is a single catalog entry after normalization.
type Book struct {
	// ID is the ISBN and the stable identifier across the system.
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`

	// Year is kept as a string: source data mixes integers with
	// free-form values, and "N/A" marks a missing year.
	Year      string `json:"year"`
	Publisher string `json:"publisher,omitempty"`

	// AverageRating is the mean of the surviving ratings for this book,
	// 0 when the book has never been rated.
	AverageRating float64 `json:"average_rating"`

	ImageURL    string `json:"image_url"`
	Description string `json:"description,omitempty"`

	// Content is the text the similarity index is built over:
	// title and author joined by a single space.
	Content string `json:"-"`
}

// Rating is one user's score for one book on the 1-5 scale.
type Rating struct {
	UserID int     `json:"user_id"`
	BookID string  `json:"book_id"`
	Score  float64 `json:"score"`
}

// User is a member of the rating population.
type User struct {
	ID       int    `json:"id"`
	Location string `json:"location,omitempty"`
	Age      int    `json:"age,omitempty"`
}
