// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shelfmark/shelfmark/internal/logging"
)

// DataLoadError reports an unreadable or structurally invalid data source.
// It is fatal at startup: the service never runs on a partial catalog.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("catalog: failed to load %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// Sources names the three CSV files the catalog is built from.
type Sources struct {
	BooksPath   string
	RatingsPath string
	UsersPath   string
}

// Load reads the books, ratings, and users sources and returns the
// immutable Store. Any unreadable source or missing required column
// returns a *DataLoadError; malformed or orphaned individual rows are
// dropped with a warning instead.
func Load(src Sources) (*Store, error) {
	logger := logging.With().Str("component", "catalog").Logger()

	books, err := loadBooks(src.BooksPath)
	if err != nil {
		return nil, &DataLoadError{Source: src.BooksPath, Err: err}
	}

	users, err := loadUsers(src.UsersPath)
	if err != nil {
		return nil, &DataLoadError{Source: src.UsersPath, Err: err}
	}

	bookIndex := make(map[string]int, len(books))
	for i, b := range books {
		bookIndex[b.ID] = i
	}

	ratings, dropped, err := loadRatings(src.RatingsPath, bookIndex)
	if err != nil {
		return nil, &DataLoadError{Source: src.RatingsPath, Err: err}
	}
	if dropped > 0 {
		logger.Warn().
			Int("dropped", dropped).
			Str("source", src.RatingsPath).
			Msg("Dropped ratings referencing unknown books")
	}

	store := newStore(books, ratings, users)

	logger.Info().
		Int("books", len(books)).
		Int("ratings", len(ratings)).
		Int("users", len(users)).
		Msg("Catalog loaded")

	return store, nil
}

// Book columns in the ';'-separated books source. Publisher, Genre,
// Image-URL-M, and Description are optional trailing columns.
const (
	colISBN = iota
	colTitle
	colAuthor
	colYear
	colPublisher
	colGenre
	colImageURL
	colDescription
)

func loadBooks(path string) ([]Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1 // trailing optional columns vary
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) < 4 {
		return nil, fmt.Errorf("expected at least 4 columns (ISBN;Book-Title;Book-Author;Year-Of-Publication), got %d", len(header))
	}

	var (
		books      []Book
		seen       = make(map[string]struct{})
		dropped    int
		duplicates int
	)
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id := strings.TrimSpace(field(rec, colISBN))
		if id == "" {
			dropped++
			continue
		}
		// Duplicate ISBNs keep the first occurrence, so a book ID maps
		// to exactly one catalog row.
		if _, ok := seen[id]; ok {
			duplicates++
			continue
		}
		seen[id] = struct{}{}

		b := Book{
			ID:          id,
			Title:       orDefault(field(rec, colTitle), UnknownTitle),
			Author:      orDefault(field(rec, colAuthor), UnknownAuthor),
			Year:        orDefault(field(rec, colYear), UnknownYear),
			Publisher:   strings.TrimSpace(field(rec, colPublisher)),
			Genre:       orDefault(field(rec, colGenre), UnknownGenre),
			ImageURL:    orDefault(field(rec, colImageURL), PlaceholderURL),
			Description: strings.TrimSpace(field(rec, colDescription)),
		}
		b.Content = b.Title + " " + b.Author
		books = append(books, b)
	}

	if dropped > 0 || duplicates > 0 {
		logging.Warn().
			Str("component", "catalog").
			Int("missing_isbn", dropped).
			Int("duplicate_isbn", duplicates).
			Str("source", path).
			Msg("Dropped invalid book rows")
	}

	return books, nil
}

// loadRatings reads `user_id,book_id,rating` triples. Triples referencing
// a book outside the catalog are dropped and counted. Duplicate
// (user, book) pairs keep the latest occurrence in file order.
func loadRatings(path string, bookIndex map[string]int) ([]Rating, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	if _, err := r.Read(); err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}

	type key struct {
		user int
		book string
	}
	var (
		ratings []Rating
		seen    = make(map[key]int) // (user, book) -> index into ratings
		dropped int
	)
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}

		userID, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			dropped++
			continue
		}
		bookID := strings.TrimSpace(rec[1])
		score, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			dropped++
			continue
		}

		if _, ok := bookIndex[bookID]; !ok {
			dropped++
			continue
		}

		k := key{user: userID, book: bookID}
		if idx, ok := seen[k]; ok {
			// Latest occurrence wins.
			ratings[idx].Score = score
			continue
		}
		seen[k] = len(ratings)
		ratings = append(ratings, Rating{UserID: userID, BookID: bookID, Score: score})
	}

	return ratings, dropped, nil
}

func loadUsers(path string) ([]User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var users []User
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) < 1 {
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			continue
		}
		u := User{ID: id}
		if len(rec) > 1 {
			u.Location = strings.TrimSpace(rec[1])
		}
		if len(rec) > 2 {
			if age, err := strconv.Atoi(strings.TrimSpace(rec[2])); err == nil {
				u.Age = age
			}
		}
		users = append(users, u)
	}

	return users, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
