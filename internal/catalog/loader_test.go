// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const booksHeader = "ISBN;Book-Title;Book-Author;Year-Of-Publication;Publisher;Genre;Image-URL-M;Description\n"

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func testSources(t *testing.T, books, ratings, users string) Sources {
	t.Helper()
	dir := t.TempDir()
	return Sources{
		BooksPath:   writeSource(t, dir, "books.csv", books),
		RatingsPath: writeSource(t, dir, "ratings.csv", ratings),
		UsersPath:   writeSource(t, dir, "users.csv", users),
	}
}

func TestLoadNormalizesSentinels(t *testing.T) {
	src := testSources(t,
		booksHeader+
			"b1;;;;;;;\n"+
			"b2;Dune;Frank Herbert;1965;Chilton;Science Fiction;http://img/b2.jpg;Desert planet epic\n",
		"user_id,book_id,rating\n",
		"user_id,location,age\n",
	)

	store, err := Load(src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	b1, ok := store.Book("b1")
	if !ok {
		t.Fatal("expected b1 in catalog")
	}
	if b1.Title != UnknownTitle {
		t.Errorf("expected sentinel title, got %q", b1.Title)
	}
	if b1.Author != UnknownAuthor {
		t.Errorf("expected sentinel author, got %q", b1.Author)
	}
	if b1.Year != UnknownYear {
		t.Errorf("expected sentinel year, got %q", b1.Year)
	}
	if b1.ImageURL != PlaceholderURL {
		t.Errorf("expected placeholder image URL, got %q", b1.ImageURL)
	}
	if b1.Content != UnknownTitle+" "+UnknownAuthor {
		t.Errorf("unexpected content string %q", b1.Content)
	}

	b2, _ := store.Book("b2")
	if b2.Content != "Dune Frank Herbert" {
		t.Errorf("expected content from title and author, got %q", b2.Content)
	}
	if b2.Genre != "Science Fiction" {
		t.Errorf("unexpected genre %q", b2.Genre)
	}
}

func TestLoadToleratesShortBookRows(t *testing.T) {
	// Optional trailing columns absent entirely.
	src := testSources(t,
		"ISBN;Book-Title;Book-Author;Year-Of-Publication\nb1;Dune;Frank Herbert;1965\n",
		"user_id,book_id,rating\n",
		"user_id,location,age\n",
	)

	store, err := Load(src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	b, ok := store.Book("b1")
	if !ok {
		t.Fatal("expected b1 in catalog")
	}
	if b.ImageURL != PlaceholderURL {
		t.Errorf("expected placeholder image URL, got %q", b.ImageURL)
	}
}

func TestLoadDropsOrphanRatings(t *testing.T) {
	src := testSources(t,
		booksHeader+"b1;Dune;Frank Herbert;1965;;;;\n",
		"user_id,book_id,rating\n1,b1,5\n1,ghost,4\n2,ghost,3\n",
		"user_id,location,age\n1,earth,30\n2,arrakis,40\n",
	)

	store, err := Load(src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := len(store.Ratings()); got != 1 {
		t.Errorf("expected 1 surviving rating, got %d", got)
	}
}

func TestLoadDuplicateRatingLatestWins(t *testing.T) {
	src := testSources(t,
		booksHeader+"b1;Dune;Frank Herbert;1965;;;;\n",
		"user_id,book_id,rating\n1,b1,2\n1,b1,5\n",
		"user_id,location,age\n1,earth,30\n",
	)

	store, err := Load(src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rs := store.UserRatings(1)
	if len(rs) != 1 {
		t.Fatalf("expected 1 rating after dedup, got %d", len(rs))
	}
	if rs[0].Score != 5 {
		t.Errorf("expected latest score 5 to win, got %f", rs[0].Score)
	}
}

func TestLoadDuplicateBookFirstWins(t *testing.T) {
	src := testSources(t,
		booksHeader+
			"b1;Dune;Frank Herbert;1965;;;;\n"+
			"b2;Emma;Jane Austen;1815;;;;\n"+
			"b1;Dune Reissue;Frank Herbert;1984;;;;\n",
		"user_id,book_id,rating\n",
		"user_id,location,age\n",
	)

	store, err := Load(src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// A book ID maps to exactly one catalog row, so downstream rankers
	// never score the same ID twice.
	if got := len(store.Books()); got != 2 {
		t.Fatalf("expected 2 books after dedup, got %d", got)
	}
	b1, _ := store.Book("b1")
	if b1.Title != "Dune" {
		t.Errorf("expected first occurrence to win, got title %q", b1.Title)
	}
}

func TestLoadComputesAverageRating(t *testing.T) {
	src := testSources(t,
		booksHeader+
			"b1;Dune;Frank Herbert;1965;;;;\n"+
			"b2;Emma;Jane Austen;1815;;;;\n",
		"user_id,book_id,rating\n1,b1,4\n2,b1,5\n3,b1,3\n",
		"user_id,location,age\n1,,\n2,,\n3,,\n",
	)

	store, err := Load(src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	b1, _ := store.Book("b1")
	if b1.AverageRating != 4.0 {
		t.Errorf("expected average 4.0, got %f", b1.AverageRating)
	}
	b2, _ := store.Book("b2")
	if b2.AverageRating != 0 {
		t.Errorf("unrated book should average 0, got %f", b2.AverageRating)
	}
}

func TestLoadMissingSourceIsDataLoadError(t *testing.T) {
	dir := t.TempDir()
	src := Sources{
		BooksPath:   filepath.Join(dir, "missing.csv"),
		RatingsPath: filepath.Join(dir, "ratings.csv"),
		UsersPath:   filepath.Join(dir, "users.csv"),
	}

	_, err := Load(src)
	if err == nil {
		t.Fatal("expected error for missing books source")
	}
	var dle *DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("expected *DataLoadError, got %T", err)
	}
	if dle.Source != src.BooksPath {
		t.Errorf("expected error to name the books source, got %q", dle.Source)
	}
}

func TestLoadMalformedHeaderIsDataLoadError(t *testing.T) {
	src := testSources(t,
		"ISBN;Book-Title\nb1;Dune\n",
		"user_id,book_id,rating\n",
		"user_id,location,age\n",
	)

	_, err := Load(src)
	var dle *DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("expected *DataLoadError for short header, got %v", err)
	}
}
