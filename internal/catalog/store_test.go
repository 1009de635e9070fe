// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package catalog

import "testing"

func testStore() *Store {
	books := []Book{
		{ID: "b1", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction"},
		{ID: "b2", Title: "Dune Messiah", Author: "Frank Herbert", Genre: "Science Fiction"},
		{ID: "b3", Title: "Emma", Author: "Jane Austen", Genre: "Romance"},
		{ID: "b4", Title: "Persuasion", Author: "Jane Austen", Genre: "Romance"},
	}
	ratings := []Rating{
		{UserID: 1, BookID: "b1", Score: 5},
		{UserID: 1, BookID: "b3", Score: 3},
		{UserID: 2, BookID: "b3", Score: 4},
		{UserID: 3, BookID: "b1", Score: 4},
		{UserID: 3, BookID: "b2", Score: 4},
	}
	users := []User{{ID: 1}, {ID: 2}, {ID: 3}}
	return newStore(books, ratings, users)
}

func TestHighestRatedBook(t *testing.T) {
	s := testStore()

	id, ok := s.HighestRatedBook(1)
	if !ok || id != "b1" {
		t.Errorf("expected b1 for user 1, got %q ok=%v", id, ok)
	}

	// Tie: earlier rating in file order wins.
	id, ok = s.HighestRatedBook(3)
	if !ok || id != "b1" {
		t.Errorf("expected b1 on tie for user 3, got %q ok=%v", id, ok)
	}

	if _, ok := s.HighestRatedBook(99); ok {
		t.Error("expected no result for user without ratings")
	}
}

func TestRatedBookIDs(t *testing.T) {
	s := testStore()

	set := s.RatedBookIDs(1)
	if len(set) != 2 {
		t.Fatalf("expected 2 rated books for user 1, got %d", len(set))
	}
	if _, ok := set["b1"]; !ok {
		t.Error("expected b1 in user 1's rated set")
	}
	if s.RatedBookIDs(99) != nil {
		t.Error("expected nil set for unknown user")
	}
}

func TestSearch(t *testing.T) {
	s := testStore()

	tests := []struct {
		name  string
		query string
		genre string
		want  []string
	}{
		{"title substring", "dune", "", []string{"b1", "b2"}},
		{"author substring", "austen", "", []string{"b3", "b4"}},
		{"case insensitive", "DUNE", "", []string{"b1", "b2"}},
		{"genre filter intersects", "dune", "Romance", nil},
		{"genre only", "", "Romance", []string{"b3", "b4"}},
		{"no match is empty not error", "zzz", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Search(tt.query, tt.genre)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d results, got %d", len(tt.want), len(got))
			}
			for i, b := range got {
				if b.ID != tt.want[i] {
					t.Errorf("result %d: expected %s, got %s", i, tt.want[i], b.ID)
				}
			}
		})
	}
}

func TestBookOrder(t *testing.T) {
	s := testStore()
	if s.BookOrder("b1") != 0 || s.BookOrder("b4") != 3 {
		t.Error("expected catalog positions to follow file order")
	}
	if s.BookOrder("ghost") != 4 {
		t.Error("unknown IDs should sort after every catalog book")
	}
}
