// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package catalog

import "strings"

// Store is the loaded catalog. It is immutable after construction and
// safe for concurrent readers without locking.
type Store struct {
	books     []Book
	bookIndex map[string]int
	ratings   []Rating
	users     []User
	userIndex map[int]int

	// byUser holds each user's ratings in file order.
	byUser map[int][]Rating
	// ratedBy holds each user's rated-book ID set.
	ratedBy map[int]map[string]struct{}
}

// NewStore builds a Store from already-normalized records. Load is the
// usual entry point; NewStore exists for callers that assemble records
// themselves, such as tests.
func NewStore(books []Book, ratings []Rating, users []User) *Store {
	return newStore(books, ratings, users)
}

func newStore(books []Book, ratings []Rating, users []User) *Store {
	s := &Store{
		books:     books,
		bookIndex: make(map[string]int, len(books)),
		ratings:   ratings,
		users:     users,
		userIndex: make(map[int]int, len(users)),
		byUser:    make(map[int][]Rating),
		ratedBy:   make(map[int]map[string]struct{}),
	}
	for i, b := range books {
		s.bookIndex[b.ID] = i
	}
	for i, u := range users {
		s.userIndex[u.ID] = i
	}

	sums := make(map[string]float64, len(books))
	counts := make(map[string]int, len(books))
	for _, r := range ratings {
		s.byUser[r.UserID] = append(s.byUser[r.UserID], r)
		set, ok := s.ratedBy[r.UserID]
		if !ok {
			set = make(map[string]struct{})
			s.ratedBy[r.UserID] = set
		}
		set[r.BookID] = struct{}{}
		sums[r.BookID] += r.Score
		counts[r.BookID]++
	}
	for id, n := range counts {
		s.books[s.bookIndex[id]].AverageRating = sums[id] / float64(n)
	}

	return s
}

// Book returns the book with the given ID, or false if it is not in
// the catalog.
func (s *Store) Book(id string) (Book, bool) {
	i, ok := s.bookIndex[id]
	if !ok {
		return Book{}, false
	}
	return s.books[i], true
}

// Books returns all catalog books in file order. Callers must not
// mutate the returned slice.
func (s *Store) Books() []Book {
	return s.books
}

// BookOrder returns the catalog position of the given book ID, used as
// a deterministic tiebreak. Unknown IDs sort last.
func (s *Store) BookOrder(id string) int {
	if i, ok := s.bookIndex[id]; ok {
		return i
	}
	return len(s.books)
}

// Ratings returns all surviving rating triples in file order.
func (s *Store) Ratings() []Rating {
	return s.ratings
}

// Users returns all users in file order.
func (s *Store) Users() []User {
	return s.users
}

// User returns the user with the given ID, or false if unknown.
func (s *Store) User(id int) (User, bool) {
	i, ok := s.userIndex[id]
	if !ok {
		return User{}, false
	}
	return s.users[i], true
}

// UserRatings returns the user's ratings in file order, nil when the
// user has rated nothing.
func (s *Store) UserRatings(userID int) []Rating {
	return s.byUser[userID]
}

// RatedBookIDs returns the set of book IDs the user has rated. The
// returned map is shared and must not be mutated; nil means no ratings.
func (s *Store) RatedBookIDs(userID int) map[string]struct{} {
	return s.ratedBy[userID]
}

// HighestRatedBook returns the ID of the user's highest-rated book,
// with ties going to the earlier rating in file order. Returns false
// when the user has no ratings.
func (s *Store) HighestRatedBook(userID int) (string, bool) {
	rs := s.byUser[userID]
	if len(rs) == 0 {
		return "", false
	}
	best := rs[0]
	for _, r := range rs[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best.BookID, true
}

// Search returns books whose title or author contains the query
// (case-insensitive substring), optionally intersected with an exact
// genre match, in catalog order. An empty result is a valid match set.
func (s *Store) Search(query, genre string) []Book {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Book
	for _, b := range s.books {
		if q != "" &&
			!strings.Contains(strings.ToLower(b.Title), q) &&
			!strings.Contains(strings.ToLower(b.Author), q) {
			continue
		}
		if genre != "" && b.Genre != genre {
			continue
		}
		out = append(out, b)
	}
	return out
}
