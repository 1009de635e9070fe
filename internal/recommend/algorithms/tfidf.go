// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package algorithms

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/shelfmark/shelfmark/internal/catalog"
	"github.com/shelfmark/shelfmark/internal/recommend"
)

// TFIDFConfig contains configuration for the content similarity index.
type TFIDFConfig struct {
	// MaxFeatures bounds the vocabulary to the most frequent terms.
	// Default: 5000.
	MaxFeatures int
}

// DefaultTFIDFConfig returns default TF-IDF configuration.
func DefaultTFIDFConfig() TFIDFConfig {
	return TFIDFConfig{MaxFeatures: 5000}
}

// TFIDF is the content similarity index. Each book's content string is
// vectorized with term-frequency × smoothed inverse-document-frequency
// weights and L2-normalized, so the dot product of two rows is their
// cosine similarity.
type TFIDF struct {
	BaseAlgorithm
	config TFIDFConfig

	// vocab maps a term to its feature column.
	vocab map[string]int

	// rows holds one sparse vector per book, in catalog order.
	rows []sparseVector

	// bookRow maps a book ID to its row.
	bookRow map[string]int

	// bookIDs maps a row back to its book ID.
	bookIDs []string
}

// sparseVector maps feature column to weight. Only non-zero entries
// are stored.
type sparseVector map[int]float64

// NewTFIDF creates a new content similarity index.
func NewTFIDF(cfg TFIDFConfig) *TFIDF {
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = 5000
	}
	return &TFIDF{
		BaseAlgorithm: NewBaseAlgorithm("tfidf"),
		config:        cfg,
	}
}

// Train builds the index over the catalog. Ratings are unused: the
// content model only sees book metadata.
func (t *TFIDF) Train(ctx context.Context, books []catalog.Book, _ []catalog.Rating) error {
	t.acquireTrainLock()
	defer t.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	docs := make([][]string, len(books))
	docFreq := make(map[string]int)
	for i, b := range books {
		docs[i] = tokenize(b.Content)
		for _, term := range uniqueTerms(docs[i]) {
			docFreq[term]++
		}
	}

	t.vocab = selectVocabulary(docFreq, t.config.MaxFeatures)

	// Smoothed IDF: ln((1+N)/(1+df)) + 1. Every selected term keeps a
	// positive weight even when it appears in all documents.
	n := float64(len(books))
	idf := make([]float64, len(t.vocab))
	for term, col := range t.vocab {
		idf[col] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	t.rows = make([]sparseVector, len(books))
	t.bookRow = make(map[string]int, len(books))
	t.bookIDs = make([]string, len(books))
	for i, b := range books {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}

		vec := make(sparseVector)
		for _, term := range docs[i] {
			if col, ok := t.vocab[term]; ok {
				vec[col] += idf[col]
			}
		}
		normalize(vec)
		t.rows[i] = vec
		t.bookRow[b.ID] = i
		t.bookIDs[i] = b.ID
	}

	t.markTrained()
	return nil
}

// Similar returns up to k books by cosine similarity to the seed, seed
// excluded, ties broken by catalog order. Books with zero similarity are
// never returned, so a seed with an empty vector matches nothing.
func (t *TFIDF) Similar(bookID string, k int) ([]recommend.ScoredBook, error) {
	t.acquirePredictLock()
	defer t.releasePredictLock()

	if !t.trained {
		return nil, recommend.ErrNotTrained
	}

	seed, ok := t.bookRow[bookID]
	if !ok {
		return nil, &recommend.UnknownBookError{BookID: bookID}
	}
	if k <= 0 {
		return nil, nil
	}

	seedVec := t.rows[seed]
	scored := make([]recommend.ScoredBook, 0, k)
	for row, vec := range t.rows {
		if row == seed {
			continue
		}
		score := dotSparse(seedVec, vec)
		if score <= 0 {
			continue
		}
		scored = append(scored, recommend.ScoredBook{BookID: t.bookIDs[row], Score: score})
	}

	// Rows were visited in catalog order; a stable sort keeps that
	// order as the tiebreak.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// tokenize lower-cases and splits on non-alphanumeric runes, dropping
// stop words and single-character tokens.
func tokenize(content string) []string {
	content = strings.ToLower(content)
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := englishStopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// selectVocabulary keeps the maxFeatures terms with the highest document
// frequency. Ties are broken alphabetically so the vocabulary is
// deterministic for a given corpus.
func selectVocabulary(docFreq map[string]int, maxFeatures int) map[string]int {
	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if docFreq[terms[i]] != docFreq[terms[j]] {
			return docFreq[terms[i]] > docFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}

	// Columns in alphabetical order of the surviving terms.
	sort.Strings(terms)
	vocab := make(map[string]int, len(terms))
	for col, term := range terms {
		vocab[term] = col
	}
	return vocab
}

// normalize scales the vector to unit L2 norm in place.
func normalize(vec sparseVector) {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for col := range vec {
		vec[col] /= norm
	}
}

// dotSparse computes the dot product of two sparse vectors, iterating
// the smaller one.
func dotSparse(a, b sparseVector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for col, w := range a {
		if bw, ok := b[col]; ok {
			dot += w * bw
		}
	}
	return dot
}
