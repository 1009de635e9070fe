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
	"testing"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/catalog"
)

// fakeContent serves a canned similarity list and records the seed it
// was asked about.
type fakeContent struct {
	list     []ScoredBook
	err      error
	trained  bool
	lastSeed string
	block    chan struct{} // when set, Train waits until closed
	started  chan struct{} // when set, closed once Train begins
}

func (f *fakeContent) Name() string { return "fake-content" }

func (f *fakeContent) Train(ctx context.Context, _ []catalog.Book, _ []catalog.Rating) error {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	f.trained = true
	return nil
}

func (f *fakeContent) IsTrained() bool { return f.trained }

func (f *fakeContent) Similar(bookID string, k int) ([]ScoredBook, error) {
	f.lastSeed = bookID
	if f.err != nil {
		return nil, f.err
	}
	list := f.list
	if len(list) > k {
		list = list[:k]
	}
	return list, nil
}

// fakePredictor serves a canned ranking and records the exclusion set.
type fakePredictor struct {
	list         []ScoredBook
	trained      bool
	lastExcluded map[string]struct{}
}

func (f *fakePredictor) Name() string { return "fake-predictor" }

func (f *fakePredictor) Train(ctx context.Context, _ []catalog.Book, _ []catalog.Rating) error {
	f.trained = true
	return nil
}

func (f *fakePredictor) IsTrained() bool { return f.trained }

func (f *fakePredictor) Predict(int, string) float64 { return 0 }

func (f *fakePredictor) RecommendForUser(_ int, excluded map[string]struct{}, k int) []ScoredBook {
	f.lastExcluded = excluded
	out := make([]ScoredBook, 0, len(f.list))
	for _, sb := range f.list {
		if _, skip := excluded[sb.BookID]; skip {
			continue
		}
		out = append(out, sb)
		if len(out) == k {
			break
		}
	}
	return out
}

func engineStore() *catalog.Store {
	return catalog.NewStore(
		[]catalog.Book{
			{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "seed"},
		},
		[]catalog.Rating{
			{UserID: 1, BookID: "seed", Score: 5},
		},
		[]catalog.User{{ID: 1}},
	)
}

func newTestEngine(t *testing.T, content *fakeContent, predictor *fakePredictor, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(engineStore(), cfg,
		func() ContentIndex { return content },
		func() Predictor { return predictor },
		zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func fitTestEngine(t *testing.T, content *fakeContent, predictor *fakePredictor, cfg Config) *Engine {
	t.Helper()
	e := newTestEngine(t, content, predictor, cfg)
	if err := e.Fit(context.Background()); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return e
}

func TestRecommendBeforeFit(t *testing.T) {
	e := newTestEngine(t, &fakeContent{}, &fakePredictor{}, DefaultConfig())
	if _, err := e.Recommend(context.Background(), 1, "seed", nil, 5, Weights{}); !errors.Is(err, ErrNotTrained) {
		t.Errorf("expected ErrNotTrained, got %v", err)
	}
}

func TestRecommendRankDecayBlend(t *testing.T) {
	content := &fakeContent{list: []ScoredBook{{BookID: "a", Score: 0.9}, {BookID: "b", Score: 0.5}}}
	collab := &fakePredictor{list: []ScoredBook{{BookID: "b", Score: 4.8}, {BookID: "c", Score: 4.1}}}
	cfg := DefaultConfig()
	cfg.Weights = Weights{Content: 0.5, Collaborative: 0.5}
	e := fitTestEngine(t, content, collab, cfg)

	got, err := e.Recommend(context.Background(), 1, "seed", nil, 3, Weights{})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	// Content list of 2: a=0.5*1.0, b=0.5*0.5. Collaborative list of 2:
	// b=0.5*1.0, c=0.5*0.5. So b=0.75, a=0.5, c=0.25.
	want := []ScoredBook{
		{BookID: "b", Score: 0.75},
		{BookID: "a", Score: 0.5},
		{BookID: "c", Score: 0.25},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].BookID != want[i].BookID {
			t.Errorf("position %d: expected %s, got %s", i, want[i].BookID, got[i].BookID)
		}
		if math.Abs(got[i].Score-want[i].Score) > 1e-9 {
			t.Errorf("position %d: expected score %f, got %f", i, want[i].Score, got[i].Score)
		}
	}
}

func TestRecommendTiesBreakByCatalogOrder(t *testing.T) {
	// d and a tie on rank-decay score; a comes first in the catalog.
	content := &fakeContent{list: []ScoredBook{{BookID: "d", Score: 0.9}}}
	collab := &fakePredictor{list: []ScoredBook{{BookID: "a", Score: 4.8}}}
	cfg := DefaultConfig()
	cfg.Weights = Weights{Content: 0.5, Collaborative: 0.5}
	e := fitTestEngine(t, content, collab, cfg)

	got, err := e.Recommend(context.Background(), 1, "seed", nil, 2, Weights{})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(got) != 2 || got[0].BookID != "a" || got[1].BookID != "d" {
		t.Errorf("expected catalog-order tiebreak [a d], got %+v", got)
	}
}

func TestRecommendNeverPads(t *testing.T) {
	content := &fakeContent{list: []ScoredBook{{BookID: "a", Score: 0.9}}}
	collab := &fakePredictor{}
	e := fitTestEngine(t, content, collab, DefaultConfig())

	got, err := e.Recommend(context.Background(), 1, "seed", nil, 10, Weights{})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 result with no padding, got %d", len(got))
	}
}

func TestRecommendUnknownSeedDegrades(t *testing.T) {
	content := &fakeContent{err: &UnknownBookError{BookID: "ghost"}}
	collab := &fakePredictor{list: []ScoredBook{{BookID: "a", Score: 4.8}, {BookID: "b", Score: 4.1}}}
	e := fitTestEngine(t, content, collab, DefaultConfig())

	got, err := e.Recommend(context.Background(), 1, "ghost", nil, 5, Weights{})
	if err != nil {
		t.Fatalf("expected graceful degradation, got %v", err)
	}
	if len(got) != 2 || got[0].BookID != "a" {
		t.Errorf("expected pure collaborative results, got %+v", got)
	}
}

func TestRecommendInternalError(t *testing.T) {
	content := &fakeContent{err: fmt.Errorf("index corrupted")}
	e := fitTestEngine(t, content, &fakePredictor{}, DefaultConfig())

	_, err := e.Recommend(context.Background(), 1, "seed", nil, 5, Weights{})
	var ise *InternalScoringError
	if !errors.As(err, &ise) {
		t.Errorf("expected *InternalScoringError, got %v", err)
	}
}

func TestRecommendExcludesSeedAndExcludedSet(t *testing.T) {
	content := &fakeContent{list: []ScoredBook{{BookID: "seed", Score: 1}, {BookID: "a", Score: 0.9}, {BookID: "b", Score: 0.8}}}
	collab := &fakePredictor{list: []ScoredBook{{BookID: "c", Score: 4.8}}}
	e := fitTestEngine(t, content, collab, DefaultConfig())

	excluded := map[string]struct{}{"b": {}}
	got, err := e.Recommend(context.Background(), 1, "seed", excluded, 5, Weights{})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	for _, sb := range got {
		if sb.BookID == "seed" || sb.BookID == "b" {
			t.Errorf("excluded book %s in results", sb.BookID)
		}
	}
}

func TestRecommendRespectsMaxK(t *testing.T) {
	var list []ScoredBook
	for i := 0; i < 10; i++ {
		list = append(list, ScoredBook{BookID: fmt.Sprintf("x%d", i), Score: float64(10 - i)})
	}
	collab := &fakePredictor{list: list}
	cfg := DefaultConfig()
	cfg.DefaultK = 2
	cfg.MaxK = 3
	e := fitTestEngine(t, &fakeContent{}, collab, cfg)

	got, err := e.Recommend(context.Background(), 1, "seed", nil, 100, Weights{})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected MaxK=3 results, got %d", len(got))
	}

	got, err = e.Recommend(context.Background(), 1, "seed", nil, 0, Weights{})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected DefaultK=2 results, got %d", len(got))
	}
}

func TestFitPublishesSnapshotAtomically(t *testing.T) {
	content := &fakeContent{}
	e := newTestEngine(t, content, &fakePredictor{}, DefaultConfig())

	if e.Model() != nil {
		t.Fatal("expected no snapshot before first fit")
	}
	if err := e.Fit(context.Background()); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	m := e.Model()
	if m == nil || m.Version != 1 {
		t.Fatalf("expected snapshot version 1, got %+v", m)
	}
	if err := e.Fit(context.Background()); err != nil {
		t.Fatalf("second Fit failed: %v", err)
	}
	if got := e.Model().Version; got != 2 {
		t.Errorf("expected version 2 after refit, got %d", got)
	}
}

func TestFitRejectsConcurrentTraining(t *testing.T) {
	content := &fakeContent{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	e := newTestEngine(t, content, &fakePredictor{}, DefaultConfig())

	done := make(chan error, 1)
	go func() { done <- e.Fit(context.Background()) }()
	<-content.started

	if err := e.Fit(context.Background()); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("expected ErrTrainingInProgress, got %v", err)
	}

	close(content.block)
	if err := <-done; err != nil {
		t.Errorf("first Fit failed: %v", err)
	}
}
