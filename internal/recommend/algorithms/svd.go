// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package algorithms

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/shelfmark/shelfmark/internal/catalog"
	"github.com/shelfmark/shelfmark/internal/logging"
	"github.com/shelfmark/shelfmark/internal/recommend"
)

// SVDConfig contains configuration for the collaborative predictor.
type SVDConfig struct {
	// Factors is the dimension of the latent factor vectors.
	// Default: 100.
	Factors int

	// Epochs is the number of SGD passes over the training ratings.
	// Default: 20.
	Epochs int

	// LearningRate is the SGD step size.
	// Default: 0.005.
	LearningRate float64

	// Regularization is the L2 regularization parameter.
	// Default: 0.02.
	Regularization float64

	// HoldoutFraction of ratings is reserved for offline RMSE
	// evaluation and never trained on. Default: 0.2.
	HoldoutFraction float64

	// Seed for reproducible training. If 0, uses a default seed.
	Seed int64
}

// DefaultSVDConfig returns default SVD configuration.
func DefaultSVDConfig() SVDConfig {
	return SVDConfig{
		Factors:         100,
		Epochs:          20,
		LearningRate:    0.005,
		Regularization:  0.02,
		HoldoutFraction: 0.2,
		Seed:            42,
	}
}

// SVD is a biased latent-factor rating predictor trained with stochastic
// gradient descent (Funk-SVD):
//
//	r̂(u,i) = μ + b_u + b_i + p_u · q_i
//
// Prediction is open-world: unknown users or books fall back to whatever
// biases are known, down to the global mean.
type SVD struct {
	BaseAlgorithm
	config SVDConfig

	globalMean float64

	// userIndex maps user ID to factor row; itemIndex maps book ID to
	// factor row. Items cover the whole catalog so every book can be
	// scored; users cover the training ratings only.
	userIndex map[int]int
	itemIndex map[string]int

	// bookIDs maps item row back to book ID, in catalog order.
	bookIDs []string

	userBias []float64
	itemBias []float64

	userFactors [][]float64
	itemFactors [][]float64

	// holdoutRMSE is the root-mean-square error on the held-out
	// ratings of the last training run; 0 when no holdout was taken.
	holdoutRMSE float64
	holdoutSize int
}

// NewSVD creates a new collaborative predictor with the given configuration.
func NewSVD(cfg SVDConfig) *SVD {
	if cfg.Factors <= 0 {
		cfg.Factors = 100
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 20
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.005
	}
	if cfg.Regularization <= 0 {
		cfg.Regularization = 0.02
	}
	if cfg.HoldoutFraction < 0 || cfg.HoldoutFraction >= 1 {
		cfg.HoldoutFraction = 0.2
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	return &SVD{
		BaseAlgorithm: NewBaseAlgorithm("svd"),
		config:        cfg,
	}
}

// Train fits the model. For a fixed seed and input order, training is
// fully deterministic.
//
//nolint:gocyclo // SGD training loops are inherently long
func (s *SVD) Train(ctx context.Context, books []catalog.Book, ratings []catalog.Rating) error {
	s.acquireTrainLock()
	defer s.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	//nolint:gosec // G404: math/rand is fine for model training, not security
	rng := rand.New(rand.NewSource(s.config.Seed))

	// Deterministic split: shuffle a copy, reserve the tail as holdout.
	shuffled := make([]catalog.Rating, len(ratings))
	copy(shuffled, ratings)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	holdoutSize := int(float64(len(shuffled)) * s.config.HoldoutFraction)
	train := shuffled[:len(shuffled)-holdoutSize]
	holdout := shuffled[len(shuffled)-holdoutSize:]

	// Items span the whole catalog, so cold books still get a row and
	// the predictor can score any catalog entry.
	s.itemIndex = make(map[string]int, len(books))
	s.bookIDs = make([]string, len(books))
	for i, b := range books {
		s.itemIndex[b.ID] = i
		s.bookIDs[i] = b.ID
	}

	s.userIndex = make(map[int]int)
	for _, r := range train {
		if _, ok := s.userIndex[r.UserID]; !ok {
			s.userIndex[r.UserID] = len(s.userIndex)
		}
	}

	numUsers := len(s.userIndex)
	numItems := len(books)
	numFactors := s.config.Factors

	var mean float64
	for _, r := range train {
		mean += r.Score
	}
	if len(train) > 0 {
		mean /= float64(len(train))
	}
	s.globalMean = mean

	s.userBias = make([]float64, numUsers)
	s.itemBias = make([]float64, numItems)

	s.userFactors = make([][]float64, numUsers)
	for u := range s.userFactors {
		s.userFactors[u] = make([]float64, numFactors)
		for f := 0; f < numFactors; f++ {
			s.userFactors[u][f] = rng.NormFloat64() * 0.1
		}
	}
	s.itemFactors = make([][]float64, numItems)
	for i := range s.itemFactors {
		s.itemFactors[i] = make([]float64, numFactors)
		for f := 0; f < numFactors; f++ {
			s.itemFactors[i][f] = rng.NormFloat64() * 0.1
		}
	}

	if len(train) == 0 {
		s.holdoutRMSE = 0
		s.holdoutSize = 0
		s.markTrained()
		return nil
	}

	lr := s.config.LearningRate
	reg := s.config.Regularization

	order := make([]int, len(train))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < s.config.Epochs; epoch++ {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}

		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for _, idx := range order {
			r := train[idx]
			u := s.userIndex[r.UserID]
			i := s.itemIndex[r.BookID]

			var dot float64
			for f := 0; f < numFactors; f++ {
				dot += s.userFactors[u][f] * s.itemFactors[i][f]
			}
			pred := s.globalMean + s.userBias[u] + s.itemBias[i] + dot
			err := r.Score - pred

			s.userBias[u] += lr * (err - reg*s.userBias[u])
			s.itemBias[i] += lr * (err - reg*s.itemBias[i])
			for f := 0; f < numFactors; f++ {
				puf := s.userFactors[u][f]
				qif := s.itemFactors[i][f]
				s.userFactors[u][f] += lr * (err*qif - reg*puf)
				s.itemFactors[i][f] += lr * (err*puf - reg*qif)
			}
		}
	}

	s.holdoutSize = len(holdout)
	s.holdoutRMSE = s.evaluate(holdout)
	if s.holdoutSize > 0 {
		logging.Info().
			Str("component", "svd").
			Float64("rmse", s.holdoutRMSE).
			Int("holdout", s.holdoutSize).
			Int("train", len(train)).
			Int("factors", numFactors).
			Int("epochs", s.config.Epochs).
			Msg("Collaborative model trained")
	}

	s.markTrained()
	return nil
}

// evaluate computes RMSE over the given ratings.
// Must be called while holding a lock.
func (s *SVD) evaluate(ratings []catalog.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sse float64
	for _, r := range ratings {
		diff := r.Score - s.predict(r.UserID, r.BookID)
		sse += diff * diff
	}
	return math.Sqrt(sse / float64(len(ratings)))
}

// HoldoutRMSE returns the offline evaluation error of the last training
// run and the holdout size it was computed over.
func (s *SVD) HoldoutRMSE() (float64, int) {
	s.acquirePredictLock()
	defer s.releasePredictLock()
	return s.holdoutRMSE, s.holdoutSize
}

// Predict estimates the rating the user would give the book. The
// estimate is unclamped. Unknown users or books degrade gracefully:
// missing terms are simply omitted, down to the global mean.
func (s *SVD) Predict(userID int, bookID string) float64 {
	s.acquirePredictLock()
	defer s.releasePredictLock()
	return s.predict(userID, bookID)
}

// predict is Predict without locking.
func (s *SVD) predict(userID int, bookID string) float64 {
	est := s.globalMean

	u, knownUser := s.userIndex[userID]
	if knownUser {
		est += s.userBias[u]
	}
	i, knownItem := s.itemIndex[bookID]
	if knownItem {
		est += s.itemBias[i]
	}
	if knownUser && knownItem {
		var dot float64
		for f := range s.userFactors[u] {
			dot += s.userFactors[u][f] * s.itemFactors[i][f]
		}
		est += dot
	}
	return est
}

// RecommendForUser scores every catalog book not in excluded and returns
// the top k by predicted rating, ties broken by catalog order.
func (s *SVD) RecommendForUser(userID int, excluded map[string]struct{}, k int) []recommend.ScoredBook {
	s.acquirePredictLock()
	defer s.releasePredictLock()

	if !s.trained || k <= 0 {
		return nil
	}

	scored := make([]recommend.ScoredBook, 0, len(s.bookIDs))
	for _, id := range s.bookIDs {
		if _, skip := excluded[id]; skip {
			continue
		}
		scored = append(scored, recommend.ScoredBook{BookID: id, Score: s.predict(userID, id)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
