// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package recommend

import "fmt"

// Weights controls the hybrid blend. Values are relative: they are
// normalized to sum to 1 before use, so {3, 7} and {0.3, 0.7} are the
// same blend.
type Weights struct {
	Content       float64 `json:"content"`
	Collaborative float64 `json:"collaborative"`
}

// DefaultWeights favors the collaborative signal.
func DefaultWeights() Weights {
	return Weights{Content: 0.3, Collaborative: 0.7}
}

// normalized returns the weights scaled to sum to 1. A zero or negative
// sum falls back to the defaults.
func (w Weights) normalized() Weights {
	sum := w.Content + w.Collaborative
	if sum <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Content:       w.Content / sum,
		Collaborative: w.Collaborative / sum,
	}
}

// Config contains the engine settings.
type Config struct {
	// Weights is the default hybrid blend, used when a query does not
	// carry its own.
	Weights Weights

	// DefaultK is the result count used when a query does not specify one.
	DefaultK int

	// MaxK caps the result count of any single query.
	MaxK int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Weights:  DefaultWeights(),
		DefaultK: 10,
		MaxK:     50,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Weights.Content < 0 {
		return fmt.Errorf("content weight must be non-negative, got %f", c.Weights.Content)
	}
	if c.Weights.Collaborative < 0 {
		return fmt.Errorf("collaborative weight must be non-negative, got %f", c.Weights.Collaborative)
	}
	if c.Weights.Content+c.Weights.Collaborative <= 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	if c.DefaultK < 1 {
		return fmt.Errorf("default k must be positive, got %d", c.DefaultK)
	}
	if c.MaxK < c.DefaultK {
		return fmt.Errorf("max k must be >= default k, got %d < %d", c.MaxK, c.DefaultK)
	}
	return nil
}
