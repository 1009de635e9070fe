// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package config provides application configuration loaded via Koanf v2
// with layered sources: built-in defaults, an optional YAML config file,
// and environment variables (highest priority).
//
// Environment variables map to config paths through an explicit table;
// unmapped variables are ignored:
//
//	HTTP_PORT                -> server.port
//	DATA_BOOKS_PATH          -> data.books_path
//	RECOMMEND_CONTENT_WEIGHT -> recommend.content_weight
package config

import (
	"fmt"
	"time"
)

// Config holds all application settings.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Data      DataConfig      `koanf:"data"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DataConfig holds the paths of the three tabular data sources consumed
// at startup. All three are required; a missing source is fatal.
type DataConfig struct {
	BooksPath   string `koanf:"books_path"`
	RatingsPath string `koanf:"ratings_path"`
	UsersPath   string `koanf:"users_path"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// ContentWeight and CollaborativeWeight control the hybrid merge.
	// Normalized at runtime; they don't need to sum to 1.0.
	ContentWeight       float64 `koanf:"content_weight"`
	CollaborativeWeight float64 `koanf:"collaborative_weight"`

	// MaxFeatures bounds the TF-IDF vocabulary size.
	MaxFeatures int `koanf:"max_features"`

	// Factors is the latent factor dimension of the collaborative model.
	Factors int `koanf:"factors"`

	// Epochs is the number of SGD training epochs.
	Epochs int `koanf:"epochs"`

	// HoldoutFraction of rating triples is reserved for offline RMSE
	// evaluation and never trained on.
	HoldoutFraction float64 `koanf:"holdout_fraction"`

	// Seed is the random seed for deterministic training.
	Seed int64 `koanf:"seed"`

	// DefaultK and MaxK bound the number of recommendations returned.
	DefaultK int `koanf:"default_k"`
	MaxK     int `koanf:"max_k"`

	// TrainInterval is the period between scheduled refits.
	// Zero disables scheduled refits.
	TrainInterval time.Duration `koanf:"train_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}

	if c.Data.BooksPath == "" {
		return fmt.Errorf("data.books_path is required")
	}
	if c.Data.RatingsPath == "" {
		return fmt.Errorf("data.ratings_path is required")
	}
	if c.Data.UsersPath == "" {
		return fmt.Errorf("data.users_path is required")
	}

	if c.Recommend.ContentWeight < 0 {
		return fmt.Errorf("recommend.content_weight must be non-negative, got %f", c.Recommend.ContentWeight)
	}
	if c.Recommend.CollaborativeWeight < 0 {
		return fmt.Errorf("recommend.collaborative_weight must be non-negative, got %f", c.Recommend.CollaborativeWeight)
	}
	if c.Recommend.MaxFeatures < 1 {
		return fmt.Errorf("recommend.max_features must be positive, got %d", c.Recommend.MaxFeatures)
	}
	if c.Recommend.Factors < 1 {
		return fmt.Errorf("recommend.factors must be positive, got %d", c.Recommend.Factors)
	}
	if c.Recommend.Epochs < 1 {
		return fmt.Errorf("recommend.epochs must be positive, got %d", c.Recommend.Epochs)
	}
	if c.Recommend.HoldoutFraction < 0 || c.Recommend.HoldoutFraction >= 1 {
		return fmt.Errorf("recommend.holdout_fraction must be in [0, 1), got %f", c.Recommend.HoldoutFraction)
	}
	if c.Recommend.DefaultK < 1 {
		return fmt.Errorf("recommend.default_k must be positive, got %d", c.Recommend.DefaultK)
	}
	if c.Recommend.MaxK < c.Recommend.DefaultK {
		return fmt.Errorf("recommend.max_k must be >= recommend.default_k, got %d < %d", c.Recommend.MaxK, c.Recommend.DefaultK)
	}

	return nil
}
