// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Shelfmark serves hybrid book recommendations over HTTP.
//
// On startup it loads the book catalog, rating history, and user roster
// from CSV sources, trains a content similarity index and a
// collaborative latent-factor model, and serves blended recommendations.
//
// # Quick Start
//
//	export DATA_BOOKS_PATH=data/books.csv
//	export DATA_RATINGS_PATH=data/ratings.csv
//	export DATA_USERS_PATH=data/users.csv
//	./shelfmark
//
// Configuration is layered: built-in defaults, an optional YAML config
// file (CONFIG_PATH or ./config.yaml), then environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shelfmark/shelfmark/internal/api"
	"github.com/shelfmark/shelfmark/internal/catalog"
	"github.com/shelfmark/shelfmark/internal/config"
	"github.com/shelfmark/shelfmark/internal/logging"
	"github.com/shelfmark/shelfmark/internal/metrics"
	"github.com/shelfmark/shelfmark/internal/recommend"
	"github.com/shelfmark/shelfmark/internal/recommend/algorithms"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting shelfmark")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// An unreadable source is fatal: the service never runs on a
	// partial catalog.
	store, err := catalog.Load(catalog.Sources{
		BooksPath:   cfg.Data.BooksPath,
		RatingsPath: cfg.Data.RatingsPath,
		UsersPath:   cfg.Data.UsersPath,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load catalog")
	}
	metrics.CatalogBooks.Set(float64(len(store.Books())))
	metrics.CatalogRatings.Set(float64(len(store.Ratings())))

	service, err := buildService(cfg, store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build recommendation engine")
	}

	logging.Info().Msg("Training initial model")
	trainStart := time.Now()
	if err := service.Fit(ctx); err != nil {
		metrics.RecordTraining("error", 0)
		logging.Fatal().Err(err).Msg("Initial training failed")
	}
	metrics.RecordTraining("success", time.Since(trainStart))
	metrics.ModelVersion.Set(float64(service.Status().ModelVersion))

	if cfg.Recommend.TrainInterval > 0 {
		go refitLoop(ctx, service, cfg.Recommend.TrainInterval)
	}

	handler := api.NewHandler(service, logging.Logger())
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, api.DefaultRouterConfig()),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("HTTP server error")
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// buildService wires the engine with its model factories. Each refit
// builds fresh models from these factories, so configuration is read
// once here.
func buildService(cfg *config.Config, store *catalog.Store) (*recommend.Service, error) {
	engineCfg := recommend.Config{
		Weights: recommend.Weights{
			Content:       cfg.Recommend.ContentWeight,
			Collaborative: cfg.Recommend.CollaborativeWeight,
		},
		DefaultK: cfg.Recommend.DefaultK,
		MaxK:     cfg.Recommend.MaxK,
	}

	tfidfCfg := algorithms.TFIDFConfig{MaxFeatures: cfg.Recommend.MaxFeatures}
	svdCfg := algorithms.SVDConfig{
		Factors:         cfg.Recommend.Factors,
		Epochs:          cfg.Recommend.Epochs,
		HoldoutFraction: cfg.Recommend.HoldoutFraction,
		Seed:            cfg.Recommend.Seed,
	}

	engine, err := recommend.NewEngine(store, engineCfg,
		func() recommend.ContentIndex { return algorithms.NewTFIDF(tfidfCfg) },
		func() recommend.Predictor { return algorithms.NewSVD(svdCfg) },
		logging.Logger())
	if err != nil {
		return nil, err
	}
	return recommend.NewService(engine, store, logging.Logger()), nil
}

// refitLoop retrains the model on a fixed schedule until the context is
// canceled. A refit that overlaps a manual train is skipped.
func refitLoop(ctx context.Context, service *recommend.Service, interval time.Duration) {
	logger := logging.With().Str("component", "refit").Logger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			err := service.Fit(ctx)
			switch {
			case errors.Is(err, recommend.ErrTrainingInProgress):
				metrics.RecordTraining("rejected", 0)
				logger.Warn().Msg("Scheduled refit skipped, training already running")
			case err != nil:
				metrics.RecordTraining("error", 0)
				logger.Error().Err(err).Msg("Scheduled refit failed")
			default:
				metrics.RecordTraining("success", time.Since(start))
				metrics.ModelVersion.Set(float64(service.Status().ModelVersion))
				logger.Info().Dur("duration", time.Since(start)).Msg("Scheduled refit complete")
			}
		}
	}
}
