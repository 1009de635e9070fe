// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package recommend implements the hybrid recommendation engine.
//
// The engine blends two ranked candidate lists: content-similar books
// seeded at a book the user likes, and books the collaborative model
// predicts the user would rate highly. Each list contributes a
// rank-decayed score, so early positions matter and the two sources
// never compare raw scores against each other.
//
// Trained models are published as immutable snapshots behind a single
// atomic pointer. Queries never block on training, and a refit swaps
// both models at once.
//
// The concrete models live in the algorithms subpackage; this package
// defines their contracts so it stays free of model internals.
package recommend
