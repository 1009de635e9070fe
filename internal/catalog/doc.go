// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package catalog loads and serves the book catalog, the rating history,
// and the user roster from CSV sources.
//
// The loader normalizes incomplete records (missing titles, authors, years,
// cover URLs get placeholder values), drops ratings that reference unknown
// books or users, collapses duplicate (user, book) ratings keeping the
// latest occurrence, and computes each book's average rating from the
// surviving ratings.
//
// The resulting Store is immutable after Load returns and safe for
// concurrent readers.
package catalog
