// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package recommend

import "fmt"

// UnknownBookError reports a book ID that is not in the similarity index.
type UnknownBookError struct {
	BookID string
}

func (e *UnknownBookError) Error() string {
	return fmt.Sprintf("recommend: unknown book %q", e.BookID)
}

// MissingSeedError reports a recommendation request with no usable seed:
// the caller named no book and the user has no rating history to resolve
// one from.
type MissingSeedError struct {
	UserID int
}

func (e *MissingSeedError) Error() string {
	return fmt.Sprintf("recommend: no seed book given and user %d has no ratings", e.UserID)
}

// InternalScoringError wraps an unexpected failure inside the scoring
// pipeline. It maps to a server error at the boundary.
type InternalScoringError struct {
	Err error
}

func (e *InternalScoringError) Error() string {
	return fmt.Sprintf("recommend: internal scoring failure: %v", e.Err)
}

func (e *InternalScoringError) Unwrap() error { return e.Err }

// ErrTrainingInProgress is returned when a refit is requested while a
// previous training run has not finished.
var ErrTrainingInProgress = fmt.Errorf("recommend: training already in progress")

// ErrNotTrained is returned for queries before the first successful fit.
var ErrNotTrained = fmt.Errorf("recommend: model not trained")
