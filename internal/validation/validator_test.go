// Shelfmark - Hybrid Book Recommendation Service
// Copyright 2026 Shelfmark Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package validation

import (
	"strings"
	"testing"
)

type recommendationsRequest struct {
	UserID int    `validate:"required,min=1"`
	Count  int    `validate:"min=0,max=50"`
	BookID string `validate:"omitempty,min=1"`
}

type searchRequest struct {
	Query string `validate:"required,min=3"`
}

func TestValidateStructPasses(t *testing.T) {
	req := recommendationsRequest{UserID: 1, Count: 5}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}

func TestValidateStructMissingRequired(t *testing.T) {
	req := recommendationsRequest{Count: 5}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", apiErr.Code)
	}
	if apiErr.Details["field"] != "UserID" {
		t.Errorf("expected UserID field detail, got %v", apiErr.Details["field"])
	}
}

func TestValidateStructRangeError(t *testing.T) {
	req := recommendationsRequest{UserID: 1, Count: 500}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "at most 50") {
		t.Errorf("expected range message, got %q", err.Error())
	}
}

func TestValidateStructStringMin(t *testing.T) {
	req := searchRequest{Query: "ab"}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for short query")
	}
	if !strings.Contains(err.Error(), "at least 3 characters") {
		t.Errorf("expected character-count message, got %q", err.Error())
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	req := recommendationsRequest{Count: -1}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(err.Errors()))
	}
	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("expected per-field details for multiple errors")
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}
