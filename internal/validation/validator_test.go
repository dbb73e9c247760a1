// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package validation

import (
	"strings"
	"testing"
)

type testMessage struct {
	ChatID      int64             `validate:"required"`
	Ingredients []string          `validate:"dive,nonblank"`
	Filters     map[string]string `validate:"dive,keys,nonblank,endkeys,nonblank"`
	K           int               `validate:"min=1,max=100"`
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	valid := func() testMessage {
		return testMessage{
			ChatID:      42,
			Ingredients: []string{"potato", "egg"},
			Filters:     map[string]string{"has_calories": "normal_calories"},
			K:           5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*testMessage)
		wantTag string
	}{
		{"valid", func(*testMessage) {}, ""},
		{"empty ingredients allowed", func(m *testMessage) { m.Ingredients = nil }, ""},
		{"missing chat", func(m *testMessage) { m.ChatID = 0 }, "required"},
		{"blank ingredient", func(m *testMessage) { m.Ingredients = []string{"egg", "  "} }, "nonblank"},
		{"blank filter key", func(m *testMessage) { m.Filters = map[string]string{" ": "low_calories"} }, "nonblank"},
		{"blank filter label", func(m *testMessage) { m.Filters = map[string]string{"has_sugar": ""} }, "nonblank"},
		{"k too small", func(m *testMessage) { m.K = 0 }, "min"},
		{"k too large", func(m *testMessage) { m.K = 101 }, "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := valid()
			tt.mutate(&msg)
			err := ValidateStruct(&msg)

			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want %s error", tt.wantTag)
			}
			if got := err.Errors()[0].Tag(); got != tt.wantTag {
				t.Errorf("tag = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&testMessage{ChatID: 1, K: 0})
	if single == nil {
		t.Fatal("expected validation error")
	}
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "K must be at least 1" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "K" {
		t.Errorf("Details[field] = %v, want K", apiErr.Details["field"])
	}

	multi := ValidateStruct(&testMessage{})
	if multi == nil {
		t.Fatal("expected validation error")
	}
	apiErr = multi.ToAPIError()
	if !strings.Contains(apiErr.Message, "ChatID: ChatID is required") {
		t.Errorf("Message = %q, want ChatID entry", apiErr.Message)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("expected Details[fields] for multiple errors")
	}
}
