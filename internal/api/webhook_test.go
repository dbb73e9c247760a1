// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smartfood/internal/models"
)

// recordingHandler records the updates it receives and fails while failNext > 0.
type recordingHandler struct {
	mu       sync.Mutex
	updates  []int64
	failNext int
}

func (h *recordingHandler) HandleUpdate(_ context.Context, update *models.TelegramUpdate) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, update.UpdateID)
	if h.failNext > 0 {
		h.failNext--
		return errors.New("store unavailable")
	}
	return nil
}

func (h *recordingHandler) calls() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int64(nil), h.updates...)
}

func newTestWebhook(updates UpdateHandler, secret string) *WebhookHandler {
	return NewWebhookHandler(updates, WebhookConfig{Secret: secret, DedupSize: 100, DedupTTL: time.Minute})
}

func postUpdate(t *testing.T, h http.Handler, body, secret string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(webhookSecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

const startUpdate = `{"update_id": 42, "message": {"message_id": 1, "chat": {"id": 7}, "text": "/start"}}`

func TestWebhookHandler_Responses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		secret     string
		sent       string
		body       string
		failNext   int
		wantStatus int
		wantCode   string
		wantCalls  int
	}{
		{"processed", "", "", startUpdate, 0, http.StatusOK, "", 1},
		{"secret accepted", "s3cret", "s3cret", startUpdate, 0, http.StatusOK, "", 1},
		{"secret missing", "s3cret", "", startUpdate, 0, http.StatusUnauthorized, codeUnauthorized, 0},
		{"secret wrong", "s3cret", "guess", startUpdate, 0, http.StatusUnauthorized, codeUnauthorized, 0},
		{"bad json", "", "", `{"update_id":`, 0, http.StatusBadRequest, codeValidation, 0},
		{"missing update id", "", "", `{"message": {"chat": {"id": 7}}}`, 0, http.StatusBadRequest, codeValidation, 0},
		{"non-message update", "", "", `{"update_id": 43, "edited_message": {"chat": {"id": 7}}}`, 0, http.StatusOK, "", 1},
		{"handler failure", "", "", startUpdate, 1, http.StatusInternalServerError, codeInternal, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			updates := &recordingHandler{failNext: tt.failNext}
			rec := postUpdate(t, newTestWebhook(updates, tt.secret), tt.body, tt.sent)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeResponse(t, rec)
			if tt.wantCode == "" {
				if resp.Status != "success" {
					t.Errorf("Status = %q, want success", resp.Status)
				}
			} else if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("Error = %+v, want code %s", resp.Error, tt.wantCode)
			}
			if got := len(updates.calls()); got != tt.wantCalls {
				t.Errorf("HandleUpdate calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestWebhookHandler_RedeliveredUpdateIgnored(t *testing.T) {
	t.Parallel()

	updates := &recordingHandler{}
	h := newTestWebhook(updates, "")

	for i := 0; i < 3; i++ {
		if rec := postUpdate(t, h, startUpdate, ""); rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d", i, rec.Code)
		}
	}

	if got := updates.calls(); len(got) != 1 || got[0] != 42 {
		t.Errorf("HandleUpdate calls = %v, want [42]", got)
	}
}

func TestWebhookHandler_FailedUpdateRetried(t *testing.T) {
	t.Parallel()

	updates := &recordingHandler{failNext: 1}
	h := newTestWebhook(updates, "")

	if rec := postUpdate(t, h, startUpdate, ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("first delivery status = %d, want 500", rec.Code)
	}
	if rec := postUpdate(t, h, startUpdate, ""); rec.Code != http.StatusOK {
		t.Fatalf("retry status = %d, want 200", rec.Code)
	}
	if rec := postUpdate(t, h, startUpdate, ""); rec.Code != http.StatusOK {
		t.Fatalf("third delivery status = %d, want 200", rec.Code)
	}

	if got := len(updates.calls()); got != 2 {
		t.Errorf("HandleUpdate calls = %d, want 2 (failure + retry)", got)
	}
}

func TestWebhookHandler_BodyTooLarge(t *testing.T) {
	t.Parallel()

	updates := &recordingHandler{}
	body := `{"update_id": 1, "message": {"chat": {"id": 7}, "text": "` + strings.Repeat("a", maxUpdateBytes) + `"}}`
	rec := postUpdate(t, newTestWebhook(updates, ""), body, "")

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if len(updates.calls()) != 0 {
		t.Error("oversized update reached the handler")
	}
}

func TestWebhookHandler_CleanupExpired(t *testing.T) {
	t.Parallel()

	updates := &recordingHandler{}
	h := NewWebhookHandler(updates, WebhookConfig{DedupSize: 100, DedupTTL: time.Millisecond})
	router := NewRouter("/telegram/webhook", h, NewHealthHandler(nil, "test"), nil)

	if rec := postUpdate(t, h, startUpdate, ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	time.Sleep(10 * time.Millisecond)

	if removed := router.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
	if removed := h.CleanupExpired(); removed != 0 {
		t.Errorf("second CleanupExpired() = %d, want 0", removed)
	}

	bare := NewRouter("/telegram/webhook", http.NotFoundHandler(), NewHealthHandler(nil, "test"), nil)
	if removed := bare.CleanupExpired(); removed != 0 {
		t.Errorf("CleanupExpired() for a cache-less webhook = %d, want 0", removed)
	}
}
