// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smartfood/internal/cache"
	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/models"
	"github.com/tomtom215/smartfood/internal/validation"
)

const (
	webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	// maxUpdateBytes bounds a single webhook body. Updates carry file
	// references, never file contents.
	maxUpdateBytes = 1 << 20
)

// UpdateHandler processes one Telegram update. conversation.Service
// implements it.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *models.TelegramUpdate) error
}

// WebhookConfig configures the webhook endpoint.
type WebhookConfig struct {
	// Secret is compared with X-Telegram-Bot-Api-Secret-Token. Empty disables the check.
	Secret    string
	DedupSize int
	DedupTTL  time.Duration
}

// WebhookHandler receives Telegram updates.
type WebhookHandler struct {
	updates UpdateHandler
	secret  []byte
	seen    *cache.LRUCache
}

// NewWebhookHandler creates the webhook endpoint.
func NewWebhookHandler(updates UpdateHandler, cfg WebhookConfig) *WebhookHandler {
	return &WebhookHandler{
		updates: updates,
		secret:  []byte(cfg.Secret),
		seen:    cache.NewLRUCache(cfg.DedupSize, cfg.DedupTTL),
	}
}

// CleanupExpired forgets update_ids whose TTL has passed.
func (h *WebhookHandler) CleanupExpired() int {
	return h.seen.CleanupExpired()
}

// ServeHTTP handles POST <webhook path>.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		metrics.RecordWebhookUpdate("unknown", "unauthorized")
		respondError(w, r, http.StatusUnauthorized, codeUnauthorized, "invalid webhook secret", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUpdateBytes)
	var update models.TelegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, codeTooLarge, "update body too large", nil)
			return
		}
		metrics.RecordWebhookUpdate("unknown", "malformed")
		respondError(w, r, http.StatusBadRequest, codeValidation, "invalid update JSON", err)
		return
	}
	if verr := validation.ValidateStruct(&update); verr != nil {
		metrics.RecordWebhookUpdate("unknown", "malformed")
		apiErr := verr.ToAPIError()
		respondJSON(w, r, http.StatusBadRequest, &models.APIResponse{
			Status: "error",
			Error:  &models.APIError{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details},
		})
		return
	}

	ctx := r.Context()
	key := strconv.FormatInt(update.UpdateID, 10)
	if h.seen.IsDuplicate(key) {
		metrics.RecordWebhookUpdate(update.Kind(), "duplicate")
		logging.Ctx(ctx).Debug().Int64("update_id", update.UpdateID).Msg("Ignoring redelivered update")
		respondSuccess(w, r, map[string]interface{}{"update_id": update.UpdateID, "duplicate": true})
		return
	}

	if err := h.updates.HandleUpdate(ctx, &update); err != nil {
		// Forget the update so Telegram's retry is processed.
		h.seen.Remove(key)
		respondError(w, r, http.StatusInternalServerError, codeInternal, "update could not be processed", err)
		return
	}

	respondSuccess(w, r, map[string]interface{}{"update_id": update.UpdateID})
}

func (h *WebhookHandler) authorized(r *http.Request) bool {
	if len(h.secret) == 0 {
		return true
	}
	got := []byte(r.Header.Get(webhookSecretHeader))
	return subtle.ConstantTimeCompare(got, h.secret) == 1
}
