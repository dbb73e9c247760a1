// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package detection

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/smartfood/internal/eventprocessor"
	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/models"
)

// Detection outcomes recorded in metrics.
const (
	OutcomeDetected       = "detected"
	OutcomeNone           = "none"
	OutcomeDownloadFailed = "download_failed"
	OutcomeDetectFailed   = "detect_failed"
	OutcomeMalformed      = "malformed"
)

// FileFetcher downloads a Telegram file by its file_id.
type FileFetcher interface {
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// Handler is the detection stage.
//
// Failure policy:
//   - malformed payload: logged and acked, nothing published
//   - download or detector failure: an IngredientsMessage with no
//     ingredients is published
//   - encoding the output: returned to the router for retry
type Handler struct {
	files    FileFetcher
	detector Detector
	topic    string
}

// NewHandler creates the stage handler. topic is the consumed topic, used in metrics.
func NewHandler(files FileFetcher, detector Detector, topic string) *Handler {
	return &Handler{files: files, detector: detector, topic: topic}
}

// Handle implements message.HandlerFunc.
func (h *Handler) Handle(msg *message.Message) ([]*message.Message, error) {
	ctx := eventprocessor.MessageContext(msg)

	var in models.ImageIngredientsMessage
	if err := eventprocessor.DecodeMessage(msg, &in); err != nil {
		metrics.RecordBusMalformed(h.topic)
		metrics.RecordDetection(OutcomeMalformed)
		logging.Ctx(ctx).Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed image message")
		return nil, nil
	}
	ctx = logging.ContextWithChatID(ctx, in.ChatID)

	labels, outcome := h.detect(ctx, in.FileRef)
	metrics.RecordDetection(outcome)

	out := &models.IngredientsMessage{
		ChatID:      in.ChatID,
		Ingredients: labels,
		Filters:     in.Filters,
		K:           in.K,
	}
	next, err := eventprocessor.NewMessage(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("encode ingredients: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("outcome", outcome).
		Strs("ingredients", labels).
		Msg("Ingredient detection finished")
	return []*message.Message{next}, nil
}

// detect returns the labels found in the photo, or an empty list and the
// failure outcome.
func (h *Handler) detect(ctx context.Context, fileID string) ([]string, string) {
	log := logging.Ctx(ctx)

	image, err := h.files.DownloadFile(ctx, fileID)
	if err != nil {
		log.Warn().Err(err).Str("file_id", fileID).Msg("Photo download failed, publishing no ingredients")
		return []string{}, OutcomeDownloadFailed
	}

	labels, err := h.detector.Detect(ctx, image)
	if err != nil {
		log.Warn().Err(err).Int("image_bytes", len(image)).Msg("Detector failed, publishing no ingredients")
		return []string{}, OutcomeDetectFailed
	}

	labels = NormalizeLabels(labels)
	if len(labels) == 0 {
		return labels, OutcomeNone
	}
	return labels, OutcomeDetected
}
