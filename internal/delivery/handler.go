// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package delivery

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/smartfood/internal/eventprocessor"
	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/models"
)

// Sender delivers one text message to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Handler is the delivery stage. Sending is best-effort: failures are
// logged and the message is acked, so a Telegram outage never blocks the
// response topic.
type Handler struct {
	sender Sender
	topic  string
}

// NewHandler creates the stage handler. topic is the consumed topic, used in metrics.
func NewHandler(sender Sender, topic string) *Handler {
	return &Handler{sender: sender, topic: topic}
}

// Handle implements message.NoPublishHandlerFunc.
func (h *Handler) Handle(msg *message.Message) error {
	ctx := eventprocessor.MessageContext(msg)

	var resp models.ResponseMessage
	if err := eventprocessor.DecodeMessage(msg, &resp); err != nil {
		metrics.RecordBusMalformed(h.topic)
		logging.Ctx(ctx).Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed response message")
		return nil
	}
	ctx = logging.ContextWithChatID(ctx, resp.ChatID)
	log := logging.Ctx(ctx)

	texts := Render(&resp)
	var firstErr error
	sent := 0
	for _, text := range texts {
		if err := h.sender.SendMessage(ctx, resp.ChatID, text); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			log.Warn().Err(err).Msg("Delivery to chat failed")
			continue
		}
		sent++
	}
	metrics.RecordDelivery(firstErr)

	log.Info().
		Int("recommendations", len(resp.Recommendations)).
		Int("messages_sent", sent).
		Int("messages_total", len(texts)).
		Msg("Recommendations delivered")
	return nil
}
