// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package recommend

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/smartfood/internal/eventprocessor"
	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/models"
)

// Recommender is the part of Engine the stage handler needs.
type Recommender interface {
	Recommend(ctx context.Context, ingredients []string, filters map[string]string, k int) (Result, error)
}

// Handler is the recommendation stage. It consumes IngredientsMessage and
// produces one ResponseMessage.
//
// Failure policy:
//   - malformed payload: logged and acked, nothing published
//   - engine load failure: a response with no recommendations is published,
//     so the user gets the "no matches" reply instead of silence
//   - encoding the response: returned to the router for retry
type Handler struct {
	engine Recommender
	topic  string
}

// NewHandler creates the stage handler. topic is the consumed topic, used in metrics.
func NewHandler(engine Recommender, topic string) *Handler {
	return &Handler{engine: engine, topic: topic}
}

// Handle implements message.HandlerFunc.
func (h *Handler) Handle(msg *message.Message) ([]*message.Message, error) {
	ctx := eventprocessor.MessageContext(msg)
	log := logging.Ctx(ctx)

	var in models.IngredientsMessage
	if err := eventprocessor.DecodeMessage(msg, &in); err != nil {
		metrics.RecordBusMalformed(h.topic)
		log.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed ingredients message")
		return nil, nil
	}
	ctx = logging.ContextWithChatID(ctx, in.ChatID)

	out := &models.ResponseMessage{
		ChatID:          in.ChatID,
		Ingredients:     in.Ingredients,
		Recommendations: []models.Recommendation{},
	}

	res, err := h.engine.Recommend(ctx, in.Ingredients, in.Filters, in.K)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", in.ChatID).Msg("Recommendation failed, replying without results")
	} else {
		out.Recommendations = res.Recommendations
	}

	reply, err := eventprocessor.NewMessage(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}

	log.Info().
		Int64("chat_id", in.ChatID).
		Int("ingredients", len(in.Ingredients)).
		Int("filters", len(in.Filters)).
		Int("recommendations", len(out.Recommendations)).
		Msg("Recommendations computed")
	return []*message.Message{reply}, nil
}
