// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/validation"
)

// ErrMalformedPayload is returned when a message payload cannot be decoded
// or fails validation. Stages ack such messages without retrying.
var ErrMalformedPayload = errors.New("malformed payload")

// Metadata keys set on every pipeline message.
const (
	MetadataContentType = "content_type"
	MetadataChatID      = "chat_id"
)

// ChatScoped is implemented by pipeline payloads addressed to one chat.
type ChatScoped interface {
	GetChatID() int64
}

// defaulter is implemented by payloads that fill omitted fields before validation.
type defaulter interface {
	ApplyDefaults()
}

// NewMessage encodes payload as JSON into a new message with a fresh UUID.
// The correlation ID of ctx (or a new one) is carried in metadata so logs
// can follow one user request across stages.
func NewMessage(ctx context.Context, payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set(MetadataContentType, "application/json")

	correlationID := logging.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = logging.GenerateCorrelationID()
	}
	middleware.SetCorrelationID(correlationID, msg)

	if scoped, ok := payload.(ChatScoped); ok {
		msg.Metadata.Set(MetadataChatID, strconv.FormatInt(scoped.GetChatID(), 10))
	}
	return msg, nil
}

// DecodeMessage unmarshals msg into v, applies defaults and validates it.
// Every failure wraps ErrMalformedPayload.
func DecodeMessage(msg *message.Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if d, ok := v.(defaulter); ok {
		d.ApplyDefaults()
	}
	if err := validation.ValidateStruct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// MessageContext returns msg's context enriched with its correlation ID,
// chat ID and consuming router handler for logging.Ctx.
func MessageContext(msg *message.Message) context.Context {
	ctx := msg.Context()
	if name := message.HandlerNameFromCtx(ctx); name != "" {
		ctx = contextWithHandler(ctx, name)
	}
	if id := middleware.MessageCorrelationID(msg); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	if raw := msg.Metadata.Get(MetadataChatID); raw != "" {
		if chatID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ctx = logging.ContextWithChatID(ctx, chatID)
		}
	}
	return ctx
}

// contextWithHandler stores a logger tagged with the router handler name.
func contextWithHandler(ctx context.Context, handler string) context.Context {
	logger := logging.LoggerFromContext(ctx).With().Str("handler", handler).Logger()
	return logging.ContextWithLogger(ctx, logger)
}
