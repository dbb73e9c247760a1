// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/smartfood/internal/eventprocessor"
	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/models"
	"github.com/tomtom215/smartfood/internal/preferences"
)

// Sender delivers a text reply to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Topics names the topics the webhook stage publishes to.
type Topics struct {
	Image       string
	Ingredients string
}

// errUnchanged aborts a store update when the event leaves the record as is.
var errUnchanged = errors.New("state unchanged")

// Service runs the state machine for Telegram updates.
type Service struct {
	store     preferences.Store
	publisher message.Publisher
	sender    Sender
	topics    Topics
	k         int
}

// NewService creates the webhook stage. k is attached to every published message.
func NewService(store preferences.Store, publisher message.Publisher, sender Sender, topics Topics, k int) *Service {
	if k < 1 {
		k = models.DefaultK
	}
	return &Service{
		store:     store,
		publisher: publisher,
		sender:    sender,
		topics:    topics,
		k:         k,
	}
}

// HandleUpdate processes one webhook update. Updates without a message are
// ignored. A returned error means nothing was published and the update
// should be retried; reply failures are logged and swallowed.
func (s *Service) HandleUpdate(ctx context.Context, update *models.TelegramUpdate) error {
	kind := update.Kind()
	if update.Message == nil {
		metrics.RecordWebhookUpdate(kind, "ignored")
		logging.Ctx(ctx).Debug().Int64("update_id", update.UpdateID).Str("kind", kind).Msg("Ignoring update without message")
		return nil
	}

	chatID := update.Message.Chat.ID
	ctx = logging.ContextWithChatID(ctx, chatID)
	ev := EventFromMessage(update.Message)

	out, from, err := s.apply(ctx, chatID, ev)
	if err != nil {
		metrics.RecordWebhookUpdate(kind, "error")
		return err
	}

	if err := s.publish(ctx, out); err != nil {
		metrics.RecordWebhookUpdate(kind, "error")
		return err
	}

	metrics.RecordConversationTransition(string(from), string(out.State.State), out.Transition)
	metrics.RecordWebhookUpdate(kind, "processed")
	logging.Ctx(ctx).Info().
		Str("event", ev.Kind.String()).
		Str("transition", out.Transition).
		Int("question_index", out.State.QuestionIndex).
		Msg("Conversation event handled")

	s.reply(ctx, chatID, out.Replies)
	return nil
}

// apply runs Handle inside an optimistic store update. It returns the
// outcome and the state the event was applied to.
func (s *Service) apply(ctx context.Context, chatID int64, ev Event) (Outcome, models.ConversationState, error) {
	var out Outcome
	var from models.ConversationState
	_, err := s.store.Update(ctx, chatID, func(current models.UserState) (models.UserState, error) {
		from = current.State
		out = Handle(chatID, current, ev, s.k)
		if !out.Changed {
			return current, errUnchanged
		}
		return out.State, nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return Outcome{}, "", fmt.Errorf("update state for chat %d: %w", chatID, err)
	}
	return out, from, nil
}

func (s *Service) publish(ctx context.Context, out Outcome) error {
	var topic string
	var payload any
	switch {
	case out.Image != nil:
		topic, payload = s.topics.Image, out.Image
	case out.Ingredients != nil:
		topic, payload = s.topics.Ingredients, out.Ingredients
	default:
		return nil
	}

	msg, err := eventprocessor.NewMessage(ctx, payload)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", topic, err)
	}
	if err := s.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	metrics.RecordBusPublish(topic)
	logging.Ctx(ctx).Debug().Str("topic", topic).Str("message_uuid", msg.UUID).Msg("Published pipeline message")
	return nil
}

func (s *Service) reply(ctx context.Context, chatID int64, replies []string) {
	for _, text := range replies {
		if err := s.sender.SendMessage(ctx, chatID, text); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
		}
	}
}
