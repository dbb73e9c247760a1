// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package delivery

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/smartfood/internal/telegram"
	"github.com/tomtom215/smartfood/internal/testinfra"
)

type sentText struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sentText
	failOn int // 1-based call that fails, 0 = never
	calls  int
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == f.failOn {
		return errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, sentText{chatID, text})
	return nil
}

const responsePayload = `{"chat_id": 4242, "ingredientes": ["potato"], "recomendaciones": [{"dish": "tortilla_de_patatas", "score": 1.2}]}`

func TestHandler_SendsRenderedMessages(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	if err := NewHandler(sender, "mensaje_respuesta").Handle(message.NewMessage("m1", []byte(responsePayload))); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.sent))
	}
	for _, s := range sender.sent {
		if s.chatID != 4242 {
			t.Errorf("chat = %d, want 4242", s.chatID)
		}
	}
	if sender.sent[1].text != "🥗 *Recetas recomendadas*\n1. Tortilla De Patatas" {
		t.Errorf("second message = %q", sender.sent[1].text)
	}
}

func TestHandler_SendFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{failOn: 1}
	if err := NewHandler(sender, "mensaje_respuesta").Handle(message.NewMessage("m1", []byte(responsePayload))); err != nil {
		t.Fatalf("Handle() error = %v, want nil", err)
	}
	if sender.calls != 2 || len(sender.sent) != 1 {
		t.Errorf("calls = %d, sent = %d, want 2 attempts and 1 success", sender.calls, len(sender.sent))
	}
}

func TestHandler_MalformedIsAcked(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	h := NewHandler(sender, "mensaje_respuesta")
	for _, payload := range []string{`{`, `{"recomendaciones": []}`} {
		if err := h.Handle(message.NewMessage("m", []byte(payload))); err != nil {
			t.Errorf("Handle(%s) error = %v", payload, err)
		}
	}
	if sender.calls != 0 {
		t.Errorf("sender called %d times for malformed input", sender.calls)
	}
}

func TestHandler_WithTelegramClient(t *testing.T) {
	t.Parallel()

	const token = "555:delivery-stage-test-token"
	tg := testinfra.NewMockTelegramServer(t, token)
	tg.FailNext("sendMessage", 1, http.StatusBadGateway)
	client := telegram.NewClient(telegram.Config{Token: token, APIURL: tg.URL()})

	if err := NewHandler(client, "mensaje_respuesta").Handle(message.NewMessage("m1", []byte(responsePayload))); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	sent := tg.SentMessages()
	if len(sent) != 1 {
		t.Fatalf("delivered %d messages, want 1 (first send failed)", len(sent))
	}
	if sent[0].ChatID != 4242 || sent[0].ParseMode != telegram.ParseModeMarkdown {
		t.Errorf("delivered %+v", sent[0])
	}
}
