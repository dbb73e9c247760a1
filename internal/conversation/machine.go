// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package conversation

import (
	"strings"

	"github.com/tomtom215/smartfood/internal/kg"
	"github.com/tomtom215/smartfood/internal/models"
)

// EventKind classifies an inbound chat message.
type EventKind int

const (
	// EventText is free text: a preference answer or an ingredient list.
	EventText EventKind = iota

	// EventStart is the /start command.
	EventStart

	// EventPhoto is a photo; FileRef names its largest size.
	EventPhoto
)

// String returns the kind name used in logs and metrics.
func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventPhoto:
		return "photo"
	default:
		return "text"
	}
}

// Event is one inbound message reduced to what the machine needs.
type Event struct {
	Kind    EventKind
	Text    string
	FileRef string
}

// Transition labels, used for the conversation_transitions_total metric.
const (
	TransitionReset          = "reset"
	TransitionAnswer         = "answer"
	TransitionInvalidAnswer  = "invalid_answer"
	TransitionCompleted      = "completed"
	TransitionPhoto          = "photo"
	TransitionIngredients    = "ingredients"
	TransitionNoIngredients  = "no_ingredients"
	TransitionCorruptedState = "corrupted_state"
)

// Outcome is the result of handling one event.
type Outcome struct {
	// State is the record to persist. Changed is false when it equals the input.
	State   models.UserState
	Changed bool

	// Replies are sent to the chat in order, after any publish.
	Replies []string

	// At most one of Image and Ingredients is set.
	Image       *models.ImageIngredientsMessage
	Ingredients *models.IngredientsMessage

	Transition string
}

// EventFromMessage classifies a Telegram message. A photo wins over any
// caption; /start may carry a bot mention or a payload.
func EventFromMessage(msg *models.TelegramMessage) Event {
	if len(msg.Photo) > 0 {
		return Event{Kind: EventPhoto, FileRef: msg.Photo[len(msg.Photo)-1].FileID}
	}
	text := strings.TrimSpace(msg.Text)
	if isStartCommand(text) {
		return Event{Kind: EventStart, Text: text}
	}
	return Event{Kind: EventText, Text: text}
}

func isStartCommand(text string) bool {
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == "/start"
}

// Handle applies ev to state for chatID. k is attached to published
// messages. Handle never fails: bad input produces a reply, not an error.
func Handle(chatID int64, state models.UserState, ev Event, k int) Outcome {
	if ev.Kind == EventStart {
		return Outcome{
			State:      models.DefaultUserState(),
			Changed:    true,
			Replies:    []string{Questions[0].Prompt},
			Transition: TransitionReset,
		}
	}

	if !consistent(state) {
		// A record no current code could have written; restart the questionnaire.
		return Outcome{
			State:      models.DefaultUserState(),
			Changed:    true,
			Replies:    []string{Questions[0].Prompt},
			Transition: TransitionCorruptedState,
		}
	}

	state = state.Clone()
	if state.State == models.StateReady {
		return handleReady(chatID, state, ev, k)
	}
	return handleAnswer(state, ev)
}

// consistent reports whether QuestionIndex equals the number of questions
// exactly when the state is READY.
func consistent(state models.UserState) bool {
	switch state.State {
	case models.StateReady:
		return state.QuestionIndex == len(Questions)
	case models.StateAwaitingPrefs:
		return state.QuestionIndex >= 0 && state.QuestionIndex < len(Questions)
	default:
		return false
	}
}

func handleAnswer(state models.UserState, ev Event) Outcome {
	idx := state.QuestionIndex
	q := Questions[idx]
	label, ok := parseAnswer(q.Relation, ev)
	if !ok {
		return Outcome{
			State:      state,
			Replies:    []string{MsgInvalidAnswer, q.Prompt},
			Transition: TransitionInvalidAnswer,
		}
	}

	state.Preferences[string(q.Relation)] = label
	state.QuestionIndex = idx + 1
	if state.QuestionIndex == len(Questions) {
		state.State = models.StateReady
		return Outcome{
			State:      state,
			Changed:    true,
			Replies:    []string{MsgPreferencesSaved},
			Transition: TransitionCompleted,
		}
	}
	return Outcome{
		State:      state,
		Changed:    true,
		Replies:    []string{Questions[state.QuestionIndex].Prompt},
		Transition: TransitionAnswer,
	}
}

func handleReady(chatID int64, state models.UserState, ev Event, k int) Outcome {
	if ev.Kind == EventPhoto {
		return Outcome{
			State: state,
			Image: &models.ImageIngredientsMessage{
				ChatID:  chatID,
				FileRef: ev.FileRef,
				Filters: state.Preferences,
				K:       k,
			},
			Replies:    []string{MsgPhotoReceived},
			Transition: TransitionPhoto,
		}
	}

	ingredients := ParseIngredients(ev.Text)
	if len(ingredients) == 0 {
		return Outcome{
			State:      state,
			Replies:    []string{MsgNoIngredients},
			Transition: TransitionNoIngredients,
		}
	}
	return Outcome{
		State: state,
		Ingredients: &models.IngredientsMessage{
			ChatID:      chatID,
			Ingredients: ingredients,
			Filters:     state.Preferences,
			K:           k,
		},
		Replies:    []string{MsgIngredientsReceived},
		Transition: TransitionIngredients,
	}
}

// parseAnswer maps a reply to the preference entity of rel. Photos and
// anything outside the vocabulary are rejected.
func parseAnswer(rel kg.NutritionRelation, ev Event) (string, bool) {
	if ev.Kind != EventText {
		return "", false
	}
	level, ok := answers[strings.ToLower(strings.TrimSpace(ev.Text))]
	if !ok {
		return "", false
	}
	return rel.LevelLabel(level)
}

// ParseIngredients splits a comma-separated list, trimming and lowercasing
// each item and dropping empty ones.
func ParseIngredients(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
