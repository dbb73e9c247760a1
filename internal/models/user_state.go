// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package models

import "time"

// ConversationState is the coarse state of a chat's conversation.
type ConversationState string

const (
	// StateAwaitingPrefs means the user is still answering preference questions.
	StateAwaitingPrefs ConversationState = "AWAITING_PREFS"

	// StateReady means every question was answered; the user may send ingredients.
	StateReady ConversationState = "READY"
)

// Valid reports whether s is a known state.
func (s ConversationState) Valid() bool {
	return s == StateAwaitingPrefs || s == StateReady
}

// UserState is the per-chat conversational record kept by the preference store.
//
// Invariant: QuestionIndex equals the number of questions iff State is StateReady.
//
// Preferences maps a nutritional relation (has_sodium) to the preference
// entity label chosen by the user (low_sodium).
//
// Version is incremented by the store on every successful write and is used
// for optimistic concurrency; callers never set it.
type UserState struct {
	State         ConversationState `json:"state"`
	QuestionIndex int               `json:"question_index"`
	Preferences   map[string]string `json:"preferences"`
	Version       int64             `json:"version"`
	UpdatedAt     time.Time         `json:"updated_at,omitempty"`
}

// DefaultUserState returns the record of a chat that has never been seen:
// awaiting the first preference answer with nothing collected.
func DefaultUserState() UserState {
	return UserState{
		State:         StateAwaitingPrefs,
		QuestionIndex: 0,
		Preferences:   map[string]string{},
	}
}

// Clone returns a deep copy so callers can mutate preferences freely.
func (u UserState) Clone() UserState {
	prefs := make(map[string]string, len(u.Preferences))
	for k, v := range u.Preferences {
		prefs[k] = v
	}
	u.Preferences = prefs
	return u
}
