// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

/*
Package conversation implements the webhook stage: the per-chat
questionnaire that collects nutritional preferences and turns ingredient
input into pipeline messages.

# State Machine

A chat is either AWAITING_PREFS (with the index of the next unanswered
question) or READY:

	        /start (any state)
	              |
	              v
	+---> AWAITING_PREFS[i] --valid answer, i < N-1--> AWAITING_PREFS[i+1]
	|             |
	+--invalid----+
	              |valid answer, i = N-1
	              v
	            READY --photo--> publish image-ingredients
	              |  --text----> publish ingredients (or reply with an error)

Handle is a pure function of (chat, state, event): it returns the new
state, the replies and at most one message to publish. Service wires it
to the preference store, the bus and Telegram.

# Redelivery

Telegram retries webhooks it did not see acknowledged. Repeated update IDs
are filtered before Service runs; a retry that does reach Service after a
partial failure re-runs Handle against the stored state, so an answer
that was already recorded is interpreted against the next question.
*/
package conversation
