// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

/*
Package models defines the data structures shared across SmartFood stages.

Model Categories:

1. Conversation:
  - UserState: per-chat progress through the preference questions
  - ConversationState: AWAITING_PREFS or READY

2. Pipeline messages (JSON on the bus):
  - ImageIngredientsMessage: webhook -> detection
  - IngredientsMessage: webhook or detection -> recommendation
  - ResponseMessage: recommendation -> delivery

3. Telegram Bot API:
  - TelegramUpdate, TelegramMessage, TelegramPhotoSize: webhook input
  - TelegramFile, TelegramSendMessageRequest, TelegramAPIResponse: client calls

4. HTTP API:
  - APIResponse, APIError, Metadata, HealthResponse

Pipeline message field names (chat_id, file_id, ingredientes, filters, k,
recomendaciones) are a compatibility contract between independently deployed
stages.
*/
package models
