// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package models

import "encoding/json"

// TelegramUpdate is an incoming webhook update. Only the fields the bot
// reacts to are decoded; other update kinds leave Message nil.
//
// Example:
//
//	{
//	  "update_id": 10000,
//	  "message": {
//	    "message_id": 1365,
//	    "chat": {"id": 1111111, "type": "private"},
//	    "text": "/start"
//	  }
//	}
type TelegramUpdate struct {
	UpdateID      int64            `json:"update_id" validate:"required"`
	Message       *TelegramMessage `json:"message,omitempty"`
	EditedMessage *TelegramMessage `json:"edited_message,omitempty"`
	CallbackQuery json.RawMessage  `json:"callback_query,omitempty"`
}

// Kind names the update type for logs and metrics.
func (u *TelegramUpdate) Kind() string {
	switch {
	case u.Message != nil && len(u.Message.Photo) > 0:
		return "photo"
	case u.Message != nil:
		return "text"
	case u.EditedMessage != nil:
		return "edited_message"
	case len(u.CallbackQuery) > 0:
		return "callback_query"
	default:
		return "other"
	}
}

// TelegramMessage is a chat message.
type TelegramMessage struct {
	MessageID int64               `json:"message_id"`
	Chat      TelegramChat        `json:"chat"`
	Date      int64               `json:"date,omitempty"`
	Text      string              `json:"text,omitempty"`
	Caption   string              `json:"caption,omitempty"`
	Photo     []TelegramPhotoSize `json:"photo,omitempty"`
}

// TelegramChat identifies the conversation a message belongs to.
type TelegramChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// TelegramPhotoSize is one resolution of a photo. Telegram lists sizes in
// ascending order, so the last element is the largest.
type TelegramPhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id,omitempty"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// TelegramFile is the result of getFile.
type TelegramFile struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size,omitempty"`
}

// TelegramSendMessageRequest is the sendMessage request body.
type TelegramSendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// TelegramAPIResponse wraps every Bot API response.
type TelegramAPIResponse struct {
	OK          bool                    `json:"ok"`
	Result      json.RawMessage         `json:"result,omitempty"`
	ErrorCode   int                     `json:"error_code,omitempty"`
	Description string                  `json:"description,omitempty"`
	Parameters  *TelegramResponseParams `json:"parameters,omitempty"`
}

// TelegramResponseParams carries rate-limit hints on error responses.
type TelegramResponseParams struct {
	RetryAfter int `json:"retry_after,omitempty"`
}
