// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Package telegram is a minimal Telegram Bot API client covering the calls
// the pipeline makes: sendMessage, getFile and file download.
//
// Every call runs under a circuit breaker and a per-call timeout. Outbound
// messages are paced by a token bucket so bursts of replies stay under the
// Bot API flood limit.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/smartfood/internal/breaker"
	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/models"
)

// ErrBreakerOpen is returned when the Bot API circuit breaker rejects a call.
var ErrBreakerOpen = errors.New("telegram circuit breaker open")

// ParseModeMarkdown is the legacy Markdown mode the bot's replies are written in.
const ParseModeMarkdown = "Markdown"

// maxResponseBytes bounds API response bodies (not file downloads).
const maxResponseBytes = 1 << 20

// Config holds client settings.
type Config struct {
	Token  string
	APIURL string

	SendTimeout     time.Duration
	FileTimeout     time.Duration
	DownloadTimeout time.Duration

	// RateLimitPerSecond paces sendMessage calls. Zero disables pacing.
	RateLimitPerSecond float64

	// MaxDownloadBytes caps photo downloads. Bot API files are at most 20MB.
	MaxDownloadBytes int64
}

// ConfigFrom maps the application Telegram settings.
func ConfigFrom(c config.TelegramConfig) Config {
	return Config{
		Token:              c.Token,
		APIURL:             c.APIURL,
		SendTimeout:        c.SendTimeout,
		FileTimeout:        c.FileTimeout,
		DownloadTimeout:    c.DownloadTimeout,
		RateLimitPerSecond: c.RateLimitPerSecond,
	}
}

// APIError is a non-OK Bot API response.
type APIError struct {
	Method      string
	StatusCode  int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.StatusCode, e.Description)
}

// Temporary reports whether retrying the call later may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client calls the Bot API.
type Client struct {
	http    *http.Client
	cfg     Config
	limiter *rate.Limiter
	breaker *breaker.Breaker[[]byte]
}

// NewClient creates a client. Zero timeouts fall back to 10s, 15s and 30s.
func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.telegram.org"
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.FileTimeout <= 0 {
		cfg.FileTimeout = 15 * time.Second
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 30 * time.Second
	}
	if cfg.MaxDownloadBytes <= 0 {
		cfg.MaxDownloadBytes = 20 << 20
	}

	var limiter *rate.Limiter
	if cfg.RateLimitPerSecond > 0 {
		burst := int(cfg.RateLimitPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
	}

	cbCfg := breaker.DefaultConfig("telegram")
	// Client errors mean a bad request, not an unhealthy API.
	cbCfg.IsSuccessful = func(err error) bool {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return !apiErr.Temporary()
		}
		return err == nil
	}

	return &Client{
		// Per-call deadlines come from the request context.
		http:    &http.Client{},
		cfg:     cfg,
		limiter: limiter,
		breaker: breaker.New[[]byte](cbCfg),
	}
}

// SendMessage sends a Markdown text message to chatID. If Telegram cannot
// parse the Markdown, the text is resent without formatting.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("telegram sendMessage: rate limiter: %w", err)
		}
	}

	req := models.TelegramSendMessageRequest{ChatID: chatID, Text: text, ParseMode: ParseModeMarkdown}
	_, err := c.call(ctx, "sendMessage", req, c.cfg.SendTimeout)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(apiErr.Description, "can't parse entities") {
		req.ParseMode = ""
		_, err = c.call(ctx, "sendMessage", req, c.cfg.SendTimeout)
	}
	return err
}

// GetFile resolves a file_id to a downloadable file path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*models.TelegramFile, error) {
	result, err := c.call(ctx, "getFile", map[string]string{"file_id": fileID}, c.cfg.FileTimeout)
	if err != nil {
		return nil, err
	}

	var file models.TelegramFile
	if err := json.Unmarshal(result, &file); err != nil {
		return nil, fmt.Errorf("telegram getFile: decode result: %w", err)
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("telegram getFile: file %s has no path", fileID)
	}
	return &file, nil
}

// Download fetches the content of a file path returned by GetFile.
func (c *Client) Download(ctx context.Context, filePath string) ([]byte, error) {
	url := fmt.Sprintf("%s/file/bot%s/%s", c.cfg.APIURL, c.cfg.Token, strings.TrimLeft(filePath, "/"))

	return c.execute(func() ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.DownloadTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("telegram download: create request: %w", c.redact(err))
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("telegram download: %w", c.redact(err))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{Method: "download", StatusCode: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxDownloadBytes+1))
		if err != nil {
			return nil, fmt.Errorf("telegram download: read body: %w", c.redact(err))
		}
		if int64(len(data)) > c.cfg.MaxDownloadBytes {
			return nil, fmt.Errorf("telegram download: file exceeds %d bytes", c.cfg.MaxDownloadBytes)
		}
		return data, nil
	})
}

// DownloadFile resolves fileID and downloads its content.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return c.Download(ctx, file.FilePath)
}

// BreakerState returns the circuit breaker state.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// call POSTs a JSON request to a Bot API method and returns the raw result.
func (c *Client) call(ctx context.Context, method string, payload any, timeout time.Duration) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telegram %s: marshal request: %w", method, err)
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.cfg.APIURL, c.cfg.Token, method)

	return c.execute(func() ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("telegram %s: create request: %w", method, c.redact(err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("telegram %s: %w", method, c.redact(err))
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("telegram %s: read response: %w", method, c.redact(err))
		}

		var apiResp models.TelegramAPIResponse
		if err := json.Unmarshal(raw, &apiResp); err != nil {
			if resp.StatusCode != http.StatusOK {
				return nil, &APIError{Method: method, StatusCode: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
			}
			return nil, fmt.Errorf("telegram %s: decode response: %w", method, err)
		}
		if !apiResp.OK {
			apiErr := &APIError{Method: method, StatusCode: apiResp.ErrorCode, Description: apiResp.Description}
			if apiErr.StatusCode == 0 {
				apiErr.StatusCode = resp.StatusCode
			}
			if apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
				apiErr.RetryAfter = time.Duration(apiResp.Parameters.RetryAfter) * time.Second
			}
			return nil, apiErr
		}
		return apiResp.Result, nil
	})
}

func (c *Client) execute(fn func() ([]byte, error)) ([]byte, error) {
	result, err := c.breaker.Execute(fn)
	if breaker.IsRejected(err) {
		return nil, fmt.Errorf("%w: %v", ErrBreakerOpen, err)
	}
	return result, err
}

// redact strips the bot token from errors that embed the request URL.
func (c *Client) redact(err error) error {
	if c.cfg.Token == "" || !strings.Contains(err.Error(), c.cfg.Token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), c.cfg.Token, "<redacted>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
