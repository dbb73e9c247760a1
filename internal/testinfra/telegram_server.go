// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package testinfra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smartfood/internal/models"
)

// TelegramCapture is one request received by the mock Bot API.
type TelegramCapture struct {
	Method  string // Bot API method, e.g. "sendMessage"
	Headers http.Header
	Body    []byte
}

type mockFile struct {
	path string
	data []byte
}

// MockTelegramServer emulates the Bot API endpoints the pipeline calls:
// sendMessage, getFile and file downloads under /file/bot<token>/.
type MockTelegramServer struct {
	Server *httptest.Server
	token  string

	mu       sync.Mutex
	captures []TelegramCapture
	sent     []models.TelegramSendMessageRequest
	files    map[string]mockFile

	// failures maps a method to the number of upcoming calls that fail.
	failures map[string]int
	// failStatus is the HTTP status used for injected failures.
	failStatus int
}

// NewMockTelegramServer starts a mock Bot API for token. It is closed
// automatically when the test ends.
func NewMockTelegramServer(t *testing.T, token string) *MockTelegramServer {
	t.Helper()

	m := &MockTelegramServer{
		token:      token,
		files:      make(map[string]mockFile),
		failures:   make(map[string]int),
		failStatus: http.StatusInternalServerError,
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Server.Close)
	return m
}

// URL returns the API base URL.
func (m *MockTelegramServer) URL() string {
	return m.Server.URL
}

// AddFile registers a downloadable file for getFile(fileID).
func (m *MockTelegramServer) AddFile(fileID, filePath string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[fileID] = mockFile{path: filePath, data: data}
}

// FailNext makes the next n calls of method ("sendMessage", "getFile" or
// "download") fail with status.
func (m *MockTelegramServer) FailNext(method string, n, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = n
	m.failStatus = status
}

// Captures returns every request received so far.
func (m *MockTelegramServer) Captures() []TelegramCapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TelegramCapture, len(m.captures))
	copy(out, m.captures)
	return out
}

// SentMessages returns the successfully handled sendMessage requests.
func (m *MockTelegramServer) SentMessages() []models.TelegramSendMessageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TelegramSendMessageRequest, len(m.sent))
	copy(out, m.sent)
	return out
}

// WaitForMessages waits until at least n messages were sent and returns them.
func (m *MockTelegramServer) WaitForMessages(n int, timeout time.Duration) []models.TelegramSendMessageRequest {
	deadline := time.Now().Add(timeout)
	for {
		sent := m.SentMessages()
		if len(sent) >= n || time.Now().After(deadline) {
			return sent
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (m *MockTelegramServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body.Close()

	method, ok := m.method(r.URL.Path)
	if !ok {
		writeTelegramError(w, http.StatusNotFound, "Not Found")
		return
	}

	m.mu.Lock()
	m.captures = append(m.captures, TelegramCapture{Method: method, Headers: r.Header.Clone(), Body: body})
	if m.failures[method] > 0 {
		m.failures[method]--
		status := m.failStatus
		m.mu.Unlock()
		writeTelegramError(w, status, "injected failure")
		return
	}
	m.mu.Unlock()

	switch method {
	case "sendMessage":
		m.sendMessage(w, body)
	case "getFile":
		m.getFile(w, r, body)
	case "download":
		m.download(w, r)
	default:
		writeTelegramError(w, http.StatusNotFound, "Not Found: method not found")
	}
}

// method maps /bot<token>/<method> and /file/bot<token>/<path> to a method name.
func (m *MockTelegramServer) method(path string) (string, bool) {
	if strings.HasPrefix(path, "/file/bot"+m.token+"/") {
		return "download", true
	}
	rest, ok := strings.CutPrefix(path, "/bot"+m.token+"/")
	return rest, ok && rest != ""
}

func (m *MockTelegramServer) sendMessage(w http.ResponseWriter, body []byte) {
	var req models.TelegramSendMessageRequest
	if err := json.Unmarshal(body, &req); err != nil || req.ChatID == 0 || req.Text == "" {
		writeTelegramError(w, http.StatusBadRequest, "Bad Request: message text is empty")
		return
	}

	m.mu.Lock()
	m.sent = append(m.sent, req)
	id := len(m.sent)
	m.mu.Unlock()

	writeTelegramResult(w, map[string]any{"message_id": id, "chat": map[string]any{"id": req.ChatID}})
}

func (m *MockTelegramServer) getFile(w http.ResponseWriter, r *http.Request, body []byte) {
	fileID := r.URL.Query().Get("file_id")
	if fileID == "" {
		var req struct {
			FileID string `json:"file_id"`
		}
		_ = json.Unmarshal(body, &req)
		fileID = req.FileID
	}

	m.mu.Lock()
	f, ok := m.files[fileID]
	m.mu.Unlock()
	if !ok {
		writeTelegramError(w, http.StatusBadRequest, "Bad Request: invalid file_id")
		return
	}

	writeTelegramResult(w, models.TelegramFile{FileID: fileID, FilePath: f.path, FileSize: int64(len(f.data))})
}

func (m *MockTelegramServer) download(w http.ResponseWriter, r *http.Request) {
	filePath := strings.TrimPrefix(r.URL.Path, "/file/bot"+m.token+"/")

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.files {
		if f.path == filePath {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(f.data)
			return
		}
	}
	http.NotFound(w, r)
}

func writeTelegramResult(w http.ResponseWriter, result any) {
	raw, _ := json.Marshal(result)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(models.TelegramAPIResponse{OK: true, Result: raw})
}

func writeTelegramError(w http.ResponseWriter, status int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.TelegramAPIResponse{
		OK:          false,
		ErrorCode:   status,
		Description: description,
	})
}
