package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 64 << 10

// APIError is a non-2xx answer from a remote service.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is taken from the JSON payload when it carries one.
	Message string
	// Body is the raw response text.
	Body string
}

func (e *APIError) Error() string {
	msg := e.UserMessage()
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status code %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// UserMessage returns the payload message, falling back to the body text.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return strings.TrimSpace(e.Body)
}

func newAPIError(req *http.Request, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: resp.StatusCode,
		Message:    payloadMessage(body),
		Body:       string(body),
	}
}

// payloadMessage looks for a message in the usual error payload fields.
func payloadMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, field := range []string{"message", "detail", "error", "title"} {
		if s, ok := payload[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
