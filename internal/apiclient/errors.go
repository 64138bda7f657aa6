package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error is returned for every non-2xx backend response.
type Error struct {
	Status  int
	Message string
	Path    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s: status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Path, e.Status, e.Message)
}

// IsStatus reports whether err is a backend *Error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func newError(resp *http.Response, path string) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &Error{
		Status:  resp.StatusCode,
		Message: errorMessage(body),
		Path:    path,
	}
}

// errorMessage extracts a human readable message from a backend error body.
// Both {"message": "..."} and {"error": "..."} shapes are understood; plain
// text bodies are used as-is.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		switch v := payload.Error.(type) {
		case string:
			return v
		case map[string]any:
			if m, ok := v["message"].(string); ok {
				return m
			}
		}
		return ""
	}
	return strings.TrimSpace(string(body))
}
