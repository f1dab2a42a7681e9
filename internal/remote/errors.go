package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

// APIError is an HTTP error answer from the backend. It unwraps to
// domain.ErrRejected for 4xx (plus domain.ErrNotFound for 404) and to
// domain.ErrUnavailable for 5xx.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *APIError) Unwrap() []error {
	switch {
	case e.Status == http.StatusNotFound:
		return []error{domain.ErrRejected, domain.ErrNotFound}
	case e.Status >= 400 && e.Status < 500:
		return []error{domain.ErrRejected}
	default:
		return []error{domain.ErrUnavailable}
	}
}

// IsValidation reports whether err is the backend refusing the request, as
// opposed to the backend being unreachable.
func IsValidation(err error) bool {
	return errors.Is(err, domain.ErrRejected)
}

// Message returns the backend's message from err, or "" when there is none.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &parsed) == nil {
		msg = parsed.Message
		if msg == "" {
			msg = parsed.Error
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Method: method, Path: path, Status: status, Message: msg}
}
