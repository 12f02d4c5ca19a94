package pinecone

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for index operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrIndexUnavailable indicates the hosted index could not be reached
	// or rejected the request due to rate limiting or a server fault.
	ErrIndexUnavailable = errors.New("protocol index unavailable")
)

// APIError is a non-2xx response from the index.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pinecone: HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps rate-limit and server faults onto ErrIndexUnavailable so
// callers can treat them uniformly as upstream unavailability.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 {
		return ErrIndexUnavailable
	}
	return nil
}

type apiErrorBody struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// wrapStatusError builds an *APIError from a failed response body.
func wrapStatusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error.Message != "" {
			msg = parsed.Error.Message
		} else if parsed.Message != "" {
			msg = parsed.Message
		}
	}

	return &APIError{StatusCode: status, Message: msg}
}
