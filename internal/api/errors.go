package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"reelfeed/internal/services"
)

// Error captures a non-2xx backend response. It unwraps to one of the
// services sentinel errors so callers can branch on the failure class
// without inspecting HTTP details.
type Error struct {
	Status  int
	Message string
	marker  error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("api: request failed (status %d)", e.Status)
}

func (e *Error) Unwrap() error {
	if e.marker != nil {
		return e.marker
	}
	return classify(e.Status, e.Message)
}

func decodeError(resp *http.Response) *Error {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
	message := body.Message
	if message == "" {
		message = body.Error
	}
	return &Error{
		Status:  resp.StatusCode,
		Message: message,
		marker:  classify(resp.StatusCode, message),
	}
}

func classify(status int, message string) error {
	lowered := strings.ToLower(message)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.ErrUnauthorized
	case status == http.StatusPaymentRequired:
		return services.ErrInsufficientBalance
	case strings.Contains(lowered, "insufficient"):
		return services.ErrInsufficientBalance
	case status == http.StatusNotFound:
		return services.ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return services.ErrValidation
	default:
		return services.ErrTransient
	}
}
