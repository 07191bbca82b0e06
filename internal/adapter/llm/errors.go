package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrBadRequest    = errors.New("bad request")
	ErrInvalidAPIKey = errors.New("invalid api key")
	ErrRateLimited   = errors.New("rate limited")
	ErrUpstream      = errors.New("upstream error")
	ErrEmptyResponse = errors.New("empty response")
)

// StatusError is a failed HTTP exchange with a model provider. It unwraps to
// the sentinel matching its status code.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func NewStatusError(provider string, statusCode int, message string) *StatusError {
	return &StatusError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	return ErrForStatus(e.StatusCode)
}

// ErrForStatus maps an upstream HTTP status to a sentinel error.
func ErrForStatus(statusCode int) error {
	switch statusCode {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrInvalidAPIKey
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrUpstream
	}
}

// Kind returns the wire name of a generator failure.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAPIKey):
		return "invalid_api_key"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	default:
		return "upstream_error"
	}
}
