package usecase

import (
	"fmt"
	"net/http"
)

// Error kinds reported at the chat boundary.
const (
	KindMissingAPIKey     = "missing_api_key"
	KindMalformedAPIKey   = "malformed_api_key"
	KindUpstreamHTTP      = "upstream_http_error"
	KindUpstreamMalformed = "upstream_malformed_response"
	KindInternal          = "internal_error"
)

const (
	MsgMissingAPIKey   = "API key is required"
	MsgMalformedAPIKey = "Invalid API key format. Please check your Gemini API key."
	MsgInvalidAPIKey   = "API key is invalid or lacks permission. Please check your Gemini API key."
	MsgRateLimited     = "Rate limit exceeded. Please try again later."
	MsgUpstreamFailed  = "Failed to get response from Gemini API"
	MsgFallbackAnswer  = "I apologize, but I couldn't generate a response at this time."
	DetailsInternal    = "Failed to process RAG request"
)

// ChatError is a chat failure with the HTTP status and message the caller
// should see.
type ChatError struct {
	Kind    string
	Status  int
	Message string
	Details string
	Err     error
}

func (e *ChatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

// InternalError wraps an unexpected failure.
func InternalError(err error) *ChatError {
	msg := "Internal server error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &ChatError{
		Kind:    KindInternal,
		Status:  http.StatusInternalServerError,
		Message: msg,
		Details: DetailsInternal,
		Err:     err,
	}
}

func upstreamMessage(status int, upstream string) string {
	if upstream == "" {
		upstream = MsgUpstreamFailed
	}
	switch status {
	case http.StatusBadRequest:
		return fmt.Sprintf("API Error: %s. Please check your API key and try again.", upstream)
	case http.StatusForbidden:
		return MsgInvalidAPIKey
	case http.StatusTooManyRequests:
		return MsgRateLimited
	default:
		return upstream
	}
}
