package insights

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/genai"
)

// ErrorKind is the closed set of provider failure categories.
type ErrorKind string

const (
	KindNone      ErrorKind = ""
	KindTransport ErrorKind = "transport"
	KindTimeout   ErrorKind = "timeout"
	KindQuota     ErrorKind = "quota"
	KindAuth      ErrorKind = "auth"
	KindMalformed ErrorKind = "malformed"
	KindProvider  ErrorKind = "provider"
	KindCanceled  ErrorKind = "canceled"
)

var (
	// ErrProviderFailure matches any *ProviderFailure via errors.Is.
	ErrProviderFailure = errors.New("insights: provider failure")
	// ErrMalformedResponse is returned by generators that cannot read the provider payload.
	ErrMalformedResponse = errors.New("insights: malformed provider response")
	// ErrInvalidInput rejects blank intent parameters before any provider call.
	ErrInvalidInput = errors.New("insights: invalid input")
	// ErrMissingGenerator is returned when a gateway is built without a generator.
	ErrMissingGenerator = errors.New("insights: generator not configured")
	// ErrMissingAPIKey is returned when the Gemini generator has no credentials.
	ErrMissingAPIKey = errors.New("insights: provider api key is required")
)

// ProviderFailure reports a failed provider call for a grounded intent.
type ProviderFailure struct {
	Intent Intent
	Kind   ErrorKind
	Err    error
}

func (f *ProviderFailure) Error() string {
	return fmt.Sprintf("insights: %s failed (%s): %v", f.Intent, f.Kind, f.Err)
}

func (f *ProviderFailure) Unwrap() error { return f.Err }

// Is lets callers match on ErrProviderFailure without knowing the concrete cause.
func (f *ProviderFailure) Is(target error) bool {
	return target == ErrProviderFailure
}

// Retryable reports whether a manual refresh can reasonably succeed.
func (f *ProviderFailure) Retryable() bool {
	switch f.Kind {
	case KindTransport, KindTimeout, KindQuota, KindProvider:
		return true
	}
	return false
}

// UserMessage returns a presentable error banner for the failure.
func (f *ProviderFailure) UserMessage() string {
	switch f.Kind {
	case KindQuota:
		return "The AI provider rate limit was reached. Wait a moment, then refresh."
	case KindAuth:
		return "The AI provider rejected the API key. Check your settings, then refresh."
	case KindTimeout:
		return "The AI provider did not answer in time. Refresh to try again."
	case KindTransport:
		return "Could not reach the AI provider. Check your connection, then refresh."
	case KindMalformed:
		return "The AI provider could not process this request."
	case KindCanceled:
		return "The request was canceled."
	default:
		return "The AI provider returned an error. Refresh to try again."
	}
}

func newFailure(intent Intent, err error) *ProviderFailure {
	var existing *ProviderFailure
	if errors.As(err, &existing) {
		return &ProviderFailure{Intent: intent, Kind: existing.Kind, Err: existing.Err}
	}
	return &ProviderFailure{Intent: intent, Kind: Classify(err), Err: err}
}

// Classify maps provider, network, and context errors into an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrMalformedResponse), errors.Is(err, ErrInvalidInput):
		return KindMalformed
	case errors.Is(err, ErrMissingAPIKey):
		return KindAuth
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return kindForStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return kindForStatus(apiErrPtr.Code)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindTransport
	}
	return KindProvider
}

func kindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindQuota
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return KindTimeout
	case code >= 400 && code < 500:
		return KindMalformed
	default:
		return KindProvider
	}
}
