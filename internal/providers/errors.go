package providers

import "fmt"

// Kind is the vendor-agnostic classification an adapter MUST map every
// upstream failure signal onto (spec §4.1).
type Kind string

const (
	KindInvalidCredential   Kind = "INVALID_CREDENTIAL"
	KindUpstreamRateLimited Kind = "UPSTREAM_RATE_LIMITED"
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	KindUpstreamTimeout     Kind = "UPSTREAM_TIMEOUT"
	KindUpstreamMalformed   Kind = "UPSTREAM_MALFORMED"
	KindUpstreamOther       Kind = "UPSTREAM_OTHER"
)

// Error is the typed error every Provider.MakeRequest failure is wrapped
// in. The Router Core inspects Kind; it never inspects vendor-specific
// detail.
type Error struct {
	Provider   string
	Kind       Kind
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s (%v)", e.Provider, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds a classified provider error.
func NewError(provider string, kind Kind, message string, statusCode int, cause error) *Error {
	return &Error{Provider: provider, Kind: kind, Message: message, StatusCode: statusCode, Cause: cause}
}

// ClassifyHTTPStatus maps a vendor HTTP status code to a Kind using the
// conventions common to the three configured vendors (Groq and
// HuggingFace are both OpenAI-shaped REST APIs; Gemini uses the same
// status-code semantics on its REST transport).
func ClassifyHTTPStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindInvalidCredential
	case status == 429:
		return KindUpstreamRateLimited
	case status == 503 || status == 502:
		return KindUpstreamUnavailable
	case status == 408:
		return KindUpstreamTimeout
	case status >= 500:
		return KindUpstreamOther
	case status >= 400:
		return KindUpstreamMalformed
	default:
		return KindUpstreamOther
	}
}
