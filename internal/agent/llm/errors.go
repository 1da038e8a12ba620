package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks failures to obtain a response: network errors,
	// timeouts and non-2xx statuses.
	ErrTransport = errors.New("llm transport failure")
	// ErrContent marks responses that arrived but cannot be trusted.
	ErrContent = errors.New("llm content failure")
	// ErrNoAPIKey is returned by NewClient when no credential is configured.
	ErrNoAPIKey = errors.New("llm api key is not configured")
)

// TransportError wraps a failed call to the completion endpoint.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm request failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// ContentError reports a response whose body could not be used.
type ContentError struct {
	Reason string
	Err    error
}

func (e *ContentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid llm response: %s: %v", e.Reason, e.Err)
	}
	return "invalid llm response: " + e.Reason
}

func (e *ContentError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrContent}
	}
	return []error{ErrContent, e.Err}
}
