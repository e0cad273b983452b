package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies inference failures; it drives retry versus propagate decisions.
type Kind string

const (
	KindInvalidModel     Kind = "InvalidModel"
	KindTransientNetwork Kind = "TransientNetwork"
	KindRateLimited      Kind = "RateLimitedOrThrottled"
	KindCredential       Kind = "CredentialMissing"
	KindUnavailable      Kind = "UpstreamUnavailable"
	KindMalformed        Kind = "MalformedResponse"
	KindUnsupported      Kind = "Unsupported"

	// KindTokenBudget is the validation subtype caused by the requested output ceiling;
	// it is retried with a reduced max tokens value.
	KindTokenBudget Kind = "TokenBudget"

	// KindHandler wraps any unexpected failure; it is never retried.
	KindHandler Kind = "HandlerError"
)

// Retryable reports whether the retry controller may absorb errors of this kind.
func (k Kind) Retryable() bool {
	switch k {
	case KindTransientNetwork, KindRateLimited, KindTokenBudget:
		return true
	}
	return false
}

// Error is the only error type adapters surface.
type Error struct {
	Kind       Kind
	Provider   string
	Model      string
	StatusCode int
	Message    string
	Err        error
}

// NewError creates a classified error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err, keeping it as the cause.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

func (e *Error) WithModel(model string) *Error {
	e.Model = model
	return e
}

func (e *Error) WithStatus(code int) *Error {
	e.StatusCode = code
	return e
}

func (e *Error) Error() string {
	builder := strings.Builder{}
	builder.WriteString(string(e.Kind))
	if e.Provider != "" {
		builder.WriteString(" [")
		builder.WriteString(e.Provider)
		if e.Model != "" {
			builder.WriteString("/")
			builder.WriteString(e.Model)
		}
		builder.WriteString("]")
	}
	if e.StatusCode != 0 {
		builder.WriteString(fmt.Sprintf(" (status %d)", e.StatusCode))
	}
	if e.Message != "" {
		builder.WriteString(": ")
		builder.WriteString(e.Message)
	}
	return builder.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindInvalidModel}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// KindOf returns the classification of err, KindHandler for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindHandler
}

// IsRetryable reports whether err belongs to a retryable class.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err).Retryable()
}

// AsError returns err as *Error, wrapping unclassified errors as handler errors.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(KindHandler, err)
}
