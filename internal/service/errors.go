package service

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes AI transport failures
type ErrorKind string

const (
	ErrorKindAuth      ErrorKind = "auth"
	ErrorKindRateLimit ErrorKind = "rateLimit"
	ErrorKindNetwork   ErrorKind = "network"
	ErrorKindUnknown   ErrorKind = "unknown"
)

// ErrAIDisabled is returned when no API key is configured
var ErrAIDisabled = errors.New("AI API is not enabled (missing API key)")

// AITransportError is returned by AIClient.Send
type AITransportError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *AITransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ai %s error (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ai %s error: %v", e.Kind, e.Err)
}

func (e *AITransportError) Unwrap() error {
	return e.Err
}

// UserMessage is the remediation text shown in place of an AI reply
func (e *AITransportError) UserMessage() string {
	return userMessageFor(e.Kind)
}

func userMessageFor(kind ErrorKind) string {
	switch kind {
	case ErrorKindAuth:
		return "I can't reach the assistant right now because its credentials were rejected. Please check the AI service API key and try again."
	case ErrorKindRateLimit:
		return "The assistant is handling too many requests at the moment. Please wait a few seconds and ask again."
	case ErrorKindNetwork:
		return "I couldn't connect to the assistant service. Please check your network connection and try again."
	default:
		return "Something went wrong while generating a response. Please try asking again."
	}
}

// AsTransportError converts any error into an AITransportError, keeping the
// kind when err already is one
func AsTransportError(err error) *AITransportError {
	var te *AITransportError
	if errors.As(err, &te) {
		return te
	}
	return &AITransportError{Kind: ErrorKindUnknown, Err: err}
}
