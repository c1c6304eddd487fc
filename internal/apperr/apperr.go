package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so handlers can map it to a status code and the
// UI can tell "fix your input" from "try again" from "server misconfigured".
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindUpstream      Kind = "upstream"
	KindTimeout       Kind = "timeout"
	KindGeneration    Kind = "generation"
	KindUpload        Kind = "upload"
	KindPersistence   Kind = "persistence"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf walks the chain and returns the kind of the outermost *Error,
// or "" when the error carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a classified error onto the boundary status semantics.
// Unclassified errors are treated as internal.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUpstream:
		return http.StatusBadGateway
	case KindConfiguration, KindGeneration, KindUpload, KindPersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is the caller-visible line for a classified error. Internal
// detail stays in the logs.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	switch KindOf(err) {
	case KindValidation:
		return "invalid request"
	case KindConfiguration:
		return "server configuration error"
	case KindTimeout:
		return "generation timed out, try again"
	case KindUpstream:
		return "upstream service error"
	case KindGeneration:
		return "generation failed"
	case KindUpload:
		return "failed to store image"
	case KindPersistence:
		return "failed to save record"
	default:
		return "internal server error"
	}
}
