package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"threatconsole/internal/metrics"
)

type Kind int

const (
	KindNetwork Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServer
	KindDecode
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

func (k Kind) outcome() string {
	switch k {
	case KindNetwork:
		return metrics.OutcomeNetwork
	case KindUnauthorized:
		return metrics.OutcomeUnauthorized
	case KindForbidden:
		return metrics.OutcomeForbidden
	case KindNotFound:
		return metrics.OutcomeNotFound
	case KindDecode:
		return metrics.OutcomeDecode
	default:
		return metrics.OutcomeServer
	}
}

// Error is returned by every gateway call that did not succeed.
type Error struct {
	Kind     Kind
	Status   int
	Endpoint string
	// Message is the upstream {"message": ...} when one was sent.
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s: %d %s", e.Endpoint, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, e.Kind, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether offering the user a retry makes sense.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindServer || e.Kind == KindDecode
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	default:
		return KindServer
	}
}

// KindOf returns the gateway kind of err, or 0 when err did not come from
// the gateway.
func KindOf(err error) Kind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return 0
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// MessageOf returns the upstream message carried by err, if any.
func MessageOf(err error) string {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Message
	}
	return ""
}
