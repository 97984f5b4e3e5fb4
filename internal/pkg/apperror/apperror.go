// Package apperror classifies failures of the invoice flow.
//
// A FlowError carries two audiences: UserMessage is safe to show in the chat,
// Err (with its chain) is only ever sent to logs and the operator channel.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInput         Kind = "input"
	KindInference     Kind = "inference"
	KindVerification  Kind = "verification"
	KindConfiguration Kind = "configuration"
	KindPermission    Kind = "permission"
	KindRemote        Kind = "remote"
	KindSession       Kind = "session"
	KindInternal      Kind = "internal"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrLockTimeout     = errors.New("lock wait timed out")
	ErrEmptyResponse   = errors.New("empty response")
	ErrNotConfigured   = errors.New("not configured")
	ErrInvalidState    = errors.New("invalid state")
)

type FlowError struct {
	Kind        Kind
	Stage       string
	UserMessage string
	Err         error
}

func (e *FlowError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s/%s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s/%s: %v", e.Stage, e.Kind, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func New(kind Kind, stage, userMessage string, err error) *FlowError {
	return &FlowError{Kind: kind, Stage: stage, UserMessage: userMessage, Err: err}
}

// As extracts the FlowError from err's chain.
func As(err error) (*FlowError, bool) {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	fe, ok := As(err)
	return ok && fe.Kind == kind
}

func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
