// Package errors defines typed errors with categories for user-facing reporting.
// Every failure the query pipeline can produce carries one of the kinds below so the
// orchestrator and the HTTP layer can tell configuration problems from remote faults
// without matching on message text.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ConfigurationError indicates missing or invalid credentials or settings.
	ConfigurationError Kind = "configuration"
	// AuthenticationError indicates the remote platform rejected the credentials.
	AuthenticationError Kind = "authentication"
	// RemoteQueryError indicates a read call against the remote platform failed.
	RemoteQueryError Kind = "remote_query"
	// ModelInvocationError indicates the language model call failed.
	ModelInvocationError Kind = "model_invocation"
	// EmptyInputError indicates a blank question.
	EmptyInputError Kind = "empty_input"
	// ScriptError indicates a query script failed to parse or run.
	ScriptError Kind = "script"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Is reports kind equality so callers can match with errors.Is(err, errors.New(kind, "")).
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
