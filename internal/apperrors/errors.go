// Package apperrors defines the error taxonomy shared by the catalog service.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for callers that need to decide how to react to it.
type Kind string

const (
	KindInvalidInput  Kind = "InvalidInput"
	KindStorage       Kind = "StorageFailure"
	KindPersistence   Kind = "PersistenceFailure"
	KindWorkflow      Kind = "WorkflowFailure"
	KindConfiguration Kind = "ConfigurationFailure"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
	ErrStorage       = &Error{Kind: KindStorage}
	ErrPersistence   = &Error{Kind: KindPersistence}
	ErrWorkflow      = &Error{Kind: KindWorkflow}
	ErrConfiguration = &Error{Kind: KindConfiguration}
)

// Error is a classified error. Fields is only set for field violations and maps
// the JSON field name to a human readable message.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString(" (")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel (or an error without a message) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// InvalidInput reports a client-correctable problem.
func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// FieldViolation reports one or more invalid request fields.
func FieldViolation(fields map[string]string) *Error {
	return &Error{Kind: KindInvalidInput, Message: "field violation", Fields: fields}
}

func Storage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func Persistence(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

func Workflow(message string, err error) *Error {
	return &Error{Kind: KindWorkflow, Message: message, Err: err}
}

// Configuration reports a problem that must stop the process from starting.
func Configuration(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// WrapConfiguration classifies err as a start-up configuration failure.
func WrapConfiguration(message string, err error) *Error {
	return &Error{Kind: KindConfiguration, Message: message, Err: err}
}
