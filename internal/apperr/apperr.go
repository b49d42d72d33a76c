// Package apperr defines the failure shape shared by the data-access layer,
// the read hooks and the HTTP boundary.
package apperr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind string

const (
	// KindNotAuthenticated means no valid session exists.
	KindNotAuthenticated Kind = "not_authenticated"
	// KindNotFound covers both a missing row and a failed ownership predicate.
	KindNotFound Kind = "not_found"
	// KindValidation is raised before any remote call is made.
	KindValidation Kind = "validation"
	// KindBackend is any other data-layer or network failure.
	KindBackend Kind = "backend"
)

// Error is the normalized failure returned by the resource access functions.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Fields maps a form field name to its validation message.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NotAuthenticated reports a missing or invalid session.
func NotAuthenticated(op string) error {
	return &Error{Kind: KindNotAuthenticated, Op: op, Message: "not authenticated"}
}

// NotAuthenticatedMsg is NotAuthenticated with a provider supplied message.
func NotAuthenticatedMsg(op, msg string) error {
	return &Error{Kind: KindNotAuthenticated, Op: op, Message: msg}
}

// NotFound reports that what does not exist or is not visible to the caller.
func NotFound(op, what string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: what + " not found"}
}

// Validation reports field level failures keyed by field name.
func Validation(op string, fields map[string]string) error {
	return &Error{Kind: KindValidation, Op: op, Message: "validation failed", Fields: fields}
}

// ValidationMsg reports a validation failure that is not tied to a field.
func ValidationMsg(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

// Backend wraps a data-layer failure, recording the stack where it was
// first normalized.
func Backend(op string, err error) error {
	return &Error{Kind: KindBackend, Op: op, Message: "backend failure", Err: errors.WithStack(err)}
}

// KindOf returns the kind of err. Errors that were never normalized are
// treated as backend failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackend
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// FieldsOf returns the validation fields carried by err, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
