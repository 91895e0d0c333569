package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable failure taxonomy surfaced to callers. Delivery
// layers map kinds to transport status codes; everything else matches on the
// sentinel errors below.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindNotFound    ErrorKind = "not_found"
	KindForbidden   ErrorKind = "forbidden"
	KindConflict    ErrorKind = "conflict"
	KindUnavailable ErrorKind = "unavailable"
	KindInternal    ErrorKind = "internal"
)

// Error carries a kind plus a machine-readable code narrowing it to a
// specific precondition (e.g. already_expressed within conflict).
type Error struct {
	Kind ErrorKind
	Code string
	Msg  string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return e.Msg
}

// Is lets errors.Is match any error sharing the same code, so wrapped copies
// of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func NewError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// KindOf extracts the taxonomy kind from any error; unknown errors are
// treated as internal.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	ErrInvalidInput = &Error{Kind: KindValidation, Code: "invalid_input", Msg: "missing or malformed input"}

	ErrMatchNotFound = &Error{Kind: KindNotFound, Code: "match_not_found", Msg: "match not found"}
	ErrUserNotFound  = &Error{Kind: KindNotFound, Code: "user_not_found", Msg: "user not found"}

	ErrForbidden = &Error{Kind: KindForbidden, Code: "forbidden", Msg: "caller is not a participant of this match"}

	ErrInvalidMatchType   = &Error{Kind: KindConflict, Code: "invalid_match_type", Msg: "operation not valid for this match type"}
	ErrAlreadyExpressed   = &Error{Kind: KindConflict, Code: "already_expressed", Msg: "interest already expressed"}
	ErrNoInterestToAccept = &Error{Kind: KindConflict, Code: "no_interest_to_accept", Msg: "no interest has been expressed yet"}
	ErrActionAlreadySet   = &Error{Kind: KindConflict, Code: "action_already_set", Msg: "this side already acted; only a second chance can change the outcome"}
	ErrNoSecondChance     = &Error{Kind: KindConflict, Code: "no_second_chance", Msg: "no second chance has been offered to this side"}
	ErrMatchClosed        = &Error{Kind: KindConflict, Code: "match_closed", Msg: "match is already resolved"}
	ErrVersionConflict    = &Error{Kind: KindConflict, Code: "version_conflict", Msg: "match was modified concurrently"}
	ErrBatchRunning       = &Error{Kind: KindConflict, Code: "batch_already_running", Msg: "a matching cycle is already running"}

	ErrUnavailable = &Error{Kind: KindUnavailable, Code: "unavailable", Msg: "storage temporarily unavailable"}
)
