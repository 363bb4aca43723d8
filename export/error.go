package export

import "fmt"

// ErrorKind classifies why a profile export failed or a single rule could
// not be applied.
type ErrorKind int

const (
	ErrUnspecified ErrorKind = iota
	ErrParentNotFound
	ErrElementNotFound
	ErrInvalidCardinality
	ErrInvalidBindingStrength
	ErrInvalidType
	ErrMissingRequiredField
	ErrInvalidValue
)

// Error is a profile-export failure. Rule-application errors are collected
// in Result.Warnings rather than returned, since a failing rule does not
// abort the export; Error itself is only returned for failures that do
// abort it (input checks on the resource, parent resolution, final
// validation).
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
