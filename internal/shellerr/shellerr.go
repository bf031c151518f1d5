// Package shellerr defines the user-visible error kinds described in spec §7.
package shellerr

import "fmt"

// Kind names one of the error categories enumerated in spec §7.
type Kind string

const (
	KindRedirect         Kind = "redirect"
	KindMultipleStdin    Kind = "multiple_stdin"
	KindPermissionDenied Kind = "permission_denied"
	KindCommandNotFound  Kind = "command_not_found"
	KindInvalidAlias     Kind = "invalid_alias"
	KindFileOpenFailed   Kind = "file_open_failed"
)

// Error is the shell-visible error type ("XonshError" in spec §7): every
// error that should abort a pipeline and print a "<shell>: subprocess mode:"
// diagnostic rather than propagate as a raw Go error.
type Error struct {
	Kind    Kind
	Message string
	Path    string // populated for KindFileOpenFailed
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Message
}

// Diagnostic renders the spec §7 user-visible form: "<prefix>: subprocess mode: <msg>".
func (e *Error) Diagnostic(prefix string) string {
	return fmt.Sprintf("%s: subprocess mode: %s", prefix, e.Message)
}

// Is allows errors.Is(err, shellerr.KindX) style checks via a sentinel wrapper.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
