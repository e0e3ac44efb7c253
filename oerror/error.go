package oerror

import "fmt"

// Error is an error raised by netmove itself rather than by one of its dependencies.
type Error struct {
	msg string
}

// New formats a new Error in the manner of fmt.Sprintf.
func New(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return "netmove: " + e.msg
}
