package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
)

// Invalid returns an error matching ErrInvalid that carries a client-facing message.
func Invalid(format string, args ...interface{}) error {
	return &invalidError{msg: fmt.Sprintf(format, args...)}
}

type invalidError struct {
	msg string
}

func (e *invalidError) Error() string {
	return e.msg
}

func (e *invalidError) Is(target error) bool {
	return target == ErrInvalid
}

// Message returns the client-facing message of an Invalid error, or fallback.
func Message(err error, fallback string) string {
	var ie *invalidError
	if errors.As(err, &ie) {
		return ie.msg
	}
	return fallback
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}
