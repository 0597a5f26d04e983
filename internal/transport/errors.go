package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionNotOpen is returned by Send while the connection is not open.
	ErrConnectionNotOpen = errors.New("connection not open")
	// ErrAlreadyOpened is returned when Open is called twice.
	ErrAlreadyOpened = errors.New("connection already opened")
	// ErrClosed is returned by Open after Close.
	ErrClosed = errors.New("connection closed")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("transport error")
)

// TransportError reports a failure of the underlying socket.
type TransportError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the socket error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransport) match.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
