package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrShellFault marks a command parsing or dispatch failure.
	ErrShellFault = errors.New("shell fault")

	// ErrConfigWrite indicates that the node configuration could not be persisted.
	ErrConfigWrite = errors.New("config write failed")

	// ErrInvalidKey indicates that a configuration key does not exist.
	ErrInvalidKey = errors.New("invalid key")

	// ErrInterruptCallback marks a failure inside an armed hardware callback.
	ErrInterruptCallback = errors.New("interrupt callback fault")

	// ErrConnection indicates a refused, reset or timed out connection.
	ErrConnection = errors.New("connection fault")

	// ErrProtocolFraming indicates an unexpected reply shape.
	ErrProtocolFraming = errors.New("protocol framing fault")

	// ErrDecode indicates that a reply was not valid UTF-8.
	ErrDecode = errors.New("reply decode error")

	// ErrReplyTimeout indicates that no reply arrived within the poll window.
	ErrReplyTimeout = errors.New("reply timeout")

	// ErrSessionClosed is returned once the device sent the hard-close marker.
	ErrSessionClosed = errors.New("session closed by device")

	// ErrNoDevices indicates an empty device cache.
	ErrNoDevices = errors.New("no devices available")

	// ErrInvalidSelection indicates an out of range device index.
	ErrInvalidSelection = errors.New("invalid device selection")

	// ErrUnknownModule indicates that no capability module has the requested name.
	ErrUnknownModule = errors.New("unknown capability module")

	// ErrUnknownFunction indicates that a module does not expose the requested function.
	ErrUnknownFunction = errors.New("unknown module function")
)

// PanicError wraps a recovered panic value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recovered converts a recovered panic value into an error; nil stays nil.
func Recovered(v any) error {
	if v == nil {
		return nil
	}
	return &PanicError{Value: v}
}
