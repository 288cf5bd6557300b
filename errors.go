package spgo

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by requests made after Close.
	ErrClosed = errors.New("spgo: bridge closed")

	// ErrNoListener means no listener is registered for the event's category.
	// The event is dropped; it is a configuration error, not a fatal one.
	ErrNoListener = errors.New("spgo: no listener registered")

	// ErrListenerAlreadySet is returned by a second SetListener for a category.
	ErrListenerAlreadySet = errors.New("spgo: listener already registered")

	// ErrAttach means the calling thread could not be attached to the runtime.
	ErrAttach = errors.New("spgo: cannot attach thread to host runtime")

	// ErrMethodLookup means the listener does not implement the expected method.
	ErrMethodLookup = errors.New("spgo: listener method lookup failed")

	// ErrInvocation means the listener raised a failure while handling an event.
	ErrInvocation = errors.New("spgo: listener invocation failed")

	// ErrHandle wraps failures of native handle operations.
	ErrHandle = errors.New("spgo: native handle operation failed")

	// ErrMarshal wraps failures building managed result objects.
	ErrMarshal = errors.New("spgo: marshaling failed")

	// ErrNoRequester is returned by operations that need a backend.Requester.
	ErrNoRequester = errors.New("spgo: no requester configured")

	// ErrNoWatcher is returned by operations that need a backend.Watcher.
	ErrNoWatcher = errors.New("spgo: no watcher configured")
)

// CallbackError is the status returned by an event handler that did not
// deliver its event.
type CallbackError struct {
	Event string
	Token int32
	Err   error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("spgo: %s (token %d): %v", e.Event, e.Token, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

// outcome classifies a handler error for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoListener):
		return "no_listener"
	case errors.Is(err, ErrAttach):
		return "attach"
	case errors.Is(err, ErrMethodLookup):
		return "lookup"
	case errors.Is(err, ErrInvocation):
		return "invocation"
	case errors.Is(err, ErrHandle):
		return "handle"
	case errors.Is(err, ErrMarshal):
		return "marshal"
	}
	return "error"
}
