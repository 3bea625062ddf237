package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a chat client failure: auth failures send the user back
// to login, transport failures surface an alert, decode failures are
// generic errors. Nothing is retried automatically at this layer.
type Kind int

const (
	KindAuth      Kind = iota + 1 // missing/invalid/expired token
	KindTransport                 // network failure or non-2xx response
	KindDecode                    // malformed/unexpected server response
	KindClosed                    // operation on a torn-down session/channel
)

// ClientError is the error type every network-facing call returns.
type ClientError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// Is matches sentinels of the same kind, so callers can write
// errors.Is(err, errors.ErrUnauthorized) without caring about the wrap.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Kind == e.Kind
}

// Common errors
var (
	ErrUnauthorized = &ClientError{Kind: KindAuth, Message: "authentication required"}
	ErrTransport    = &ClientError{Kind: KindTransport, Message: "network request failed"}
	ErrBadResponse  = &ClientError{Kind: KindDecode, Message: "unexpected server response"}
	ErrClosed       = &ClientError{Kind: KindClosed, Message: "session closed"}
)

func Auth(msg string, err error) *ClientError {
	return &ClientError{Kind: KindAuth, Message: msg, Err: err}
}

func Transport(msg string, err error) *ClientError {
	return &ClientError{Kind: KindTransport, Message: msg, Err: err}
}

func Decode(msg string, err error) *ClientError {
	return &ClientError{Kind: KindDecode, Message: msg, Err: err}
}

// IsAuth reports whether err should send the user back to login.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
