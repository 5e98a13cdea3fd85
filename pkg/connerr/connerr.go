// Package connerr is the error vocabulary shared by the store adapters and the
// RPC handlers. Every failure that crosses a package boundary carries a Kind so
// the gRPC edge, and any future retry policy, can tell a missing object from a
// flaky store.
package connerr

import (
	"context"
	"fmt"
)

type Kind int

const (
	// Unknown is reported for errors that were never classified.
	Unknown Kind = iota
	NotFound
	InvalidRange
	StoreUnavailable
	ProtocolViolation
	StreamAborted
	Timeout
)

var kindNames = map[Kind]string{
	Unknown:           "Unknown",
	NotFound:          "NotFound",
	InvalidRange:      "InvalidRange",
	StoreUnavailable:  "StoreUnavailable",
	ProtocolViolation: "ProtocolViolation",
	StreamAborted:     "StreamAborted",
	Timeout:           "Timeout",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Retryable reports whether an operation failing with this kind may succeed
// when issued again unchanged.
func (k Kind) Retryable() bool {
	return k == StoreUnavailable || k == Timeout
}

type Error struct {
	Kind Kind
	// Op names the failed operation, e.g. "probe" or "list".
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

// Cause lets errors.Cause see through to the store error.
func (e *Error) Cause() error {
	return e.Err
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Errorf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
// Context errors that were never classified still map to StreamAborted and
// Timeout.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		switch err {
		case context.Canceled:
			return StreamAborted
		case context.DeadlineExceeded:
			return Timeout
		}
		next := unwrapOnce(err)
		if next == nil {
			break
		}
		err = next
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message is the human readable text sent to RPC callers: the message of the
// outermost classified error that carries one, otherwise the innermost cause.
func Message(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && (e.Msg != "" || e.Err == nil) {
			return e.Msg
		}
		next := unwrapOnce(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
	return ""
}

func unwrapOnce(err error) error {
	switch e := err.(type) {
	case interface{ Unwrap() error }:
		return e.Unwrap()
	case interface{ Cause() error }:
		return e.Cause()
	}
	return nil
}
