package iocore

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Kind tags a family of errors. Kinds are compared by pointer, never by name,
// so two kinds created with the same name are still distinct.
//
// A Kind is itself an error, which makes errors.Is(err, kind) the way to ask
// whether any error in err's chain carries that kind.
type Kind struct {
	name string
	std  error
}

// NewKind creates a kind tag. It is meant to be called once per kind, at
// package initialisation, and the result kept in a variable.
func NewKind(name string) *Kind {
	return &Kind{name: name}
}

func stdKind(name string, std error) *Kind {
	return &Kind{name: name, std: std}
}

// Kinds reported by this package. The protocol kinds also match their io
// package counterparts under errors.Is.
var (
	Generic               = NewKind("error")
	IO                    = NewKind("I/O error")
	Syntax                = NewKind("syntax error")
	Range                 = NewKind("out of range")
	Assertion             = NewKind("assertion failed")
	IllegalArgument       = NewKind("illegal argument")
	Joined                = NewKind("joined errors")
	ShortWrite            = stdKind("short write", io.ErrShortWrite)
	ShortBuffer           = stdKind("short buffer", io.ErrShortBuffer)
	UnexpectedEndOfStream = stdKind("unexpected end of stream", io.ErrUnexpectedEOF)
	ClosedPipe            = stdKind("closed pipe", io.ErrClosedPipe)
	EndOfStream           = stdKind("end of stream", io.EOF)
)

var stdKinds = []*Kind{ShortWrite, ShortBuffer, UnexpectedEndOfStream, ClosedPipe, EndOfStream}

// Name returns the kind's description.
func (k *Kind) Name() string { return k.name }

func (k *Kind) Error() string { return k.name }

// Is reports whether target is the io sentinel this kind stands for.
func (k *Kind) Is(target error) bool {
	return k.std != nil && target == k.std
}

// New returns an error of kind k with an optional message.
func (k *Kind) New(msg string) error {
	return &Error{kind: k, msg: msg}
}

// Errorf formats like fmt.Errorf, keeping any %w operands reachable through
// Unwrap.
func (k *Kind) Errorf(format string, args ...any) error {
	return &Error{kind: k, wrapped: []error{fmt.Errorf(format, args...)}}
}

// Wrap tags err with kind k. It returns nil when err is nil.
func (k *Kind) Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: k, msg: msg, wrapped: []error{err}}
}

// Error is an immutable failure value: a kind, an optional message and the
// causes it wraps.
type Error struct {
	kind    *Kind
	msg     string
	wrapped []error
}

// Kind returns the error's kind tag.
func (e *Error) Kind() *Kind { return e.kind }

// Message returns the message given at construction, if any.
func (e *Error) Message() string { return e.msg }

func (e *Error) Error() string {
	var b strings.Builder
	if e.kind == Joined {
		for i, w := range e.wrapped {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(w.Error())
		}
		return b.String()
	}
	b.WriteString(e.kind.name)
	if e.msg != "" {
		b.WriteString(": ")
		b.WriteString(e.msg)
	}
	for i, w := range e.wrapped {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(w.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped causes in order.
func (e *Error) Unwrap() []error { return e.wrapped }

// Is matches e's own kind and, through it, the io sentinel the kind maps to.
// Causes are searched by errors.Is itself through Unwrap.
func (e *Error) Is(target error) bool {
	if k, ok := target.(*Kind); ok {
		return k == e.kind
	}
	return e.kind.Is(target)
}

// Render writes the error description to w.
func (e *Error) Render(w Writer, s *Sink) {
	w.Write([]byte(e.Error()), s)
}

// Join aggregates errs into one error, skipping nils. It returns nil when no
// error remains and the error itself when exactly one remains.
func Join(errs ...error) error {
	var kept []error
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &Error{kind: Joined, wrapped: kept}
}

// KindOf returns the first kind found in err's chain. io sentinels map to the
// matching protocol kind; anything else is Generic. KindOf(nil) is nil.
func KindOf(err error) *Kind {
	if err == nil {
		return nil
	}
	if k, ok := err.(*Kind); ok {
		return k
	}
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	for _, k := range stdKinds {
		if errors.Is(err, k.std) {
			return k
		}
	}
	return Generic
}
