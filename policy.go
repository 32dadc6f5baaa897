package iocore

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

var (
	_ Policy = (*Ignore)(nil)
	_ Policy = ignoreOne{}
	_ Policy = Panic{}
	_ Policy = (*Log)(nil)
	_ Policy = (*Recorder)(nil)
)

// Ignore accepts and drops errors. EOF remembers whether the dropped error
// was an end-of-stream.
type Ignore struct {
	EOF bool
}

func (i *Ignore) Receive(err error) bool {
	i.EOF = errors.Is(err, EndOfStream)
	return true
}

type ignoreOne struct {
	sentinel error
	next     Policy
}

// IgnoreOne swallows errors matching sentinel and forwards everything else to
// next. Swallowed errors are not accepted, so the sink stays clean.
func IgnoreOne(sentinel error, next Policy) Policy {
	return ignoreOne{sentinel: sentinel, next: next}
}

func (p ignoreOne) Receive(err error) bool {
	if errors.Is(err, p.sentinel) {
		return false
	}
	return p.next.Receive(err)
}

// Panic aborts the current unit of work by panicking with a *Fatal.
type Panic struct{}

func (Panic) Receive(err error) bool {
	panic(newFatal(err))
}

// Log writes accepted errors to a structured logger. A non-empty ID is added
// to every record as the "sink" attribute.
type Log struct {
	Logger *slog.Logger
	Level  slog.Level
	ID     string
}

// NewLog returns a Log policy writing JSON records to stderr at error level,
// tagged with a fresh random ID.
func NewLog() *Log {
	return &Log{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		Level:  slog.LevelError,
		ID:     uuid.NewString(),
	}
}

func (l *Log) Receive(err error) bool {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []slog.Attr{
		slog.String("kind", KindOf(err).Name()),
		slog.String("err", err.Error()),
	}
	if l.ID != "" {
		attrs = append(attrs, slog.String("sink", l.ID))
	}
	logger.LogAttrs(context.Background(), l.Level, "reported", attrs...)
	return true
}

// Recorder keeps the error it receives for later inspection.
type Recorder struct {
	err error
}

func (r *Recorder) Receive(err error) bool {
	if r.err == nil {
		r.err = err
	}
	return true
}

// Err returns the recorded error, or nil.
func (r *Recorder) Err() error { return r.err }

// Is reports whether the recorded error matches target.
func (r *Recorder) Is(target error) bool {
	return r.err != nil && errors.Is(r.err, target)
}

// Equal reports whether both recorders are empty or hold errors of the same
// kind with the same description.
func (r *Recorder) Equal(o *Recorder) bool {
	if r.err == nil || o.err == nil {
		return r.err == nil && o.err == nil
	}
	return KindOf(r.err) == KindOf(o.err) && r.err.Error() == o.err.Error()
}
