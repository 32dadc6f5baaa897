package iocore

import (
	"fmt"
	"sync"
)

// Policy decides what a Sink does with the first error it is handed.
// Receive reports whether the error was accepted; a sink that received an
// accepted error is failed and ignores every later report.
type Policy interface {
	Receive(err error) bool
}

// Sink is the error handle passed to every fallible operation. Operations
// report into it and return partial results; callers check Failed before
// trusting those results.
//
// A Sink from NewSink is not safe for concurrent use: give each goroutine its
// own sink and merge the results, or use NewSharedSink.
type Sink struct {
	policy Policy
	mu     *sync.Mutex
	err    error
	failed bool
}

// NewSink returns a sink applying p to the first accepted report.
func NewSink(p Policy) *Sink {
	return &Sink{policy: p}
}

// NewSharedSink is NewSink with the first-report check made atomic, so the
// sink may be shared between goroutines. The policy runs under the sink's lock.
func NewSharedSink(p Policy) *Sink {
	return &Sink{policy: p, mu: new(sync.Mutex)}
}

// Report hands err to the policy unless the sink already failed. A nil err
// is ignored.
func (s *Sink) Report(err error) {
	if err == nil {
		return
	}
	if s.mu != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if s.failed {
		return
	}
	if s.policy.Receive(err) {
		s.failed = true
		s.err = err
	}
}

// Reportf reports a Generic error built from format and args.
func (s *Sink) Reportf(format string, args ...any) {
	if s.Failed() {
		return
	}
	s.Report(Generic.New(fmt.Sprintf(format, args...)))
}

// Failed reports whether the sink accepted an error.
func (s *Sink) Failed() bool {
	if s.mu != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return s.failed
}

// Err returns the accepted error, or nil.
func (s *Sink) Err() error {
	if s.mu != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return s.err
}

// Discard returns a sink that accepts and drops every error.
func Discard() *Sink {
	return NewSink(&Ignore{})
}

// Must returns a sink that panics with a *Fatal on the first error.
func Must() *Sink {
	return NewSink(Panic{})
}

// Record returns a sink backed by a fresh Recorder.
func Record() (*Sink, *Recorder) {
	r := &Recorder{}
	return NewSink(r), r
}
