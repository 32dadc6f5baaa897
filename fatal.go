package iocore

import "runtime/debug"

// Fatal is the panic value raised by the Panic policy and by programmer
// errors. It carries the stack at the point of failure.
type Fatal struct {
	Err   error
	Stack []byte
}

func newFatal(err error) *Fatal {
	return &Fatal{Err: err, Stack: debug.Stack()}
}

func (f *Fatal) Error() string {
	return "fatal: " + f.Err.Error()
}

// Unwrap returns the reported error.
func (f *Fatal) Unwrap() error { return f.Err }

// Assert panics with an Assertion error when cond is false.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(newFatal(Assertion.Errorf(format, args...)))
	}
}

// Illegal panics with an IllegalArgument error. Misusing an endpoint is a
// programmer error and is never reported through a sink.
func Illegal(format string, args ...any) {
	panic(newFatal(IllegalArgument.Errorf(format, args...)))
}

// Catch runs fn and turns a *Fatal panic into a report on s. Other panics
// propagate unchanged.
func Catch(s *Sink, fn func()) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		f, ok := v.(*Fatal)
		if !ok {
			panic(v)
		}
		s.Report(f.Err)
	}()
	fn()
}

// Crash prints a description of v, and its stack when v is a *Fatal, to w.
// It is meant for the process boundary and returns the exit status to use.
func Crash(w Writer, v any) int {
	s := Discard()
	switch x := v.(type) {
	case *Fatal:
		Printf(w, s, "%s\n", x.Error())
		w.Write(x.Stack, s)
	case error:
		Printf(w, s, "fatal: %s\n", x.Error())
	default:
		Printf(w, s, "fatal: %v\n", x)
	}
	if f, ok := w.(interface{ Flush(*Sink) int }); ok {
		f.Flush(s)
	}
	return 2
}
