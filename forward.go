package iocore

import "reflect"

var (
	_ Transport    = (*Forwarder)(nil)
	_ DirectCloser = (*Forwarder)(nil)
)

// Forwarder joins a Reader and a Writer into one endpoint: reads come from r
// and writes go to w.
type Forwarder struct {
	Stream
	r Reader
	w Writer
}

// NewForwarder couples r and w. Either may be nil, making the matching
// direction unusable.
func NewForwarder(r Reader, w Writer, opts ...Option) *Forwarder {
	f := &Forwarder{r: r, w: w}
	f.init(f, opts)
	return f
}

func (f *Forwarder) DirectRead(p []byte, s *Sink) (int, bool) {
	if f.r == nil {
		Illegal("forwarder has no reader")
	}
	return f.r.Read(p, s)
}

func (f *Forwarder) DirectWrite(p []byte, s *Sink) int {
	if f.w == nil {
		Illegal("forwarder has no writer")
	}
	return f.w.Write(p, s)
}

// DirectClose closes both sides when they can be closed.
func (f *Forwarder) DirectClose(s *Sink) {
	type closer interface{ Close(*Sink) }
	if c, ok := f.w.(closer); ok {
		c.Close(s)
	}
	if c, ok := f.r.(closer); ok && !sameEndpoint(f.r, f.w) {
		c.Close(s)
	}
}

// sameEndpoint reports whether r and w hold the same comparable value.
// Values of non-comparable types are never the same endpoint.
func sameEndpoint(r Reader, w Writer) bool {
	if r == nil || w == nil {
		return false
	}
	rt := reflect.TypeOf(r)
	return rt == reflect.TypeOf(w) && rt.Comparable() && any(r) == any(w)
}
