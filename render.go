package iocore

import "fmt"

// Renderer is anything that can describe itself onto a Writer.
type Renderer interface {
	Render(w Writer, s *Sink)
}

var _ Renderer = (*Error)(nil)

// Render writes r to w. It is a no-op once s has failed.
func Render(w Writer, r Renderer, s *Sink) {
	if s.Failed() {
		return
	}
	r.Render(w, s)
}

// Printf formats with package fmt and writes the result to w, returning the
// number of bytes written.
func Printf(w Writer, s *Sink, format string, args ...any) int {
	n, _ := fmt.Fprintf(AsWriter(w, s), format, args...)
	return n
}
