package iocore

var _ Transport = (*StringReader)(nil)

// StringReader is a read-only endpoint over a string.
type StringReader struct {
	Stream
	str string
	off int
}

// NewStringReader returns an endpoint reading str from the start.
func NewStringReader(str string, opts ...Option) *StringReader {
	r := &StringReader{str: str}
	r.init(r, opts)
	return r
}

func (r *StringReader) DirectRead(p []byte, _ *Sink) (int, bool) {
	if r.off >= len(r.str) {
		return 0, true
	}
	n := copy(p, r.str[r.off:])
	r.off += n
	return n, false
}

// DirectWrite panics: a StringReader cannot be written to.
func (r *StringReader) DirectWrite([]byte, *Sink) int {
	Illegal("string reader is read-only")
	return 0
}

// Len returns the number of bytes not yet handed to the stream.
func (r *StringReader) Len() int { return len(r.str) - r.off }
