package iocore

import "io"

// Transport is the raw, unbuffered side of an endpoint.
//
// DirectRead blocks until it can return at least one byte, or returns
// (0, true) when the transport will never produce more data. Failures are
// reported on s; the count is what was read before the failure.
//
// DirectWrite blocks until it has written p or failed, and returns how many
// bytes the transport accepted.
type Transport interface {
	DirectRead(p []byte, s *Sink) (n int, eos bool)
	DirectWrite(p []byte, s *Sink) int
}

// DirectCloser is implemented by transports that release something on Close.
type DirectCloser interface {
	DirectClose(s *Sink)
}

// Reader is the read half of the endpoint contract.
type Reader interface {
	Read(p []byte, s *Sink) (n int, eos bool)
}

// Writer is the write half of the endpoint contract.
type Writer interface {
	Write(p []byte, s *Sink) int
}

var (
	_ Reader = (*Stream)(nil)
	_ Writer = (*Stream)(nil)
)

type windowState uint8

const (
	unbuffered windowState = iota
	promised
	allocated
)

// window is the backing storage of one buffer direction. A promised window
// knows its size but allocates on first use.
type window struct {
	state windowState
	size  int
	buf   []byte
}

func newWindow(size int) window {
	if size <= 0 {
		return window{}
	}
	return window{state: promised, size: size}
}

func (w *window) storage() []byte {
	if w.state == promised {
		w.buf = make([]byte, w.size)
		w.state = allocated
	}
	return w.buf
}

// Option configures the buffers of a Stream.
type Option func(*options)

type options struct {
	read  int
	write int
}

// WithReadBuffer promises a read buffer of n bytes. n <= 0 means unbuffered.
func WithReadBuffer(n int) Option {
	return func(o *options) { o.read = n }
}

// WithWriteBuffer promises a write buffer of n bytes. n <= 0 means unbuffered.
func WithWriteBuffer(n int) Option {
	return func(o *options) { o.write = n }
}

// WithBuffer promises read and write buffers of n bytes each.
func WithBuffer(n int) Option {
	return func(o *options) {
		o.read = n
		o.write = n
	}
}

// Stream adds optional buffering to a Transport. The read window holds
// buf[rpos:rend] unread bytes; the write window holds buf[:wpos] bytes not yet
// handed to the transport. Buffers are allocated on first use.
//
// A Stream has one logical owner at a time and must not be used concurrently.
type Stream struct {
	t Transport

	rw   window
	rpos int
	rend int

	ww   window
	wpos int
}

// NewStream wraps t. Without options the stream is unbuffered and every call
// reaches the transport.
func NewStream(t Transport, opts ...Option) *Stream {
	st := &Stream{}
	st.init(t, opts)
	return st
}

func (st *Stream) init(t Transport, opts []Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	st.t = t
	st.rw = newWindow(o.read)
	st.ww = newWindow(o.write)
}

// Read copies into p. Unread buffered bytes are served first; otherwise at
// most one transport read happens. Requests at least as large as the read
// buffer go straight to the transport without copying.
func (st *Stream) Read(p []byte, s *Sink) (n int, eos bool) {
	if len(p) == 0 {
		return 0, false
	}
	if st.rpos < st.rend {
		n = copy(p, st.rw.buf[st.rpos:st.rend])
		st.rpos += n
		return n, false
	}
	if st.rw.state == unbuffered || len(p) >= st.rw.size {
		return st.t.DirectRead(p, s)
	}

	buf := st.rw.storage()
	got, eos := st.t.DirectRead(buf, s)
	got = clamp(got, len(buf))
	st.rpos, st.rend = 0, got
	if got == 0 {
		return 0, eos
	}
	n = copy(p, buf[:got])
	st.rpos = n
	return n, false
}

// GetByte reads one byte. Unlike Read, running out of data is a failure: it
// reports UnexpectedEndOfStream and returns 0.
func (st *Stream) GetByte(s *Sink) byte {
	if st.rpos < st.rend {
		b := st.rw.buf[st.rpos]
		st.rpos++
		return b
	}
	var one [1]byte
	n, eos := st.Read(one[:], s)
	switch {
	case n == 1:
		return one[0]
	case eos:
		s.Report(UnexpectedEndOfStream.New(""))
	default:
		s.Report(IO.Wrap(io.ErrNoProgress, "read byte"))
	}
	return 0
}

// Write buffers p when it fits. Otherwise pending bytes are topped up and
// flushed, and whatever still does not fit goes directly to the transport.
// The result counts every byte accepted, buffered or written, even when a
// failure is reported.
func (st *Stream) Write(p []byte, s *Sink) int {
	if st.ww.state == unbuffered {
		return st.direct(p, s)
	}
	if len(p) <= st.ww.size-st.wpos {
		if len(p) == 0 {
			return 0
		}
		st.wpos += copy(st.ww.storage()[st.wpos:], p)
		return len(p)
	}

	var total int
	if st.wpos > 0 {
		k := copy(st.ww.buf[st.wpos:], p)
		st.wpos += k
		total = k
		p = p[k:]
		st.Flush(s)
		if st.wpos > 0 {
			return total
		}
	}
	if len(p) <= st.ww.size {
		st.wpos = copy(st.ww.storage(), p)
		return total + len(p)
	}
	return total + st.direct(p, s)
}

// WriteString is Write for strings.
func (st *Stream) WriteString(str string, s *Sink) int {
	return st.Write([]byte(str), s)
}

// PutByte writes one byte.
func (st *Stream) PutByte(b byte, s *Sink) {
	if st.ww.state != unbuffered && st.wpos < st.ww.size {
		st.ww.storage()[st.wpos] = b
		st.wpos++
		return
	}
	st.Write([]byte{b}, s)
}

// WriteRepeated writes b count times and returns how many were accepted.
// A negative count is a programmer error.
func (st *Stream) WriteRepeated(b byte, count int, s *Sink) int {
	if count < 0 {
		Illegal("negative repeat count %d", count)
	}
	var chunk [256]byte
	fill := chunk[:min(count, len(chunk))]
	for i := range fill {
		fill[i] = b
	}
	var total int
	for count > 0 {
		k := min(count, len(chunk))
		n := st.Write(chunk[:k], s)
		total += n
		count -= n
		if n < k {
			break
		}
	}
	return total
}

// Flush hands pending bytes to the transport and returns how many it took.
// After a short flush the remainder moves to the front of the buffer so a
// later Flush resumes where this one stopped.
func (st *Stream) Flush(s *Sink) int {
	if st.wpos == 0 {
		return 0
	}
	buf := st.ww.buf
	n := clamp(st.t.DirectWrite(buf[:st.wpos], s), st.wpos)
	if n < st.wpos {
		st.wpos = copy(buf, buf[n:st.wpos])
		if !s.Failed() {
			s.Report(ShortWrite.Errorf("flushed %d of %d bytes", n, n+st.wpos))
		}
		return n
	}
	st.wpos = 0
	return n
}

// Reset drops unread input and unflushed output, keeping the buffers.
func (st *Stream) Reset() {
	st.rpos, st.rend = 0, 0
	st.wpos = 0
}

// Close flushes pending output and closes the transport if it supports it.
func (st *Stream) Close(s *Sink) {
	st.Flush(s)
	if c, ok := st.t.(DirectCloser); ok {
		c.DirectClose(s)
	}
}

// Buffered returns the number of unread bytes in the read buffer.
func (st *Stream) Buffered() int { return st.rend - st.rpos }

// Pending returns the number of bytes waiting in the write buffer.
func (st *Stream) Pending() int { return st.wpos }

func (st *Stream) direct(p []byte, s *Sink) int {
	n := clamp(st.t.DirectWrite(p, s), len(p))
	if n < len(p) && !s.Failed() {
		s.Report(ShortWrite.Errorf("wrote %d of %d bytes", n, len(p)))
	}
	return n
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	return min(n, limit)
}

const maxNoProgress = 100

// Copy moves bytes from src to dst until src reaches end-of-stream or s
// fails, and returns the number of bytes written. Buffered output left in
// dst is not flushed.
func Copy(dst Writer, src Reader, s *Sink) int64 {
	buf := make([]byte, 32*1024)
	var (
		total int64
		idle  int
	)
	for {
		n, eos := src.Read(buf, s)
		if n > 0 {
			idle = 0
			wn := dst.Write(buf[:n], s)
			total += int64(wn)
			if wn != n {
				if !s.Failed() {
					s.Report(ShortWrite.Errorf("copied %d of %d bytes", wn, n))
				}
				return total
			}
		}
		if eos || s.Failed() {
			return total
		}
		if n == 0 {
			idle++
			if idle >= maxNoProgress {
				s.Report(IO.Wrap(io.ErrNoProgress, ""))
				return total
			}
		}
	}
}
