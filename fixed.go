package iocore

var _ Transport = (*Fixed)(nil)

// Fixed is a bounded endpoint over caller-provided storage, used as a ring:
// reads drain bytes in the order they were written and free space for later
// writes. Writes beyond the free space are short.
type Fixed struct {
	Stream
	data  []byte
	head  int
	count int
}

// NewFixed returns an empty Fixed endpoint using storage as its ring.
func NewFixed(storage []byte, opts ...Option) *Fixed {
	f := &Fixed{data: storage}
	f.init(f, opts)
	return f
}

func (f *Fixed) DirectRead(p []byte, _ *Sink) (int, bool) {
	if f.count == 0 {
		return 0, true
	}
	toRead := min(f.count, len(p))
	if end := f.head + toRead; end <= len(f.data) {
		copy(p, f.data[f.head:end])
	} else {
		first := copy(p, f.data[f.head:])
		copy(p[first:toRead], f.data[:toRead-first])
	}
	f.head = (f.head + toRead) % len(f.data)
	f.count -= toRead
	return toRead, false
}

func (f *Fixed) DirectWrite(p []byte, _ *Sink) int {
	toWrite := min(f.Free(), len(p))
	if toWrite == 0 {
		return 0
	}
	tail := (f.head + f.count) % len(f.data)
	if end := tail + toWrite; end <= len(f.data) {
		copy(f.data[tail:end], p[:toWrite])
	} else {
		first := copy(f.data[tail:], p)
		copy(f.data[:toWrite-first], p[first:toWrite])
	}
	f.count += toWrite
	return toWrite
}

// Len returns the number of unread bytes.
func (f *Fixed) Len() int { return f.count }

// Free returns how many bytes can be written before the ring is full.
func (f *Fixed) Free() int { return len(f.data) - f.count }

// Cap returns the size of the storage.
func (f *Fixed) Cap() int { return len(f.data) }
