package iocore

import "unsafe"

var _ Transport = (*Buffer)(nil)

// Buffer is a growable in-memory endpoint. Writes append to its storage and
// reads consume from the front; a drained Buffer reads as end-of-stream.
type Buffer struct {
	Stream
	data []byte
	off  int
}

// NewBuffer returns an empty Buffer with room for capacity bytes.
func NewBuffer(capacity int, opts ...Option) *Buffer {
	b := &Buffer{data: make([]byte, 0, max(capacity, 0))}
	b.init(b, opts)
	return b
}

func (b *Buffer) DirectRead(p []byte, _ *Sink) (int, bool) {
	if b.off == len(b.data) {
		return 0, true
	}
	n := copy(p, b.data[b.off:])
	b.off += n
	return n, false
}

func (b *Buffer) DirectWrite(p []byte, _ *Sink) int {
	if b.off > 0 && b.off == len(b.data) {
		b.data = b.data[:0]
		b.off = 0
	}
	b.Grow(len(p))
	b.data = append(b.data, p...)
	return len(p)
}

// Grow makes room for at least n more bytes. Already-read bytes are dropped
// first: unread bytes slide to the front when that frees enough space, and
// otherwise only they are copied into the larger storage.
func (b *Buffer) Grow(n int) {
	if n <= cap(b.data)-len(b.data) {
		return
	}
	unread := len(b.data) - b.off
	if b.off > 0 && unread+n <= cap(b.data)/2 {
		b.data = b.data[:copy(b.data, b.data[b.off:])]
		b.off = 0
		return
	}
	size := max(2*cap(b.data), unread+n, 64)
	grown := make([]byte, unread, size)
	copy(grown, b.data[b.off:])
	b.data, b.off = grown, 0
}

// Cap returns the size of the backing storage.
func (b *Buffer) Cap() int { return cap(b.data) }

// Used returns how much of the storage holds written bytes, read or not.
func (b *Buffer) Used() int { return len(b.data) }

// Available returns how many bytes can be written before the storage grows.
func (b *Buffer) Available() int { return cap(b.data) - len(b.data) }

// Len returns the number of unread bytes.
func (b *Buffer) Len() int { return len(b.data) - b.off }

// Bytes returns the unread bytes. The slice aliases the storage and is only
// valid until the next write.
func (b *Buffer) Bytes() []byte { return b.data[b.off:] }

func (b *Buffer) String() string { return string(b.data[b.off:]) }

// ToOwned flushes pending output and hands the unread bytes over as a string.
// Bytes still waiting in the read buffer come first. The storage is handed
// over without copying unless the read buffer holds bytes. The Buffer is
// empty afterwards and allocates fresh storage on its next write.
func (b *Buffer) ToOwned() string {
	b.Flush(Discard())
	unread := b.data[b.off:]
	if held := b.Buffered(); held > 0 {
		owned := make([]byte, 0, held+len(unread))
		owned = append(owned, b.rw.buf[b.rpos:b.rend]...)
		unread = append(owned, unread...)
	}
	b.data, b.off = nil, 0
	b.Reset()
	if len(unread) == 0 {
		return ""
	}
	return unsafe.String(&unread[0], len(unread))
}
