// Package zstdio provides zstd compressing and decompressing endpoints that
// sit in front of any iocore Writer or Reader.
package zstdio

import (
	"io"

	"github.com/jacoelho/iocore"
	"github.com/klauspost/compress/zstd"
)

// report passes codec failures on. Errors that came from the relayed endpoint
// are already on s and Report drops the repeat.
func report(s *iocore.Sink, kind *iocore.Kind, err error) {
	if err != nil {
		s.Report(kind.Wrap(err, "zstd"))
	}
}

// Writer compresses everything written to it into dst. Close must be called
// to write the end of the zstd frame.
type Writer struct {
	*iocore.Stream
	enc *encoder
}

type encoder struct {
	relay iocore.Relay
	zw    *zstd.Encoder
}

// NewWriter returns a compressing endpoint writing to dst. Encoder options
// are passed to zstd; encoding always runs on the caller's goroutine.
func NewWriter(dst iocore.Writer, opts []zstd.EOption, streamOpts ...iocore.Option) *Writer {
	enc := &encoder{relay: iocore.Relay{W: dst}}
	zw, err := zstd.NewWriter(&enc.relay, append(opts[:len(opts):len(opts)], zstd.WithEncoderConcurrency(1))...)
	if err != nil {
		iocore.Illegal("zstd encoder: %v", err)
	}
	enc.zw = zw
	return &Writer{Stream: iocore.NewStream(enc, streamOpts...), enc: enc}
}

// Flush pushes buffered bytes through the encoder and the encoder's pending
// block to dst.
func (w *Writer) Flush(s *iocore.Sink) int {
	n := w.Stream.Flush(s)
	w.enc.relay.S = s
	report(s, iocore.IO, w.enc.zw.Flush())
	return n
}

func (e *encoder) DirectRead([]byte, *iocore.Sink) (int, bool) {
	iocore.Illegal("zstd writer cannot be read from")
	return 0, false
}

func (e *encoder) DirectWrite(p []byte, s *iocore.Sink) int {
	e.relay.S = s
	n, err := e.zw.Write(p)
	report(s, iocore.IO, err)
	return n
}

func (e *encoder) DirectClose(s *iocore.Sink) {
	e.relay.S = s
	report(s, iocore.IO, e.zw.Close())
}

// Reader decompresses the zstd stream read from src.
type Reader struct {
	*iocore.Stream
	dec *decoder
}

type decoder struct {
	relay   iocore.Relay
	zr      *zstd.Decoder
	started bool
}

// NewReader returns a decompressing endpoint reading from src. Decoding runs
// on the caller's goroutine and starts with the first read.
func NewReader(src iocore.Reader, opts []zstd.DOption, streamOpts ...iocore.Option) *Reader {
	zr, err := zstd.NewReader(nil, append(opts[:len(opts):len(opts)], zstd.WithDecoderConcurrency(1))...)
	if err != nil {
		iocore.Illegal("zstd decoder: %v", err)
	}
	dec := &decoder{relay: iocore.Relay{R: src}, zr: zr}
	return &Reader{Stream: iocore.NewStream(dec, streamOpts...), dec: dec}
}

func (d *decoder) DirectRead(p []byte, s *iocore.Sink) (int, bool) {
	d.relay.S = s
	if !d.started {
		d.started = true
		if err := d.zr.Reset(&d.relay); err != nil {
			report(s, iocore.Syntax, err)
			return 0, false
		}
	}
	n, err := d.zr.Read(p)
	switch {
	case err == io.EOF:
		return n, n == 0
	case err != nil:
		report(s, iocore.Syntax, err)
	}
	return n, false
}

func (d *decoder) DirectWrite([]byte, *iocore.Sink) int {
	iocore.Illegal("zstd reader cannot be written to")
	return 0
}

func (d *decoder) DirectClose(*iocore.Sink) {
	d.zr.Close()
}
