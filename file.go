package iocore

import (
	"io"
	"os"
	"sync"
)

var (
	_ Transport    = (*File)(nil)
	_ DirectCloser = (*File)(nil)
)

// File is an endpoint over an operating system handle, or over any io.Reader
// and io.Writer standing in for one.
type File struct {
	Stream
	name string
	r    io.Reader
	w    io.Writer
	c    io.Closer
}

// NewFile wraps an open file for reading, writing and closing.
func NewFile(f *os.File, opts ...Option) *File {
	return NewHandle(f.Name(), f, f, f, opts...)
}

// NewHandle builds a File from separate halves. r, w and c may be nil;
// reading from a handle without r or writing to one without w panics.
func NewHandle(name string, r io.Reader, w io.Writer, c io.Closer, opts ...Option) *File {
	f := &File{name: name, r: r, w: w, c: c}
	f.init(f, opts)
	return f
}

// Name returns the name the handle was created with.
func (f *File) Name() string { return f.name }

func (f *File) DirectRead(p []byte, s *Sink) (int, bool) {
	if f.r == nil {
		Illegal("%s: not open for reading", f.name)
	}
	n, err := f.r.Read(p)
	switch {
	case n > 0:
		if err != nil && err != io.EOF {
			s.Report(IO.Wrap(err, f.name))
		}
		return n, false
	case err == io.EOF:
		return 0, true
	case err != nil:
		s.Report(IO.Wrap(err, f.name))
	}
	return 0, false
}

func (f *File) DirectWrite(p []byte, s *Sink) int {
	if f.w == nil {
		Illegal("%s: not open for writing", f.name)
	}
	n, err := f.w.Write(p)
	if err != nil {
		s.Report(IO.Wrap(err, f.name))
	}
	return n
}

func (f *File) DirectClose(s *Sink) {
	if f.c == nil {
		return
	}
	if err := f.c.Close(); err != nil {
		s.Report(IO.Wrap(err, f.name))
	}
}

const stdioBufferSize = 4096

// Stdio groups the three standard streams. Code that prints takes a *Stdio
// rather than reaching for process globals, so tests can pass their own.
type Stdio struct {
	In  *File
	Out *File
	Err *File
}

// NewStdio builds standard streams over the given handles. Input and output
// are buffered; the error stream is not.
func NewStdio(in io.Reader, out, errOut io.Writer) *Stdio {
	return &Stdio{
		In:  NewHandle("stdin", in, nil, nil, WithReadBuffer(stdioBufferSize)),
		Out: NewHandle("stdout", nil, out, nil, WithWriteBuffer(stdioBufferSize)),
		Err: NewHandle("stderr", nil, errOut, nil),
	}
}

var std = sync.OnceValue(func() *Stdio {
	return NewStdio(os.Stdin, os.Stdout, os.Stderr)
})

// Std returns the process standard streams, created on first use.
func Std() *Stdio { return std() }

// Flush flushes the buffered output stream.
func (sio *Stdio) Flush(s *Sink) {
	sio.Out.Flush(s)
}
