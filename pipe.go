package iocore

import "sync"

var (
	_ Transport    = (*PipeReader)(nil)
	_ DirectCloser = (*PipeReader)(nil)
	_ Transport    = (*PipeWriter)(nil)
	_ DirectCloser = (*PipeWriter)(nil)
)

// pipe is the state shared by both halves. At most one write is in flight:
// data[off:] is what readers have not taken yet.
type pipe struct {
	readerClosedErr error
	writerClosedErr error

	writerWait sync.Cond
	readerWait sync.Cond

	data []byte
	off  int
	mu   sync.Mutex

	inFlight     bool
	readerClosed bool
	writerClosed bool
}

func newPipe() *pipe {
	p := &pipe{}
	p.writerWait.L = &p.mu
	p.readerWait.L = &p.mu
	return p
}

func (p *pipe) read(b []byte, s *Sink) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.inFlight && p.off < len(p.data) {
			n := copy(b, p.data[p.off:])
			p.off += n
			if p.off == len(p.data) {
				p.writerWait.Broadcast()
			}
			return n, false
		}
		if p.readerClosed {
			s.Report(p.writeErrLocked())
			return 0, true
		}
		if p.writerClosed {
			s.Report(p.readerClosedErr)
			return 0, true
		}
		p.readerWait.Wait()
	}
}

func (p *pipe) write(b []byte, s *Sink) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if err := p.writeErrLocked(); err != nil {
			s.Report(err)
			return 0
		}
		if !p.inFlight {
			break
		}
		p.writerWait.Wait()
	}

	p.data, p.off, p.inFlight = b, 0, true
	p.readerWait.Broadcast()
	for p.off < len(p.data) && !p.closedLocked() {
		p.writerWait.Wait()
	}

	n := p.off
	p.data, p.off, p.inFlight = nil, 0, false
	p.writerWait.Broadcast()
	if n < len(b) {
		s.Report(p.writeErrLocked())
	}
	return n
}

func (p *pipe) closedLocked() bool {
	return p.readerClosed || p.writerClosed
}

// writeErrLocked returns the error a write observes, or nil while both halves
// are open.
func (p *pipe) writeErrLocked() error {
	if p.readerClosed {
		if p.writerClosedErr != nil {
			return p.writerClosedErr
		}
		return ClosedPipe
	}
	if p.writerClosed {
		return ClosedPipe
	}
	return nil
}

func (p *pipe) closeReader(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readerClosed {
		return
	}
	p.readerClosed = true
	p.writerClosedErr = err
	p.readerWait.Broadcast()
	p.writerWait.Broadcast()
}

func (p *pipe) closeWriter(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writerClosed {
		return
	}
	p.writerClosed = true
	p.readerClosedErr = err
	p.readerWait.Broadcast()
	p.writerWait.Broadcast()
}

// Pipe creates a synchronous in-memory pipe. Each write on the writer blocks
// until readers have consumed all of it or either half is closed. Both halves
// are unbuffered unless options say otherwise.
func Pipe(opts ...Option) (*PipeReader, *PipeWriter) {
	p := newPipe()
	r := &PipeReader{p: p}
	r.init(r, opts)
	w := &PipeWriter{p: p}
	w.init(w, opts)
	return r, w
}

// PipeReader is the read half of a pipe.
type PipeReader struct {
	Stream
	p *pipe
}

// DirectRead blocks until a write is in flight or the pipe is closed. Bytes
// still in flight are served first. Once the pipe is closed with nothing in
// flight it returns end-of-stream, reporting the writer's close error if one
// was given.
func (r *PipeReader) DirectRead(b []byte, s *Sink) (int, bool) {
	return r.p.read(b, s)
}

// DirectWrite panics: the read half cannot be written to.
func (r *PipeReader) DirectWrite([]byte, *Sink) int {
	Illegal("write on the read half of a pipe")
	return 0
}

// DirectClose closes the reader side of the pipe.
func (r *PipeReader) DirectClose(*Sink) {
	r.p.closeReader(nil)
}

// CloseWithError closes the reader side of the pipe with an error.
// The error is reported to current and future writes on the writer side.
// Closing an already closed half has no effect.
func (r *PipeReader) CloseWithError(err error) {
	r.p.closeReader(err)
}

// PipeWriter is the write half of a pipe.
type PipeWriter struct {
	Stream
	p *pipe
}

// DirectRead panics: the write half cannot be read from.
func (w *PipeWriter) DirectRead([]byte, *Sink) (int, bool) {
	Illegal("read on the write half of a pipe")
	return 0, false
}

// DirectWrite publishes b to readers and waits until it is drained or the
// pipe closes, returning how many bytes readers took.
func (w *PipeWriter) DirectWrite(b []byte, s *Sink) int {
	return w.p.write(b, s)
}

// DirectClose closes the writer side of the pipe.
func (w *PipeWriter) DirectClose(*Sink) {
	w.p.closeWriter(nil)
}

// CloseWithError closes the writer side of the pipe with an error.
// Readers report it instead of plain end-of-stream. Closing an already closed
// half has no effect.
func (w *PipeWriter) CloseWithError(err error) {
	w.p.closeWriter(err)
}
