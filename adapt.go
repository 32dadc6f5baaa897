package iocore

import "io"

var (
	_ io.Reader = (*Relay)(nil)
	_ io.Writer = (*Relay)(nil)
)

// Relay exposes an endpoint as an io.Reader and io.Writer. Failures reported
// on S surface as the returned error; end-of-stream becomes io.EOF, and a
// short write with nothing reported returns io.ErrShortWrite.
//
// S may be swapped between calls, which lets a long-lived codec built on the
// std interfaces report into the sink of each call in progress. Any error S
// already holds ends the relay.
type Relay struct {
	R Reader
	W Writer
	S *Sink
}

// AsReader exposes r as an io.Reader reporting into s.
func AsReader(r Reader, s *Sink) io.Reader {
	return &Relay{R: r, S: s}
}

// AsWriter exposes w as an io.Writer reporting into s.
func AsWriter(w Writer, s *Sink) io.Writer {
	return &Relay{W: w, S: s}
}

func (rl *Relay) Read(p []byte) (int, error) {
	if err := rl.S.Err(); err != nil {
		return 0, err
	}
	n, eos := rl.R.Read(p, rl.S)
	if err := rl.S.Err(); err != nil {
		return n, err
	}
	if eos {
		return n, io.EOF
	}
	return n, nil
}

func (rl *Relay) Write(p []byte) (int, error) {
	if err := rl.S.Err(); err != nil {
		return 0, err
	}
	n := rl.W.Write(p, rl.S)
	if err := rl.S.Err(); err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}
