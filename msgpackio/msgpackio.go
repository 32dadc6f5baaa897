// Package msgpackio encodes and decodes MessagePack values directly on iocore
// endpoints.
package msgpackio

import (
	"errors"
	"io"

	"github.com/jacoelho/iocore"
	"github.com/vmihailenco/msgpack/v5"
)

// Invalid tags values that could not be encoded or decoded.
var Invalid = iocore.NewKind("invalid msgpack")

// Encoder writes a sequence of values to an endpoint.
type Encoder struct {
	relay iocore.Relay
	enc   *msgpack.Encoder
}

// NewEncoder returns an Encoder writing to w. Struct fields fall back to
// their json tag when no msgpack tag is present.
func NewEncoder(w iocore.Writer) *Encoder {
	e := &Encoder{relay: iocore.Relay{W: w}}
	e.enc = msgpack.NewEncoder(&e.relay)
	e.enc.SetCustomStructTag("json")
	e.enc.UseCompactInts(true)
	return e
}

// Encode writes v. Encoding failures are reported as Invalid; failures of the
// endpoint are already on s.
func (e *Encoder) Encode(v any, s *iocore.Sink) {
	e.relay.S = s
	if err := e.enc.Encode(v); err != nil && !s.Failed() {
		s.Report(Invalid.Wrap(err, "encode"))
	}
}

// Decoder reads a sequence of values from an endpoint.
type Decoder struct {
	relay iocore.Relay
	dec   *msgpack.Decoder
}

// NewDecoder returns a Decoder reading from r. The decoder reads ahead, so r
// should not be shared with other readers.
func NewDecoder(r iocore.Reader) *Decoder {
	d := &Decoder{relay: iocore.Relay{R: r}}
	d.dec = msgpack.NewDecoder(&d.relay)
	d.dec.SetCustomStructTag("json")
	return d
}

// Decode reads the next value into v and reports whether it did. Running out
// of input before a value starts is not a failure and returns false.
func (d *Decoder) Decode(v any, s *iocore.Sink) bool {
	d.relay.S = s
	err := d.dec.Decode(v)
	switch {
	case err == nil:
		return true
	case s.Failed(), errors.Is(err, io.EOF):
		return false
	}
	s.Report(Invalid.Wrap(err, "decode"))
	return false
}
