// Package iocore moves bytes between in-process endpoints and reports failures
// without returning errors.
//
// Every fallible operation takes a *Sink and returns a best-effort result,
// such as the number of bytes moved before a failure. The sink's Policy decides
// what happens to the first error it receives: ignore it, record it, log it,
// or panic. Later reports to the same sink are dropped.
//
// Stream adds optional lazily allocated read and write buffers on top of any
// Transport, which only has to implement DirectRead and DirectWrite. Buffer,
// Fixed, File, StringReader, Forwarder and the two Pipe halves are the
// transports shipped with the package.
//
// Pipe connects a reader and a writer with rendezvous semantics: a write
// blocks until readers have drained it or either half is closed.
package iocore
