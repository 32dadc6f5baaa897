package iocore_test

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jacoelho/iocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeBasic(t *testing.T) {
	r, w := newTestPipe(t)

	data := []byte("hello, world")
	var wg sync.WaitGroup
	wg.Go(func() {
		s, rec := iocore.Record()
		assert.Equal(t, len(data), w.Write(data, s))
		assert.NoError(t, rec.Err())
	})

	buf := make([]byte, 64)
	s, rec := iocore.Record()
	n, eos := r.Read(buf, s)
	require.NoError(t, rec.Err())
	require.False(t, eos)
	require.Equal(t, 12, n)
	require.Equal(t, "hello, world", string(buf[:n]))
	wg.Wait()
}

func TestPipePartialReads(t *testing.T) {
	r, w := newTestPipe(t)

	data := bytes.Repeat([]byte("x"), 128)
	var wg sync.WaitGroup
	wg.Go(func() {
		s := iocore.Discard()
		assert.Equal(t, len(data), w.Write(data, s))
		w.Close(s)
	})

	want := []int{1, 2, 4, 8, 16, 32, 64, 1, 0}
	for i, size := range []int{1, 2, 4, 8, 16, 32, 64, 128, 256} {
		s, rec := iocore.Record()
		n, eos := r.Read(make([]byte, size), s)
		require.NoError(t, rec.Err())
		require.Equal(t, want[i], n, "read of %d bytes", size)
		require.Equal(t, i == len(want)-1, eos, "read of %d bytes", size)
	}
	wg.Wait()
}

func TestPipeBlocking(t *testing.T) {
	r, w := newTestPipe(t)

	data := []byte("hello")
	done := make(chan int)
	go func() {
		done <- w.Write(data, iocore.Discard())
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("write returned before anything was read")
	default:
	}

	buf := make([]byte, len(data))
	mustReadFull(t, r, buf)
	require.Equal(t, len(data), <-done)
	require.Equal(t, data, buf)
}

func TestPipeEmptyWrite(t *testing.T) {
	r, w := newTestPipe(t)

	s, rec := iocore.Record()
	require.Zero(t, w.Write(nil, s))
	require.NoError(t, rec.Err())

	r.Close(iocore.Discard())
	s, rec = iocore.Record()
	require.Zero(t, w.Write(nil, s))
	require.ErrorIs(t, rec.Err(), iocore.ClosedPipe)
}

func TestWriteFailsAfterReaderClose(t *testing.T) {
	r, w := newTestPipe(t)

	r.Close(iocore.Discard())

	s, rec := iocore.Record()
	require.Zero(t, w.Write([]byte("test"), s))
	expectError(t, rec.Err(), iocore.ClosedPipe)
}

func TestWriteFailsAfterWriterClose(t *testing.T) {
	_, w := newTestPipe(t)

	w.Close(iocore.Discard())

	s, rec := iocore.Record()
	require.Zero(t, w.Write([]byte("data"), s))
	expectError(t, rec.Err(), iocore.ClosedPipe)
}

func TestReadAfterWriterClose(t *testing.T) {
	r, w := newTestPipe(t)

	go func() {
		s := iocore.Discard()
		w.Write([]byte("test"), s)
		w.Close(s)
	}()

	mustRead(t, r, []byte("test"))
	expectEOF(t, r)
}

func TestPipeCloseWithError(t *testing.T) {
	t.Run("WriterClose", func(t *testing.T) {
		r, w := newTestPipe(t)

		w.Close(iocore.Discard())
		expectEOF(t, r)
	})

	t.Run("WriterCloseWithError", func(t *testing.T) {
		r, w := newTestPipe(t)

		customErr := errors.New("custom write error")
		w.CloseWithError(customErr)

		s, rec := iocore.Record()
		n, eos := r.Read(make([]byte, 10), s)
		require.Zero(t, n)
		require.True(t, eos)
		expectError(t, rec.Err(), customErr)
	})

	t.Run("WriterCloseWithNilError", func(t *testing.T) {
		r, w := newTestPipe(t)

		w.CloseWithError(nil)
		expectEOF(t, r)
	})

	t.Run("ReaderCloseWithError", func(t *testing.T) {
		r, w := newTestPipe(t)

		customErr := errors.New("custom read error")
		r.CloseWithError(customErr)

		s, rec := iocore.Record()
		require.Zero(t, w.Write([]byte("test"), s))
		expectError(t, rec.Err(), customErr)
	})

	t.Run("ReaderCloseWithNilError", func(t *testing.T) {
		r, w := newTestPipe(t)

		r.CloseWithError(nil)

		s, rec := iocore.Record()
		w.Write([]byte("test"), s)
		expectError(t, rec.Err(), iocore.ClosedPipe)
	})

	t.Run("CloseWithErrorDoesNotOverwrite", func(t *testing.T) {
		r, w := newTestPipe(t)

		firstErr := errors.New("first error")
		secondErr := errors.New("second error")

		w.CloseWithError(firstErr)
		w.CloseWithError(secondErr) // not overwrite

		s, rec := iocore.Record()
		r.Read(make([]byte, 10), s)
		expectError(t, rec.Err(), firstErr)
	})

	t.Run("CloseKeepsDefault", func(t *testing.T) {
		r, w := newTestPipe(t)

		w.Close(iocore.Discard())
		w.CloseWithError(errors.New("late"))
		expectEOF(t, r)
	})
}

func TestCloseRaceCondition(t *testing.T) {
	t.Run("CloseWhileReading", func(t *testing.T) {
		r, _ := newTestPipe(t)

		s, rec := iocore.Record()
		var (
			wg  sync.WaitGroup
			eos bool
		)
		wg.Go(func() {
			_, eos = r.Read(make([]byte, 10), s)
		})

		time.Sleep(10 * time.Millisecond)
		r.Close(iocore.Discard())

		wg.Wait()
		require.True(t, eos)
		expectError(t, rec.Err(), iocore.ClosedPipe)
	})

	t.Run("CloseWhileWriting", func(t *testing.T) {
		r, w := newTestPipe(t)

		s, rec := iocore.Record()
		var (
			wg      sync.WaitGroup
			written int
		)
		wg.Go(func() {
			written = w.Write([]byte("will block"), s)
		})

		mustRead(t, r, []byte("will"))
		r.Close(iocore.Discard()) // close reader while write is blocked

		wg.Wait()
		require.Equal(t, 4, written)
		expectError(t, rec.Err(), iocore.ClosedPipe)
	})

	t.Run("WriterCloseWhileWriting", func(t *testing.T) {
		r, w := newTestPipe(t)

		s, rec := iocore.Record()
		var (
			wg      sync.WaitGroup
			written int
		)
		wg.Go(func() {
			written = w.Write([]byte("abcdef"), s)
		})

		mustRead(t, r, []byte("ab"))
		w.CloseWithError(errors.New("gone"))

		wg.Wait()
		require.Equal(t, 2, written)
		expectError(t, rec.Err(), iocore.ClosedPipe)
		expectEOFWith(t, r, "gone")
	})
}

func TestWriterCloseAccountsForInFlightBytes(t *testing.T) {
	data := []byte("abcdefgh")

	for range 20 {
		r, w := newTestPipe(t)

		var (
			wg      sync.WaitGroup
			written int
		)
		wg.Go(func() {
			written = w.Write(data, iocore.Discard())
		})
		mustRead(t, r, data[:2])

		wg.Go(func() {
			w.CloseWithError(errors.New("done"))
		})

		got := append([]byte(nil), data[:2]...)
		s, rec := iocore.Record()
		buf := make([]byte, 1)
		for {
			n, eos := r.Read(buf, s)
			got = append(got, buf[:n]...)
			if eos {
				break
			}
		}
		wg.Wait()

		require.EqualError(t, rec.Err(), "done")
		require.Equal(t, written, len(got))
		require.Equal(t, data[:written], got)
	}
}

func TestPipeConcurrentWriters(t *testing.T) {
	r, w := newTestPipe(t)

	const writers = 8
	msg := []byte("the quick brown fox jumps over the lazy dog")

	var wg sync.WaitGroup
	for range writers {
		wg.Go(func() {
			s, rec := iocore.Record()
			assert.Equal(t, len(msg), w.Write(msg, s))
			assert.NoError(t, rec.Err())
		})
	}

	var got bytes.Buffer
	chunk := make([]byte, 7)
	for got.Len() < writers*len(msg) {
		n, eos := r.Read(chunk, iocore.Must())
		require.False(t, eos)
		got.Write(chunk[:n])
	}
	wg.Wait()

	require.Equal(t, bytes.Repeat(msg, writers), got.Bytes())
}

func TestPipeConcurrentReaders(t *testing.T) {
	r, w := newTestPipe(t)

	const (
		groups    = 64
		groupSize = 8
	)
	var data []byte
	for i := range groups {
		data = append(data, fmt.Sprintf("g%06d ", i)...)
	}
	require.Len(t, data, groups*groupSize)

	var (
		mu   sync.Mutex
		seen []string
		wg   sync.WaitGroup
	)
	for range 4 {
		wg.Go(func() {
			buf := make([]byte, groupSize)
			for {
				n, eos := r.Read(buf, iocore.Must())
				if eos {
					return
				}
				mu.Lock()
				seen = append(seen, string(buf[:n]))
				mu.Unlock()
			}
		})
	}

	s, rec := iocore.Record()
	require.Equal(t, len(data), w.Write(data, s))
	require.NoError(t, rec.Err())
	w.Close(s)
	wg.Wait()

	var want []string
	for i := range groups {
		want = append(want, string(data[i*groupSize:(i+1)*groupSize]))
	}
	slices.Sort(seen)
	require.Equal(t, want, seen)
}

func TestLargeDataIntegrity(t *testing.T) {
	r, w := newTestPipe(t)

	testData := make([]byte, 1024*1024)
	for i := range testData {
		testData[i] = byte(i % 256)
	}

	var wg sync.WaitGroup
	wg.Go(func() {
		s, rec := iocore.Record()
		w.Write(testData, s)
		w.Close(s)
		assert.NoError(t, rec.Err())
	})

	received := iocore.NewBuffer(0)
	s, rec := iocore.Record()
	n := iocore.Copy(received, r, s)
	wg.Wait()

	require.NoError(t, rec.Err())
	require.EqualValues(t, len(testData), n)
	require.True(t, bytes.Equal(testData, received.Bytes()), "data integrity check failed")
}

func TestChunkedWriteIntegrity(t *testing.T) {
	r, w := newTestPipe(t)

	testData := make([]byte, 100*1024)
	for i := range testData {
		testData[i] = byte(i % 256)
	}

	var wg sync.WaitGroup
	wg.Go(func() {
		s, rec := iocore.Record()
		defer w.Close(s)
		chunkSize := 17
		for i := 0; i < len(testData); i += chunkSize {
			end := min(i+chunkSize, len(testData))
			w.Write(testData[i:end], s)
			if s.Failed() {
				break
			}
		}
		assert.NoError(t, rec.Err())
	})

	received := iocore.NewBuffer(0)
	s, rec := iocore.Record()
	iocore.Copy(received, r, s)
	wg.Wait()

	require.NoError(t, rec.Err())
	require.True(t, bytes.Equal(testData, received.Bytes()), "data integrity check failed")
}

func TestBufferedPipeWriter(t *testing.T) {
	r, w := newTestPipe(t, iocore.WithWriteBuffer(16))

	s, rec := iocore.Record()
	require.Equal(t, 2, w.Write([]byte("ab"), s))
	require.Equal(t, 2, w.Write([]byte("cd"), s))
	require.Equal(t, 4, w.Pending())

	var wg sync.WaitGroup
	wg.Go(func() {
		w.Close(s)
	})

	mustRead(t, r, []byte("abcd"))
	wg.Wait()
	require.NoError(t, rec.Err())
	expectEOF(t, r)
}

func TestReadWithZeroLengthBuffer(t *testing.T) {
	r, _ := newTestPipe(t)

	s, rec := iocore.Record()
	n, eos := r.Read(nil, s)
	require.Zero(t, n)
	require.False(t, eos)
	require.NoError(t, rec.Err())
}

func TestDoubleClose(t *testing.T) {
	r, w := newTestPipe(t)

	s, rec := iocore.Record()
	r.Close(s)
	r.Close(s)
	w.Close(s)
	w.Close(s)
	require.NoError(t, rec.Err())
}

func TestPipeHalvesAreOneWay(t *testing.T) {
	r, w := newTestPipe(t)

	require.Panics(t, func() { r.Write([]byte("x"), iocore.Discard()) })
	require.Panics(t, func() { w.Read(make([]byte, 1), iocore.Discard()) })
}

func newTestPipe(t *testing.T, opts ...iocore.Option) (*iocore.PipeReader, *iocore.PipeWriter) {
	t.Helper()
	r, w := iocore.Pipe(opts...)
	t.Cleanup(func() {
		r.CloseWithError(nil)
		w.CloseWithError(nil)
	})
	return r, w
}

func mustReadFull(t *testing.T, r iocore.Reader, buf []byte) int {
	t.Helper()
	s, rec := iocore.Record()
	total := 0
	for total < len(buf) {
		n, eos := r.Read(buf[total:], s)
		require.NoError(t, rec.Err())
		require.False(t, eos, "unexpected end of stream after %d bytes", total)
		total += n
	}
	return total
}

func mustRead(t *testing.T, r iocore.Reader, expected []byte) {
	t.Helper()
	buf := make([]byte, len(expected))
	s, rec := iocore.Record()
	n, eos := r.Read(buf, s)
	require.NoError(t, rec.Err())
	require.False(t, eos)
	require.Equal(t, len(expected), n)
	require.Equal(t, expected, buf)
}

func expectError(t *testing.T, err, expected error) {
	t.Helper()
	require.ErrorIs(t, err, expected)
}

func expectEOF(t *testing.T, r iocore.Reader) {
	t.Helper()
	s, rec := iocore.Record()
	n, eos := r.Read(make([]byte, 1), s)
	require.Zero(t, n)
	require.True(t, eos)
	require.NoError(t, rec.Err())
}

func expectEOFWith(t *testing.T, r iocore.Reader, msg string) {
	t.Helper()
	s, rec := iocore.Record()
	_, eos := r.Read(make([]byte, 1), s)
	require.True(t, eos)
	require.EqualError(t, rec.Err(), msg)
}
