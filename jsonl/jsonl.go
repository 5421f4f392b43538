// Package jsonl reads and writes records as JSON Lines, one object per line.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/fwojciec/pagestem"
)

// Reader decodes records from a JSON Lines stream.
type Reader struct {
	dec  *json.Decoder
	line int
	err  error
}

// NewReader creates a Reader. Numbers are kept as json.Number so they are
// written back unchanged.
func NewReader(r io.Reader) *Reader {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Reader{dec: dec}
}

// Records yields records until the stream ends or a record fails to
// decode. Err reports the failure once iteration stops.
func (r *Reader) Records() iter.Seq[pagestem.Record] {
	return func(yield func(pagestem.Record) bool) {
		for {
			var rec pagestem.Record
			err := r.dec.Decode(&rec)
			if errors.Is(err, io.EOF) {
				return
			}
			r.line++
			if err != nil {
				r.err = pagestem.Errorf(pagestem.EINVALID, "record %d: %v", r.line, err)
				return
			}
			if rec == nil {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Err returns the decoding error that ended iteration, if any.
func (r *Reader) Err() error {
	return r.err
}

// Ensure Writer implements pagestem.RecordStore.
var _ pagestem.RecordStore = (*Writer)(nil)

// Writer encodes records as JSON Lines. Output is buffered until Commit.
type Writer struct {
	buf *bufio.Writer
	enc *json.Encoder
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Writer{buf: buf, enc: enc}
}

// Save writes one record.
func (w *Writer) Save(_ context.Context, rec pagestem.Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode record %q: %w", rec.Path(), err)
	}
	return nil
}

// Commit flushes buffered output.
func (w *Writer) Commit() error {
	return w.buf.Flush()
}

// Abort flushes what was written so far; lines already produced cannot be
// taken back.
func (w *Writer) Abort() error {
	return w.buf.Flush()
}
