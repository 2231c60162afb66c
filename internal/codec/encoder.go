package codec

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tuannm99/recordset/internal/alias/bx"
	"github.com/tuannm99/recordset/internal/record"
	"github.com/tuannm99/recordset/internal/rowset"
)

var ErrClosed = errors.New("codec: use of closed stream")

type EncoderOption func(*Encoder)

// WithOwnership makes the encoder close the cursor once it is exhausted or
// the encoder is closed.
func WithOwnership(owns bool) EncoderOption {
	return func(e *Encoder) { e.owns = owns }
}

// WithCompletion registers fn to run once, when the cursor has no more
// result sets. It does not run if the encoder is closed before that.
func WithCompletion(fn func()) EncoderOption {
	return func(e *Encoder) { e.onDone = fn }
}

var (
	_ io.ReadCloser = (*Encoder)(nil)
	_ io.WriterTo   = (*Encoder)(nil)
)

// Encoder serializes a cursor lazily: rows are only pulled from the cursor
// when a Read call needs more bytes than are buffered.
type Encoder struct {
	cur    rowset.Cursor
	owns   bool
	onDone func()

	buf     []byte // serialized but not yet returned
	writers []writeFunc

	exhausted bool
	released  bool
	fired     bool
	closed    bool
	err       error

	sets int
	rows int64
}

// NewEncoder writes the header of the cursor's current result set up front,
// so unsupported column types fail here.
func NewEncoder(c rowset.Cursor, opts ...EncoderOption) (*Encoder, error) {
	e := &Encoder{cur: c}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.writeHeader(); err != nil {
		e.release()
		return nil, err
	}
	return e, nil
}

func (e *Encoder) writeHeader() error {
	n := e.cur.FieldCount()
	e.buf = bx.AppendI32(e.buf, int32(n))
	e.writers = e.writers[:0]
	for i := 0; i < n; i++ {
		k, nullable, err := record.KindOf(e.cur.FieldType(i))
		if err != nil {
			return fmt.Errorf("codec: column %d (%s): %w", i, e.cur.ColumnName(i), err)
		}
		w, err := record.Dispatch[writeFunc](k, nullable, writers{})
		if err != nil {
			return fmt.Errorf("codec: column %d (%s): %w", i, e.cur.ColumnName(i), err)
		}
		e.writers = append(e.writers, w)

		e.buf = bx.AppendString(e.buf, e.cur.DataTypeName(i))
		e.buf = bx.AppendString(e.buf, k.TypeName())
		e.buf = bx.AppendString(e.buf, e.cur.ColumnName(i))
	}
	e.sets++
	slog.Debug("codec: encoder header", "set", e.sets, "fields", n)
	return nil
}

// Read fills p with stream bytes, serializing more rows as needed. It returns
// io.EOF once every result set has been written and returned.
func (e *Encoder) Read(p []byte) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if e.err != nil {
		return 0, e.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	for len(e.buf) < len(p) && !e.exhausted {
		if err := e.step(); err != nil {
			e.err = err
			return 0, err
		}
	}

	n := copy(p, e.buf)
	// drop returned bytes
	rest := copy(e.buf, e.buf[n:])
	e.buf = e.buf[:rest]

	if n == 0 && e.exhausted {
		return 0, io.EOF
	}
	return n, nil
}

func (e *Encoder) step() error {
	ok, err := e.cur.Read()
	if err != nil {
		return fmt.Errorf("codec: cursor read: %w", err)
	}
	if ok {
		return e.writeRow()
	}

	e.buf = append(e.buf, 0)
	more, err := e.cur.NextResult()
	if err != nil {
		return fmt.Errorf("codec: cursor next result: %w", err)
	}
	if more {
		return e.writeHeader()
	}

	e.exhausted = true
	slog.Debug("codec: encoder exhausted", "sets", e.sets, "rows", e.rows)
	e.release()
	if !e.fired && e.onDone != nil {
		e.fired = true
		e.onDone()
	}
	return nil
}

// writeRow emits the has-row marker, the null bitmap in ascending column
// order, then the present values in descending column order.
func (e *Encoder) writeRow() error {
	n := len(e.writers)
	e.buf = append(e.buf, 1)
	for i := 0; i < n; i++ {
		if e.cur.IsNull(i) {
			e.buf = append(e.buf, 0)
		} else {
			e.buf = append(e.buf, 1)
		}
	}

	bitmap := len(e.buf) - n
	for i := n - 1; i >= 0; i-- {
		if e.buf[bitmap+i] == 0 {
			continue
		}
		var err error
		e.buf, err = e.writers[i](e.buf, e.cur, i)
		if err != nil {
			return fmt.Errorf("codec: column %d (%s): %w", i, e.cur.ColumnName(i), err)
		}
	}
	e.rows++
	return nil
}

// WriteTo drains the encoder into w.
func (e *Encoder) WriteTo(w io.Writer) (int64, error) {
	var total int64
	chunk := make([]byte, ChunkSize)
	for {
		n, err := e.Read(chunk)
		if n > 0 {
			m, werr := w.Write(chunk[:n])
			total += int64(m)
			if werr != nil {
				return total, werr
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

func (e *Encoder) Write([]byte) (int, error) {
	return 0, fmt.Errorf("codec: encoder write: %w", record.ErrUnsupportedOperation)
}

func (e *Encoder) Seek(int64, int) (int64, error) {
	return 0, fmt.Errorf("codec: encoder seek: %w", record.ErrUnsupportedOperation)
}

func (e *Encoder) Len() (int64, error) {
	return 0, fmt.Errorf("codec: encoder length: %w", record.ErrUnsupportedOperation)
}

// Close releases an owned cursor. It never fails and may be called at any
// time, any number of times.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.release()
	e.buf = nil
	return nil
}

func (e *Encoder) release() {
	if e.released {
		return
	}
	e.released = true
	if !e.owns {
		return
	}
	if err := e.cur.Close(); err != nil {
		slog.Warn("codec: close cursor", "err", err)
	}
}

// Encode serializes every result set of c into memory. c is not closed.
func Encode(c rowset.Cursor) ([]byte, error) {
	e, err := NewEncoder(c)
	if err != nil {
		return nil, err
	}
	defer func() { _ = e.Close() }()
	return io.ReadAll(e)
}
