package codec

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/tuannm99/recordset/internal/alias/bx"
	"github.com/tuannm99/recordset/internal/record"
	"github.com/tuannm99/recordset/internal/rowset"
)

var _ rowset.Cursor = (*Decoder)(nil)

// Decoder rebuilds a forward-only cursor from an encoded stream.
type Decoder struct {
	src *ByteSource

	cols    []record.Column
	readers []readFunc
	slots   []slot
	nulls   []bool

	hasRow   bool
	rowsDone bool // end marker of the current result set consumed
	ended    bool // no further result set
	closed   bool
}

// NewDecoder parses the first result set header from r. If r is an
// io.Closer it is closed when the stream is exhausted or the decoder closed.
func NewDecoder(r io.Reader) (*Decoder, error) {
	d := &Decoder{src: NewByteSource(r)}
	ok, err := d.readHeader()
	if err == nil && !ok {
		err = fmt.Errorf("%w: empty stream", record.ErrMalformedStream)
	}
	if err != nil {
		_ = d.src.Close()
		return nil, err
	}
	return d, nil
}

// readHeader returns false when the stream ends where a header would start.
func (d *Decoder) readHeader() (bool, error) {
	got, err := d.src.Prepare(4)
	if err != nil {
		return false, err
	}
	if got == 0 {
		return false, nil
	}
	b, err := d.src.take(4)
	if err != nil {
		return false, err
	}
	n := int(bx.I32(b))
	if n < 0 {
		return false, fmt.Errorf("%w: negative field count %d", record.ErrMalformedStream, n)
	}

	// grown by append so a corrupt count fails on the first missing field
	// rather than on a huge allocation
	d.cols, d.readers, d.slots = d.cols[:0], d.readers[:0], d.slots[:0]
	for i := 0; i < n; i++ {
		var names [3]string
		for j := range names {
			s, err := d.src.takePrefixed()
			if err != nil {
				return false, fmt.Errorf("codec: header field %d: %w", i, err)
			}
			names[j] = string(s)
		}

		k, err := record.ParseTypeName(names[1])
		if err != nil {
			return false, fmt.Errorf("codec: header field %d (%s): %w", i, names[2], err)
		}
		rd, err := record.Dispatch[readFunc](k, true, readers{})
		if err != nil {
			return false, err
		}
		st, err := record.Dispatch[storage](k, true, storages{})
		if err != nil {
			return false, err
		}

		d.cols = append(d.cols, record.Column{Name: names[2], SourceType: names[0], Kind: k, Nullable: true})
		d.readers = append(d.readers, rd)
		d.slots = append(d.slots, st.newSlot())
	}
	d.nulls = make([]bool, n)
	d.hasRow, d.rowsDone = false, false

	slog.Debug("codec: decoder header", "fields", n)
	return true, nil
}

// Read advances to the next row of the current result set.
func (d *Decoder) Read() (bool, error) {
	if d.closed {
		return false, ErrClosed
	}
	d.hasRow = false
	if d.ended || d.rowsDone {
		return false, nil
	}

	b, err := d.src.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		d.rowsDone = true
		return false, nil
	case 1:
	default:
		return false, fmt.Errorf("%w: row marker %#x", record.ErrMalformedStream, b[0])
	}

	n := len(d.cols)
	bitmap, err := d.src.take(n)
	if err != nil {
		return false, err
	}
	for i, flag := range bitmap {
		if flag > 1 {
			return false, fmt.Errorf("%w: null flag %#x for field %d", record.ErrMalformedStream, flag, i)
		}
		d.nulls[i] = flag == 0
	}

	for i := n - 1; i >= 0; i-- {
		if d.nulls[i] {
			continue
		}
		if err := d.readers[i](d.src, d.slots[i]); err != nil {
			return false, fmt.Errorf("codec: field %d (%s): %w", i, d.cols[i].Name, err)
		}
	}
	d.hasRow = true
	return true, nil
}

// NextResult skips the rest of the current result set and parses the next
// header. It returns false, and keeps returning false, at end of stream.
func (d *Decoder) NextResult() (bool, error) {
	if d.closed {
		return false, ErrClosed
	}
	if d.ended {
		return false, nil
	}
	for {
		ok, err := d.Read()
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
	}

	ok, err := d.readHeader()
	if err != nil {
		return false, err
	}
	if !ok {
		d.ended = true
		d.cols, d.readers, d.slots, d.nulls = nil, nil, nil, nil
		_ = d.src.Close()
		return false, nil
	}
	return true, nil
}

// Close releases the transport. Safe to call more than once.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.hasRow = false
	return d.src.Close()
}

func (d *Decoder) FieldCount() int { return len(d.cols) }

func (d *Decoder) inRange(i int) bool { return i >= 0 && i < len(d.cols) }

func (d *Decoder) FieldType(i int) reflect.Type {
	if !d.inRange(i) {
		return nil
	}
	return rowset.FieldTypeOf(d.cols[i])
}

func (d *Decoder) DataTypeName(i int) string {
	if !d.inRange(i) {
		return ""
	}
	return d.cols[i].SourceType
}

func (d *Decoder) ColumnName(i int) string {
	if !d.inRange(i) {
		return ""
	}
	return d.cols[i].Name
}

func (d *Decoder) Kind(i int) record.Kind {
	if !d.inRange(i) {
		return record.KindInvalid
	}
	return d.cols[i].Kind
}

// Schema describes the current result set.
func (d *Decoder) Schema() record.Schema {
	return record.Schema{Cols: append([]record.Column(nil), d.cols...)}
}

func (d *Decoder) IsNull(i int) bool {
	if !d.hasRow || !d.inRange(i) {
		return true
	}
	return d.nulls[i]
}

func (d *Decoder) check(i int) error {
	if !d.hasRow {
		return fmt.Errorf("codec: no current row")
	}
	if !d.inRange(i) {
		return fmt.Errorf("codec: field %d out of range", i)
	}
	if d.nulls[i] {
		return fmt.Errorf("codec: field %d (%s): %w", i, d.cols[i].Name, record.ErrNullValue)
	}
	return nil
}

// Value returns the current value of field i boxed, or nil for a null.
func (d *Decoder) Value(i int) (any, error) {
	if d.hasRow && d.inRange(i) && d.nulls[i] {
		return nil, nil
	}
	if err := d.check(i); err != nil {
		return nil, err
	}
	return d.slots[i].boxed(), nil
}

func field[T any](d *Decoder, i int) (T, error) {
	var zero T
	if err := d.check(i); err != nil {
		return zero, err
	}
	c, ok := d.slots[i].(*cell[T])
	if !ok {
		return zero, fmt.Errorf("codec: field %d (%s) is %s, not %T: %w",
			i, d.cols[i].Name, d.cols[i].Kind, zero, record.ErrTypeMismatch)
	}
	return c.v, nil
}

func (d *Decoder) GetBool(i int) (bool, error) { return field[bool](d, i) }
func (d *Decoder) GetByte(i int) (byte, error) { return field[byte](d, i) }
func (d *Decoder) GetInt16(i int) (int16, error) { return field[int16](d, i) }
func (d *Decoder) GetInt32(i int) (int32, error) { return field[int32](d, i) }
func (d *Decoder) GetInt64(i int) (int64, error) { return field[int64](d, i) }
func (d *Decoder) GetChar(i int) (uint16, error) { return field[uint16](d, i) }
func (d *Decoder) GetFloat(i int) (float32, error) { return field[float32](d, i) }
func (d *Decoder) GetDouble(i int) (float64, error) { return field[float64](d, i) }
func (d *Decoder) GetDecimal(i int) (record.Decimal, error) { return field[record.Decimal](d, i) }
func (d *Decoder) GetGuid(i int) (uuid.UUID, error) { return field[uuid.UUID](d, i) }
func (d *Decoder) GetDateTime(i int) (time.Time, error) { return field[time.Time](d, i) }
func (d *Decoder) GetString(i int) (string, error) { return field[string](d, i) }
func (d *Decoder) GetBytes(i int) ([]byte, error) { return field[[]byte](d, i) }
