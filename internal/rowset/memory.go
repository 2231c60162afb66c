package rowset

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/tuannm99/recordset/internal/record"
)

// ResultSet is one in-memory result set. A nil cell is a null.
type ResultSet struct {
	Columns []record.Column
	Rows    [][]any
}

var _ Cursor = (*Memory)(nil)

// Memory is a Cursor over result sets held in memory. Cells hold the Go type
// of the column kind, a pointer to it, or (for Int32) an enum value.
type Memory struct {
	sets   []ResultSet
	set    int
	row    int
	closed bool
}

func NewMemory(sets ...ResultSet) *Memory {
	return &Memory{sets: sets, row: -1}
}

func (m *Memory) current() (ResultSet, bool) {
	if m.closed || m.set >= len(m.sets) {
		return ResultSet{}, false
	}
	return m.sets[m.set], true
}

func (m *Memory) column(i int) (record.Column, bool) {
	rs, ok := m.current()
	if !ok || i < 0 || i >= len(rs.Columns) {
		return record.Column{}, false
	}
	return rs.Columns[i], true
}

func (m *Memory) FieldCount() int {
	rs, _ := m.current()
	return len(rs.Columns)
}

func (m *Memory) FieldType(i int) reflect.Type {
	col, _ := m.column(i)
	return FieldTypeOf(col)
}

func (m *Memory) DataTypeName(i int) string {
	col, _ := m.column(i)
	if col.SourceType != "" {
		return col.SourceType
	}
	return col.Kind.String()
}

func (m *Memory) ColumnName(i int) string {
	col, _ := m.column(i)
	return col.Name
}

func (m *Memory) Read() (bool, error) {
	rs, ok := m.current()
	if !ok {
		return false, nil
	}
	if m.row < len(rs.Rows) {
		m.row++
	}
	return m.row < len(rs.Rows), nil
}

func (m *Memory) NextResult() (bool, error) {
	if m.closed || m.set >= len(m.sets) {
		return false, nil
	}
	m.set++
	m.row = -1
	return m.set < len(m.sets), nil
}

func (m *Memory) Close() error {
	m.closed = true
	return nil
}

func (m *Memory) cell(i int) (any, error) {
	rs, ok := m.current()
	if !ok || m.row < 0 || m.row >= len(rs.Rows) {
		return nil, fmt.Errorf("rowset: no current row")
	}
	r := rs.Rows[m.row]
	if i < 0 || i >= len(r) {
		return nil, fmt.Errorf("rowset: column %d out of range", i)
	}
	return r[i], nil
}

func (m *Memory) IsNull(i int) bool {
	v, err := m.cell(i)
	if err != nil || v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func cellAs[T any](m *Memory, i int) (T, error) {
	var zero T
	v, err := m.cell(i)
	if err != nil {
		return zero, err
	}
	switch x := v.(type) {
	case nil:
		return zero, fmt.Errorf("rowset: column %d: %w", i, record.ErrNullValue)
	case T:
		return x, nil
	case *T:
		if x == nil {
			return zero, fmt.Errorf("rowset: column %d: %w", i, record.ErrNullValue)
		}
		return *x, nil
	}
	return zero, fmt.Errorf("rowset: column %d holds %T, want %T: %w", i, v, zero, record.ErrTypeMismatch)
}

func (m *Memory) GetBool(i int) (bool, error) { return cellAs[bool](m, i) }
func (m *Memory) GetByte(i int) (byte, error) { return cellAs[byte](m, i) }
func (m *Memory) GetInt16(i int) (int16, error) { return cellAs[int16](m, i) }
func (m *Memory) GetInt64(i int) (int64, error) { return cellAs[int64](m, i) }
func (m *Memory) GetChar(i int) (uint16, error) { return cellAs[uint16](m, i) }
func (m *Memory) GetFloat(i int) (float32, error) { return cellAs[float32](m, i) }
func (m *Memory) GetDouble(i int) (float64, error) { return cellAs[float64](m, i) }
func (m *Memory) GetDecimal(i int) (record.Decimal, error) { return cellAs[record.Decimal](m, i) }
func (m *Memory) GetGuid(i int) (uuid.UUID, error) { return cellAs[uuid.UUID](m, i) }
func (m *Memory) GetDateTime(i int) (time.Time, error) { return cellAs[time.Time](m, i) }
func (m *Memory) GetString(i int) (string, error) { return cellAs[string](m, i) }
func (m *Memory) GetBytes(i int) ([]byte, error) { return cellAs[[]byte](m, i) }

// GetInt32 also accepts enum values and widens them to their Int32 form.
func (m *Memory) GetInt32(i int) (int32, error) {
	v, err := m.cell(i)
	if err != nil {
		return 0, err
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.IsValid() && record.IsEnum(rv.Type()) {
		if rv.CanInt() {
			x := rv.Int()
			if x < math.MinInt32 || x > math.MaxInt32 {
				return 0, fmt.Errorf("rowset: column %d: enum %s value %d exceeds int32: %w", i, rv.Type(), x, record.ErrTypeMismatch)
			}
			return int32(x), nil
		}
		return int32(rv.Uint()), nil // uint8 and uint16 always fit
	}
	return cellAs[int32](m, i)
}
