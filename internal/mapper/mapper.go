package mapper

import (
	"fmt"
	"reflect"

	"github.com/tuannm99/recordset/internal/record"
	"github.com/tuannm99/recordset/internal/rowset"
)

// Mapper turns cursor rows into values of T using a cached routine.
type Mapper[T any] struct {
	r *routine
}

// Get returns the mapper for T against schema, compiling it on first use.
// With strict set, every mapped member must have exactly the column's type
// (an enum member may take an Int32 column).
func Get[T any](c *Cache, schema record.Schema, strict bool) (*Mapper[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	r, err := c.routine(t, schema, strict)
	if err != nil {
		return nil, err
	}
	return &Mapper[T]{r: r}, nil
}

// MapRow builds a new T from the cursor's current row. Null columns leave the
// member at its zero value.
func (m *Mapper[T]) MapRow(c rowset.Cursor) (T, error) {
	var zero T
	obj := reflect.New(m.r.typ)
	elem := obj.Elem()
	for _, s := range m.r.steps {
		if c.IsNull(s.col) {
			continue
		}
		v, err := s.get(c, s.col)
		if err != nil {
			return zero, fmt.Errorf("mapper: column %q: %w", s.name, err)
		}
		v, err = s.conv(v)
		if err != nil {
			return zero, fmt.Errorf("mapper: column %q: %w", s.name, err)
		}
		if err := s.assign(elem, v); err != nil {
			return zero, fmt.Errorf("mapper: column %q: %w", s.name, err)
		}
	}
	if m.r.ptr {
		return obj.Interface().(T), nil
	}
	return elem.Interface().(T), nil
}

// MapAll reads the rest of the current result set.
func (m *Mapper[T]) MapAll(c rowset.Cursor) ([]T, error) {
	var out []T
	for {
		ok, err := c.Read()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		v, err := m.MapRow(c)
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

// MapAll maps the rest of cur's current result set with the default cache.
func MapAll[T any](cur rowset.Cursor, strict bool) ([]T, error) {
	schema, err := rowset.SchemaOf(cur)
	if err != nil {
		return nil, err
	}
	m, err := Get[T](Default(), schema, strict)
	if err != nil {
		return nil, err
	}
	return m.MapAll(cur)
}
