package mapper

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/recordset/internal/codec"
	"github.com/tuannm99/recordset/internal/record"
	"github.com/tuannm99/recordset/internal/rowset"
)

type user struct {
	Id   int32
	Name *string
}

type color int32

const (
	red color = iota + 1
	green
)

type paint struct {
	ID    int32 `db:"id"`
	Color color
}

type loose struct {
	Id    string
	Price float64
	Grade string
	Count int
	At    time.Time
}

type label struct {
	Text string
}

func (l *label) SetText(v string) { l.Text = strings.ToUpper(v) }

type guarded struct {
	N int32
}

func (g *guarded) SetN(v int32) error {
	if v < 0 {
		return errors.New("negative")
	}
	g.N = v
	return nil
}

type Base struct {
	Created int64
}

type withEmbedded struct {
	*Base
	Name   string `db:"title"`
	Hidden string `db:"-"`
	secret string
}

func idNameCursor() *rowset.Memory {
	return rowset.NewMemory(rowset.ResultSet{
		Columns: []record.Column{
			{Name: "Id", Kind: record.KindInt32},
			{Name: "Name", Kind: record.KindString, Nullable: true},
		},
		Rows: [][]any{
			{int32(1), "a"},
			{int32(2), nil},
		},
	})
}

func schemaOf(t *testing.T, c rowset.Cursor) record.Schema {
	t.Helper()
	s, err := rowset.SchemaOf(c)
	require.NoError(t, err)
	return s
}

func TestMapAll_DecodedStream(t *testing.T) {
	b, err := codec.Encode(idNameCursor())
	require.NoError(t, err)
	d, err := codec.NewDecoder(bytes.NewReader(b))
	require.NoError(t, err)

	m, err := Get[user](NewCache(), schemaOf(t, d), true)
	require.NoError(t, err)
	users, err := m.MapAll(d)
	require.NoError(t, err)

	require.Len(t, users, 2)
	require.Equal(t, int32(1), users[0].Id)
	require.NotNil(t, users[0].Name)
	require.Equal(t, "a", *users[0].Name)
	require.Equal(t, int32(2), users[1].Id)
	require.Nil(t, users[1].Name)
}

func TestGet_PointerTarget(t *testing.T) {
	c := idNameCursor()
	m, err := Get[*user](NewCache(), schemaOf(t, c), true)
	require.NoError(t, err)
	users, err := m.MapAll(c)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, int32(2), users[1].Id)
}

func TestGet_StrictTyping(t *testing.T) {
	type strUser struct {
		Id string
	}
	c := idNameCursor()
	schema := schemaOf(t, c)

	_, err := Get[strUser](NewCache(), schema, true)
	require.ErrorIs(t, err, record.ErrTypeMismatch)

	m, err := Get[strUser](NewCache(), schema, false)
	require.NoError(t, err)
	out, err := m.MapAll(c)
	require.NoError(t, err)
	require.Equal(t, []strUser{{Id: "1"}, {Id: "2"}}, out)
}

func TestGet_StrictRejectsWidening(t *testing.T) {
	type wide struct {
		Id int64
	}
	_, err := Get[wide](NewCache(), schemaOf(t, idNameCursor()), true)
	require.ErrorIs(t, err, record.ErrTypeMismatch)
}

func TestGet_EnumFromInt32(t *testing.T) {
	c := rowset.NewMemory(rowset.ResultSet{
		Columns: []record.Column{
			{Name: "id", Kind: record.KindInt32},
			{Name: "Color", Kind: record.KindInt32},
		},
		Rows: [][]any{{int32(7), int32(2)}, {int32(8), red}},
	})
	m, err := Get[paint](NewCache(), schemaOf(t, c), true)
	require.NoError(t, err)
	out, err := m.MapAll(c)
	require.NoError(t, err)
	require.Equal(t, []paint{{ID: 7, Color: green}, {ID: 8, Color: red}}, out)
}

func TestGet_NoConstructor(t *testing.T) {
	schema := schemaOf(t, idNameCursor())
	_, err := Get[int](NewCache(), schema, true)
	require.ErrorIs(t, err, record.ErrNoConstructor)
	_, err = Get[*string](NewCache(), schema, false)
	require.ErrorIs(t, err, record.ErrNoConstructor)
	_, err = Get[any](NewCache(), schema, false)
	require.ErrorIs(t, err, record.ErrNoConstructor)
}

func TestGet_LooseConversions(t *testing.T) {
	price, err := record.ParseDecimal("19.99")
	require.NoError(t, err)
	at := time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC)

	c := rowset.NewMemory(rowset.ResultSet{
		Columns: []record.Column{
			{Name: "Id", Kind: record.KindInt32},
			{Name: "Price", Kind: record.KindDecimal},
			{Name: "Grade", Kind: record.KindChar},
			{Name: "Count", Kind: record.KindInt64},
			{Name: "At", Kind: record.KindString},
			{Name: "Unmapped", Kind: record.KindBool},
		},
		Rows: [][]any{{int32(5), price, uint16('B'), int64(12), at.Format(time.RFC3339), true}},
	})
	m, err := Get[loose](NewCache(), schemaOf(t, c), false)
	require.NoError(t, err)
	out, err := m.MapAll(c)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "5", out[0].Id)
	require.InDelta(t, 19.99, out[0].Price, 1e-9)
	require.Equal(t, "B", out[0].Grade)
	require.Equal(t, 12, out[0].Count)
	require.True(t, at.Equal(out[0].At))
}

func TestGet_LooseFailsOnImpossibleTarget(t *testing.T) {
	type odd struct {
		Id []int
	}
	_, err := Get[odd](NewCache(), schemaOf(t, idNameCursor()), false)
	require.ErrorIs(t, err, record.ErrTypeMismatch)
}

func TestGet_LooseRowFailure(t *testing.T) {
	type numeric struct {
		Name int
	}
	c := idNameCursor()
	m, err := Get[numeric](NewCache(), schemaOf(t, c), false)
	require.NoError(t, err)
	_, err = m.MapAll(c)
	require.ErrorIs(t, err, record.ErrTypeMismatch)
}

func TestResolver_SetterBeatsField(t *testing.T) {
	c := rowset.NewMemory(rowset.ResultSet{
		Columns: []record.Column{{Name: "text", Kind: record.KindString}},
		Rows:    [][]any{{"hi"}},
	})
	out, err := MapAll[label](c, true)
	require.NoError(t, err)
	require.Equal(t, []label{{Text: "HI"}}, out)
}

func TestResolver_SetterError(t *testing.T) {
	c := rowset.NewMemory(rowset.ResultSet{
		Columns: []record.Column{{Name: "N", Kind: record.KindInt32}},
		Rows:    [][]any{{int32(3)}, {int32(-1)}},
	})
	m, err := Get[guarded](NewCache(), schemaOf(t, c), true)
	require.NoError(t, err)
	out, err := m.MapAll(c)
	require.EqualError(t, err, `mapper: column "N": negative`)
	require.Equal(t, []guarded{{N: 3}}, out)
}

func TestResolver_TagsAndEmbedded(t *testing.T) {
	c := rowset.NewMemory(rowset.ResultSet{
		Columns: []record.Column{
			{Name: "title", Kind: record.KindString},
			{Name: "created", Kind: record.KindInt64},
			{Name: "Hidden", Kind: record.KindString},
			{Name: "secret", Kind: record.KindString},
		},
		Rows: [][]any{{"t", int64(99), "h", "s"}},
	})
	out, err := MapAll[withEmbedded](c, true)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "t", out[0].Name)
	require.NotNil(t, out[0].Base)
	require.Equal(t, int64(99), out[0].Created)
	require.Empty(t, out[0].Hidden)
	require.Empty(t, out[0].secret)
}

func TestResolver_Custom(t *testing.T) {
	calls := 0
	byPosition := func(typ reflect.Type, column string) (Member, bool) {
		calls++
		if column != "Name" {
			return Member{}, false
		}
		f, _ := typ.FieldByName("Id")
		return Member{
			Name: f.Name,
			Type: reflect.TypeOf(""),
			Assign: func(obj, v reflect.Value) error {
				obj.FieldByIndex(f.Index).SetInt(int64(len(v.String())))
				return nil
			},
		}, true
	}
	c := idNameCursor()
	m, err := Get[user](NewCache(WithResolver(byPosition)), schemaOf(t, c), true)
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	out, err := m.MapAll(c)
	require.NoError(t, err)
	require.Equal(t, []user{{Id: 1}, {Id: 0}}, out)
}

func TestCache_HitAndSignature(t *testing.T) {
	cache := NewCache()
	schema := schemaOf(t, idNameCursor())

	m1, err := Get[user](cache, schema, true)
	require.NoError(t, err)
	m2, err := Get[user](cache, schema, true)
	require.NoError(t, err)
	require.Same(t, m1.r, m2.r)
	require.Equal(t, int64(1), cache.Compiled())

	// strictness, target type, and column shape are all part of the key
	_, err = Get[user](cache, schema, false)
	require.NoError(t, err)
	_, err = Get[*user](cache, schema, true)
	require.NoError(t, err)
	other := record.Schema{Cols: []record.Column{{Name: "Id", Kind: record.KindInt32}}}
	_, err = Get[user](cache, other, true)
	require.NoError(t, err)
	require.Equal(t, int64(4), cache.Compiled())

	// failures are not cached
	_, err = Get[int](cache, schema, true)
	require.Error(t, err)
	require.Equal(t, int64(4), cache.Compiled())
}

func TestCache_ConcurrentFirstUse(t *testing.T) {
	cache := NewCache()
	schema := schemaOf(t, idNameCursor())

	const workers = 32
	start := make(chan struct{})
	routines := make([]*routine, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			m, err := Get[user](cache, schema, true)
			errs[i] = err
			if err == nil {
				routines[i] = m.r
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Same(t, routines[0], routines[i])
	}
	require.Equal(t, int64(1), cache.Compiled())
}

func TestDefaultCache(t *testing.T) {
	require.Same(t, Default(), Default())

	out, err := MapAll[user](idNameCursor(), true)
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestResolver_OuterFieldShadowsEmbedded(t *testing.T) {
	type inner struct {
		Name string
	}
	type outer struct {
		inner
		Name string
	}
	c := rowset.NewMemory(rowset.ResultSet{
		Columns: []record.Column{{Name: "name", Kind: record.KindString}},
		Rows:    [][]any{{"x"}},
	})
	out, err := MapAll[outer](c, true)
	require.NoError(t, err)
	require.Equal(t, "x", out[0].Name)
	require.Empty(t, out[0].inner.Name)
}

type level int8

func TestGet_NarrowingMustFit(t *testing.T) {
	single := func(k record.Kind, v any) *rowset.Memory {
		return rowset.NewMemory(rowset.ResultSet{
			Columns: []record.Column{{Name: "V", Kind: k}},
			Rows:    [][]any{{v}},
		})
	}

	t.Run("fits", func(t *testing.T) {
		out, err := MapAll[struct{ V int8 }](single(record.KindInt64, int64(-128)), false)
		require.NoError(t, err)
		require.Equal(t, int8(-128), out[0].V)

		f, err := MapAll[struct{ V float32 }](single(record.KindDouble, 2.5), false)
		require.NoError(t, err)
		require.Equal(t, float32(2.5), f[0].V)

		u, err := MapAll[struct{ V uint8 }](single(record.KindString, "255"), false)
		require.NoError(t, err)
		require.Equal(t, uint8(255), u[0].V)
	})

	tests := []struct {
		name string
		run  func() error
	}{
		{"int64 into int8", func() error {
			_, err := MapAll[struct{ V int8 }](single(record.KindInt64, int64(300)), false)
			return err
		}},
		{"negative into uint", func() error {
			_, err := MapAll[struct{ V uint }](single(record.KindInt32, int32(-1)), false)
			return err
		}},
		{"char into int8", func() error {
			_, err := MapAll[struct{ V int8 }](single(record.KindChar, uint16(200)), false)
			return err
		}},
		{"double into float32", func() error {
			_, err := MapAll[struct{ V float32 }](single(record.KindDouble, 1e40), false)
			return err
		}},
		{"double into int16", func() error {
			_, err := MapAll[struct{ V int16 }](single(record.KindDouble, 70000.5), false)
			return err
		}},
		{"string into int8", func() error {
			_, err := MapAll[struct{ V int8 }](single(record.KindString, "300"), false)
			return err
		}},
		{"int32 into narrow enum", func() error {
			_, err := MapAll[struct{ V level }](single(record.KindInt32, int32(300)), true)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.run(), record.ErrTypeMismatch)
		})
	}
}
