package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/recordset/internal/codec"
	"github.com/tuannm99/recordset/internal/record"
	"github.com/tuannm99/recordset/internal/rowset"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, "NULL"},
		{"bytes", []byte{0xca, 0xfe}, "0xcafe"},
		{"char", uint16('x'), "x"},
		{"time", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "2024-01-02T03:04:05Z"},
		{"guid", uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"int", int32(-4), "-4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Format(tt.in))
		})
	}
}

func TestRender(t *testing.T) {
	c := rowset.NewMemory(
		rowset.ResultSet{
			Columns: []record.Column{
				{Name: "Id", Kind: record.KindInt32},
				{Name: "Name", Kind: record.KindString, Nullable: true},
			},
			Rows: [][]any{{int32(1), "alice"}, {int32(2), nil}},
		},
		rowset.ResultSet{
			Columns: []record.Column{{Name: "n", Kind: record.KindInt64}},
		},
	)
	b, err := codec.Encode(c)
	require.NoError(t, err)
	d, err := codec.NewDecoder(bytes.NewReader(b))
	require.NoError(t, err)

	var out bytes.Buffer
	sets, err := Render(&out, d)
	require.NoError(t, err)
	require.Equal(t, 2, sets)

	want := strings.Join([]string{
		"Id | Name ",
		"---+------",
		"1  | alice",
		"2  | NULL ",
		"(2 rows)",
		"n",
		"-",
		"(0 rows)",
		"",
	}, "\n")
	require.Equal(t, want, out.String())
}
