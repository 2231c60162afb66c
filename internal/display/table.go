// Package display renders decoded recordsets as text tables.
package display

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tuannm99/recordset/internal/codec"
)

const null = "NULL"

// Render prints every remaining result set of d, one table each, and returns
// the number of sets printed. Rows are buffered per set to size the columns.
func Render(w io.Writer, d *codec.Decoder) (int, error) {
	sets := 0
	for {
		if err := renderSet(w, d); err != nil {
			return sets, err
		}
		sets++
		ok, err := d.NextResult()
		if err != nil {
			return sets, err
		}
		if !ok {
			return sets, nil
		}
	}
}

func renderSet(w io.Writer, d *codec.Decoder) error {
	n := d.FieldCount()
	cols := make([]string, n)
	widths := make([]int, n)
	for i := range cols {
		cols[i] = d.ColumnName(i)
		widths[i] = len(cols[i])
	}

	var rows [][]string
	for {
		ok, err := d.Read()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		row := make([]string, n)
		for i := range row {
			v, err := d.Value(i)
			if err != nil {
				return err
			}
			row[i] = Format(v)
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
		rows = append(rows, row)
	}

	printRow := func(values []string) {
		for i := range values {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprint(w, padRight(values[i], widths[i]))
		}
		fmt.Fprintln(w)
	}

	printRow(cols)
	for i := range cols {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", widths[i]))
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		printRow(row)
	}

	_, err := fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return err
}

// Format renders one boxed decoder value.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return null
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case uint16:
		return string(rune(x))
	default:
		return fmt.Sprint(x)
	}
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
