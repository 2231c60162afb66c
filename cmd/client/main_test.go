package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatementComplete(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"SELECT 1;", true},
		{"SELECT 1", false},
		{"SELECT ';'", false},
		{"SELECT 'it\\'s;'", false},
		{"SELECT 'a'; ", true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, statementComplete(tt.in), tt.in)
	}
}

func TestHistory_AppendLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist", "h.txt")
	h := NewHistory(path)
	require.NoError(t, h.Append("SELECT\n  1;"))
	require.NoError(t, h.Append("   "))
	require.NoError(t, h.Append("SELECT 2;"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "SELECT 1;\nSELECT 2;\n", string(raw))

	again := NewHistory(path)
	require.NoError(t, again.Load(1))
	require.Equal(t, []string{"SELECT 2;"}, again.lines)

	var out bytes.Buffer
	h.Print(&out, 1)
	require.Equal(t, "    2  SELECT 2;\n", out.String())
}
