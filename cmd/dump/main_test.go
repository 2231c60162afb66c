package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/recordset/internal/record"
)

func TestEncodeDecode_File(t *testing.T) {
	dir := t.TempDir()
	db, err := sql.Open("sqlite", filepath.Join(dir, "dump.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	_, err = db.Exec(`
		CREATE TABLE t (id INTEGER, tag TEXT);
		INSERT INTO t VALUES (1, 'x');
		INSERT INTO t VALUES (2, NULL);
	`)
	require.NoError(t, err)

	path := filepath.Join(dir, "out.rs")
	f, err := os.Create(path)
	require.NoError(t, err)
	n, err := encodeQuery(context.Background(), db, "SELECT id, tag FROM t ORDER BY id", f)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, n, info.Size())

	var out bytes.Buffer
	require.NoError(t, decodeCmd([]string{path}, &out))
	require.Equal(t, "id | tag \n---+-----\n1  | x   \n2  | NULL\n(2 rows)\n", out.String())
}

func TestDecode_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.rs")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	err := decodeCmd([]string{path}, &bytes.Buffer{})
	require.ErrorIs(t, err, record.ErrMalformedStream)
}

func TestDecode_Usage(t *testing.T) {
	require.Error(t, decodeCmd(nil, &bytes.Buffer{}))
}
