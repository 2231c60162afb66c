package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/tuannm99/recordset/internal"
	"github.com/tuannm99/recordset/internal/codec"
	"github.com/tuannm99/recordset/internal/display"
	"github.com/tuannm99/recordset/internal/rowset"
)

const usage = `usage:
  dump encode [-config file] [-driver name] [-dsn dsn] -o out.rs "SELECT ..."
  dump decode file.rs`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "encode":
		err = encodeCmd(os.Args[2:])
	case "decode":
		err = decodeCmd(os.Args[2:], os.Stdout)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error(os.Args[1], "err", err)
		os.Exit(1)
	}
}

func encodeCmd(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "YAML config file")
	driver := fs.String("driver", "", "database/sql driver, overrides source.driver")
	dsn := fs.String("dsn", "", "data source name, overrides source.dsn")
	out := fs.String("o", "", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *out == "" {
		return errors.New(usage)
	}

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))
	if *driver != "" {
		cfg.Source.Driver = *driver
	}
	if *dsn != "" {
		cfg.Source.DSN = *dsn
	}

	db, err := sql.Open(cfg.Source.Driver, cfg.Source.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	n, err := encodeQuery(context.Background(), db, fs.Arg(0), f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	slog.Info("encoded", "file", *out, "bytes", n)
	return nil
}

// encodeQuery streams the result of query into w.
func encodeQuery(ctx context.Context, db *sql.DB, query string, w io.Writer) (int64, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	cur, err := rowset.FromRows(rows)
	if err != nil {
		return 0, err
	}
	enc, err := codec.NewEncoder(cur,
		codec.WithOwnership(true),
		codec.WithCompletion(func() { slog.Debug("dump: result drained") }),
	)
	if err != nil {
		return 0, err
	}
	defer func() { _ = enc.Close() }()
	return enc.WriteTo(w)
}

func decodeCmd(args []string, w io.Writer) error {
	if len(args) != 1 {
		return errors.New(usage)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	// the decoder closes f
	d, err := codec.NewDecoder(f)
	if err != nil {
		_ = f.Close()
		return err
	}
	defer func() { _ = d.Close() }()

	_, err = display.Render(w, d)
	return err
}
