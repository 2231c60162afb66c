package main

import (
	"flag"
	"log/slog"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/tuannm99/recordset/internal"
	"github.com/tuannm99/recordset/internal/wire"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "YAML config file (defaults apply when empty)")
		addr    = flag.String("addr", "", "listen address, overrides server.addr")
		driver  = flag.String("driver", "", "database/sql driver: sqlite, mysql or postgres")
		dsn     = flag.String("dsn", "", "data source name, overrides source.dsn")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *driver != "" {
		cfg.Source.Driver = *driver
	}
	if *dsn != "" {
		cfg.Source.DSN = *dsn
	}

	err = wire.Run(wire.ServerConfig{
		Addr:    cfg.Server.Addr,
		Driver:  cfg.Source.Driver,
		DSN:     cfg.Source.DSN,
		Timeout: cfg.Server.Timeout,
	})
	if err != nil {
		slog.Error("server", "app", cfg.AppName, "err", err)
		os.Exit(1)
	}
}
