package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "recordset", cfg.AppName)
	require.Equal(t, "sqlite", cfg.Source.Driver)
	require.Equal(t, "127.0.0.1:8866", cfg.Server.Addr)
	require.Equal(t, time.Duration(0), cfg.Server.Timeout)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recordset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_name: demo
source:
  driver: postgres
  dsn: postgres://u:p@localhost/db?sslmode=disable
server:
  addr: ":9000"
  timeout: 30s
log:
  level: warn
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "demo", cfg.AppName)
	require.Equal(t, "postgres", cfg.Source.Driver)
	require.Equal(t, "postgres://u:p@localhost/db?sslmode=disable", cfg.Source.DSN)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, 30*time.Second, cfg.Server.Timeout)
	require.Equal(t, slog.LevelWarn, cfg.LogLevel())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("RECORDSET_SOURCE_DSN", "file:other.db")
	t.Setenv("RECORDSET_SERVER_DEBUG", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "file:other.db", cfg.Source.DSN)
	require.True(t, cfg.Server.Debug)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
