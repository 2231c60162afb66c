package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type RecordsetConfig struct {
	AppName string `mapstructure:"app_name"`

	Source struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"source"`

	Server struct {
		Addr    string        `mapstructure:"addr"`
		Debug   bool          `mapstructure:"debug"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"server"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("app_name", "recordset")
	v.SetDefault("source.driver", "sqlite")
	v.SetDefault("source.dsn", "file:recordset.db")
	v.SetDefault("server.addr", "127.0.0.1:8866")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.timeout", "0s")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("RECORDSET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads a YAML file at path. An empty path yields the defaults,
// still subject to RECORDSET_* environment overrides.
func LoadConfig(path string) (*RecordsetConfig, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg RecordsetConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LogLevel maps log.level onto slog; server.debug forces debug.
func (c *RecordsetConfig) LogLevel() slog.Level {
	if c.Server.Debug {
		return slog.LevelDebug
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
