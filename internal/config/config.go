// Package config loads server and CLI settings from a .env file,
// BMF_-prefixed environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "BMF"

	DefaultHost            = "127.0.0.1"
	DefaultPort            = 3000
	DefaultDataDir         = "data"
	DefaultBuiltinTemplate = "public/templates/asu_business_meals_template.pdf"
	DefaultLogLevel        = "info"
	DefaultMaxUploadSize   = 20 * 1024 * 1024 // 20MB

	DefaultDirPerm = 0o750
)

// Config holds every setting the binaries read.
type Config struct {
	Host string
	Port int
	// DBPath defaults to bmf.db inside DataDir.
	DBPath          string
	DataDir         string
	BuiltinTemplate string
	// PatternsFile replaces the embedded pattern table when set.
	PatternsFile  string
	LogLevel      string
	MaxUploadSize int64
}

func (c *Config) Address() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// TemplatesDir holds uploaded templates.
func (c *Config) TemplatesDir() string { return filepath.Join(c.DataDir, "templates") }

// OutputsDir holds persisted filled PDFs.
func (c *Config) OutputsDir() string { return filepath.Join(c.DataDir, "filled_pdfs") }

// Level maps LogLevel to a slog level. Validate has already rejected unknown names.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

// Load reads .env, the environment and args (without the program name).
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "err", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// PORT and DB_PATH are honoured for existing deployments.
	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT")
	_ = v.BindEnv("db", EnvPrefix+"_DB", "DB_PATH")

	fs := pflag.NewFlagSet("bmf", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("host", DefaultHost, "HTTP listen host")
	fs.Int("port", DefaultPort, "HTTP listen port")
	fs.String("db", "", "SQLite database path (default <data-dir>/bmf.db)")
	fs.String("data-dir", DefaultDataDir, "directory for uploaded templates and filled PDFs")
	fs.String("builtin-template", DefaultBuiltinTemplate, "path of the built-in form template")
	fs.String("patterns", "", "YAML file replacing the built-in field pattern table")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.Int64("max-upload-size", DefaultMaxUploadSize, "maximum request body size in bytes")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	cfg := &Config{
		Host:            v.GetString("host"),
		Port:            v.GetInt("port"),
		DBPath:          v.GetString("db"),
		DataDir:         v.GetString("data-dir"),
		BuiltinTemplate: v.GetString("builtin-template"),
		PatternsFile:    v.GetString("patterns"),
		LogLevel:        strings.ToLower(v.GetString("log-level")),
		MaxUploadSize:   v.GetInt64("max-upload-size"),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "bmf.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and creates the data directory when missing.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("maximum upload size must be positive")
	}
	if c.DataDir == "" {
		return errors.New("data directory cannot be empty")
	}
	if err := os.MkdirAll(c.DataDir, DefaultDirPerm); err != nil {
		return fmt.Errorf("cannot create data directory %s: %w", c.DataDir, err)
	}
	return nil
}
