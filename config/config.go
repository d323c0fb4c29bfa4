// Package config loads service settings from YAML, .env files and the
// environment.
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
	"gopkg.in/yaml.v3"

	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/storage/casconfig"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "XSDHASH_"

// Config is the service configuration.
//
// Example:
//
//	http_addr: ":8080"
//	grpc_addr: ":7777"
//	algorithm: sha1
//	log_level: info
//	storage:
//	  backends:
//	    - name: localfs
//	      config:
//	        localfs-dir: /var/lib/xsdhash
type Config struct {
	HTTPAddr  string           `yaml:"http_addr"`
	GRPCAddr  string           `yaml:"grpc_addr"`
	Algorithm string           `yaml:"algorithm"`
	LogLevel  string           `yaml:"log_level"`
	Storage   casconfig.Config `yaml:"storage"`
}

// Default returns the configuration used when no file is given: both
// listeners on localhost and an in-memory store.
func Default() Config {
	return Config{
		HTTPAddr:  "127.0.0.1:8080",
		GRPCAddr:  "127.0.0.1:7777",
		Algorithm: string(digest.Default),
		LogLevel:  "info",
		Storage: casconfig.Config{
			Backends: []casconfig.BackendConfig{{Name: "memory"}},
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then variables from .env files, then XSDHASH_*
// environment variables.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// A missing .env file is normal.
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load env file: %w", err)
	}
	cfg.applyEnv(os.LookupEnv)

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("HTTP_ADDR", &c.HTTPAddr)
	set("GRPC_ADDR", &c.GRPCAddr)
	set("ALGORITHM", &c.Algorithm)
	set("LOG_LEVEL", &c.LogLevel)

	var dir string
	set("STORAGE_DIR", &dir)
	if dir != "" {
		c.Storage = casconfig.Config{
			Algorithm: c.Algorithm,
			Backends: []casconfig.BackendConfig{{
				Name:   "localfs",
				Config: map[string]string{"localfs-dir": dir, "localfs-alg": c.Algorithm},
			}},
		}
	}
}

// Validate checks field values.
func (c Config) Validate() error {
	if _, err := digest.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if len(c.Storage.Backends) > 0 {
		if err := c.Storage.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DigestAlgorithm returns the parsed algorithm.
func (c Config) DigestAlgorithm() digest.Algorithm {
	alg, err := digest.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return digest.Default
	}
	return alg
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: invalid log_level %q", s)
	}
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
