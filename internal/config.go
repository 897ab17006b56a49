package internal

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/tuannm99/novabuf/internal/bufferpool"
	"github.com/tuannm99/novabuf/internal/storage"
)

const EnvPrefix = "NOVABUF"

type StorageConfig struct {
	Mode     string `mapstructure:"mode"`
	Workdir  string `mapstructure:"workdir"`
	PageSize int    `mapstructure:"page_size"`
}

type BufferPoolConfig struct {
	Frames            int  `mapstructure:"frames"`
	DeadlockDetection bool `mapstructure:"deadlock_detection"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug|info|warn|error
	Format string `mapstructure:"format"` // text|json
}

type Config struct {
	AppName string `mapstructure:"app_name"`

	Storage    StorageConfig    `mapstructure:"storage"`
	BufferPool BufferPoolConfig `mapstructure:"bufferpool"`
	Log        LogConfig        `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "novabuf")
	v.SetDefault("storage.mode", storage.Disk.String())
	v.SetDefault("storage.workdir", "./data")
	v.SetDefault("storage.page_size", storage.PageSize)
	v.SetDefault("bufferpool.frames", bufferpool.DefaultCapacity)
	v.SetDefault("bufferpool.deadlock_detection", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// NewViper returns a viper instance with every key defaulted and
// NOVABUF_* environment overrides enabled, e.g. NOVABUF_BUFFERPOOL_FRAMES.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal defaults: %w", err)
	}
	return &cfg, nil
}

func LoadConfig(path string) (*Config, error) {
	return Load(NewViper(), path)
}

// Load reads path (if not empty) into v and decodes the result. Flags bound
// to v beforehand take precedence over the file.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.BufferPool.Frames <= 0 {
		return fmt.Errorf("config: bufferpool.frames must be > 0, got %d", c.BufferPool.Frames)
	}
	if !storage.ValidPageSize(c.Storage.PageSize) {
		return fmt.Errorf("config: storage.page_size %d is not a positive multiple of %d",
			c.Storage.PageSize, storage.MinPageSize)
	}
	if _, err := c.StorageMode(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

func (c *Config) StorageMode() (storage.StorageMode, error) {
	return storage.GetStorageMode(c.Storage.Mode)
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log.level %q", s)
	}
	return lvl, nil
}

// NewLogger builds a slog.Logger writing to w as configured.
func NewLogger(w io.Writer, cfg LogConfig) (*slog.Logger, error) {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log.format %q", cfg.Format)
	}
}
