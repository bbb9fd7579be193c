package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

const EnvPrefix = "NOVABUF"

type NovaBufConfig struct {
	AppName string `mapstructure:"app_name"`

	BufferPool struct {
		Size   int    `mapstructure:"size"`
		Policy string `mapstructure:"policy"`
	} `mapstructure:"bufferpool"`

	Storage struct {
		Backend string `mapstructure:"backend"`
		Workdir string `mapstructure:"workdir"`
		File    string `mapstructure:"file"`
	} `mapstructure:"storage"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// NewViper returns a viper instance with defaults and NOVABUF_* env overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("app_name", "novabuf")
	v.SetDefault("bufferpool.size", 64)
	v.SetDefault("bufferpool.policy", "clock")
	v.SetDefault("storage.backend", "os")
	v.SetDefault("storage.workdir", "./data")
	v.SetDefault("storage.file", "pages")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the YAML file at path on top of the defaults. An empty
// path yields defaults plus environment.
func LoadConfig(path string) (*NovaBufConfig, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper unmarshals and validates v.
func FromViper(v *viper.Viper) (*NovaBufConfig, error) {
	var cfg NovaBufConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *NovaBufConfig) Validate() error {
	if c.BufferPool.Size <= 0 {
		return fmt.Errorf("%w: bufferpool.size must be positive, got %d", ErrInvalidConfig, c.BufferPool.Size)
	}
	switch c.BufferPool.Policy {
	case "clock", "lru":
	default:
		return fmt.Errorf("%w: bufferpool.policy %q (want clock or lru)", ErrInvalidConfig, c.BufferPool.Policy)
	}
	switch c.Storage.Backend {
	case "os", "mem":
	default:
		return fmt.Errorf("%w: storage.backend %q (want os or mem)", ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Storage.File == "" {
		return fmt.Errorf("%w: storage.file is empty", ErrInvalidConfig)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps log.level onto a slog level.
func (c *NovaBufConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	return lvl, nil
}
