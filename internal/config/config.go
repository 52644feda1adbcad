// Package config loads quantq settings: built-in defaults, then an optional
// TOML file, then QUANTQ_* environment variables.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// DefaultFile is the config file read from the working directory when no
// path is given.
const DefaultFile = "quantq.toml"

// EnvPrefix prefixes environment overrides: QUANTQ_MATRIX_MAX_SIZE etc.
const EnvPrefix = "QUANTQ"

// Config is the full quantq configuration.
type Config struct {
	Matrix    MatrixConfig    `mapstructure:"matrix" toml:"matrix" json:"matrix"`
	Scan      ScanConfig      `mapstructure:"scan" toml:"scan" json:"scan"`
	Log       LogConfig       `mapstructure:"log" toml:"log" json:"log"`
	Dataset   DatasetConfig   `mapstructure:"dataset" toml:"dataset" json:"dataset"`
	Workspace WorkspaceConfig `mapstructure:"workspace" toml:"workspace" json:"workspace"`
}

// MatrixConfig bounds truth matrix generation.
type MatrixConfig struct {
	MaxSize int `mapstructure:"max_size" toml:"max_size" json:"max_size"`
}

// ScanConfig controls full scans.
type ScanConfig struct {
	// Workers caps scan goroutines; 0 means GOMAXPROCS.
	Workers  int  `mapstructure:"workers" toml:"workers" json:"workers"`
	Parallel bool `mapstructure:"parallel" toml:"parallel" json:"parallel"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Format string `mapstructure:"format" toml:"format" json:"format"` // console or json
	Level  string `mapstructure:"level" toml:"level" json:"level"`
}

// DatasetConfig tunes CSV ingestion.
type DatasetConfig struct {
	IDColumn    string   `mapstructure:"id_column" toml:"id_column" json:"id_column"`
	DateColumns []string `mapstructure:"date_columns" toml:"date_columns" json:"date_columns"`
}

// WorkspaceConfig locates the SQLite workspace.
type WorkspaceConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("matrix.max_size", 256)
	v.SetDefault("scan.workers", 0)
	v.SetDefault("scan.parallel", true)
	v.SetDefault("log.format", "console")
	v.SetDefault("log.level", "warn")
	v.SetDefault("dataset.id_column", "")
	v.SetDefault("dataset.date_columns", []string{})
	v.SetDefault("workspace.path", "quantq.db")
}

// Default returns the built-in configuration.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	var c Config
	// Defaults always decode.
	_ = v.Unmarshal(&c)
	return c
}

// NewViper builds a viper instance over defaults, the config file and the
// environment. An empty path reads DefaultFile when it exists; an explicit
// path must exist.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return v, nil
		}
		path = DefaultFile
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}
	return v, nil
}

// Load reads the configuration and validates it.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

// LoadWithViper decodes and validates the configuration held by v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Matrix.MaxSize < 1 {
		return errors.WithHint(
			errors.Newf("matrix.max_size must be at least 1, got %d", c.Matrix.MaxSize),
			"the default is 256",
		)
	}
	if c.Scan.Workers < 0 {
		return errors.Newf("scan.workers must not be negative, got %d", c.Scan.Workers)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.WithHint(
			errors.Newf("log.format %q is not supported", c.Log.Format),
			"use console or json",
		)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}

// Write encodes c as TOML.
func Write(w io.Writer, c Config) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return errors.Wrap(err, "encode config")
	}
	return nil
}

// InitFile writes the defaults to path. An existing file is only replaced
// when force is set.
func InitFile(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return errors.WithHint(
				errors.Newf("config file %s already exists", path),
				"pass --force to overwrite it",
			)
		}
		return errors.Wrapf(err, "create config file %s", path)
	}
	if err := Write(f, Default()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
