// Package config loads mdtool settings from defaults, environment variables
// and an optional mdtool.toml file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/arloliu/mdata/format"
)

// Config holds all configuration for mdtool.
type Config struct {
	Log     LogConfig
	Binary  BinaryConfig
	Convert ConvertConfig
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

// BinaryConfig controls how .mdb files are written.
type BinaryConfig struct {
	Compression format.CompressionType
	BigEndian   bool
}

type ConvertConfig struct {
	Workers   int  // concurrent conversions for batch mode
	Overwrite bool // replace existing output files
}

// Load loads configuration from environment and config file.
//
// When configFile is empty the file mdtool.toml is searched in the current
// directory, $HOME/.mdtool/ and /etc/mdtool/; a missing file is not an error.
// Environment variables use the MDTOOL_ prefix, e.g. MDTOOL_LOG_LEVEL.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("MDTOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("mdtool")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.mdtool/")
		v.AddConfigPath("/etc/mdtool/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	compression, err := format.ParseCompressionType(v.GetString("binary.compression"))
	if err != nil {
		return nil, fmt.Errorf("invalid binary.compression: %w", err)
	}

	cfg := &Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Binary: BinaryConfig{
			Compression: compression,
			BigEndian:   v.GetBool("binary.big_endian"),
		},
		Convert: ConvertConfig{
			Workers:   v.GetInt("convert.workers"),
			Overwrite: v.GetBool("convert.overwrite"),
		},
	}

	if cfg.Convert.Workers < 1 {
		cfg.Convert.Workers = 1
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("binary.compression", "zstd")
	v.SetDefault("binary.big_endian", false)

	v.SetDefault("convert.workers", 4)
	v.SetDefault("convert.overwrite", false)
}
