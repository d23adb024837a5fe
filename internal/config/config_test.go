package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arloliu/mdata/format"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := Load("")
		require.NoError(t, err)
		require.Equal(t, "info", cfg.Log.Level)
		require.Equal(t, "console", cfg.Log.Format)
		require.Equal(t, format.CompressionZstd, cfg.Binary.Compression)
		require.False(t, cfg.Binary.BigEndian)
		require.Equal(t, 4, cfg.Convert.Workers)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("MDTOOL_BINARY_COMPRESSION", "lz4")
		t.Setenv("MDTOOL_CONVERT_WORKERS", "0")

		cfg, err := Load("")
		require.NoError(t, err)
		require.Equal(t, format.CompressionLZ4, cfg.Binary.Compression)
		require.Equal(t, 1, cfg.Convert.Workers)
	})

	t.Run("Explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.toml")
		content := "[log]\nlevel = \"debug\"\n\n[binary]\ncompression = \"s2\"\nbig_endian = true\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, "debug", cfg.Log.Level)
		require.Equal(t, format.CompressionS2, cfg.Binary.Compression)
		require.True(t, cfg.Binary.BigEndian)
	})

	t.Run("Missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		require.Error(t, err)
	})

	t.Run("Invalid compression", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("MDTOOL_BINARY_COMPRESSION", "brotli")

		_, err := Load("")
		require.Error(t, err)
	})
}
