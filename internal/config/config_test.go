package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tilemap.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[logging]
level = "debug"

[maps]
dir = "data/maps"
files = ["town.yaml"]

[navigation]
diagonals = true
weight_key = "cost"

[http]
bind_address = ":9000"
read_timeout = "3s"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
	require.Equal(t, "data/maps", cfg.Maps.Dir)
	require.Equal(t, []string{"town.yaml"}, cfg.Maps.Files)
	require.True(t, cfg.Navigation.Diagonals)
	require.Equal(t, "cost", cfg.Navigation.WeightKey)
	require.Equal(t, "walkable", cfg.Navigation.WalkableKey)
	require.Equal(t, ":9000", cfg.HTTP.BindAddress)
	require.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	require.Equal(t, 10*time.Second, cfg.HTTP.WriteTimeout)
	require.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorContains(t, err, "read config")

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging\n"), 0o644))
	_, err = Load(path)
	require.ErrorContains(t, err, "parse config")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "maps", cfg.Maps.Dir)
	require.False(t, cfg.Scripting.Enabled)
}
