package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/venus.report/internal/config"
	"github.com/banshee-data/venus.report/internal/db"
	"github.com/banshee-data/venus.report/internal/monitoring"
)

// TestFlagDefaults verifies every flag is defined with its documented default.
func TestFlagDefaults(t *testing.T) {
	if listen == nil || devMode == nil || configFile == nil || templatesDir == nil || diagDBPath == nil || showVersion == nil {
		t.Fatal("flag not defined")
	}
	assert.Equal(t, ":8050", *listen)
	assert.False(t, *devMode)
	assert.Empty(t, *configFile)
	assert.Equal(t, config.DefaultTemplatesDir, *templatesDir)
	assert.Equal(t, config.DefaultDiagDBPath, *diagDBPath)
	assert.False(t, *showVersion)
}

func TestLoadConfig_NoFileUsesFlags(t *testing.T) {
	cfg, err := loadConfig("", map[string]bool{})
	require.NoError(t, err)

	assert.Equal(t, ":8050", cfg.GetListen())
	assert.False(t, cfg.GetDevMode())
	assert.Equal(t, config.DefaultDiagDBPath, cfg.GetDiagDBPath())
	assert.Equal(t, config.DefaultGridSize, cfg.GetGridSize())
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_FileWinsOverDefaultFlags(t *testing.T) {
	path := writeConfig(t, "venus.yaml", "listen: \":9000\"\ndiag_db_path: \"\"\ngrid_size: 4\n")

	cfg, err := loadConfig(path, map[string]bool{})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.GetListen())
	assert.Empty(t, cfg.GetDiagDBPath())
	assert.Equal(t, 4, cfg.GetGridSize())
}

func TestLoadConfig_ExplicitFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "venus.json", `{"listen": ":9000", "dev_mode": false}`)

	old := *listen
	*listen = ":7000"
	t.Cleanup(func() { *listen = old })

	cfg, err := loadConfig(path, map[string]bool{"listen": true})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.GetListen())
	assert.False(t, cfg.GetDevMode())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"), map[string]bool{})
	assert.Error(t, err)

	path := writeConfig(t, "venus.json", `{"grid_size": 0}`)
	_, err = loadConfig(path, map[string]bool{})
	assert.Error(t, err)

	old := *listen
	*listen = ""
	t.Cleanup(func() { *listen = old })
	_, err = loadConfig("", map[string]bool{"listen": true})
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestNewReporter(t *testing.T) {
	assert.IsType(t, monitoring.LogReporter{}, newReporter(nil))

	store, err := db.NewDB(filepath.Join(t.TempDir(), "diag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rep := newReporter(store)
	require.IsType(t, monitoring.MultiReporter{}, rep)
	assert.Len(t, rep.(monitoring.MultiReporter), 2)
}
