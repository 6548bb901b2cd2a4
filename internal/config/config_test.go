package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 1000, cfg.Model.MaxIter)
	assert.True(t, cfg.Model.Balanced)
	assert.Equal(t, 0.33, cfg.Training.HoldoutFraction)
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "./data/flights.db", cfg.Database.Path)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
training:
  csv_path: ./data/data.csv
  train_on_startup: true
model:
  max_iter: 200
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "./data/data.csv", cfg.Training.CSVPath)
	assert.True(t, cfg.Training.TrainOnStartup)
	assert.Equal(t, 200, cfg.Model.MaxIter)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsHoldoutFraction(t *testing.T) {
	t.Setenv("TRAINING_HOLDOUT_FRACTION", "1.5")
	_, err := Load("")
	assert.Error(t, err)
}
