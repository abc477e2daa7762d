package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dagflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nname: nightly\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	require.Equal(t, ".dags", cfg.DagsDir)
	require.Equal(t, ".jobs", cfg.JobsDir)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 5*time.Minute, cfg.PollInterval)
	require.Equal(t, "thread-pool", cfg.Execution.Mode)
	require.Equal(t, 4, cfg.Execution.Workers)
}

func TestLoadFailsValidationOnMissingName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dagflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadPostgresINIParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postgres.ini")
	content := "[connection]\nhost = db.internal\nport = 6543\ndatabase = dagflow\nuser = runner\npassword = secret\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadPostgresINI(path)
	require.NoError(t, err)
	require.Equal(t, "db.internal", cfg.Host)
	require.Equal(t, 6543, cfg.Port)
	require.Equal(t, "dagflow", cfg.Database)
	require.Equal(t, "disable", cfg.SSLMode)
}
