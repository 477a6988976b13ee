package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvDBPath, EnvLogLevel, EnvLogFile, "MYTASKS_UPCOMING_DAYS"} {
		t.Setenv(k, "")
	}
}

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	assert.Equal(t, filepath.Join(dir, "nested", DefaultDBName), cfg.DBPath)
	assert.Equal(t, "all", cfg.DefaultView)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 7, cfg.UpcomingDays)
	assert.Equal(t, 5, cfg.UpcomingLimit)
	assert.Equal(t, []string{"Work", "Personal", "Urgent", "Shopping"}, cfg.Categories)
	assert.Equal(t, " ", cfg.Keys.Toggle)

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreatePartialFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
db_path = "/var/lib/mytasks/tasks.db"
default_view = "pending"
upcoming_days = 14

[keys]
quit = "x"
`), 0o644))

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/mytasks/tasks.db", cfg.DBPath)
	assert.Equal(t, "pending", cfg.DefaultView)
	assert.Equal(t, 14, cfg.UpcomingDays)
	assert.Equal(t, "x", cfg.Keys.Quit)
	assert.Equal(t, "a", cfg.Keys.Add)
	assert.Equal(t, "/", cfg.Keys.Search)
}

func TestLoadOrCreateRejectsBadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("db_path = ["), 0o644))

	_, err := LoadOrCreate(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MYTASKS_LOG_LEVEL=debug\nMYTASKS_UPCOMING_DAYS=3\n"), 0o644))
	t.Setenv(EnvDBPath, "other.db")
	// godotenv does not override variables that are already set.
	os.Unsetenv(EnvLogLevel)
	os.Unsetenv("MYTASKS_UPCOMING_DAYS")
	t.Cleanup(func() {
		os.Unsetenv(EnvLogLevel)
		os.Unsetenv("MYTASKS_UPCOMING_DAYS")
	})

	require.NoError(t, LoadEnv(envFile, filepath.Join(dir, "missing.env")))

	cfg, err := LoadOrCreate(filepath.Join(dir, DefaultConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "other.db"), cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.UpcomingDays)
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(EnvConfig, "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", ResolveConfigPath())

	home := t.TempDir()
	t.Setenv(EnvConfig, "")
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, ".config", "mytasks", DefaultConfigFileName), ResolveConfigPath())
}
