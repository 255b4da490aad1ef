package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseDir(), cfg.BaseDir)
	assert.Empty(t, cfg.Profile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.JSON)
	assert.Equal(t, "@every 30m", cfg.Backup.Schedule)
	assert.True(t, cfg.Backup.OnClose)
	assert.True(t, cfg.Addons.Enabled)
}

func TestNew_Environment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FLASHDESK_BASE_DIR", dir)
	t.Setenv("FLASHDESK_LOG_JSON", "true")
	t.Setenv("FLASHDESK_BACKUP_SCHEDULE", "")

	cfg, err := New(nil)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.BaseDir)
	assert.True(t, cfg.Logging.JSON)
	assert.Empty(t, cfg.Backup.Schedule)
}

func TestNew_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("FLASHDESK_PROFILE", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("base", "b", "", "")
	flags.StringP("profile", "p", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"-p", "Alice", "--log-level", "debug"}))

	cfg, err := New(flags)
	require.NoError(t, err)

	assert.Equal(t, "Alice", cfg.Profile)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "cards"), expandHome("~/cards"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}
