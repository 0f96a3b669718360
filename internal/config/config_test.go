package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "config.yml", cfg.Config)
	assert.Equal(t, "hive.sh", cfg.Script)
	assert.Equal(t, "", cfg.Output)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "/opt/hive/etc/services.json", cfg.Target.ManifestPath)
	assert.Equal(t, "/opt/hive/bin/hive", cfg.Target.ScriptPath)
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "hive-ignite.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
config: deploy/prod.yml
format: json
target:
  script_path: /usr/local/bin/hive
`), 0o600))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "deploy/prod.yml", cfg.Config)
	assert.Equal(t, "hive.sh", cfg.Script)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "/opt/hive/etc/services.json", cfg.Target.ManifestPath)
	assert.Equal(t, "/usr/local/bin/hive", cfg.Target.ScriptPath)

	opts := cfg.Options()
	assert.Equal(t, "/usr/local/bin/hive", opts.ScriptPath)
	assert.Empty(t, opts.Orchestrator)
}

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("HIVE_IGNITE_FORMAT", "json")
	t.Setenv("HIVE_IGNITE_TARGET_MANIFEST_PATH", "/etc/hive/services.json")
	require.NoError(t, BindEnv())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "/etc/hive/services.json", cfg.Target.ManifestPath)
	assert.Equal(t, "config.yml", cfg.Config)
}
