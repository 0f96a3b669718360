package config

import (
	"strings"

	"github.com/ThomasCrouzet/hive-ignite/internal/ignition"
	"github.com/spf13/viper"
)

// Settings configures one compiler run. Values come from hive-ignite.yml,
// HIVE_IGNITE_* environment variables and command-line flags, in rising order
// of precedence.
type Settings struct {
	Config string      `mapstructure:"config"` // deployment description
	Script string      `mapstructure:"script"` // orchestrator script to embed
	Output string      `mapstructure:"output"` // "" or "-" for stdout
	Format string      `mapstructure:"format"` // yaml, json
	Target TargetPaths `mapstructure:"target"`
}

// TargetPaths places the generated files on the provisioned machine.
type TargetPaths struct {
	ManifestPath string `mapstructure:"manifest_path"`
	ScriptPath   string `mapstructure:"script_path"`
}

// EnvPrefix namespaces the environment variables read by BindEnv.
const EnvPrefix = "HIVE_IGNITE"

var keys = []string{"config", "script", "output", "format", "target.manifest_path", "target.script_path"}

// BindEnv maps every setting to an environment variable, e.g.
// target.script_path to HIVE_IGNITE_TARGET_SCRIPT_PATH.
func BindEnv() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		if err := viper.BindEnv(key); err != nil {
			return err
		}
	}
	return nil
}

func Load() (*Settings, error) {
	cfg := &Settings{
		Config: "config.yml",
		Script: "hive.sh",
		Format: "yaml",
	}
	cfg.Target.ManifestPath = ignition.DefaultManifestPath
	cfg.Target.ScriptPath = ignition.DefaultScriptPath

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Options returns the assembler options for these settings.
func (s *Settings) Options() ignition.Options {
	return ignition.Options{
		ManifestPath: s.Target.ManifestPath,
		ScriptPath:   s.Target.ScriptPath,
	}
}
