package cmd

import (
	"errors"

	"github.com/ThomasCrouzet/hive-ignite/internal/config"
	"github.com/ThomasCrouzet/hive-ignite/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var settingsFile string

var rootCmd = &cobra.Command{
	Use:   "hive-ignite",
	Short: "Compile a service deployment description into a first-boot provisioning document",
	Long: `hive-ignite reads a deployment description (services, ports, mounts and the
orchestrator to use) and emits the systemd units and files a freshly booted
machine needs to bring those services up unattended.

The output is a Container Linux config that can be handed to the provisioning
agent: hive-ignite compile -c config.yml > ignition.yml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errReported marks an error that has already been printed to the user.
var errReported = errors.New("reported")

func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		ui.Error(err.Error(), "", "run 'hive-ignite --help' for usage")
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (default: hive-ignite.yml)")
}

func initConfig() {
	if settingsFile != "" {
		viper.SetConfigFile(settingsFile)
	} else {
		viper.SetConfigName("hive-ignite")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	}

	if err := config.BindEnv(); err != nil {
		ui.Warn("ignoring environment settings: " + err.Error())
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			ui.Error("Error reading settings", err.Error(), "")
		}
	}
}

// reported prints err with a title and returns an error that Execute will not
// print again.
func reported(title string, err error) error {
	detail, hint := describe(err)
	ui.Error(title, detail, hint)
	return errors.Join(errReported, err)
}
