package cmd

import (
	"fmt"
	"os"

	"github.com/ThomasCrouzet/hive-ignite/internal/ignition"
	"github.com/ThomasCrouzet/hive-ignite/internal/ui"
	"github.com/ThomasCrouzet/hive-ignite/internal/wizard"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config.yml deployment description interactively",
	Long: `Scan the working directory for an orchestrator script and compose files,
then generate a starter deployment description through an interactive wizard.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := "config.yml"

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(ui.Out, "%s already exists.\n", configPath)
		fmt.Fprint(ui.Out, "Overwrite? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(ui.Out, "Aborted.")
			return nil
		}
	}

	tmpl, err := ignition.DefaultTemplates()
	if err != nil {
		return fmt.Errorf("unit templates: %w", err)
	}

	// Detect environment
	fmt.Fprintln(ui.Out, ui.Bold("Scanning working directory..."))
	detection := wizard.Detect(nil)

	// Run wizard
	answers, err := wizard.Run(detection, tmpl.Orchestrators())
	if err != nil {
		return fmt.Errorf("wizard: %w", err)
	}

	// Generate config
	content, err := wizard.GenerateConfig(*answers)
	if err != nil {
		return fmt.Errorf("generating config: %w", err)
	}

	// Write config file
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	ui.Success(fmt.Sprintf("Created %s", configPath))
	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "Next step: %s\n", ui.Bold("hive-ignite compile -c config.yml"))
	if detection.Script == "" {
		fmt.Fprintf(ui.Out, "           %s\n", ui.Hint("write the orchestrator script to hive.sh first"))
	} else if detection.Script != "hive.sh" {
		fmt.Fprintf(ui.Out, "           %s\n", ui.Hint("add -s "+detection.Script+" to embed the detected script"))
	}

	return nil
}
