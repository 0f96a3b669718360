package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ThomasCrouzet/hive-ignite/internal/compiler"
	"github.com/ThomasCrouzet/hive-ignite/internal/config"
	"github.com/ThomasCrouzet/hive-ignite/internal/deploy"
	"github.com/ThomasCrouzet/hive-ignite/internal/ignition"
	"github.com/ThomasCrouzet/hive-ignite/internal/ui"
	"github.com/spf13/cobra"
)

var (
	descriptionFile string
	scriptFile      string
	outputFile      string
	outputFormat    string
	manifestPath    string
	scriptPath      string
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the deployment description into a provisioning document",
	Long: `Validate every service in the deployment description, embed the service
manifest and the orchestrator script, and print the provisioning document.

Nothing is written unless the whole description compiles.`,
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&descriptionFile, "config", "c", "", "deployment description (default: config.yml)")
	compileCmd.Flags().StringVarP(&scriptFile, "script", "s", "", "orchestrator script to embed (default: hive.sh)")
	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	compileCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: yaml, json (default: yaml)")
	compileCmd.Flags().StringVar(&manifestPath, "manifest-path", "", "service manifest path on the target machine")
	compileCmd.Flags().StringVar(&scriptPath, "script-path", "", "orchestrator script path on the target machine")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return reported("Failed to load settings", err)
	}

	applyFlagOverrides(cfg)

	tmpl, err := ignition.DefaultTemplates()
	if err != nil {
		return reported("Built-in unit templates are invalid", err)
	}

	ui.Step("Loading " + cfg.Config)
	desc, err := deploy.Load(cfg.Config)
	if err != nil {
		return reported("Failed to load deployment description", err)
	}
	for _, src := range desc.Compose {
		ui.Step("Imported services from " + src.Path)
	}

	script, err := deploy.ReadScript(cfg.Script)
	if err != nil {
		return reported("Failed to read orchestrator script", err)
	}

	ui.Step(fmt.Sprintf("Compiling %d services for %s", len(desc.Services), orchestratorName(desc.Orchestrator)))
	doc, err := compiler.Compile(desc, script, tmpl, cfg.Options())
	if err != nil {
		return reported("Compilation failed", err)
	}

	out, err := compiler.Encode(doc, cfg.Format)
	if err != nil {
		return reported("Failed to encode document", err)
	}

	if cfg.Output == "" || cfg.Output == "-" {
		if _, err := os.Stdout.Write(out); err != nil {
			return reported("Failed to write output", err)
		}
		return nil
	}

	if err := writeAtomic(cfg.Output, out); err != nil {
		return reported("Failed to write output", err)
	}

	ui.Success(fmt.Sprintf("Generated %s (%d services)", cfg.Output, len(desc.Services)))
	return nil
}

func applyFlagOverrides(cfg *config.Settings) {
	if descriptionFile != "" {
		cfg.Config = descriptionFile
	}
	if scriptFile != "" {
		cfg.Script = scriptFile
	}
	if outputFile != "" {
		cfg.Output = outputFile
	}
	if outputFormat != "" {
		cfg.Format = outputFormat
	}
	if manifestPath != "" {
		cfg.Target.ManifestPath = manifestPath
	}
	if scriptPath != "" {
		cfg.Target.ScriptPath = scriptPath
	}
}

// writeAtomic replaces path in one rename so readers never see a partial
// document.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func orchestratorName(name string) string {
	if name == "" {
		return ignition.DefaultOrchestrator
	}
	return name
}
