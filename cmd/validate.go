package cmd

import (
	"fmt"
	"strings"

	"github.com/ThomasCrouzet/hive-ignite/internal/compiler"
	"github.com/ThomasCrouzet/hive-ignite/internal/config"
	"github.com/ThomasCrouzet/hive-ignite/internal/deploy"
	"github.com/ThomasCrouzet/hive-ignite/internal/ignition"
	"github.com/ThomasCrouzet/hive-ignite/internal/model"
	"github.com/ThomasCrouzet/hive-ignite/internal/resolve"
	"github.com/ThomasCrouzet/hive-ignite/internal/ui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the deployment description",
	Long: `Check every service in the deployment description and report all problems
at once, with a suggested fix where one is known.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&descriptionFile, "config", "c", "", "deployment description (default: config.yml)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return reported("Failed to load settings", err)
	}
	if descriptionFile != "" {
		cfg.Config = descriptionFile
	}

	desc, err := deploy.Load(cfg.Config)
	if err != nil {
		return reported("Failed to load deployment description", err)
	}

	tmpl, err := ignition.DefaultTemplates()
	if err != nil {
		return reported("Built-in unit templates are invalid", err)
	}

	fmt.Fprintln(ui.Out, ui.Bold("Validating "+cfg.Config+"..."))

	passed, failed := 0, 0

	orchestrator := orchestratorName(desc.Orchestrator)
	if err := compiler.CheckOrchestrator(orchestrator, tmpl); err != nil {
		detail, hint := describe(err)
		ui.ValidationErr("orchestrator", detail, hint)
		failed++
	} else {
		ui.ValidationOK("orchestrator", orchestrator)
		passed++
	}

	errs := resolve.Validate(desc.Services)
	for i, raw := range desc.Services {
		if hasErrorFor(errs, i) {
			continue
		}
		svc, err := resolve.Resolve(raw)
		if err != nil {
			continue
		}
		ui.ValidationOK(svc.Name, summarize(svc))
		passed++
	}
	for _, ve := range errs {
		ui.ValidationErr(ve.Field, fmt.Sprintf("%s: %s", ve.Kind, ve.Message), ve.Suggestion)
		failed++
	}

	fmt.Fprintln(ui.Out)
	if failed == 0 {
		ui.Success(fmt.Sprintf("%d checks passed, 0 errors", passed))
		return nil
	}

	fmt.Fprintln(ui.Out, ui.Dim(fmt.Sprintf("%d checks passed, %d errors", passed, failed)))
	return fmt.Errorf("%d validation errors: %w", failed, errReported)
}

func hasErrorFor(errs []*resolve.ValidationError, index int) bool {
	prefix := fmt.Sprintf("services[%d]", index)
	for _, e := range errs {
		if e.Field == prefix || strings.HasPrefix(e.Field, prefix+".") {
			return true
		}
	}
	return false
}

func summarize(svc model.Service) string {
	parts := []string{svc.Image}
	for _, p := range svc.Ports {
		parts = append(parts, p.String())
	}
	if n := len(svc.BindMounts); n > 0 {
		parts = append(parts, fmt.Sprintf("%d mounts", n))
	}
	if svc.IsGlobal {
		parts = append(parts, "global")
	} else {
		parts = append(parts, fmt.Sprintf("%d replicas", svc.Replicas))
	}
	if !svc.IsEnabled {
		parts = append(parts, "disabled")
	}
	return strings.Join(parts, ", ")
}
