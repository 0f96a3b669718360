package wizard

import (
	"fmt"
	"strings"

	"github.com/ThomasCrouzet/hive-ignite/internal/resolve"
	"github.com/charmbracelet/huh"
)

// Run executes the interactive wizard and returns the user's answers.
func Run(detection DetectionResult, orchestrators []string) (*WizardAnswers, error) {
	answers := &WizardAnswers{Orchestrator: "swarm"}

	// Build detection summary
	var hints []string
	if !detection.DockerAvailable {
		hints = append(hints, "docker not found locally (only needed on the target machine)")
	}
	if detection.Script != "" {
		hints = append(hints, fmt.Sprintf("Orchestrator script found: %s", detection.Script))
	}
	if len(detection.ComposeFiles) > 0 {
		hints = append(hints, fmt.Sprintf("Compose files found: %s", strings.Join(detection.ComposeFiles, ", ")))
	}

	desc := "Describe the services the machine should run after first boot."
	if len(hints) > 0 {
		desc += "\n\nAuto-detected:\n  " + strings.Join(hints, "\n  ")
	}

	// Step 1: orchestrator and first service
	options := make([]huh.Option[string], 0, len(orchestrators))
	for _, o := range orchestrators {
		options = append(options, huh.NewOption(o, o))
	}

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Orchestrator").
				Description(desc).
				Options(options...).
				Value(&answers.Orchestrator),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("First service name (optional)").
				Description("Lowercase letters, digits and hyphens").
				Placeholder("web").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					if err := resolve.ValidateName("name", s); err != nil {
						return err
					}
					return nil
				}).
				Value(&answers.ServiceName),
			huh.NewInput().
				Title("Image").
				Placeholder("nginx:1.25").
				Validate(func(s string) error {
					if answers.ServiceName != "" && strings.TrimSpace(s) == "" {
						return fmt.Errorf("an image is required")
					}
					return nil
				}).
				Value(&answers.ServiceImage),
			huh.NewInput().
				Title("Published port (optional)").
				Description("host:container[/protocol]").
				Placeholder("8080:80").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					return checkPort(s)
				}).
				Value(&answers.ServicePort),
		),
	}

	// Step 2: compose import
	if len(detection.ComposeFiles) > 0 {
		composeOptions := make([]huh.Option[string], 0, len(detection.ComposeFiles))
		for _, f := range detection.ComposeFiles {
			composeOptions = append(composeOptions, huh.NewOption(f, f))
		}
		groups = append(groups, huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Import services from these compose files?").
				Options(composeOptions...).
				Value(&answers.ComposeFiles),
		))
	}

	form := huh.NewForm(groups...)
	if err := form.Run(); err != nil {
		return nil, err
	}

	answers.ServiceImage = strings.TrimSpace(answers.ServiceImage)
	return answers, nil
}
