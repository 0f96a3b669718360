package ignition

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/ThomasCrouzet/hive-ignite/internal/util"
)

const (
	DefaultOrchestrator = "swarm"
	DefaultManifestPath = "/opt/hive/etc/services.json"
	DefaultScriptPath   = "/opt/hive/bin/hive"

	runtimeUnitName   = "docker.service"
	bootstrapUnitName = "hive.service"
)

const bootstrapUnitTemplate = `
    [Unit]
    Description=Create and manage {{ .Title }} services
    Requires={{ .RuntimeUnit }}
    After={{ .RuntimeUnit }}

    [Service]
    Type=oneshot
    ExecStart={{ .ScriptPath }} {{ .Orchestrator }}
    StandardOutput=journal+console

    [Install]
    WantedBy=multi-user.target
    `

// Orchestrator describes how the container runtime brings up one cluster kind.
type Orchestrator struct {
	Title  string // human-readable, used in unit descriptions
	Dropin Dropin // attached to the runtime unit
}

func defaultOrchestrators() map[string]Orchestrator {
	return map[string]Orchestrator{
		"swarm": {
			Title: "Docker Swarm",
			Dropin: Dropin{
				Name: "docker-swarm.conf",
				Contents: `
				[Service]
				ExecStartPost=-/usr/bin/docker swarm init
				`,
			},
		},
	}
}

// Templates holds the static unit bodies. It is built once with
// DefaultTemplates and never changed afterwards.
type Templates struct {
	RuntimeUnit   string
	BootstrapUnit string

	orchestrators map[string]Orchestrator
	bootstrap     *template.Template
}

type bootstrapData struct {
	Title        string
	Orchestrator string
	RuntimeUnit  string
	ScriptPath   string
}

// DefaultTemplates parses and lints the built-in unit templates.
func DefaultTemplates() (*Templates, error) {
	return NewTemplates(runtimeUnitName, bootstrapUnitName, bootstrapUnitTemplate, defaultOrchestrators())
}

// NewTemplates builds a template set. The bootstrap body is a text/template
// over Title, Orchestrator, RuntimeUnit and ScriptPath. Every rendered body is
// linted as a unit file before the set is returned.
func NewTemplates(runtimeUnit, bootstrapUnit, bootstrapBody string, orchestrators map[string]Orchestrator) (*Templates, error) {
	for _, name := range []string{runtimeUnit, bootstrapUnit} {
		if !validUnitName(name) {
			return nil, fmt.Errorf("unit %q has no valid unit type suffix", name)
		}
	}
	if len(orchestrators) == 0 {
		return nil, fmt.Errorf("no orchestrators configured")
	}

	tmpl, err := template.New(bootstrapUnit).Option("missingkey=error").Parse(bootstrapBody)
	if err != nil {
		return nil, fmt.Errorf("parsing %s template: %w", bootstrapUnit, err)
	}

	t := &Templates{
		RuntimeUnit:   runtimeUnit,
		BootstrapUnit: bootstrapUnit,
		orchestrators: make(map[string]Orchestrator, len(orchestrators)),
		bootstrap:     tmpl,
	}

	for name, o := range orchestrators {
		if !strings.HasSuffix(o.Dropin.Name, ".conf") {
			return nil, fmt.Errorf("drop-in %q for %s must end in .conf", o.Dropin.Name, name)
		}
		if err := lintUnit(o.Dropin.Name, NewDropin(o.Dropin.Name, o.Dropin.Contents).Contents, "Service.ExecStartPost"); err != nil {
			return nil, err
		}
		t.orchestrators[name] = o

		body, err := t.bootstrapContents(name, DefaultScriptPath)
		if err != nil {
			return nil, err
		}
		if err := lintUnit(bootstrapUnit, body,
			"Unit.Requires", "Unit.After", "Service.Type", "Service.ExecStart", "Install.WantedBy"); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Supports reports whether the set has a drop-in for the orchestrator.
func (t *Templates) Supports(orchestrator string) bool {
	_, ok := t.orchestrators[orchestrator]
	return ok
}

// Orchestrators returns the supported orchestrator names, sorted.
func (t *Templates) Orchestrators() []string {
	names := make([]string, 0, len(t.orchestrators))
	for name := range t.orchestrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Templates) bootstrapContents(orchestrator, scriptPath string) (string, error) {
	o, ok := t.orchestrators[orchestrator]
	if !ok {
		return "", fmt.Errorf("no templates for orchestrator %q", orchestrator)
	}

	var buf bytes.Buffer
	err := t.bootstrap.Execute(&buf, bootstrapData{
		Title:        o.Title,
		Orchestrator: orchestrator,
		RuntimeUnit:  t.RuntimeUnit,
		ScriptPath:   scriptPath,
	})
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", t.BootstrapUnit, err)
	}
	return util.Dedent(buf.String()), nil
}
