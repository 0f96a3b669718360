package wizard

import (
	"bytes"
	"text/template"

	"github.com/ThomasCrouzet/hive-ignite/internal/model"
	"github.com/ThomasCrouzet/hive-ignite/internal/resolve"
)

// WizardAnswers holds all user responses from the wizard.
type WizardAnswers struct {
	Orchestrator string

	// First service, optional
	ServiceName  string
	ServiceImage string
	ServicePort  string // docker form, e.g. "8080:80"

	ComposeFiles []string
}

const configTemplate = `# hive-ignite deployment description
# Compile with: hive-ignite compile -c config.yml > ignition.yml

orchestrator: {{ .Orchestrator }}

services:
{{- if .ServiceName }}
  - name: {{ .ServiceName }}
    image: {{ .ServiceImage }}
{{- with .Port }}
    ports:
      - host: {{ .Host }}
        container: {{ .Container }}
{{- if ne .Protocol "tcp" }}
        protocol: {{ .Protocol }}
{{- end }}
{{- end }}
{{- else }} []
{{- end }}
{{- if .ComposeFiles }}

compose:
{{- range .ComposeFiles }}
  - {{ . }}
{{- end }}
{{- end }}
`

type templateData struct {
	WizardAnswers
	Port *model.Port
}

// GenerateConfig renders the YAML description from wizard answers.
func GenerateConfig(answers WizardAnswers) (string, error) {
	if answers.Orchestrator == "" {
		answers.Orchestrator = "swarm"
	}

	data := templateData{WizardAnswers: answers}
	if answers.ServiceName != "" && answers.ServicePort != "" {
		p, err := parsePort(answers.ServicePort)
		if err != nil {
			return "", err
		}
		data.Port = &p
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// parsePort reads a docker-style mapping and applies the same range and
// protocol rules compile will.
func parsePort(s string) (model.Port, error) {
	p, err := model.ParsePort(s)
	if err != nil {
		return model.Port{}, err
	}
	if verr := resolve.ValidatePort("port", p); verr != nil {
		return model.Port{}, verr
	}
	return p, nil
}

func checkPort(s string) error {
	_, err := parsePort(s)
	return err
}
