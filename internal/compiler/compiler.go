// Package compiler runs the whole transformation from a loaded deployment
// description to an encoded provisioning document.
package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ThomasCrouzet/hive-ignite/internal/deploy"
	"github.com/ThomasCrouzet/hive-ignite/internal/ignition"
	"github.com/ThomasCrouzet/hive-ignite/internal/resolve"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Encode.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Compile validates the description and assembles the document. Nothing is
// returned unless every service resolves.
func Compile(desc *deploy.Description, script string, tmpl *ignition.Templates, opts ignition.Options) (*ignition.Document, error) {
	orchestrator := desc.Orchestrator
	if orchestrator == "" {
		orchestrator = ignition.DefaultOrchestrator
	}
	if err := CheckOrchestrator(orchestrator, tmpl); err != nil {
		return nil, err
	}

	services, err := resolve.ResolveAll(desc.Services)
	if err != nil {
		return nil, err
	}

	opts.Orchestrator = orchestrator
	return ignition.Assemble(services, script, tmpl, opts)
}

// CheckOrchestrator rejects names that are malformed or have no templates.
// The name ends up on the bootstrap unit's ExecStart line.
func CheckOrchestrator(name string, tmpl *ignition.Templates) error {
	if err := resolve.ValidateName("orchestrator", name); err != nil {
		return err
	}
	if !tmpl.Supports(name) {
		return &resolve.ValidationError{
			Kind:       resolve.InvalidField,
			Field:      "orchestrator",
			Message:    fmt.Sprintf("%q is not supported", name),
			Suggestion: "use one of: " + strings.Join(tmpl.Orchestrators(), ", "),
		}
	}
	return nil
}

// Encode serializes the document in full before anything is written, so a
// failure never leaves a partial document behind.
func Encode(doc *ignition.Document, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown output format %q (use yaml or json)", format)
}
