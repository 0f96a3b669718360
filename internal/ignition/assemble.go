package ignition

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ThomasCrouzet/hive-ignite/internal/model"
)

// Options places the generated files on the target machine.
type Options struct {
	Orchestrator string
	ManifestPath string
	ScriptPath   string
}

func (o Options) withDefaults() Options {
	if o.Orchestrator == "" {
		o.Orchestrator = DefaultOrchestrator
	}
	if o.ManifestPath == "" {
		o.ManifestPath = DefaultManifestPath
	}
	if o.ScriptPath == "" {
		o.ScriptPath = DefaultScriptPath
	}
	return o
}

// Assemble builds the provisioning document for already resolved services.
//
// Units are always the container runtime first, carrying the orchestrator
// drop-in, then the one-shot bootstrap unit. Files are always the service
// manifest first, then the orchestrator script. Services are trusted as-is;
// errors only come from a template set that does not know the orchestrator.
func Assemble(services []model.Service, script string, tmpl *Templates, opts Options) (*Document, error) {
	opts = opts.withDefaults()

	orchestrator, ok := tmpl.orchestrators[opts.Orchestrator]
	if !ok {
		return nil, fmt.Errorf("no templates for orchestrator %q", opts.Orchestrator)
	}

	manifest, err := EncodeManifest(services)
	if err != nil {
		return nil, err
	}

	bootstrap, err := tmpl.bootstrapContents(opts.Orchestrator, opts.ScriptPath)
	if err != nil {
		return nil, err
	}

	return &Document{
		Systemd: Systemd{
			Units: []Unit{
				NewUnit(tmpl.RuntimeUnit, true, "",
					NewDropin(orchestrator.Dropin.Name, orchestrator.Dropin.Contents)),
				NewUnit(tmpl.BootstrapUnit, true, bootstrap),
			},
		},
		Storage: Storage{
			Files: []File{
				NewFile(opts.ManifestPath, ManifestMode, manifest),
				NewFile(opts.ScriptPath, ScriptMode, script),
			},
		},
	}, nil
}

// EncodeManifest renders the services as compact JSON in the given order. A
// nil slice encodes as an empty list.
func EncodeManifest(services []model.Service) (string, error) {
	if services == nil {
		services = []model.Service{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(services); err != nil {
		return "", fmt.Errorf("encoding service manifest: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
