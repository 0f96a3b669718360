// Package deploy loads deployment descriptions and the orchestrator script
// from disk. Everything it returns is plain data for the compiler.
package deploy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ThomasCrouzet/hive-ignite/internal/ignition"
	"github.com/ThomasCrouzet/hive-ignite/internal/resolve"
	"github.com/ThomasCrouzet/hive-ignite/internal/util"
	"github.com/tidwall/jsonc"
)

// Format is the syntax of a description file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Description is a deployment description before validation. Service entries
// stay untyped until the resolver sees them.
type Description struct {
	Orchestrator string
	Services     []map[string]any
	Compose      []ComposeSource
}

// ComposeSource points at a compose file whose services are imported.
type ComposeSource struct {
	Path     string
	Template bool // Jinja2 template, parsed after stripping expressions
}

var topLevelKeys = []string{"orchestrator", "services", "compose"}

// FormatFor picks the syntax from the file extension. JSON files may carry
// comments and trailing commas.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	}
	return FormatYAML
}

// Load reads a description file and appends the services of every compose
// file it references. Compose paths are relative to the description.
func Load(path string) (*Description, error) {
	path = util.ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	desc, err := Parse(data, FormatFor(path))
	if err != nil {
		var verr *resolve.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, &LoadError{Path: path, Err: err}
	}

	for _, src := range desc.Compose {
		composePath := util.ExpandPath(src.Path)
		if !filepath.IsAbs(composePath) {
			composePath = filepath.Join(filepath.Dir(path), composePath)
		}
		entries, err := loadCompose(composePath, src.Template)
		if err != nil {
			return nil, &LoadError{Path: composePath, Err: err}
		}
		if err := checkImported(entries); err != nil {
			return nil, &LoadError{Path: composePath, Err: err}
		}
		desc.Services = append(desc.Services, entries...)
	}

	return desc, nil
}

// Parse decodes a description without touching the filesystem.
func Parse(data []byte, format Format) (*Description, error) {
	raw, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	desc := &Description{
		Orchestrator: ignition.DefaultOrchestrator,
		Services:     []map[string]any{},
	}

	var unknown []string
	for key := range raw {
		if !contains(topLevelKeys, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &resolve.ValidationError{
			Kind:       resolve.InvalidField,
			Field:      unknown[0],
			Message:    "unknown top-level field",
			Suggestion: "known fields: " + strings.Join(topLevelKeys, ", "),
		}
	}

	if v, ok := raw["orchestrator"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, invalid("orchestrator", "must be a string")
		}
		desc.Orchestrator = strings.TrimSpace(s)
	}

	if v, ok := raw["services"]; ok && v != nil {
		list, ok := v.([]any)
		if !ok {
			return nil, invalid("services", "must be a list of services")
		}
		for i, item := range list {
			m, ok := resolve.Mapping(item)
			if !ok {
				return nil, invalid(fmt.Sprintf("services[%d]", i), "must be a mapping")
			}
			desc.Services = append(desc.Services, m)
		}
	}

	if v, ok := raw["compose"]; ok && v != nil {
		list, ok := v.([]any)
		if !ok {
			return nil, invalid("compose", "must be a list of compose files")
		}
		for i, item := range list {
			src, err := composeSource(item)
			if err != nil {
				return nil, invalid(fmt.Sprintf("compose[%d]", i), err.Error())
			}
			desc.Compose = append(desc.Compose, src)
		}
	}

	return desc, nil
}

func decode(data []byte, format Format) (map[string]any, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(jsonc.ToJSON(data))
		if len(trimmed) == 0 {
			return raw, nil
		}
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("json parse: %w", err)
		}
	default:
		m, err := unmarshalYAML(data)
		if err != nil {
			return nil, fmt.Errorf("yaml parse: %w", err)
		}
		raw = m
	}
	return raw, nil
}

// composeSource accepts a bare path or {path, template}.
func composeSource(item any) (ComposeSource, error) {
	if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
		return ComposeSource{Path: strings.TrimSpace(s), Template: strings.HasSuffix(s, ".j2")}, nil
	}
	m, ok := resolve.Mapping(item)
	if !ok {
		return ComposeSource{}, fmt.Errorf("must be a path or a mapping with path")
	}
	src := ComposeSource{}
	if v, ok := m["path"].(string); ok {
		src.Path = strings.TrimSpace(v)
	}
	if src.Path == "" {
		return ComposeSource{}, fmt.Errorf("path is required")
	}
	if v, ok := m["template"]; ok {
		b, ok := v.(bool)
		if !ok {
			return ComposeSource{}, fmt.Errorf("template must be true or false")
		}
		src.Template = b
	}
	return src, nil
}

// checkImported resolves converted compose services up front so a problem is
// reported against the compose file and service name it came from.
func checkImported(entries []map[string]any) error {
	for _, entry := range entries {
		if _, err := resolve.Resolve(entry); err != nil {
			var verr *resolve.ValidationError
			if errors.As(err, &verr) {
				return verr.Within(fmt.Sprintf("services.%v", entry["name"]))
			}
			return err
		}
	}
	return nil
}

// ReadScript returns the orchestrator script text unchanged.
func ReadScript(path string) (string, error) {
	path = util.ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &LoadError{Path: path, Err: err}
	}
	return string(data), nil
}

func invalid(field, message string) *resolve.ValidationError {
	return &resolve.ValidationError{Kind: resolve.InvalidField, Field: field, Message: message}
}

func contains(s []string, v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}
