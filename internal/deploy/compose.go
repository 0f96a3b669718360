package deploy

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ThomasCrouzet/hive-ignite/internal/model"
	"github.com/ThomasCrouzet/hive-ignite/internal/resolve"
	"github.com/ThomasCrouzet/hive-ignite/internal/util"
	"github.com/compose-spec/compose-go/v2/cli"
	composetypes "github.com/compose-spec/compose-go/v2/types"
)

// loadCompose converts the services of a compose file into raw service
// entries, sorted by service name. The entries are validated later like any
// hand-written service.
func loadCompose(path string, isTemplate bool) ([]map[string]any, error) {
	if isTemplate {
		return parseTemplate(path)
	}
	return parseStandard(path)
}

func parseStandard(path string) ([]map[string]any, error) {
	ctx := context.Background()

	opts, err := cli.NewProjectOptions(
		[]string{path},
		cli.WithName("hive"),
		cli.WithDotEnv,
		cli.WithInterpolation(false),
		cli.WithResolvedPaths(false),
	)
	if err != nil {
		return nil, fmt.Errorf("project options: %w", err)
	}

	project, err := cli.ProjectFromOptions(ctx, opts)
	if err != nil {
		// Fallback: try manual YAML parse
		return parseFallback(path)
	}

	return projectToEntries(project), nil
}

func parseTemplate(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseRaw(util.StripJinja2(string(data)))
}

// parseFallback uses raw YAML parsing when compose-go fails.
func parseFallback(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	content := string(data)
	if strings.Contains(content, "{{") {
		content = util.StripJinja2(content)
	}
	return parseRaw(content)
}

func parseRaw(content string) ([]map[string]any, error) {
	raw, err := unmarshalYAML([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}

	servicesMap, ok := resolve.Mapping(raw["services"])
	if !ok {
		return nil, nil
	}

	names := make([]string, 0, len(servicesMap))
	for name := range servicesMap {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]map[string]any, 0, len(names))
	for _, name := range names {
		svcMap, ok := resolve.Mapping(servicesMap[name])
		if !ok {
			continue
		}

		entry := map[string]any{
			"name":  name,
			"image": svcMap["image"],
		}
		if env := parseEnvironment(svcMap["environment"]); len(env) > 0 {
			entry["environment"] = env
		}
		if ports, err := parsePorts(svcMap["ports"]); err != nil {
			return nil, fmt.Errorf("service %s: %w", name, err)
		} else if len(ports) > 0 {
			entry["ports"] = ports
		}
		if mounts := parseVolumes(svcMap["volumes"]); len(mounts) > 0 {
			entry["bind_mounts"] = mounts
		}
		if cmd := parseCommand(svcMap["command"]); cmd != "" {
			entry["command"] = cmd
		}
		if deploy, ok := resolve.Mapping(svcMap["deploy"]); ok {
			applyDeploy(entry, fmt.Sprint(deploy["mode"]), deploy["replicas"])
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func projectToEntries(project *composetypes.Project) []map[string]any {
	names := make([]string, 0, len(project.Services))
	for name := range project.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]map[string]any, 0, len(names))
	for _, name := range names {
		svc := project.Services[name]
		entry := map[string]any{
			"name":  svc.Name,
			"image": svc.Image,
		}

		env := map[string]any{}
		for k, v := range svc.Environment {
			if v != nil {
				env[k] = *v
			}
		}
		if len(env) > 0 {
			entry["environment"] = env
		}

		// Ports
		var ports []any
		for _, p := range svc.Ports {
			if p.Published == "" {
				continue
			}
			port := map[string]any{"host": p.Published, "container": int(p.Target)}
			if p.Protocol != "" {
				port["protocol"] = p.Protocol
			}
			ports = append(ports, port)
		}
		if len(ports) > 0 {
			entry["ports"] = ports
		}

		// Bind mounts; named volumes and tmpfs stay with the orchestrator
		var mounts []any
		for _, v := range svc.Volumes {
			if v.Type != composetypes.VolumeTypeBind {
				continue
			}
			mounts = append(mounts, mountEntry(v.Source, v.Target, v.ReadOnly))
		}
		if len(mounts) > 0 {
			entry["bind_mounts"] = mounts
		}

		if len(svc.Command) > 0 {
			entry["command"] = strings.Join(svc.Command, " ")
		}

		if d := svc.Deploy; d != nil {
			var replicas any
			if d.Replicas != nil {
				replicas = *d.Replicas
			}
			applyDeploy(entry, d.Mode, replicas)
		}

		entries = append(entries, entry)
	}
	return entries
}

func applyDeploy(entry map[string]any, mode string, replicas any) {
	if mode == "global" {
		entry["is_global"] = true
		return
	}
	if replicas != nil {
		entry["replicas"] = replicas
	}
}

func mountEntry(host, container string, readOnly bool) map[string]any {
	access := model.ReadWrite
	if readOnly {
		access = model.ReadOnly
	}
	return map[string]any{"host": host, "container": container, "access": string(access)}
}

func parseEnvironment(raw any) map[string]any {
	env := map[string]any{}
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			key, value, _ := strings.Cut(fmt.Sprint(item), "=")
			env[key] = value
		}
	default:
		if m, ok := resolve.Mapping(raw); ok {
			for key, value := range m {
				if value != nil {
					env[key] = value
				}
			}
		}
	}
	return env
}

func parsePorts(raw any) ([]any, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	var ports []any
	for _, item := range list {
		if m, ok := resolve.Mapping(item); ok {
			// Long syntax; unpublished ports are skipped
			if m["published"] == nil {
				continue
			}
			port := map[string]any{"host": m["published"], "container": m["target"]}
			if proto, ok := m["protocol"].(string); ok && proto != "" {
				port["protocol"] = proto
			}
			ports = append(ports, port)
			continue
		}

		s := strings.ReplaceAll(fmt.Sprint(item), "PLACEHOLDER:", "")
		if s == "" || s == "PLACEHOLDER" || !strings.Contains(s, ":") {
			continue
		}
		p, err := model.ParsePort(s)
		if err != nil {
			return nil, err
		}
		ports = append(ports, map[string]any{"host": p.Host, "container": p.Container, "protocol": p.Protocol})
	}
	return ports, nil
}

func parseVolumes(raw any) []any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var mounts []any
	for _, item := range list {
		if m, ok := resolve.Mapping(item); ok {
			if m["type"] != composetypes.VolumeTypeBind {
				continue
			}
			source, _ := m["source"].(string)
			target, _ := m["target"].(string)
			readOnly, _ := m["read_only"].(bool)
			mounts = append(mounts, mountEntry(source, target, readOnly))
			continue
		}

		parts := strings.Split(fmt.Sprint(item), ":")
		if len(parts) < 2 || !isHostPath(parts[0]) {
			continue
		}
		readOnly := len(parts) > 2 && strings.Contains(parts[2], "ro")
		mounts = append(mounts, mountEntry(parts[0], parts[1], readOnly))
	}
	return mounts
}

// isHostPath tells a bind source from a named volume.
func isHostPath(s string) bool {
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, ".") || strings.HasPrefix(s, "~")
}

func parseCommand(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, " ")
	}
	return ""
}
