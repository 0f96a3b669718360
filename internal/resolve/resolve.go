// Package resolve turns raw service entries from a deployment description into
// canonical service records.
package resolve

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/ThomasCrouzet/hive-ignite/internal/model"
	"github.com/ThomasCrouzet/hive-ignite/internal/util"
)

var namePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var (
	serviceKeys = []string{"name", "image", "tag", "environment", "ports", "bind_mounts", "command", "is_enabled", "replicas", "is_global"}
	portKeys    = []string{"host", "container", "protocol"}
	mountKeys   = []string{"host", "container", "access", "read_only"}
)

// ValidateName checks a service or orchestrator name against the naming rule.
func ValidateName(field, name string) *ValidationError {
	if namePattern.MatchString(name) {
		return nil
	}
	err := fail(InvalidName, field, "%q must be one or more lowercase letters, digits or hyphens", name)
	if s := util.SanitizeName(name); s != "" {
		err.hint(fmt.Sprintf("try %q", s))
	}
	return err
}

// Resolve validates one raw service entry and applies field defaults. Field
// paths in the returned error are relative to the entry.
func Resolve(raw map[string]any) (model.Service, error) {
	svc, err := resolve(raw)
	if err != nil {
		return model.Service{}, err
	}
	return svc, nil
}

// ResolveAll resolves every entry in order and stops at the first problem.
// Names must be unique and no two services may publish the same host port.
func ResolveAll(raws []map[string]any) ([]model.Service, error) {
	services := make([]model.Service, 0, len(raws))
	for i, raw := range raws {
		svc, err := resolve(raw)
		if err != nil {
			return nil, err.Within(fmt.Sprintf("services[%d]", i))
		}
		services = append(services, svc)
	}
	if errs := conflicts(services); len(errs) > 0 {
		return nil, errs[0]
	}
	return services, nil
}

// Validate reports every problem in the entries instead of stopping at the
// first one. Each entry contributes at most one error.
func Validate(raws []map[string]any) []*ValidationError {
	var errs []*ValidationError
	services := make([]model.Service, 0, len(raws))
	for i, raw := range raws {
		svc, err := resolve(raw)
		if err != nil {
			errs = append(errs, err.Within(fmt.Sprintf("services[%d]", i)))
			continue
		}
		services = append(services, svc)
	}
	return append(errs, conflicts(services)...)
}

func resolve(raw map[string]any) (model.Service, *ValidationError) {
	if raw == nil {
		return model.Service{}, fail(MissingRequiredField, "", "service entry is empty")
	}
	if err := unknownKeys(raw, serviceKeys); err != nil {
		return model.Service{}, err
	}

	name, err := requiredString(raw, "name", InvalidName)
	if err != nil {
		return model.Service{}, err
	}
	if err := ValidateName("name", name); err != nil {
		return model.Service{}, err
	}

	svc := model.Service{
		Name:        name,
		Environment: map[string]string{},
		Ports:       []model.Port{},
		BindMounts:  []model.BindMount{},
		IsEnabled:   true,
		Replicas:    model.DefaultReplicas,
	}

	if svc.Image, err = resolveImage(raw); err != nil {
		return model.Service{}, err
	}
	if err := resolveEnvironment(raw["environment"], svc.Environment); err != nil {
		return model.Service{}, err
	}

	if v, ok := raw["ports"]; ok && v != nil {
		list, ok := asList(v)
		if !ok {
			return model.Service{}, fail(InvalidField, "ports", "must be a list of port mappings")
		}
		for i, entry := range list {
			port, err := resolvePort(entry)
			if err != nil {
				return model.Service{}, err.Within(fmt.Sprintf("ports[%d]", i))
			}
			svc.Ports = append(svc.Ports, port)
		}
	}

	if v, ok := raw["bind_mounts"]; ok && v != nil {
		list, ok := asList(v)
		if !ok {
			return model.Service{}, fail(InvalidField, "bind_mounts", "must be a list of mounts")
		}
		for i, entry := range list {
			mount, err := resolveMount(entry)
			if err != nil {
				return model.Service{}, err.Within(fmt.Sprintf("bind_mounts[%d]", i))
			}
			svc.BindMounts = append(svc.BindMounts, mount)
		}
	}

	if v, ok := raw["command"]; ok && v != nil {
		cmd, ok := v.(string)
		if !ok {
			return model.Service{}, fail(InvalidField, "command", "must be a string").
				hint("quote the whole command line")
		}
		svc.Command = strings.TrimSpace(cmd)
	}

	if err := resolveScaling(raw, &svc); err != nil {
		return model.Service{}, err
	}

	return svc, nil
}

func resolveImage(raw map[string]any) (string, *ValidationError) {
	image, err := requiredString(raw, "image", InvalidField)
	if err != nil {
		return "", err
	}

	v, ok := raw["tag"]
	if !ok || v == nil {
		return image, nil
	}
	tag, ok := v.(string)
	if !ok {
		// A decoder may already have rewritten 1.10 as 1.1.
		return "", fail(InvalidField, "tag", "must be a string, got %v", v).
			hint("quote the tag so it is kept as written")
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return image, nil
	}
	if hasTagOrDigest(image) {
		return "", fail(InvalidField, "tag", "image %q already carries a tag or digest", image).
			hint("set the tag in one place only")
	}
	return image + ":" + tag, nil
}

// hasTagOrDigest looks at the last path segment only, so a registry port
// ("registry:5000/app") is not mistaken for a tag.
func hasTagOrDigest(image string) bool {
	if strings.Contains(image, "@") {
		return true
	}
	return strings.Contains(path.Base(image), ":")
}

func resolveEnvironment(v any, into map[string]string) *ValidationError {
	if v == nil {
		return nil
	}
	env, ok := Mapping(v)
	if !ok {
		return fail(InvalidField, "environment", "must be a mapping of variable names to values")
	}
	for key, val := range env {
		if strings.TrimSpace(key) == "" {
			return fail(InvalidField, "environment", "variable names must not be empty")
		}
		s, ok := asScalarString(val)
		if !ok {
			return fail(InvalidField, "environment."+key, "must be a string, number or boolean")
		}
		into[key] = s
	}
	return nil
}

func resolvePort(entry any) (model.Port, *ValidationError) {
	m, ok := Mapping(entry)
	if !ok {
		return model.Port{}, fail(InvalidPort, "", "must be a mapping with host and container").
			hint("write ports as {host: 8080, container: 80}")
	}
	if err := unknownKeys(m, portKeys); err != nil {
		return model.Port{}, err
	}

	port := model.Port{Protocol: model.ProtocolTCP}
	var err *ValidationError
	if port.Host, err = portNumber(m, "host"); err != nil {
		return model.Port{}, err
	}
	if port.Container, err = portNumber(m, "container"); err != nil {
		return model.Port{}, err
	}

	if v, ok := m["protocol"]; ok && v != nil {
		s, _ := v.(string)
		switch proto := strings.ToLower(strings.TrimSpace(s)); proto {
		case model.ProtocolTCP, model.ProtocolUDP, model.ProtocolSCTP:
			port.Protocol = proto
		default:
			return model.Port{}, fail(InvalidField, "protocol", "%v is not a supported protocol", v).
				hint("use tcp, udp or sctp")
		}
	}
	return port, nil
}

func portNumber(m map[string]any, key string) (int, *ValidationError) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, fail(MissingRequiredField, key, "is required")
	}
	n, ok := asInt(v)
	if !ok {
		return 0, fail(InvalidPort, key, "%v is not an integer", v)
	}
	if !inPortRange(n) {
		return 0, fail(InvalidPort, key, "%d is outside 1-65535", n)
	}
	return n, nil
}

func inPortRange(n int) bool {
	return n >= 1 && n <= 65535
}

// ValidatePort applies the description's port rules to an already parsed
// mapping, e.g. one typed as "8080:80/udp".
func ValidatePort(field string, p model.Port) *ValidationError {
	if !inPortRange(p.Host) {
		return fail(InvalidPort, field, "host port %d is outside 1-65535", p.Host)
	}
	if !inPortRange(p.Container) {
		return fail(InvalidPort, field, "container port %d is outside 1-65535", p.Container)
	}
	switch p.Protocol {
	case model.ProtocolTCP, model.ProtocolUDP, model.ProtocolSCTP:
		return nil
	}
	return fail(InvalidField, field, "%q is not a supported protocol", p.Protocol).
		hint("use tcp, udp or sctp")
}

func resolveMount(entry any) (model.BindMount, *ValidationError) {
	m, ok := Mapping(entry)
	if !ok {
		return model.BindMount{}, fail(InvalidField, "", "must be a mapping with host and container").
			hint("write mounts as {host: /srv/data, container: /data}")
	}
	if err := unknownKeys(m, mountKeys); err != nil {
		return model.BindMount{}, err
	}

	mount := model.BindMount{Access: model.ReadWrite}
	var err *ValidationError
	for _, p := range []struct {
		key string
		dst *string
	}{{"host", &mount.Host}, {"container", &mount.Container}} {
		if *p.dst, err = requiredString(m, p.key, InvalidField); err != nil {
			return model.BindMount{}, err
		}
		if !path.IsAbs(*p.dst) {
			return model.BindMount{}, fail(InvalidField, p.key, "%q is not an absolute path", *p.dst).
				hint("bind mounts name paths on the target machine; write the full path")
		}
	}

	var fromAccess, fromFlag model.Access
	if v, ok := m["access"]; ok && v != nil {
		s, _ := v.(string)
		a, ok := model.ParseAccess(strings.ToLower(strings.TrimSpace(s)))
		if !ok {
			return model.BindMount{}, fail(InvalidField, "access", "%v is not a valid access mode", v).
				hint("use read-only or read-write")
		}
		fromAccess = a
	}
	if v, ok := m["read_only"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return model.BindMount{}, fail(InvalidField, "read_only", "must be true or false")
		}
		fromFlag = model.ReadWrite
		if b {
			fromFlag = model.ReadOnly
		}
	}
	switch {
	case fromAccess != "" && fromFlag != "" && fromAccess != fromFlag:
		return model.BindMount{}, fail(InvalidField, "access", "conflicts with read_only").
			hint("drop read_only and keep access")
	case fromAccess != "":
		mount.Access = fromAccess
	case fromFlag != "":
		mount.Access = fromFlag
	}
	return mount, nil
}

func resolveScaling(raw map[string]any, svc *model.Service) *ValidationError {
	if v, ok := raw["is_enabled"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return fail(InvalidField, "is_enabled", "must be true or false")
		}
		svc.IsEnabled = b
	}
	if v, ok := raw["is_global"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return fail(InvalidField, "is_global", "must be true or false")
		}
		svc.IsGlobal = b
	}

	v, ok := raw["replicas"]
	if !ok || v == nil {
		return nil
	}
	if svc.IsGlobal {
		return fail(InvalidField, "replicas", "cannot be combined with is_global").
			hint("global services run one task per node; remove replicas")
	}
	n, ok := asInt(v)
	if !ok || n < 0 {
		return fail(InvalidField, "replicas", "%v is not a non-negative integer", v)
	}
	svc.Replicas = n
	return nil
}

func requiredString(m map[string]any, key string, wrongType Kind) (string, *ValidationError) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", fail(MissingRequiredField, key, "is required")
	}
	s, ok := v.(string)
	if !ok {
		return "", fail(wrongType, key, "must be a string, got %v", v)
	}
	// Names are checked verbatim by ValidateName.
	if key == "name" {
		return s, nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fail(MissingRequiredField, key, "must not be empty")
	}
	return s, nil
}

func unknownKeys(m map[string]any, known []string) *ValidationError {
	var extra []string
	for key := range m {
		if !contains(known, key) {
			extra = append(extra, key)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	err := fail(InvalidField, extra[0], "unknown field")
	if s := closest(extra[0], known); s != "" {
		return err.hint(fmt.Sprintf("did you mean %q?", s))
	}
	return err.hint("known fields: " + strings.Join(known, ", "))
}

// conflicts reports duplicate names and host ports published twice for the
// same protocol.
func conflicts(services []model.Service) []*ValidationError {
	var errs []*ValidationError
	names := make(map[string]bool, len(services))
	owners := make(map[string]string)
	for _, svc := range services {
		if names[svc.Name] {
			errs = append(errs, fail(InvalidName, "services", "%q is defined more than once", svc.Name))
			continue
		}
		names[svc.Name] = true

		for _, p := range svc.Ports {
			key := fmt.Sprintf("%d/%s", p.Host, p.Protocol)
			if owner, taken := owners[key]; taken {
				errs = append(errs, fail(InvalidPort, "services", "host port %s of %q is already published by %q", key, svc.Name, owner))
				continue
			}
			owners[key] = svc.Name
		}
	}
	return errs
}

func contains(s []string, v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}
