package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Port publishes a container port on the host.
type Port struct {
	Host      int    `json:"host"`
	Container int    `json:"container"`
	Protocol  string `json:"protocol"`
}

// String returns a human-readable port mapping.
func (p Port) String() string {
	proto := p.Protocol
	if proto == "" || proto == ProtocolTCP {
		proto = ""
	} else {
		proto = "/" + proto
	}
	if p.Host == p.Container {
		return fmt.Sprintf("%d%s", p.Host, proto)
	}
	return fmt.Sprintf("%d→%d%s", p.Host, p.Container, proto)
}

// ParsePort parses a Docker port string like "8080:80" or "127.0.0.1:8080:80/udp".
// A host IP is accepted and dropped.
func ParsePort(s string) (Port, error) {
	p := Port{Protocol: ProtocolTCP}

	raw := strings.TrimSpace(s)
	if idx := strings.Index(raw, "/"); idx != -1 {
		p.Protocol = strings.ToLower(raw[idx+1:])
		raw = raw[:idx]
	}

	var hostPart, containerPart string
	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 1:
		hostPart, containerPart = parts[0], parts[0]
	case 2:
		hostPart, containerPart = parts[0], parts[1]
	case 3:
		hostPart, containerPart = parts[1], parts[2]
	default:
		return Port{}, fmt.Errorf("malformed port %q", s)
	}

	var err error
	if p.Host, err = strconv.Atoi(hostPart); err != nil {
		return Port{}, fmt.Errorf("malformed host port in %q", s)
	}
	if p.Container, err = strconv.Atoi(containerPart); err != nil {
		return Port{}, fmt.Errorf("malformed container port in %q", s)
	}
	return p, nil
}
