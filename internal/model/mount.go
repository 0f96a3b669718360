package model

import "fmt"

// Access is the mode a bind mount is attached with.
type Access string

const (
	ReadOnly  Access = "read-only"
	ReadWrite Access = "read-write"
)

// ParseAccess accepts the canonical names and the short docker forms.
func ParseAccess(s string) (Access, bool) {
	switch s {
	case "read-only", "ro":
		return ReadOnly, true
	case "read-write", "rw":
		return ReadWrite, true
	}
	return "", false
}

// BindMount maps a host path into the container.
type BindMount struct {
	Host      string `json:"host"`
	Container string `json:"container"`
	Access    Access `json:"access"`
}

// String returns the docker-style "host:container[:ro]" form.
func (m BindMount) String() string {
	if m.Access == ReadOnly {
		return fmt.Sprintf("%s:%s:ro", m.Host, m.Container)
	}
	return fmt.Sprintf("%s:%s", m.Host, m.Container)
}
