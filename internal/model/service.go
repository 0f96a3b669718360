package model

// Service is the validated, fully defaulted record of one deployable service.
// Its JSON form is the manifest entry read by the orchestrator script on the
// target machine.
type Service struct {
	Name        string            `json:"name"`
	Image       string            `json:"image"`
	Environment map[string]string `json:"environment"`
	Ports       []Port            `json:"ports"`
	BindMounts  []BindMount       `json:"bind_mounts"`
	Command     string            `json:"command,omitempty"`
	IsEnabled   bool              `json:"is_enabled"`
	Replicas    int               `json:"replicas"`
	IsGlobal    bool              `json:"is_global"`
}

// Protocols accepted for a published port.
const (
	ProtocolTCP  = "tcp"
	ProtocolUDP  = "udp"
	ProtocolSCTP = "sctp"
)

// DefaultReplicas is used when a service does not ask for a count.
const DefaultReplicas = 1
