package wizard

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// DetectionResult holds what was auto-detected in the working directory.
type DetectionResult struct {
	DockerAvailable bool
	Script          string // path if found, empty otherwise
	ComposeFiles    []string
}

// Detector abstracts filesystem and path lookups for testing.
type Detector interface {
	LookPath(name string) (string, error)
	Stat(path string) (os.FileInfo, error)
	Glob(pattern string) ([]string, error)
}

// OSDetector uses the real OS for detection.
type OSDetector struct{}

func (OSDetector) LookPath(name string) (string, error) { return exec.LookPath(name) }
func (OSDetector) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }
func (OSDetector) Glob(pattern string) ([]string, error) { return filepath.Glob(pattern) }

var composePatterns = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// Detect scans the working directory for an orchestrator script and compose
// files worth importing.
func Detect(d Detector) DetectionResult {
	if d == nil {
		d = OSDetector{}
	}

	result := DetectionResult{}

	if _, err := d.LookPath("docker"); err == nil {
		result.DockerAvailable = true
	}

	for _, p := range []string{"hive.sh", "bin/hive", "scripts/hive.sh"} {
		if info, err := d.Stat(p); err == nil && !info.IsDir() {
			result.Script = p
			break
		}
	}

	for _, pattern := range composePatterns {
		if _, err := d.Stat(pattern); err == nil {
			result.ComposeFiles = append(result.ComposeFiles, pattern)
		}
	}

	// One level down, e.g. compose/docker-compose.yml
	var nested []string
	for _, pattern := range composePatterns {
		matches, err := d.Glob(filepath.Join("*", pattern))
		if err != nil {
			continue
		}
		nested = append(nested, matches...)
	}
	sort.Strings(nested)
	result.ComposeFiles = append(result.ComposeFiles, nested...)

	return result
}
