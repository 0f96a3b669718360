package util

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var jinjaVarPattern = regexp.MustCompile(`\{\{[^}]*\}\}`)

// StripJinja2 replaces Jinja2 {{ var }} expressions with a placeholder value
// so the YAML can be parsed by a standard YAML parser.
func StripJinja2(content string) string {
	return jinjaVarPattern.ReplaceAllString(content, "PLACEHOLDER")
}

// ExpandPath resolves a leading "~/" against the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
