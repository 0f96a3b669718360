package ignition

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

var unitSuffixes = []string{
	".service", ".socket", ".device", ".mount", ".automount", ".swap",
	".target", ".path", ".timer", ".slice", ".scope",
}

// systemd allows a directive to repeat and has no inline comments.
var unitLoadOptions = ini.LoadOptions{
	AllowShadows:        true,
	IgnoreInlineComment: true,
	KeyValueDelimiters:  "=",
}

// ParseUnit reads unit or drop-in contents as INI.
func ParseUnit(contents string) (*ini.File, error) {
	return ini.LoadSources(unitLoadOptions, []byte(contents))
}

// Directive returns every value of Section.Key in the unit contents.
func Directive(contents, section, key string) ([]string, error) {
	file, err := ParseUnit(contents)
	if err != nil {
		return nil, err
	}
	s, err := file.GetSection(section)
	if err != nil {
		return nil, nil
	}
	if !s.HasKey(key) {
		return nil, nil
	}
	return s.Key(key).ValueWithShadows(), nil
}

func validUnitName(name string) bool {
	for _, suffix := range unitSuffixes {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return true
		}
	}
	return false
}

// lintUnit checks that contents parse and carry each "Section.Key" directive.
func lintUnit(name, contents string, required ...string) error {
	file, err := ParseUnit(contents)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, directive := range required {
		section, key, _ := strings.Cut(directive, ".")
		s, err := file.GetSection(section)
		if err != nil || !s.HasKey(key) {
			return fmt.Errorf("%s: missing %s= in [%s]", name, key, section)
		}
		if strings.TrimSpace(s.Key(key).String()) == "" {
			return fmt.Errorf("%s: empty %s= in [%s]", name, key, section)
		}
	}
	return nil
}
