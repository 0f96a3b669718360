// Package ignition assembles the first-boot provisioning document: the
// systemd units and the files a freshly booted machine needs to start the
// orchestrator and its services.
package ignition

import (
	"fmt"

	"github.com/ThomasCrouzet/hive-ignite/internal/util"
	"gopkg.in/yaml.v3"
)

// Document is the root of the provisioning document.
type Document struct {
	Systemd Systemd `json:"systemd" yaml:"systemd"`
	Storage Storage `json:"storage" yaml:"storage"`
}

type Systemd struct {
	Units []Unit `json:"units" yaml:"units"`
}

type Storage struct {
	Files []File `json:"files" yaml:"files"`
}

// Unit is a systemd unit. Name carries the unit type suffix, e.g. "hive.service".
type Unit struct {
	Name     string   `json:"name" yaml:"name"`
	Enable   bool     `json:"enable" yaml:"enable"`
	Contents string   `json:"contents,omitempty" yaml:"contents,omitempty"`
	Dropins  []Dropin `json:"dropins,omitempty" yaml:"dropins,omitempty"`
}

// Dropin overrides part of an existing unit. Name ends in ".conf".
type Dropin struct {
	Name     string `json:"name" yaml:"name"`
	Contents string `json:"contents" yaml:"contents"`
}

type File struct {
	Filesystem string       `json:"filesystem" yaml:"filesystem"`
	Path       string       `json:"path" yaml:"path"`
	Contents   FileContents `json:"contents" yaml:"contents"`
	Mode       FileMode     `json:"mode" yaml:"mode"`
}

type FileContents struct {
	Inline string `json:"inline" yaml:"inline"`
}

// FileMode holds permission bits. JSON carries it as a plain integer; YAML
// writes an octal literal so the document stays readable.
type FileMode uint32

const (
	ManifestMode FileMode = 0o600
	ScriptMode   FileMode = 0o700
)

func (m FileMode) String() string {
	return fmt.Sprintf("%#o", uint32(m))
}

func (m FileMode) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: m.String()}, nil
}

// NewUnit builds a unit with normalized contents. Empty contents are left out
// of the document.
func NewUnit(name string, enable bool, contents string, dropins ...Dropin) Unit {
	return Unit{
		Name:     name,
		Enable:   enable,
		Contents: util.Dedent(contents),
		Dropins:  dropins,
	}
}

// NewDropin builds a drop-in with normalized contents.
func NewDropin(name, contents string) Dropin {
	return Dropin{Name: name, Contents: util.Dedent(contents)}
}

// NewFile builds a file on the root filesystem. Contents are written as given.
func NewFile(path string, mode FileMode, contents string) File {
	return File{
		Filesystem: "root",
		Path:       path,
		Contents:   FileContents{Inline: contents},
		Mode:       mode,
	}
}
