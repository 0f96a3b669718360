package ignition

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ThomasCrouzet/hive-ignite/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFileModeEncoding(t *testing.T) {
	f := NewFile("/opt/hive/bin/hive", ScriptMode, "#!/bin/sh")

	y, err := yaml.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(y), "mode: 0700\n")

	j, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(j), `"mode":448`)
}

func TestNewUnitOmitsEmptyContents(t *testing.T) {
	u := NewUnit("docker.service", true, "   \n  ")

	y, err := yaml.Marshal(u)
	require.NoError(t, err)
	assert.Equal(t, "name: docker.service\nenable: true\n", string(y))
}

func TestDocumentYAMLSchema(t *testing.T) {
	tmpl, err := DefaultTemplates()
	require.NoError(t, err)
	doc, err := Assemble([]model.Service{}, "#!/bin/sh", tmpl, Options{})
	require.NoError(t, err)

	y, err := yaml.Marshal(doc)
	require.NoError(t, err)
	out := string(y)

	assert.True(t, strings.HasPrefix(out, "systemd:\n    units:\n"))
	assert.Contains(t, out, "storage:\n    files:\n")
	assert.Contains(t, out, "filesystem: root")
	assert.Contains(t, out, "mode: 0600")
	assert.Less(t, strings.Index(out, "docker.service"), strings.Index(out, "hive.service"))
	manifestAt := strings.Index(out, "path: /opt/hive/etc/services.json")
	scriptAt := strings.Index(out, "path: /opt/hive/bin/hive")
	require.NotEqual(t, -1, manifestAt)
	require.NotEqual(t, -1, scriptAt)
	assert.Less(t, manifestAt, scriptAt)
	assert.Greater(t, manifestAt, strings.Index(out, "storage:"))

	var decoded struct {
		Storage struct {
			Files []struct {
				Contents struct {
					Inline string `yaml:"inline"`
				} `yaml:"contents"`
				Mode int `yaml:"mode"`
			} `yaml:"files"`
		} `yaml:"storage"`
	}
	require.NoError(t, yaml.Unmarshal(y, &decoded))
	require.Len(t, decoded.Storage.Files, 2)
	assert.Equal(t, "[]", decoded.Storage.Files[0].Contents.Inline)
	assert.Equal(t, 0o600, decoded.Storage.Files[0].Mode)
	assert.Equal(t, 0o700, decoded.Storage.Files[1].Mode)
}
