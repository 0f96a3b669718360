package deploy

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThomasCrouzet/hive-ignite/internal/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	desc, err := Load("../../testdata/config.yml")
	require.NoError(t, err)

	assert.Equal(t, "swarm", desc.Orchestrator)
	require.Len(t, desc.Services, 3)
	assert.Equal(t, "nginx", desc.Services[0]["name"])
	assert.Equal(t, "dns", desc.Services[1]["name"])
	assert.Equal(t, "backup", desc.Services[2]["name"])
	assert.Empty(t, desc.Compose)

	services, err := resolve.ResolveAll(desc.Services)
	require.NoError(t, err)
	assert.Equal(t, "nginx:1.25", services[0].Image)
	assert.Equal(t, map[string]string{"LOG_LEVEL": "debug", "WORKERS": "4"}, services[1].Environment)
	assert.True(t, services[1].IsGlobal)
	assert.Equal(t, 0, services[2].Replicas)
}

func TestLoadJSONWithComments(t *testing.T) {
	desc, err := Load("../../testdata/config.jsonc")
	require.NoError(t, err)

	assert.Equal(t, "swarm", desc.Orchestrator)
	require.Len(t, desc.Services, 1)

	ports := desc.Services[0]["ports"].([]any)
	port := ports[0].(map[string]any)
	assert.Equal(t, json.Number("8080"), port["host"])

	services, err := resolve.ResolveAll(desc.Services)
	require.NoError(t, err)
	assert.Equal(t, 8080, services[0].Ports[0].Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("../../testdata/nope.yml")
	require.Error(t, err)

	var lerr *LoadError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "../../testdata/nope.yml", lerr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("services: [\n"), 0o600))

	_, err := Load(path)
	var lerr *LoadError
	require.True(t, errors.As(err, &lerr))
	assert.Contains(t, err.Error(), "yaml parse")
}

func TestParseDefaults(t *testing.T) {
	for _, data := range []string{"", "services:\n", "{}"} {
		desc, err := Parse([]byte(data), FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, "swarm", desc.Orchestrator)
		assert.NotNil(t, desc.Services)
		assert.Empty(t, desc.Services)
	}

	desc, err := Parse([]byte("  // nothing yet\n"), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, desc.Services)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"unknown top-level key", "service: []\n", "service"},
		{"orchestrator not a string", "orchestrator: [swarm]\n", "orchestrator"},
		{"services not a list", "services: {name: web}\n", "services"},
		{"service not a mapping", "services: [web]\n", "services[0]"},
		{"compose not a list", "compose: a.yml\n", "compose"},
		{"compose entry without path", "compose: [{template: true}]\n", "compose[0]"},
		{"compose template not a bool", "compose: [{path: a.yml, template: yes please}]\n", "compose[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), FormatYAML)
			require.Error(t, err)

			var verr *resolve.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, resolve.InvalidField, verr.Kind)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParseKeepsEnvironmentKeyCase(t *testing.T) {
	desc, err := Parse([]byte("services:\n  - name: web\n    image: nginx\n    environment:\n      NGINX_HOST: example.com\n"), FormatYAML)
	require.NoError(t, err)

	env := desc.Services[0]["environment"].(map[string]any)
	assert.Equal(t, "example.com", env["NGINX_HOST"])
}

func TestParseKeepsNumberLiterals(t *testing.T) {
	data := "services:\n  - name: web\n    image: nginx\n    tag: \"1.10\"\n    environment:\n      VERSION: 1.20\n      WORKERS: 4\n"
	desc, err := Parse([]byte(data), FormatYAML)
	require.NoError(t, err)

	services, err := resolve.ResolveAll(desc.Services)
	require.NoError(t, err)
	assert.Equal(t, "nginx:1.10", services[0].Image)
	assert.Equal(t, map[string]string{"VERSION": "1.20", "WORKERS": "4"}, services[0].Environment)
}

func TestParseUnquotedNumericTag(t *testing.T) {
	desc, err := Parse([]byte("services:\n  - name: web\n    image: nginx\n    tag: 1.10\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, json.Number("1.10"), desc.Services[0]["tag"])

	_, err = resolve.ResolveAll(desc.Services)
	require.Error(t, err)
	assert.ErrorIs(t, err, resolve.InvalidField)

	var verr *resolve.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "services[0].tag", verr.Field)
	assert.Contains(t, verr.Suggestion, "quote the tag")
}

func TestParseMergeKeys(t *testing.T) {
	data := `
services:
  - &base
    name: web
    image: nginx
    environment: {MODE: prod}
  - <<: *base
    name: api
`
	desc, err := Parse([]byte(data), FormatYAML)
	require.NoError(t, err)
	require.Len(t, desc.Services, 2)

	api := desc.Services[1]
	assert.Equal(t, "api", api["name"])
	assert.Equal(t, "nginx", api["image"])
	assert.Equal(t, map[string]any{"MODE": "prod"}, api["environment"])
}

func TestParseComposeSources(t *testing.T) {
	desc, err := Parse([]byte("compose:\n  - a/compose.yml\n  - b/compose.yml.j2\n  - path: c.yml\n    template: true\n"), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, []ComposeSource{
		{Path: "a/compose.yml"},
		{Path: "b/compose.yml.j2", Template: true},
		{Path: "c.yml", Template: true},
	}, desc.Compose)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("config.yml"))
	assert.Equal(t, FormatYAML, FormatFor("config.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("config"))
	assert.Equal(t, FormatJSON, FormatFor("config.json"))
	assert.Equal(t, FormatJSON, FormatFor("CONFIG.JSONC"))
}

func TestReadScript(t *testing.T) {
	script, err := ReadScript("../../testdata/hive.sh")
	require.NoError(t, err)
	assert.Contains(t, script, "#!/bin/sh\n")

	_, err = ReadScript("../../testdata/missing.sh")
	var lerr *LoadError
	assert.True(t, errors.As(err, &lerr))
}
