package wizard

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockDetector implements Detector for testing.
type mockDetector struct {
	binaries map[string]bool
	files    map[string]bool
	dirs     map[string]bool
	globs    map[string][]string
}

func (m *mockDetector) LookPath(name string) (string, error) {
	if m.binaries[name] {
		return "/usr/bin/" + name, nil
	}
	return "", &os.PathError{Op: "lookpath", Path: name, Err: os.ErrNotExist}
}

type fakeFileInfo struct {
	name  string
	isDir bool
}

func (f fakeFileInfo) Name() string        { return f.name }
func (f fakeFileInfo) Size() int64         { return 0 }
func (f fakeFileInfo) Mode() os.FileMode   { return 0644 }
func (f fakeFileInfo) ModTime() time.Time  { return time.Time{} }
func (f fakeFileInfo) IsDir() bool         { return f.isDir }
func (f fakeFileInfo) Sys() interface{}    { return nil }

func (m *mockDetector) Stat(path string) (os.FileInfo, error) {
	if m.dirs[path] {
		return fakeFileInfo{name: path, isDir: true}, nil
	}
	if m.files[path] {
		return fakeFileInfo{name: path, isDir: false}, nil
	}
	return nil, os.ErrNotExist
}

func (m *mockDetector) Glob(pattern string) ([]string, error) {
	return m.globs[pattern], nil
}

func TestDetectDocker(t *testing.T) {
	d := &mockDetector{binaries: map[string]bool{"docker": true}}
	result := Detect(d)
	assert.True(t, result.DockerAvailable)
}

func TestDetectNoDocker(t *testing.T) {
	d := &mockDetector{binaries: map[string]bool{}}
	result := Detect(d)
	assert.False(t, result.DockerAvailable)
}

func TestDetectScript(t *testing.T) {
	d := &mockDetector{
		binaries: map[string]bool{},
		files:    map[string]bool{"scripts/hive.sh": true},
	}
	result := Detect(d)
	assert.Equal(t, "scripts/hive.sh", result.Script)
}

func TestDetectScriptIgnoresDirectories(t *testing.T) {
	d := &mockDetector{
		binaries: map[string]bool{},
		dirs:     map[string]bool{"bin/hive": true},
	}
	result := Detect(d)
	assert.Empty(t, result.Script)
}

func TestDetectComposeFiles(t *testing.T) {
	d := &mockDetector{
		binaries: map[string]bool{},
		files:    map[string]bool{"docker-compose.yml": true, "compose.yml": true},
		globs: map[string][]string{
			"*/docker-compose.yml": {"web/docker-compose.yml", "db/docker-compose.yml"},
		},
	}
	result := Detect(d)
	assert.Equal(t, []string{
		"docker-compose.yml",
		"compose.yml",
		"db/docker-compose.yml",
		"web/docker-compose.yml",
	}, result.ComposeFiles)
}

func TestDetectNothing(t *testing.T) {
	d := &mockDetector{
		binaries: map[string]bool{},
		files:    map[string]bool{},
	}
	result := Detect(d)
	assert.False(t, result.DockerAvailable)
	assert.Empty(t, result.Script)
	assert.Empty(t, result.ComposeFiles)
}
