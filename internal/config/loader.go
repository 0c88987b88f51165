package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the product-level config file rush looks for while
// discovering a project root, analogous to the teacher's .kudev.yaml.
const ConfigFileName = "rush.yaml"

// rootMarkers are files/directories whose presence identifies a directory
// as a project root when no rush.yaml is found yet.
var rootMarkers = []string{".git", "go.mod", "package.json"}

// FileConfigLoader loads rush.yaml by walking upward from a starting
// directory, the way the teacher's FileConfigLoader discovers .kudev.yaml.
//
// Grounded on pkg/config/loader.go and pkg/config/loader_test.go (recovered
// contract; the shipped loader.go in the retrieval pack only held the
// LoaderConfig interface, not the walking implementation loader_test.go
// exercises).
type FileConfigLoader struct {
	explicitPath string
	envVarName   string
	searchDir    string
}

// NewFileConfigLoader builds a loader that tries explicitPath first (if
// non-empty), then the envVarName environment variable (if set), then
// walks upward from searchDir looking for rush.yaml.
func NewFileConfigLoader(explicitPath, envVarName, searchDir string) *FileConfigLoader {
	return &FileConfigLoader{explicitPath: explicitPath, envVarName: envVarName, searchDir: searchDir}
}

// Load resolves the config path via explicitPath/envVarName/discover and
// parses it.
func (l *FileConfigLoader) Load(ctx context.Context) (*RawSpec, string, error) {
	path, err := l.resolve()
	if err != nil {
		return nil, "", err
	}
	raw, err := l.LoadFromPath(ctx, path)
	return raw, path, err
}

func (l *FileConfigLoader) resolve() (string, error) {
	if l.explicitPath != "" {
		return l.explicitPath, nil
	}
	if l.envVarName != "" {
		if v, ok := os.LookupEnv(l.envVarName); ok && v != "" {
			return v, nil
		}
	}
	return l.discover()
}

// LoadFromPath reads and parses rush.yaml at an exact path.
func (l *FileConfigLoader) LoadFromPath(ctx context.Context, path string) (*RawSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s", path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var spec RawSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	spec.ProductDir = filepath.Dir(path)
	return &spec, nil
}

// discover walks upward from searchDir looking for rush.yaml, returning
// notFoundError if the walk reaches the filesystem root without finding
// one.
func (l *FileConfigLoader) discover() (string, error) {
	dir := l.searchDir
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", l.notFoundError()
}

// notFoundError reports every directory that was searched, computed by
// walking the same path discover() would, so the message stays accurate
// even when called without first running discover().
func (l *FileConfigLoader) notFoundError() error {
	msg := fmt.Sprintf("no %s found. Create one, or pass --config with its path.", ConfigFileName)
	msg += "\nSearched in:"

	dir := l.searchDir
	for {
		msg += "\n  - " + filepath.Join(dir, ConfigFileName)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return fmt.Errorf("%s", msg)
}

// DiscoverProjectRoot walks upward from startDir looking for a directory
// containing .git, go.mod, or package.json.
func DiscoverProjectRoot(startDir string) (string, error) {
	dir := startDir
	for {
		if isProjectRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no project root found above %s (looked for .git, go.mod, package.json)", startDir)
		}
		dir = parent
	}
}

func isProjectRoot(dir string) bool {
	for _, marker := range rootMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}
