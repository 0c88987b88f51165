package vault

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dotenv is a Vault backed by per-component `.env.secrets` files; location
// of each component is read once from the product's stack.spec.yaml.
// Environment is ignored — the file always holds the one map in effect.
//
// Grounded on original_source/rush/src/vault/dotenv_vault.rs.
type Dotenv struct {
	productDir string
	components map[string]string // name -> absolute component directory
}

// NewDotenv builds a Dotenv vault by reading `location` out of every entry
// in stackSpecPath (the product's stack.spec.yaml).
func NewDotenv(productDir, stackSpecPath string) (*Dotenv, error) {
	raw, err := os.ReadFile(stackSpecPath)
	if err != nil {
		return nil, fmt.Errorf("dotenv vault: failed to read %s: %w", stackSpecPath, err)
	}

	var doc map[string]struct {
		Location string `yaml:"location"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("dotenv vault: failed to parse %s: %w", stackSpecPath, err)
	}

	absProductDir, err := filepath.Abs(productDir)
	if err != nil {
		return nil, err
	}

	components := map[string]string{}
	for name, entry := range doc {
		if entry.Location == "" {
			continue
		}
		components[name] = filepath.Join(absProductDir, entry.Location)
	}

	return &Dotenv{productDir: absProductDir, components: components}, nil
}

func (d *Dotenv) envPath(component string) (string, bool) {
	dir, ok := d.components[component]
	if !ok {
		return "", false
	}
	return filepath.Join(dir, ".env.secrets"), true
}

func (d *Dotenv) Get(_ context.Context, _, component, _ string) (map[string]string, error) {
	path, ok := d.envPath(component)
	if !ok {
		return map[string]string{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	return loadDotenv(path)
}

func (d *Dotenv) Set(_ context.Context, _, component, _ string, secrets map[string]string) error {
	path, ok := d.envPath(component)
	if !ok {
		return nil
	}
	return saveDotenv(path, secrets)
}

func (d *Dotenv) Remove(_ context.Context, _, component, _ string) error {
	path, ok := d.envPath(component)
	if !ok {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(path)
}

func (d *Dotenv) CreateVault(_ context.Context, _ string) error { return nil }

func (d *Dotenv) CheckIfVaultExists(_ context.Context, _ string) (bool, error) { return true, nil }

var _ Vault = (*Dotenv)(nil)

// loadDotenv parses KEY=VALUE lines, unwrapping quoted values.
func loadDotenv(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		value = unquote(value)
		result[key] = value
	}
	return result, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// saveDotenv writes the whole map back, sorted for deterministic output.
func saveDotenv(path string, secrets map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	keys := make([]string, 0, len(secrets))
	for k := range secrets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%q\n", k, secrets[k])
	}

	return os.WriteFile(path, []byte(b.String()), 0600)
}
