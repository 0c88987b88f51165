package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONFile is a Vault backed by `<dir>/<product>/<env>.json`, a top-level
// object keyed by component whose value is a flat string map.
//
// Grounded on original_source/rush/src/vault/file_vault.rs.
type JSONFile struct {
	dir string
}

// NewJSONFile creates a JSON-file-backed vault rooted at dir.
func NewJSONFile(dir string) *JSONFile {
	return &JSONFile{dir: dir}
}

func (f *JSONFile) path(product, environment string) string {
	return filepath.Join(f.dir, product, environment+".json")
}

func (f *JSONFile) load(path string) (map[string]map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]map[string]string{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]map[string]string
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("jsonfile vault: failed to parse %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]map[string]string{}
	}
	return doc, nil
}

func (f *JSONFile) save(path string, doc map[string]map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0600)
}

func (f *JSONFile) Get(_ context.Context, product, component, environment string) (map[string]string, error) {
	doc, err := f.load(f.path(product, environment))
	if err != nil {
		return nil, err
	}
	if secrets, ok := doc[component]; ok {
		return secrets, nil
	}
	return map[string]string{}, nil
}

func (f *JSONFile) Set(_ context.Context, product, component, environment string, secrets map[string]string) error {
	path := f.path(product, environment)
	doc, err := f.load(path)
	if err != nil {
		return err
	}
	doc[component] = secrets
	return f.save(path, doc)
}

func (f *JSONFile) Remove(_ context.Context, product, component, environment string) error {
	path := f.path(product, environment)
	doc, err := f.load(path)
	if err != nil {
		return err
	}
	if _, ok := doc[component]; !ok {
		return nil
	}
	delete(doc, component)
	return f.save(path, doc)
}

func (f *JSONFile) CreateVault(_ context.Context, product string) error {
	return os.MkdirAll(filepath.Join(f.dir, product), 0755)
}

func (f *JSONFile) CheckIfVaultExists(_ context.Context, product string) (bool, error) {
	info, err := os.Stat(filepath.Join(f.dir, product))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

var _ Vault = (*JSONFile)(nil)
