// Package publicenv implements PublicEnvironmentDefinitions: layered,
// non-secret environment-variable definitions that are written into each
// component's plain `.env` file (as distinct from vault-backed secrets).
//
// Grounded on original_source/rush/src/public_env_defs.rs and
// original_source/rush/src/dotenv_utils.rs.
package publicenv

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Method is one generation method for a public environment variable.
type Method struct {
	Kind   string
	Value  string // Static
	Prompt string // Ask
	Layout string // Timestamp, a time.Format reference layout
}

const (
	KindStatic    = "Static"
	KindAsk       = "Ask"
	KindTimestamp = "Timestamp"
)

func (m *Method) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		Kind   string `yaml:"kind"`
		Value  string `yaml:"value"`
		Prompt string `yaml:"prompt"`
		Layout string `yaml:"layout"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if raw.Kind == "" {
		return fmt.Errorf("public env definition: missing kind")
	}
	*m = Method{Kind: raw.Kind, Value: raw.Value, Prompt: raw.Prompt, Layout: raw.Layout}
	return nil
}

// ComponentEnvironment holds one component's declared public variables.
type ComponentEnvironment struct {
	Variables map[string]Method
}

type rawComponentEnvironment struct {
	Variables map[string]Method `yaml:"environment_variables"`
}

// Definitions is the full parsed PublicEnvironmentDefinitions document.
type Definitions struct {
	ProductName string
	ProductDir  string
	Components  map[string]ComponentEnvironment
}

// Parse reads a PublicEnvironmentDefinitions document from raw YAML bytes.
func Parse(productName, productDir string, raw []byte) (*Definitions, error) {
	var doc map[string]rawComponentEnvironment
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("public env definitions: failed to parse: %w", err)
	}

	components := make(map[string]ComponentEnvironment, len(doc))
	for name, entry := range doc {
		components[name] = ComponentEnvironment{Variables: entry.Variables}
	}

	return &Definitions{ProductName: productName, ProductDir: productDir, Components: components}, nil
}

// MergeOverride layers override's variables on top of d's (the base
// layer), per-variable: override wins wherever it declares the same
// component and variable name, matching the external-interfaces rule that
// the environment-specific layer overrides the base layer per-variable.
func (d *Definitions) MergeOverride(override *Definitions) {
	for name, comp := range override.Components {
		d.AddComponent(name)
		for varName, method := range comp.Variables {
			d.AddVariable(name, varName, method)
		}
	}
}

// AddComponent registers an empty component.
func (d *Definitions) AddComponent(name string) {
	if d.Components == nil {
		d.Components = map[string]ComponentEnvironment{}
	}
	if _, ok := d.Components[name]; !ok {
		d.Components[name] = ComponentEnvironment{Variables: map[string]Method{}}
	}
}

// AddVariable registers a generation method on an already-added component.
func (d *Definitions) AddVariable(component, name string, method Method) {
	c, ok := d.Components[component]
	if !ok {
		panic(fmt.Sprintf("public env definitions: component %q not found", component))
	}
	c.Variables[name] = method
	d.Components[component] = c
}

// GenerateValue resolves a single component/variable generation method to a
// value. Ask prompts interactively through prompter; a component or
// variable that was never declared returns ok == false.
func (d *Definitions) GenerateValue(component, variable string, prompter Prompter) (string, bool, error) {
	c, ok := d.Components[component]
	if !ok {
		return "", false, nil
	}
	method, ok := c.Variables[variable]
	if !ok {
		return "", false, nil
	}

	switch method.Kind {
	case KindStatic:
		return method.Value, true, nil
	case KindAsk:
		v, err := prompter.Ask(method.Prompt)
		if err != nil {
			return "", false, err
		}
		return v, true, nil
	case KindTimestamp:
		layout := method.Layout
		if layout == "" {
			layout = time.RFC3339
		}
		return time.Now().Format(layout), true, nil
	default:
		return "", false, fmt.Errorf("public env definitions: unknown generation method %q", method.Kind)
	}
}

// Prompter supplies the Ask behavior for public environment generation.
type Prompter interface {
	Ask(prompt string) (string, error)
}

// componentLocation is the subset of a stack.spec.yaml entry this package
// needs to resolve a component's directory.
type componentLocation struct {
	Location string `yaml:"location"`
}

// GenerateDotenvFiles writes `<productDir>/<location>/.env` for every
// declared component found in the product's stack.spec.yaml, merging with
// any pre-existing file: Static values always overwrite, other kinds only
// fill in variables missing from the file.
func (d *Definitions) GenerateDotenvFiles(stackSpecPath string, prompter Prompter) error {
	raw, err := os.ReadFile(stackSpecPath)
	if err != nil {
		return fmt.Errorf("public env definitions: failed to read %s: %w", stackSpecPath, err)
	}

	var stack map[string]componentLocation
	if err := yaml.Unmarshal(raw, &stack); err != nil {
		return fmt.Errorf("public env definitions: failed to parse %s: %w", stackSpecPath, err)
	}

	names := make([]string, 0, len(stack))
	for name := range stack {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, componentName := range names {
		entry := stack[componentName]
		component, ok := d.Components[componentName]
		if !ok || entry.Location == "" {
			continue
		}

		envPath := filepath.Join(d.ProductDir, entry.Location, ".env")

		envMap := map[string]string{}
		if _, err := os.Stat(envPath); err == nil {
			envMap, err = loadDotenv(envPath)
			if err != nil {
				return err
			}
		}

		varNames := make([]string, 0, len(component.Variables))
		for name := range component.Variables {
			varNames = append(varNames, name)
		}
		sort.Strings(varNames)

		for _, varName := range varNames {
			method := component.Variables[varName]
			_, present := envMap[varName]
			if present && method.Kind != KindStatic {
				continue
			}
			value, ok, err := d.GenerateValue(componentName, varName, prompter)
			if err != nil {
				return fmt.Errorf("public env definitions: failed to generate %s.%s: %w", componentName, varName, err)
			}
			if !ok {
				continue
			}
			envMap[varName] = value
		}

		if err := saveDotenv(envPath, envMap); err != nil {
			return err
		}
	}

	return nil
}
