// Package secrets implements the SecretsDefinitions DSL: a declarative,
// per-component map of secret names to generation methods, parsed from
// YAML and realized through a vault.Vault.
//
// Grounded on original_source/rush/src/vault/secrets_definitions.rs.
package secrets

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wonop-io/rush/internal/vault"
)

// Method is one generation method for a single secret entry.
type Method struct {
	Kind string // see the Kind* constants below

	// Static / Base64EncodedStatic
	Value string

	// Ask / AskWithDefault / AskPassword
	Prompt  string
	Default string

	// RandomString / RandomAlphanumeric / RandomHex / RandomBase64
	Length int

	// FromFile
	Ask         bool
	Base64      bool
	DefaultPath string

	// Ref
	RefPath string

	// RSAKeyPair / AESKey / HMACKey
	Bits int

	// ECDSAKeyPair
	Curve string
}

const (
	KindStatic             = "Static"
	KindBase64StaticValue  = "Base64EncodedStatic"
	KindAsk                = "Ask"
	KindAskWithDefault     = "AskWithDefault"
	KindAskPassword        = "AskPassword"
	KindRandomString       = "RandomString"
	KindRandomAlphanumeric = "RandomAlphanumeric"
	KindRandomHex          = "RandomHex"
	KindRandomBase64       = "RandomBase64"
	KindRandomUUID         = "RandomUUID"
	KindTimestamp          = "Timestamp"
	KindFromFile           = "FromFile"
	KindRef                = "Ref"
	KindRSAKeyPair         = "RSAKeyPair"
	KindECDSAKeyPair       = "ECDSAKeyPair"
	KindEd25519KeyPair     = "Ed25519KeyPair"
	KindAESKey             = "AESKey"
	KindHMACKey            = "HMACKey"
)

// ComponentSecrets is one component's declared secret entries.
type ComponentSecrets struct {
	Secrets map[string]Method
}

// Definitions is the full, parsed SecretsDefinitions document for a product.
type Definitions struct {
	ProductName string
	Components  map[string]ComponentSecrets
}

// rawMethod mirrors the YAML shape of a single secret-generation entry: a
// mapping whose `kind` names the method, next to that method's parameters,
// e.g. `{kind: RSAKeyPair, bits: 2048, base64: true}`. An entry without
// `kind` is rejected.
type rawMethod struct {
	Kind        string `yaml:"kind"`
	Value       string `yaml:"value"`
	Prompt      string `yaml:"prompt"`
	Default     string `yaml:"default"`
	Length      int    `yaml:"length"`
	Ask         bool   `yaml:"ask"`
	Base64      bool   `yaml:"base64"`
	DefaultPath string `yaml:"default_path"`
	Ref         string `yaml:"ref"`
	Bits        int    `yaml:"bits"`
	Curve       string `yaml:"curve"`
}

func (m *Method) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw rawMethod
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if raw.Kind == "" {
		return fmt.Errorf("secrets definition: missing kind")
	}
	*m = Method{
		Kind:        raw.Kind,
		Value:       raw.Value,
		Prompt:      raw.Prompt,
		Default:     raw.Default,
		Length:      raw.Length,
		Ask:         raw.Ask,
		Base64:      raw.Base64,
		DefaultPath: raw.DefaultPath,
		RefPath:     raw.Ref,
		Bits:        raw.Bits,
		Curve:       raw.Curve,
	}
	return nil
}

type rawComponentSecrets struct {
	Secrets map[string]Method `yaml:"secrets"`
}

// Parse reads a SecretsDefinitions document from raw YAML bytes.
func Parse(productName string, raw []byte) (*Definitions, error) {
	var doc map[string]rawComponentSecrets
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("secrets definitions: failed to parse: %w", err)
	}

	components := make(map[string]ComponentSecrets, len(doc))
	for name, entry := range doc {
		components[name] = ComponentSecrets{Secrets: entry.Secrets}
	}

	return &Definitions{ProductName: productName, Components: components}, nil
}

// AddComponent registers an empty component.
func (d *Definitions) AddComponent(name string) {
	if d.Components == nil {
		d.Components = map[string]ComponentSecrets{}
	}
	if _, ok := d.Components[name]; !ok {
		d.Components[name] = ComponentSecrets{Secrets: map[string]Method{}}
	}
}

// AddSecret registers a generation method for a secret on an existing
// component; it panics if the component has not been added first, mirroring
// the original DSL's fail-fast contract.
func (d *Definitions) AddSecret(component, name string, method Method) {
	c, ok := d.Components[component]
	if !ok {
		panic(fmt.Sprintf("secrets definitions: component %q not found", component))
	}
	c.Secrets[name] = method
	d.Components[component] = c
}

// sortedComponentNames returns component names in deterministic order.
func (d *Definitions) sortedComponentNames() []string {
	names := make([]string, 0, len(d.Components))
	for name := range d.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Populate walks components in sorted order, generating every declared
// secret, resolving Ref entries in a second pass against the in-memory
// generated set, and finally writing each component's complete map back
// through v. Ask* methods consult prompter; existing values already held
// in v are fetched first so the caller can be asked whether to override.
//
// Grounded on SecretsDefinitions::populate in secrets_definitions.rs, with
// panics converted to returned errors.
func (d *Definitions) Populate(ctx context.Context, v vault.Vault, environment string, prompter Prompter) error {
	allSecrets := map[string]map[string]string{}
	allRefs := map[string][]pendingRef{}

	for _, componentName := range d.sortedComponentNames() {
		component := d.Components[componentName]

		existing, err := v.Get(ctx, d.ProductName, componentName, environment)
		if err != nil {
			return fmt.Errorf("secrets: failed to read existing secrets for %s: %w", componentName, err)
		}

		secretNames := make([]string, 0, len(component.Secrets))
		for name := range component.Secrets {
			secretNames = append(secretNames, name)
		}
		sort.Strings(secretNames)

		secrets := map[string]string{}
		var refs []pendingRef

		for _, secretName := range secretNames {
			method := component.Secrets[secretName]

			if prior, ok := existing[secretName]; ok && method.Kind != KindRef {
				if !prompter.ShouldOverride(componentName, secretName) {
					secrets[secretName] = prior
					continue
				}
			}

			result, err := generate(method, prompter)
			if err != nil {
				return fmt.Errorf("secrets: failed to generate %s.%s: %w", componentName, secretName, err)
			}

			switch result.kind {
			case resultValue:
				secrets[secretName] = result.value
			case resultKeyPair:
				secrets[secretName+"_PRIVATE_KEY"] = result.privateKey
				secrets[secretName+"_PUBLIC_KEY"] = result.publicKey
			case resultRef:
				refs = append(refs, pendingRef{secretName: secretName, component: result.refComponent, secret: result.refSecret})
			}
		}

		allSecrets[componentName] = secrets
		allRefs[componentName] = refs
	}

	for _, componentName := range d.sortedComponentNames() {
		secrets := allSecrets[componentName]
		for _, ref := range allRefs[componentName] {
			refSecrets, ok := allSecrets[ref.component]
			if !ok {
				return fmt.Errorf("secrets: reference %s.%s -> unknown component %q", componentName, ref.secretName, ref.component)
			}
			value, ok := refSecrets[ref.secret]
			if !ok {
				return fmt.Errorf("secrets: reference %s.%s -> %s.%s does not exist", componentName, ref.secretName, ref.component, ref.secret)
			}
			secrets[ref.secretName] = value
		}

		if err := v.Set(ctx, d.ProductName, componentName, environment, secrets); err != nil {
			return fmt.Errorf("secrets: failed to write secrets for %s: %w", componentName, err)
		}
	}

	return nil
}

// Validate asserts that every declared non-reference secret is present in
// the vault, every key-pair produced both halves, and every reference
// target exists. It never mutates the vault. Missing entries are returned
// as a flat list of human-readable problems rather than a single error.
func (d *Definitions) Validate(ctx context.Context, v vault.Vault, environment string) ([]string, error) {
	var problems []string

	present := map[string]map[string]string{}
	for _, componentName := range d.sortedComponentNames() {
		secrets, err := v.Get(ctx, d.ProductName, componentName, environment)
		if err != nil {
			return nil, fmt.Errorf("secrets: failed to read %s: %w", componentName, err)
		}
		present[componentName] = secrets
	}

	for _, componentName := range d.sortedComponentNames() {
		component := d.Components[componentName]
		secrets := present[componentName]

		for secretName, method := range component.Secrets {
			switch method.Kind {
			case KindRef:
				refComponent, refSecret := splitRef(method.RefPath)
				refSecrets, ok := present[refComponent]
				if !ok {
					problems = append(problems, fmt.Sprintf("%s.%s: reference target component %q does not exist", componentName, secretName, refComponent))
					continue
				}
				if _, ok := refSecrets[refSecret]; !ok {
					problems = append(problems, fmt.Sprintf("%s.%s: reference target %s.%s is missing", componentName, secretName, refComponent, refSecret))
				}
			case KindRSAKeyPair, KindECDSAKeyPair, KindEd25519KeyPair:
				if _, ok := secrets[secretName+"_PRIVATE_KEY"]; !ok {
					problems = append(problems, fmt.Sprintf("%s.%s: missing %s_PRIVATE_KEY", componentName, secretName, secretName))
				}
				if _, ok := secrets[secretName+"_PUBLIC_KEY"]; !ok {
					problems = append(problems, fmt.Sprintf("%s.%s: missing %s_PUBLIC_KEY", componentName, secretName, secretName))
				}
			default:
				if _, ok := secrets[secretName]; !ok {
					problems = append(problems, fmt.Sprintf("%s.%s: missing from vault", componentName, secretName))
				}
			}
		}
	}

	return problems, nil
}

type pendingRef struct {
	secretName string
	component  string
	secret     string
}

func splitRef(path string) (component, secret string) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i], path[i+1:]
		}
	}
	return path, ""
}
