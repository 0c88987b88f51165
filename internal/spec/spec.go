package spec

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ComponentBuildSpec is one entry from stack.spec.yaml, fully parsed and
// with `{{ NAME }}` variable references substituted.
type ComponentBuildSpec struct {
	ComponentName string
	ProductName   string
	Color         string
	DependsOn     []string

	BuildType BuildType

	Subdomain   string
	Port        *int
	TargetPort  *int
	K8sDir      string
	Priority    int
	Watch       []string
	Artefacts   map[string]string
	ExtraArgs   []string
	Volumes     map[string]string
	Dotenv      map[string]string
	DotenvSecrets map[string]string
}

// defaultPriority is used when a component doesn't declare one; lower
// values build first.
const defaultPriority = 100

// rawEntry mirrors one stack.spec.yaml mapping value before substitution.
type rawEntry struct {
	BuildType string `yaml:"build_type"`

	Location           string   `yaml:"location"`
	Dockerfile         string   `yaml:"dockerfile"`
	ContextDir         string   `yaml:"context_dir"`
	SSR                bool     `yaml:"ssr"`
	Features           []string `yaml:"features"`
	PrecompileCommands []string `yaml:"precompile_commands"`

	Components []string `yaml:"components"` // Ingress

	ImageNameWithTag string  `yaml:"image_name_with_tag"` // PureDockerImage
	Command          *string `yaml:"command"`
	Entrypoint       *string `yaml:"entrypoint"`

	Namespace string `yaml:"namespace"` // KubernetesInstallation

	Color     string            `yaml:"color"`
	DependsOn []string          `yaml:"depends_on"`
	Subdomain string            `yaml:"subdomain"`
	Port      *int              `yaml:"port"`
	TargetPort *int             `yaml:"target_port"`
	K8s       string            `yaml:"k8s"`
	Priority  *int              `yaml:"priority"`
	Watch     []string          `yaml:"watch"`
	Artefacts map[string]string `yaml:"artefacts"`
	ExtraArgs []string          `yaml:"docker_extra_run_args"`
	Volumes   map[string]string `yaml:"volumes"`
	Dotenv    map[string]string `yaml:"dotenv"`
	DotenvSecrets map[string]string `yaml:"dotenv_secrets"`
}

// expandFunc substitutes `{{ NAME }}` (whitespace-trimmed) references
// against a product's variables file. Unresolved references are a fatal
// error per §4.2.
type expandFunc func(raw string) (string, error)

// ParseAll parses every entry in a stack.spec.yaml document, returning both
// the parsed specs and the component names in declaration order. Build,
// launch, and port assignment all key off that order, so it is recovered by
// walking the root mapping node's Content pairs directly rather than
// decoding into a Go map, whose key order is neither preserved nor stable.
func ParseAll(productName, productDir string, raw []byte, expand expandFunc) (map[string]*ComponentBuildSpec, []string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, nil, fmt.Errorf("stack spec: failed to parse: %w", err)
	}
	if len(root.Content) == 0 {
		return map[string]*ComponentBuildSpec{}, nil, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("stack spec: expected a mapping at the document root")
	}

	specs := make(map[string]*ComponentBuildSpec, len(doc.Content)/2)
	order := make([]string, 0, len(doc.Content)/2)
	for i := 0; i < len(doc.Content); i += 2 {
		name := doc.Content[i].Value
		entry, err := parseEntry(productName, productDir, name, *doc.Content[i+1], expand)
		if err != nil {
			return nil, nil, fmt.Errorf("stack spec: component %q: %w", name, err)
		}
		specs[name] = entry
		order = append(order, name)
	}
	return specs, order, nil
}

func parseEntry(productName, productDir, componentName string, node yaml.Node, expand expandFunc) (*ComponentBuildSpec, error) {
	var raw rawEntry
	if err := node.Decode(&raw); err != nil {
		return nil, err
	}

	if err := expandStrings(&raw, expand); err != nil {
		return nil, err
	}
	raw.Volumes = absolutizeVolumes(raw.Volumes, productDir)

	bt, err := buildBuildType(raw)
	if err != nil {
		return nil, err
	}

	priority := defaultPriority
	if raw.Priority != nil {
		priority = *raw.Priority
	}

	return &ComponentBuildSpec{
		ComponentName: componentName,
		ProductName:   productName,
		Color:         raw.Color,
		DependsOn:     raw.DependsOn,
		BuildType:     bt,
		Subdomain:     raw.Subdomain,
		Port:          raw.Port,
		TargetPort:    raw.TargetPort,
		K8sDir:        raw.K8s,
		Priority:      priority,
		Watch:         raw.Watch,
		Artefacts:     raw.Artefacts,
		ExtraArgs:     raw.ExtraArgs,
		Volumes:       raw.Volumes,
		Dotenv:        raw.Dotenv,
		DotenvSecrets: raw.DotenvSecrets,
	}, nil
}

func buildBuildType(raw rawEntry) (BuildType, error) {
	switch raw.BuildType {
	case "TrunkWasm":
		if raw.Location == "" {
			return nil, fmt.Errorf("location is required for TrunkWasm")
		}
		if raw.Dockerfile == "" {
			return nil, fmt.Errorf("dockerfile is required for TrunkWasm")
		}
		return NewTrunkWasm(raw.Location, raw.Dockerfile, defaultDot(raw.ContextDir), raw.SSR, raw.Features, raw.PrecompileCommands), nil

	case "RustBinary":
		if raw.Location == "" {
			return nil, fmt.Errorf("location is required for RustBinary")
		}
		if raw.Dockerfile == "" {
			return nil, fmt.Errorf("dockerfile is required for RustBinary")
		}
		return NewRustBinary(raw.Location, raw.Dockerfile, defaultDot(raw.ContextDir), raw.Features, raw.PrecompileCommands), nil

	case "Book":
		if raw.Location == "" || raw.Dockerfile == "" {
			return nil, fmt.Errorf("location and dockerfile are required for Book")
		}
		return NewBook(raw.Location, raw.Dockerfile, defaultDot(raw.ContextDir)), nil

	case "Zola":
		if raw.Location == "" || raw.Dockerfile == "" {
			return nil, fmt.Errorf("location and dockerfile are required for Zola")
		}
		return NewZola(raw.Location, raw.Dockerfile, defaultDot(raw.ContextDir)), nil

	case "Script":
		if raw.Location == "" || raw.Dockerfile == "" {
			return nil, fmt.Errorf("location and dockerfile are required for Script")
		}
		return NewScript(raw.Location, raw.Dockerfile, defaultDot(raw.ContextDir)), nil

	case "Ingress":
		if len(raw.Components) == 0 {
			return nil, fmt.Errorf("components is required for Ingress")
		}
		if raw.Dockerfile == "" {
			return nil, fmt.Errorf("dockerfile is required for Ingress")
		}
		return Ingress{DockerfilePath: raw.Dockerfile, ContextDir: defaultDot(raw.ContextDir), Components: raw.Components}, nil

	case "PureDockerImage":
		if raw.ImageNameWithTag == "" {
			return nil, fmt.Errorf("image_name_with_tag is required for PureDockerImage")
		}
		return PureDockerImage{ImageNameWithTag: raw.ImageNameWithTag, Command: raw.Command, Entrypoint: raw.Entrypoint}, nil

	case "PureKubernetes":
		return PureKubernetes{}, nil

	case "KubernetesInstallation":
		if raw.Namespace == "" {
			return nil, fmt.Errorf("namespace is required for KubernetesInstallation")
		}
		return KubernetesInstallation{Namespace: raw.Namespace}, nil

	case "":
		return nil, fmt.Errorf("build_type is required")

	default:
		return nil, fmt.Errorf("unknown build_type %q", raw.BuildType)
	}
}

func defaultDot(contextDir string) string {
	if contextDir == "" {
		return "."
	}
	return contextDir
}

// isTemplateRef reports whether s is a whitespace-trimmed `{{ NAME }}`
// reference.
func isTemplateRef(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "{{") && strings.HasSuffix(t, "}}")
}

// expandStrings walks every plain string field of raw substituting
// `{{ NAME }}` references via expand.
func expandStrings(raw *rawEntry, expand expandFunc) error {
	fields := []*string{
		&raw.Location, &raw.Dockerfile, &raw.ContextDir, &raw.Color,
		&raw.Subdomain, &raw.K8s, &raw.ImageNameWithTag, &raw.Namespace,
	}
	for _, f := range fields {
		if *f == "" || !isTemplateRef(*f) {
			continue
		}
		expanded, err := expand(*f)
		if err != nil {
			return fmt.Errorf("failed to expand %q: %w", *f, err)
		}
		*f = expanded
	}

	for k, v := range raw.Dotenv {
		if isTemplateRef(v) {
			expanded, err := expand(v)
			if err != nil {
				return fmt.Errorf("failed to expand dotenv[%s]=%q: %w", k, v, err)
			}
			raw.Dotenv[k] = expanded
		}
	}
	for k, v := range raw.Volumes {
		if isTemplateRef(v) {
			expanded, err := expand(v)
			if err != nil {
				return fmt.Errorf("failed to expand volumes[%s]=%q: %w", k, v, err)
			}
			raw.Volumes[k] = expanded
		}
	}

	return nil
}

// absolutizeVolumes resolves every volume host path (the map key) against
// productDir, so a relative path in stack.spec.yaml mounts the same
// directory regardless of the working directory rush is invoked from.
// Container mount points (the map values) are left untouched.
func absolutizeVolumes(volumes map[string]string, productDir string) map[string]string {
	if len(volumes) == 0 {
		return volumes
	}
	out := make(map[string]string, len(volumes))
	for hostPath, mountPoint := range volumes {
		if !filepath.IsAbs(hostPath) {
			hostPath = filepath.Join(productDir, hostPath)
		}
		out[hostPath] = mountPoint
	}
	return out
}
