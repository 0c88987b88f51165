package config

// RawSpec is the subset of fields read directly out of rush.yaml (the
// product-level config file), before environment overrides and defaults
// are applied.
type RawSpec struct {
	ProductName              string `yaml:"product_name"`
	ProductDir               string `yaml:"-"`
	Environment              string `yaml:"-"`
	DockerRegistry           string `yaml:"docker_registry"`
	KubeContext              string `yaml:"kube_context"`
	VaultBackend             string `yaml:"vault_backend"`
	K8sEncoder               string `yaml:"k8s_encoder"`
	K8sValidator             string `yaml:"k8s_validator"`
	InfrastructureRepository string `yaml:"infrastructure_repository"`
	DomainTemplate           string `yaml:"domain_template"`
	StartPort                int    `yaml:"start_port"`
	AccountHandle            string `yaml:"account_handle"`
}

// New constructs a Config from a RawSpec and an environment tag, applying
// the derived fields (URI, NetworkName), environment-variable overrides,
// and defaults, then validating the result.
func New(raw RawSpec, environment string) (*Config, error) {
	env := Environment(environment)

	uri := Slugify(raw.ProductName)
	cfg := &Config{
		ProductName:              raw.ProductName,
		URI:                      uri,
		ProductDir:               raw.ProductDir,
		Environment:              env,
		DockerRegistry:           raw.DockerRegistry,
		KubeContext:              raw.KubeContext,
		VaultBackend:             raw.VaultBackend,
		K8sEncoder:               raw.K8sEncoder,
		K8sValidator:             raw.K8sValidator,
		InfrastructureRepository: raw.InfrastructureRepository,
		DomainTemplate:           raw.DomainTemplate,
		NetworkName:              networkNameFromURI(uri),
		StartPort:                raw.StartPort,
		AccountHandle:            raw.AccountHandle,
		Variables:                map[string]string{},
	}

	ApplyDefaults(cfg)
	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
