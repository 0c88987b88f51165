package config

// ApplyDefaults fills in fields that are safe to default rather than
// require, following the teacher's pkg/config/defaults.go pattern of
// "zero value means unset, use this instead".
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.DockerRegistry == "" {
		cfg.DockerRegistry = "localhost:5000"
	}
	if cfg.VaultBackend == "" {
		cfg.VaultBackend = "dotenv"
	}
	if cfg.K8sEncoder == "" {
		cfg.K8sEncoder = "noop"
	}
	if cfg.K8sValidator == "" {
		cfg.K8sValidator = "kubeconform"
	}
	if cfg.StartPort <= 0 {
		cfg.StartPort = 8000
	}
	if cfg.Environment == "" {
		cfg.Environment = EnvLocal
	}
}
