package config

import (
	"fmt"
	"os"
	"regexp"
)

var dnsNamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

func validateDNSName(name string) error {
	if len(name) < 1 {
		return fmt.Errorf("must not be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("must be at most 63 characters long, got %d", len(name))
	}
	if !dnsNamePattern.MatchString(name) {
		return fmt.Errorf("must be DNS-1123 compliant (lowercase alphanumeric and hyphens only, cannot start/end with hyphen), got %q", name)
	}
	return nil
}

// Validate checks the invariants New relies on: ProductDir exists and
// Environment is one of the valid set. It returns a *ValidationErrors
// collecting every problem rather than failing on the first one.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.ProductName == "" {
		errs.Add("product_name", "is required")
	}

	if err := validateDNSName(c.URI); err != nil {
		errs.Add("product_name", fmt.Sprintf("derived URI %q is invalid: %v", c.URI, err))
	}

	if c.ProductDir == "" {
		errs.Add("product_dir", "is required")
	} else if info, err := os.Stat(c.ProductDir); err != nil {
		errs.Add("product_dir", fmt.Sprintf("%q does not exist", c.ProductDir))
	} else if !info.IsDir() {
		errs.Add("product_dir", fmt.Sprintf("%q is not a directory", c.ProductDir))
	}

	if !c.Environment.Valid() {
		errs.Add("environment", fmt.Sprintf("must be one of local, dev, staging, prod; got %q", c.Environment))
	}

	if c.StartPort < 1 || c.StartPort > 65535 {
		errs.Add("start_port", fmt.Sprintf("must be between 1 and 65535, got %d", c.StartPort))
	}

	switch c.VaultBackend {
	case "dotenv", "jsonfile", "onepassword":
	default:
		errs.Add("vault_backend", fmt.Sprintf("must be one of dotenv, jsonfile, onepassword; got %q", c.VaultBackend))
	}

	switch c.K8sEncoder {
	case "noop", "kubeseal":
	default:
		errs.Add("k8s_encoder", fmt.Sprintf("must be one of noop, kubeseal; got %q", c.K8sEncoder))
	}

	if errs.HasErrors() {
		return &errs
	}
	return nil
}
