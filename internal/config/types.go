// Package config loads and validates the product-scoped Config: the
// handful of values that describe where a product lives, which
// environment it's being operated against, and which backends (vault,
// k8s-encoder, k8s-validator) are in play for that environment.
//
// Generalizes the teacher's pkg/config package (DeploymentConfig) from a
// single-service descriptor into a whole-product one; environment-specific
// overrides follow the same "process env wins" rule the teacher used for
// spec.KubeContext.
package config

import (
	"fmt"
	"os"
	"regexp"
)

// Environment is one of the fixed deployment targets a product can be
// operated against.
type Environment string

const (
	EnvLocal   Environment = "local"
	EnvDev     Environment = "dev"
	EnvStaging Environment = "staging"
	EnvProd    Environment = "prod"
)

func (e Environment) Valid() bool {
	switch e {
	case EnvLocal, EnvDev, EnvStaging, EnvProd:
		return true
	default:
		return false
	}
}

// Config is product-scoped and immutable after construction.
//
// Invariant: ProductDir exists on disk, and Environment is one of the
// valid set (EnvLocal, EnvDev, EnvStaging, EnvProd).
type Config struct {
	// ProductName identifies the product across vaults, networks, and
	// generated image names.
	ProductName string
	// URI is a DNS-safe slug of ProductName, used in the docker network
	// name and in generated domains.
	URI string
	// ProductDir is the root directory holding stack.spec.yaml and every
	// component's source tree.
	ProductDir string
	// Environment selects which environment-specific overrides (kube
	// context, vault backend, domain) apply.
	Environment Environment

	// DockerRegistry is the registry prefix images are pushed to, e.g.
	// "localhost:5000" or "ghcr.io/acme".
	DockerRegistry string
	// KubeContext is the kubeconfig context name this environment
	// deploys against. Empty means "whatever the whitelist allows".
	KubeContext string
	// VaultBackend selects which vault.Vault implementation to construct:
	// "dotenv", "jsonfile", or "onepassword".
	VaultBackend string
	// K8sEncoder selects the secrets encoder applied before manifest
	// rendering: "noop" or "kubeseal".
	K8sEncoder string
	// K8sValidator selects which schema validator `validate manifests`
	// shells out to: "kubeconform" or "kubeval".
	K8sValidator string

	// InfrastructureRepository is the git remote manifests get pushed to
	// for GitOps-style deploys. When empty, `rollout` fails with an error.
	InfrastructureRepository string
	// DomainTemplate expands a component's subdomain into a
	// fully-qualified domain, e.g. "{{ .Subdomain }}.dev.example.com".
	DomainTemplate string
	// NetworkName is the docker network every component's containers
	// join; always "net-<uri>".
	NetworkName string
	// StartPort is the first port auto-assigned to a component lacking an
	// explicit port.
	StartPort int
	// AccountHandle is a provider-specific account identifier (e.g. a
	// docker registry username) read from rush.yaml's `account_handle`; it
	// is not passed into build contexts.
	AccountHandle string

	// Variables holds the `{{ NAME }}` substitution values for the active
	// Environment, loaded from variables.yaml.
	Variables map[string]string
}

// networkNameFromURI derives "net-<uri>" the way the network field is
// always derived rather than independently configured.
func networkNameFromURI(uri string) string {
	return fmt.Sprintf("net-%s", uri)
}

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify lowercases name and replaces runs of non-DNS-safe characters
// with a single hyphen, producing the URI field from ProductName.
func Slugify(name string) string {
	s := toLowerASCII(name)
	s = slugInvalidChars.ReplaceAllString(s, "-")
	return trimHyphens(s)
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func trimHyphens(s string) string {
	start, end := 0, len(s)
	for start < end && s[start] == '-' {
		start++
	}
	for end > start && s[end-1] == '-' {
		end--
	}
	return s[start:end]
}

// envOverride reads "<ENV>_<SUFFIX>" from the process environment, where
// ENV is environment uppercased, e.g. DEV_CTX, PROD_VAULT, STAGING_DOMAIN.
func envOverride(environment Environment, suffix string) (string, bool) {
	key := fmt.Sprintf("%s_%s", toUpperASCII(string(environment)), suffix)
	v, ok := os.LookupEnv(key)
	return v, ok && v != ""
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// applyEnvironmentOverrides fills in KubeContext/VaultBackend/DomainTemplate
// from process environment variables named `<ENV>_CTX`, `<ENV>_VAULT`, and
// `<ENV>_DOMAIN`, plus the global `K8S_ENCODER_<ENV>` and
// `INFRASTRUCTURE_REPOSITORY` overrides, when present.
func (c *Config) applyEnvironmentOverrides() {
	if v, ok := envOverride(c.Environment, "CTX"); ok {
		c.KubeContext = v
	}
	if v, ok := envOverride(c.Environment, "VAULT"); ok {
		c.VaultBackend = v
	}
	if v, ok := envOverride(c.Environment, "DOMAIN"); ok {
		c.DomainTemplate = v
	}
	if v, ok := os.LookupEnv(fmt.Sprintf("K8S_ENCODER_%s", toUpperASCII(string(c.Environment)))); ok && v != "" {
		c.K8sEncoder = v
	}
	if v, ok := os.LookupEnv("INFRASTRUCTURE_REPOSITORY"); ok && v != "" {
		c.InfrastructureRepository = v
	}
}
