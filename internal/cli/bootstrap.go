package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/wonop-io/rush/internal/config"
	"github.com/wonop-io/rush/internal/image"
	"github.com/wonop-io/rush/internal/kubectx"
	"github.com/wonop-io/rush/internal/manifests"
	"github.com/wonop-io/rush/internal/publicenv"
	"github.com/wonop-io/rush/internal/reactor"
	"github.com/wonop-io/rush/internal/rusherr"
	"github.com/wonop-io/rush/internal/secrets"
	"github.com/wonop-io/rush/internal/spec"
	"github.com/wonop-io/rush/internal/templateengine"
	"github.com/wonop-io/rush/internal/toolchain"
	"github.com/wonop-io/rush/internal/vault"
)

// product bundles every collaborator a command needs, built once per
// invocation by bootstrapProduct and shared by every RunE.
type product struct {
	cfg *config.Config
	tc  *toolchain.Toolchain

	vlt            vault.Vault
	secretsEncoder vault.SecretsEncoder
	k8sEncoder     manifests.K8sEncoder
	engine         *templateengine.Engine

	specs         map[string]*spec.ComponentBuildSpec
	specOrder     []string
	stackSpecPath string

	tag string

	outputDir   string
	artefactDir string
}

// bootstrapProduct loads rush.yaml, variables.yaml, and stack.spec.yaml,
// constructs every shared collaborator, and renders each component's
// public .env file — the one setup pass every command (other than
// version/help) shares.
func bootstrapProduct(ctx context.Context) (*product, error) {
	loader := config.NewFileConfigLoader(configPath, "RUSHD_ROOT", workingDir())
	raw, configFilePath, err := loader.Load(ctx)
	if err != nil {
		return nil, rusherr.ConfigError(err.Error(), "run rush from inside a product directory, or pass --config", err)
	}
	raw.Environment = environment

	cfg, err := config.New(*raw, environment)
	if err != nil {
		return nil, rusherr.ConfigError(fmt.Sprintf("invalid configuration in %s", configFilePath), "check rush.yaml against the documented fields", err)
	}

	variablesPath := filepath.Join(cfg.ProductDir, "variables.yaml")
	vars, err := config.LoadVariables(variablesPath, cfg.Environment)
	if err != nil {
		return nil, rusherr.ConfigError("failed to load variables.yaml", "", err)
	}
	cfg.Variables = vars

	stackSpecPath := filepath.Join(cfg.ProductDir, "stack.spec.yaml")
	rawSpec, err := os.ReadFile(stackSpecPath)
	if err != nil {
		return nil, rusherr.SpecParseError(fmt.Sprintf("failed to read %s", stackSpecPath), "every product directory needs a stack.spec.yaml", err)
	}
	specs, specOrder, err := spec.ParseAll(cfg.ProductName, cfg.ProductDir, rawSpec, spec.VariablesExpander(cfg.Variables))
	if err != nil {
		return nil, rusherr.SpecParseError("failed to parse stack.spec.yaml", "check every {{ NAME }} reference against variables.yaml", err)
	}

	host := toolchain.Platform(fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))
	target := host
	if v := os.Getenv("DOCKER_DEFAULT_PLATFORM"); v != "" {
		target = toolchain.Platform(v)
	}
	tc := toolchain.New(host, target)

	v, err := newVault(cfg, stackSpecPath)
	if err != nil {
		return nil, err
	}

	secretsEncoder, k8sEncoder := newEncoders(cfg, tc)

	tag, err := image.ComputeTag(cfg.ProductDir)
	if err != nil {
		return nil, rusherr.ConfigError("failed to compute image tag", "the product directory must be a git repository", err)
	}

	p := &product{
		cfg:            cfg,
		tc:             tc,
		vlt:            vault.NewGuarded(v),
		secretsEncoder: secretsEncoder,
		k8sEncoder:     k8sEncoder,
		engine:         templateengine.New(),
		specs:          specs,
		specOrder:      specOrder,
		stackSpecPath:  stackSpecPath,
		tag:            tag,
		outputDir:      filepath.Join(cfg.ProductDir, "target", "k8s"),
		artefactDir:    filepath.Join(cfg.ProductDir, "target", "artefacts"),
	}

	if err := p.generatePublicEnv(); err != nil {
		return nil, err
	}

	return p, nil
}

func workingDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// newVault resolves Config.VaultBackend to a concrete vault.Vault.
func newVault(cfg *config.Config, stackSpecPath string) (vault.Vault, error) {
	switch cfg.VaultBackend {
	case "", "dotenv":
		v, err := vault.NewDotenv(cfg.ProductDir, stackSpecPath)
		if err != nil {
			return nil, rusherr.VaultError("failed to open dotenv vault", "", err)
		}
		return v, nil
	case "jsonfile":
		return vault.NewJSONFile(cfg.ProductDir), nil
	case "onepassword":
		return vault.NewOnePassword(), nil
	default:
		return nil, rusherr.ConfigError(fmt.Sprintf("unknown vault_backend %q", cfg.VaultBackend), "use one of: dotenv, jsonfile, onepassword", nil)
	}
}

// newEncoders pairs Config.K8sEncoder's single string with both the
// manifest-rendering encoder and the secrets-projection encoder it
// implies: kubeseal requires base64-encoded Secret data, so the two always
// move together.
func newEncoders(cfg *config.Config, tc *toolchain.Toolchain) (vault.SecretsEncoder, manifests.K8sEncoder) {
	if cfg.K8sEncoder == "kubeseal" {
		return vault.Base64Encoder{}, manifests.KubesealEncoder{Toolchain: tc}
	}
	return vault.NoopEncoder{}, manifests.NoopEncoder{}
}

func (p *product) kubeValidator() *kubectx.Validator {
	return kubectx.NewValidator(p.cfg.KubeContext, forceContext)
}

func (p *product) secretsDefsPath() string {
	return filepath.Join(p.cfg.ProductDir, "stack.env.secrets.yaml")
}

// newReactor constructs a Reactor scoped to this invocation's redirects and
// silenced set; dev/build/deploy commands each build their own since only
// `dev` ever needs non-empty redirects/silenced.
func (p *product) newReactor(redirects map[string]reactor.Redirect, silenced map[string]struct{}) (*reactor.Reactor, error) {
	r, err := reactor.New(
		p.cfg, p.tc, p.vlt, p.secretsEncoder, p.k8sEncoder, p.engine, logger,
		p.specs, p.specOrder, redirects, silenced, p.tag, p.outputDir, p.artefactDir,
	)
	if err != nil {
		return nil, rusherr.ConfigError("failed to construct reactor", "", err)
	}
	return r, nil
}

// generatePublicEnv renders stack.env.base.yaml layered with
// stack.env.<env>.yaml into every declared component's .env file. Neither
// file is required; a product that declares no public env definitions
// skips this step entirely.
func (p *product) generatePublicEnv() error {
	basePath := filepath.Join(p.cfg.ProductDir, "stack.env.base.yaml")
	base, err := loadPublicEnv(p.cfg.ProductName, p.cfg.ProductDir, basePath)
	if err != nil {
		return err
	}
	if base == nil {
		return nil
	}

	overridePath := filepath.Join(p.cfg.ProductDir, fmt.Sprintf("stack.env.%s.yaml", p.cfg.Environment))
	override, err := loadPublicEnv(p.cfg.ProductName, p.cfg.ProductDir, overridePath)
	if err != nil {
		return err
	}
	if override != nil {
		base.MergeOverride(override)
	}

	if err := base.GenerateDotenvFiles(p.stackSpecPath, secrets.NewTerminalPrompter()); err != nil {
		return rusherr.ConfigError("failed to generate component .env files", "", err)
	}
	return nil
}

func loadPublicEnv(productName, productDir, path string) (*publicenv.Definitions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, rusherr.ConfigError(fmt.Sprintf("failed to read %s", path), "", err)
	}
	defs, err := publicenv.Parse(productName, productDir, raw)
	if err != nil {
		return nil, rusherr.SpecParseError(fmt.Sprintf("failed to parse %s", path), "", err)
	}
	return defs, nil
}
