package manifests

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wonop-io/rush/internal/toolchain"
)

// Validator schema-checks a rendered manifest tree against a Kubernetes
// API version, shelling one of the two external validators the original
// supported.
//
// Grounded on original_source/rush/src/cluster/validation.rs's
// K8Validation trait and its Kubeconform/Kubeval implementations.
type Validator interface {
	Validate(ctx context.Context, tc *toolchain.Toolchain, path, version string) error
}

// KubeconformValidator shells `kubeconform -kubernetes-version <v> -strict
// <path>`.
type KubeconformValidator struct{}

func (KubeconformValidator) Validate(ctx context.Context, tc *toolchain.Toolchain, path, version string) error {
	return runValidator(ctx, tc, "kubeconform", []string{"-kubernetes-version", version, "-strict", path})
}

// KubevalValidator shells `kubeval --strict --kubernetes-version <v>
// <path>`.
type KubevalValidator struct{}

func (KubevalValidator) Validate(ctx context.Context, tc *toolchain.Toolchain, path, version string) error {
	return runValidator(ctx, tc, "kubeval", []string{"--strict", "--kubernetes-version", version, path})
}

func runValidator(ctx context.Context, tc *toolchain.Toolchain, name string, args []string) error {
	cmd, err := tc.Command(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("manifests: %w", err)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("manifests: %s validation failed: %w\nstderr:\n%s\nstdout:\n%s", name, err, stderr.String(), stdout.String())
	}
	return nil
}

// NewValidator resolves a Config.K8sValidator string ("kubeconform" or
// "kubeval") to a concrete Validator.
func NewValidator(name string) (Validator, error) {
	switch name {
	case "", "kubeconform":
		return KubeconformValidator{}, nil
	case "kubeval":
		return KubevalValidator{}, nil
	default:
		return nil, fmt.Errorf("manifests: unknown k8s validator %q", name)
	}
}

var (
	_ Validator = KubeconformValidator{}
	_ Validator = KubevalValidator{}
)
