// Package clusterload loads a locally built image into whichever local
// Kubernetes cluster the active kube-context points at, so `rush deploy`
// against minikube/kind/Docker Desktop doesn't need a real registry push
// in between build and apply.
//
// Grounded on the teacher's pkg/registry (cluster-type detection by
// context-name pattern, one Loader implementation per cluster type),
// adapted to shell through toolchain.Toolchain instead of exec.Command
// directly so every probed binary still goes through one resolution path.
package clusterload

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonop-io/rush/internal/toolchain"
)

// ClusterType identifies the kind of local cluster a kube-context points
// at.
type ClusterType string

const (
	ClusterDockerDesktop ClusterType = "docker-desktop"
	ClusterMinikube      ClusterType = "minikube"
	ClusterKind          ClusterType = "kind"
	ClusterUnknown       ClusterType = "unknown"
)

// Detect infers the cluster type and (for kind) cluster name from a
// kube-context name, e.g. "kind-dev" -> (ClusterKind, "dev").
func Detect(kubeContext string) (ClusterType, string) {
	ctx := strings.ToLower(kubeContext)
	switch {
	case strings.Contains(ctx, "docker-desktop"), strings.Contains(ctx, "docker-for-desktop"):
		return ClusterDockerDesktop, ""
	case strings.Contains(ctx, "minikube"):
		return ClusterMinikube, ""
	case strings.HasPrefix(ctx, "kind-"):
		return ClusterKind, strings.TrimPrefix(ctx, "kind-")
	default:
		return ClusterUnknown, ""
	}
}

// Load pushes imageRef into the local cluster identified by kubeContext,
// using whichever mechanism that cluster type needs. Docker Desktop
// shares its daemon with its cluster so this is a no-op there.
func Load(ctx context.Context, tc *toolchain.Toolchain, kubeContext, imageRef string) error {
	clusterType, clusterName := Detect(kubeContext)

	switch clusterType {
	case ClusterDockerDesktop:
		return nil

	case ClusterMinikube:
		cmd, err := tc.Command(ctx, "minikube", "image", "load", imageRef)
		if err != nil {
			return fmt.Errorf("clusterload: %w", err)
		}
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("clusterload: minikube image load %s failed: %s: %w", imageRef, strings.TrimSpace(string(out)), err)
		}
		return nil

	case ClusterKind:
		if clusterName == "" {
			clusterName = "kind"
		}
		cmd, err := tc.Command(ctx, "kind", "load", "docker-image", imageRef, "--name", clusterName)
		if err != nil {
			return fmt.Errorf("clusterload: %w", err)
		}
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("clusterload: kind load docker-image %s --name %s failed: %s: %w", imageRef, clusterName, strings.TrimSpace(string(out)), err)
		}
		return nil

	default:
		return fmt.Errorf("clusterload: unrecognized local cluster context %q; supported: docker-desktop, minikube, kind-<name>", kubeContext)
	}
}
