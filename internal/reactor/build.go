package reactor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
)

// Build renders every component's artefacts and runs `docker build`,
// unconditionally, regardless of each image's should-rebuild flag — the
// one-shot `rush build` entry point, as opposed to the dev loop's
// selective rebuild.
func (r *Reactor) Build(ctx context.Context, out io.Writer) error {
	for _, img := range r.images {
		bc, err := r.buildContextFor(ctx, img)
		if err != nil {
			return err
		}
		if err := img.Build(ctx, out, bc, r.Tag, filepath.Join(r.ArtefactDir, img.ComponentName)); err != nil {
			return fmt.Errorf("reactor: build %s: %w", img.ComponentName, err)
		}
	}
	return nil
}

// Push pushes every component whose build type needs it.
func (r *Reactor) Push(ctx context.Context, out io.Writer) error {
	for _, img := range r.images {
		if err := img.Push(ctx, out, r.Config.DockerRegistry); err != nil {
			return fmt.Errorf("reactor: push %s: %w", img.ComponentName, err)
		}
	}
	return nil
}

// BuildAndPush runs Build followed by Push.
func (r *Reactor) BuildAndPush(ctx context.Context, out io.Writer) error {
	if err := r.Build(ctx, out); err != nil {
		return err
	}
	return r.Push(ctx, out)
}

// BuildManifests renders every non-installation component's Kubernetes
// manifests into ClusterManifests.OutputDirectory.
func (r *Reactor) BuildManifests(ctx context.Context) error {
	contexts, err := r.buildContexts(ctx)
	if err != nil {
		return err
	}
	return r.ClusterManifests.BuildManifests(contexts)
}

// Apply applies every rendered non-installation manifest.
func (r *Reactor) Apply(ctx context.Context, out io.Writer) error {
	return r.ClusterManifests.Apply(ctx, out)
}

// Unapply deletes every rendered non-installation manifest.
func (r *Reactor) Unapply(ctx context.Context, out io.Writer) error {
	return r.ClusterManifests.Unapply(ctx, out)
}

// InstallManifests creates every KubernetesInstallation component's
// namespace and applies its manifests scoped to it.
func (r *Reactor) InstallManifests(ctx context.Context, out io.Writer) error {
	contexts, err := r.buildContexts(ctx)
	if err != nil {
		return err
	}
	return r.ClusterManifests.InstallManifests(ctx, out, contexts)
}

// UninstallManifests tears down every KubernetesInstallation component's
// manifests and namespace.
func (r *Reactor) UninstallManifests(ctx context.Context, out io.Writer) error {
	return r.ClusterManifests.UninstallManifests(ctx, out)
}

// Deploy is build_and_push + build_manifests + apply.
func (r *Reactor) Deploy(ctx context.Context, out io.Writer) error {
	if err := r.BuildAndPush(ctx, out); err != nil {
		return err
	}
	if err := r.BuildManifests(ctx); err != nil {
		return err
	}
	return r.Apply(ctx, out)
}

// Rollout is build_and_push + build_manifests + copy-to-infra-repo +
// commit + push, for GitOps-style deploys where a cluster-side controller
// watches InfrastructureRepo rather than accepting a direct `kubectl apply`.
func (r *Reactor) Rollout(ctx context.Context, out io.Writer, commitMessage string) error {
	if r.InfrastructureRepo == nil {
		return fmt.Errorf("reactor: rollout requires Config.InfrastructureRepository to be set")
	}
	if err := r.BuildAndPush(ctx, out); err != nil {
		return err
	}
	if err := r.BuildManifests(ctx); err != nil {
		return err
	}
	if err := r.InfrastructureRepo.Checkout(); err != nil {
		return fmt.Errorf("reactor: rollout: %w", err)
	}
	if err := r.InfrastructureRepo.CopyManifests(r.ClusterManifests.OutputDirectory); err != nil {
		return fmt.Errorf("reactor: rollout: %w", err)
	}
	if commitMessage == "" {
		commitMessage = fmt.Sprintf("rollout %s", r.Tag)
	}
	return r.InfrastructureRepo.CommitAndPush(commitMessage)
}

// Clean removes every component's container (running or stopped).
func (r *Reactor) Clean(ctx context.Context, out io.Writer) error {
	for _, img := range r.images {
		if err := img.Clean(ctx, out); err != nil {
			return fmt.Errorf("reactor: clean %s: %w", img.ComponentName, err)
		}
	}
	return nil
}

// KillAndClean kills then removes every component's container.
func (r *Reactor) KillAndClean(ctx context.Context, out io.Writer) error {
	for _, img := range r.images {
		if err := img.KillAndClean(ctx, out); err != nil {
			return fmt.Errorf("reactor: kill_and_clean %s: %w", img.ComponentName, err)
		}
	}
	return nil
}
