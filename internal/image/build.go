package image

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wonop-io/rush/internal/buildctx"
	"github.com/wonop-io/rush/internal/spec"
	"github.com/wonop-io/rush/internal/toolchain"
)

// writer is the label-prefixed sink every streamed command writes to.
type writer = io.Writer

// chdirWithin wraps toolchain.Chdir, returning a no-arg restore closure so
// callers can `defer restore()` without checking a second error.
func chdirWithin(dir string) (func(), error) {
	guard, err := toolchain.Chdir(dir)
	if err != nil {
		return nil, err
	}
	return func() { _ = guard.Release() }, nil
}

// Build renders this component's artefacts and precompile script, then
// invokes `docker build`, tagging the result with the supplied tag. It is a
// no-op for build types with no image phase (PureDockerImage,
// PureKubernetes, KubernetesInstallation).
func (img *Image) Build(ctx context.Context, out writer, bCtx buildctx.BuildContext, tag, artefactOutputDir string) error {
	dockerfile, contextDir, ok := dockerfileAndContext(img.Spec.BuildType)
	if !ok {
		return nil
	}

	docker, err := img.Toolchain.Resolve("docker")
	if err != nil {
		return fmt.Errorf("image %s: %w", img.ComponentName, err)
	}

	guard := img.CreateCrossCompileGuard()
	defer guard.Release()

	if len(img.Spec.Artefacts) > 0 {
		if err := os.MkdirAll(artefactOutputDir, 0o755); err != nil {
			return fmt.Errorf("image %s: failed to create artefact output directory: %w", img.ComponentName, err)
		}
		for name, templatePath := range img.Spec.Artefacts {
			if err := img.renderArtefact(bCtx, templatePath, filepath.Join(artefactOutputDir, name)); err != nil {
				return fmt.Errorf("image %s: artefact %s: %w", img.ComponentName, name, err)
			}
		}
	}

	if script, has, err := img.BuildScript(bCtx); err != nil {
		return err
	} else if has {
		if err := runCommand(ctx, img.ComponentName, "sh", []string{"-c", script}, out); err != nil {
			return fmt.Errorf("image %s: precompile script failed: %w", img.ComponentName, err)
		}
	}

	dockerfileDir := filepath.Dir(dockerfile)
	dockerfileName := filepath.Base(dockerfile)
	restore, err := chdirWithin(dockerfileDir)
	if err != nil {
		return err
	}
	defer restore()

	img.SetTag(tag)
	taggedName, err := img.TaggedImageName()
	if err != nil {
		return err
	}

	args := []string{"build", "-t", taggedName, "-f", dockerfileName, contextDir}
	if err := runCommand(ctx, img.ComponentName, docker, args, out); err != nil {
		return fmt.Errorf("image %s: docker build failed: %w", img.ComponentName, err)
	}
	return nil
}

// renderArtefact renders a template file at templatePath against ctx and
// writes the result to destPath.
func (img *Image) renderArtefact(ctx buildctx.BuildContext, templatePath, destPath string) error {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read artefact template %s: %w", templatePath, err)
	}
	rendered, err := img.Engine.Render(templatePath, string(raw), ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte(rendered), 0o644)
}

// Push tags the image with the docker registry prefix and pushes it.
// Components with no `k8s` directory, or built as PureKubernetes /
// KubernetesInstallation, have nothing to push.
func (img *Image) Push(ctx context.Context, out writer, dockerRegistry string) error {
	if !needsPush(img.Spec) {
		return nil
	}

	docker, err := img.Toolchain.Resolve("docker")
	if err != nil {
		return fmt.Errorf("image %s: %w", img.ComponentName, err)
	}

	tagged, err := img.TaggedImageName()
	if err != nil {
		return err
	}
	registryTag := fmt.Sprintf("%s/%s", dockerRegistry, tagged)

	if err := runCommand(ctx, img.ComponentName, docker, []string{"tag", tagged, registryTag}, out); err != nil {
		return fmt.Errorf("image %s: docker tag failed: %w", img.ComponentName, err)
	}
	if err := runCommand(ctx, img.ComponentName, docker, []string{"push", registryTag}, out); err != nil {
		return fmt.Errorf("image %s: docker push failed: %w", img.ComponentName, err)
	}
	return nil
}

// BuildAndPush runs Build followed by Push.
func (img *Image) BuildAndPush(ctx context.Context, out writer, bCtx buildctx.BuildContext, tag, artefactOutputDir, dockerRegistry string) error {
	if err := img.Build(ctx, out, bCtx, tag, artefactOutputDir); err != nil {
		return err
	}
	return img.Push(ctx, out, dockerRegistry)
}

// needsPush mirrors the original's push guard: components with no `k8s`
// directory, or built as PureKubernetes/KubernetesInstallation, have
// nothing a cluster would ever pull.
func needsPush(s *spec.ComponentBuildSpec) bool {
	if s.K8sDir == "" {
		return false
	}
	switch s.BuildType.(type) {
	case spec.PureKubernetes, spec.KubernetesInstallation:
		return false
	default:
		return true
	}
}
