package manifests

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wonop-io/rush/internal/buildctx"
	"github.com/wonop-io/rush/internal/spec"
	"github.com/wonop-io/rush/internal/templateengine"
	"github.com/wonop-io/rush/internal/toolchain"
)

// ClusterManifests owns every component's manifest set for one product and
// drives build_manifests/apply/unapply/install_manifests/uninstall_manifests,
// generalizing the teacher's single-pass render.go across an arbitrary
// number of components and arbitrary manifest files per component.
type ClusterManifests struct {
	OutputDirectory string
	Toolchain       *toolchain.Toolchain
	Encoder         K8sEncoder
	Engine          *templateengine.Engine

	components []*ComponentManifests
}

// New creates an empty ClusterManifests rooted at outputDirectory.
func New(outputDirectory string, tc *toolchain.Toolchain, encoder K8sEncoder, engine *templateengine.Engine) *ClusterManifests {
	return &ClusterManifests{
		OutputDirectory: outputDirectory,
		Toolchain:       tc,
		Encoder:         encoder,
		Engine:          engine,
	}
}

// AddComponent registers a component's k8s directory. Per-component output
// is namespaced by "<priority>_<name>", and the whole output tree is applied
// by a single `kubectl apply -R`, which visits those directories in lexical
// name order.
func (c *ClusterManifests) AddComponent(name string, s *spec.ComponentBuildSpec, inputDirectory string) error {
	dirName := fmt.Sprintf("%d_%s", s.Priority, name)
	outputDirectory := filepath.Join(c.OutputDirectory, dirName)

	cm, err := NewComponentManifests(name, s, inputDirectory, outputDirectory, c.Encoder, c.Engine)
	if err != nil {
		return fmt.Errorf("manifests: failed to register component %s: %w", name, err)
	}
	c.components = append(c.components, cm)
	return nil
}

// Components returns every registered component, in registration order.
func (c *ClusterManifests) Components() []*ComponentManifests {
	return c.components
}

// UpdateEncoder swaps the encoder used cluster-wide and on every already
// registered component.
func (c *ClusterManifests) UpdateEncoder(encoder K8sEncoder) {
	c.Encoder = encoder
	for _, cm := range c.components {
		cm.UpdateEncoder(encoder)
	}
}

// nonInstallation returns every registered component that isn't a
// KubernetesInstallation, sorted by declared priority then name so render
// order is deterministic.
func (c *ClusterManifests) nonInstallation() []*ComponentManifests {
	return c.filterByInstallation(false)
}

func (c *ClusterManifests) installation() []*ComponentManifests {
	return c.filterByInstallation(true)
}

func (c *ClusterManifests) filterByInstallation(installation bool) []*ComponentManifests {
	var out []*ComponentManifests
	for _, cm := range c.components {
		if cm.IsInstallation == installation {
			out = append(out, cm)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Spec.Priority != out[j].Spec.Priority {
			return out[i].Spec.Priority < out[j].Spec.Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// BuildManifests clears OutputDirectory and renders every non-installation
// component's manifests into it. contexts supplies the BuildContext for
// each component by name.
func (c *ClusterManifests) BuildManifests(contexts map[string]buildctx.BuildContext) error {
	if err := os.RemoveAll(c.OutputDirectory); err != nil {
		return fmt.Errorf("manifests: failed to clear %s: %w", c.OutputDirectory, err)
	}
	if err := os.MkdirAll(c.OutputDirectory, 0o755); err != nil {
		return fmt.Errorf("manifests: failed to create %s: %w", c.OutputDirectory, err)
	}

	for _, cm := range c.nonInstallation() {
		ctx, ok := contexts[cm.Name]
		if !ok {
			return fmt.Errorf("manifests: no build context supplied for component %s", cm.Name)
		}
		if err := cm.Render(ctx); err != nil {
			return fmt.Errorf("manifests: failed to render component %s: %w", cm.Name, err)
		}
	}
	return nil
}

// Apply shells a single recursive `kubectl apply -R -f` over the whole
// rendered output tree, covering every non-installation component in one
// call.
func (c *ClusterManifests) Apply(ctx context.Context, out io.Writer) error {
	kubectl, err := c.Toolchain.Resolve("kubectl")
	if err != nil {
		return fmt.Errorf("manifests: %w", err)
	}
	return c.runKubectl(ctx, out, kubectl, []string{"apply", "-R", "-f", c.OutputDirectory})
}

// Unapply deletes every rendered manifest file individually, in the
// glob-reversed order `Apply` applied them in, so dependent resources tear
// down before what they depend on.
func (c *ClusterManifests) Unapply(ctx context.Context, out io.Writer) error {
	kubectl, err := c.Toolchain.Resolve("kubectl")
	if err != nil {
		return fmt.Errorf("manifests: %w", err)
	}

	files := c.renderedFiles(c.nonInstallation())
	sort.Strings(files)
	for i := len(files) - 1; i >= 0; i-- {
		if err := c.runKubectl(ctx, out, kubectl, []string{"delete", "-f", files[i]}); err != nil {
			return err
		}
	}
	return nil
}

// InstallManifests creates each installation component's declared
// namespace (idempotently) and applies its manifests scoped to it.
func (c *ClusterManifests) InstallManifests(ctx context.Context, out io.Writer, contexts map[string]buildctx.BuildContext) error {
	kubectl, err := c.Toolchain.Resolve("kubectl")
	if err != nil {
		return fmt.Errorf("manifests: %w", err)
	}

	for _, cm := range c.installation() {
		buildCtx, ok := contexts[cm.Name]
		if !ok {
			return fmt.Errorf("manifests: no build context supplied for component %s", cm.Name)
		}
		if err := cm.Render(buildCtx); err != nil {
			return fmt.Errorf("manifests: failed to render component %s: %w", cm.Name, err)
		}

		if err := c.runKubectlIgnoringExists(ctx, out, kubectl, []string{"create", "namespace", cm.Namespace}); err != nil {
			return err
		}

		for _, manifest := range cm.Manifests {
			args := []string{"apply", "-n", cm.Namespace, "-f", manifest.OutputPath}
			if err := c.runKubectl(ctx, out, kubectl, args); err != nil {
				return err
			}
		}
	}
	return nil
}

// UninstallManifests deletes each installation component's manifests (in
// reverse file order) and then its namespace.
func (c *ClusterManifests) UninstallManifests(ctx context.Context, out io.Writer) error {
	kubectl, err := c.Toolchain.Resolve("kubectl")
	if err != nil {
		return fmt.Errorf("manifests: %w", err)
	}

	for _, cm := range c.installation() {
		for i := len(cm.Manifests) - 1; i >= 0; i-- {
			args := []string{"delete", "-n", cm.Namespace, "-f", cm.Manifests[i].OutputPath}
			if err := c.runKubectl(ctx, out, kubectl, args); err != nil {
				return err
			}
		}
		if err := c.runKubectl(ctx, out, kubectl, []string{"delete", "namespace", cm.Namespace}); err != nil {
			return err
		}
	}
	return nil
}

// renderedFiles flattens every manifest output path across components, in
// the order the components are given.
func (c *ClusterManifests) renderedFiles(components []*ComponentManifests) []string {
	var files []string
	for _, cm := range components {
		for _, manifest := range cm.Manifests {
			files = append(files, manifest.OutputPath)
		}
	}
	return files
}

func (c *ClusterManifests) runKubectl(ctx context.Context, out io.Writer, kubectl string, args []string) error {
	cmd, err := c.Toolchain.Command(ctx, "kubectl", args...)
	if err != nil {
		return fmt.Errorf("manifests: %w", err)
	}
	cmd.Stdout = out
	var stderr bytes.Buffer
	cmd.Stderr = io.MultiWriter(out, &stderr)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("manifests: %s %v failed: %w: %s", kubectl, args, err, stderr.String())
	}
	return nil
}

// runKubectlIgnoringExists is used for namespace creation, which is
// naturally idempotent: a rerun against an already-installed component
// shouldn't fail because its namespace already exists.
func (c *ClusterManifests) runKubectlIgnoringExists(ctx context.Context, out io.Writer, kubectl string, args []string) error {
	cmd, err := c.Toolchain.Command(ctx, "kubectl", args...)
	if err != nil {
		return fmt.Errorf("manifests: %w", err)
	}
	cmd.Stdout = out
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if bytesContainsAlreadyExists(stderr.Bytes()) {
			return nil
		}
		return fmt.Errorf("manifests: %s %v failed: %w: %s", kubectl, args, err, stderr.String())
	}
	return nil
}

func bytesContainsAlreadyExists(b []byte) bool {
	return bytes.Contains(b, []byte("AlreadyExists")) || bytes.Contains(b, []byte("already exists"))
}
