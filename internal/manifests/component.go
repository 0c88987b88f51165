package manifests

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wonop-io/rush/internal/buildctx"
	"github.com/wonop-io/rush/internal/spec"
	"github.com/wonop-io/rush/internal/templateengine"
)

// ComponentManifests is the manifest set discovered under one component's
// k8s directory: every top-level .yaml file, each rendered into its own
// output path.
type ComponentManifests struct {
	Name            string
	Spec            *spec.ComponentBuildSpec
	IsInstallation  bool
	Namespace       string
	Manifests       []*Artefact
	InputDirectory  string
	OutputDirectory string
}

// NewComponentManifests lists InputDirectory for top-level .yaml files and
// pairs each with an output path under OutputDirectory, sharing encoder and
// engine across every file.
func NewComponentManifests(name string, s *spec.ComponentBuildSpec, inputDirectory, outputDirectory string, encoder K8sEncoder, engine *templateengine.Engine) (*ComponentManifests, error) {
	isInstallation, namespace := false, "default"
	if ki, ok := s.BuildType.(spec.KubernetesInstallation); ok {
		isInstallation, namespace = true, ki.Namespace
	}

	cm := &ComponentManifests{
		Name:            name,
		Spec:            s,
		IsInstallation:  isInstallation,
		Namespace:       namespace,
		InputDirectory:  inputDirectory,
		OutputDirectory: outputDirectory,
	}

	entries, err := os.ReadDir(inputDirectory)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, fileName := range names {
		cm.Manifests = append(cm.Manifests, &Artefact{
			InputPath:  filepath.Join(inputDirectory, fileName),
			OutputPath: filepath.Join(outputDirectory, fileName),
			Encoder:    encoder,
			Engine:     engine,
		})
	}
	return cm, nil
}

// Render writes every manifest in this component to OutputDirectory.
func (cm *ComponentManifests) Render(ctx buildctx.BuildContext) error {
	for _, manifest := range cm.Manifests {
		if err := manifest.RenderToFile(ctx); err != nil {
			return err
		}
	}
	return nil
}

// UpdateEncoder swaps the encoder used by every manifest in this component,
// e.g. when the k8s-encoder selector changes between Noop and Kubeseal.
func (cm *ComponentManifests) UpdateEncoder(encoder K8sEncoder) {
	for _, manifest := range cm.Manifests {
		manifest.Encoder = encoder
	}
}
