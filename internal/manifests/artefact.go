package manifests

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonop-io/rush/internal/buildctx"
	"github.com/wonop-io/rush/internal/templateengine"
)

// Artefact is one rendered-template-to-file pairing: a manifest YAML file
// under a component's input k8s directory and where its rendered,
// (possibly sealed) counterpart is written.
type Artefact struct {
	InputPath  string
	OutputPath string

	Encoder K8sEncoder
	Engine  *templateengine.Engine
}

// Render executes the manifest template against ctx without touching disk.
func (a *Artefact) Render(ctx buildctx.BuildContext) (string, error) {
	raw, err := os.ReadFile(a.InputPath)
	if err != nil {
		return "", fmt.Errorf("manifests: failed to read %s: %w", a.InputPath, err)
	}
	return a.Engine.Render(a.InputPath, string(raw), ctx)
}

// RenderToFile renders the manifest, writes it to OutputPath, and then runs
// it through the encoder. Encoding happens after the write because the
// Kubeseal encoder operates on the file in place.
func (a *Artefact) RenderToFile(ctx buildctx.BuildContext) error {
	rendered, err := a.Render(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(a.OutputPath), 0o755); err != nil {
		return fmt.Errorf("manifests: failed to create output directory for %s: %w", a.OutputPath, err)
	}
	if err := os.WriteFile(a.OutputPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("manifests: failed to write %s: %w", a.OutputPath, err)
	}

	if err := a.Encoder.EncodeFile(a.OutputPath); err != nil {
		return fmt.Errorf("manifests: failed to encode %s: %w", a.OutputPath, err)
	}
	return nil
}
