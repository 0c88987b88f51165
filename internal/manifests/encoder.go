// Package manifests renders each component's Kubernetes manifest directory
// against a BuildContext and shells out to kubectl to apply/unapply the
// result, generalizing the teacher's pkg/deployer/render.go single-pass
// template-then-marshal pipeline across arbitrary per-component k8s
// directories instead of a fixed Deployment+Service pair.
//
// Grounded on original_source/rush/src/cluster/k8s.rs and
// cluster/k8_encoder.rs.
package manifests

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wonop-io/rush/internal/toolchain"
)

// K8sEncoder post-processes a rendered manifest file in place before it is
// applied. Noop leaves the file untouched; Kubeseal replaces any Secret's
// plaintext data with a SealedSecret payload.
type K8sEncoder interface {
	EncodeFile(path string) error
}

// NoopEncoder is the identity encoder, used when no secret sealing tool is
// configured.
type NoopEncoder struct{}

func (NoopEncoder) EncodeFile(string) error { return nil }

// KubesealEncoder seals any rendered manifest that looks like a Kubernetes
// Secret (contains both a `kind: Secret` line and a `data:` block) by
// shelling `kubeseal`, writing its output to a temp file and renaming it
// over the original. Manifests that aren't Secrets are left untouched.
type KubesealEncoder struct {
	Toolchain *toolchain.Toolchain
}

func (e KubesealEncoder) EncodeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("manifests: failed to read %s: %w", path, err)
	}
	if !looksLikeSecret(raw) {
		return nil
	}

	tmp := path + ".sealed.tmp"
	cmd, err := e.Toolchain.Command(context.Background(), "kubeseal", "--format", "yaml", "-w", tmp, "-f", path)
	if err != nil {
		return fmt.Errorf("manifests: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("manifests: kubeseal failed on %s: %w: %s", path, err, stderr.String())
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("manifests: failed to replace %s with sealed output: %w", path, err)
	}
	return nil
}

// looksLikeSecret matches the original's textual check rather than a full
// YAML parse: a rendered manifest is treated as a Secret when it declares
// `kind: Secret` and carries a `data:` block.
func looksLikeSecret(raw []byte) bool {
	text := string(raw)
	hasKind := false
	hasData := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "kind: Secret" {
			hasKind = true
		}
		if trimmed == "data:" {
			hasData = true
		}
	}
	return hasKind && hasData
}
