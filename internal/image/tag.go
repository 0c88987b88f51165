package image

import (
	"fmt"

	"github.com/wonop-io/rush/internal/vcs"
)

// ComputeTag derives this reactor run's shared tag from the product
// repository's HEAD short hash, appending a "-wip-<digest>" suffix when the
// worktree has uncommitted changes. Every component image in one reactor
// run shares this tag; only PureDockerImage components skip it entirely,
// since they carry their own pre-existing reference.
func ComputeTag(productDir string) (string, error) {
	repo, err := vcs.Open(productDir)
	if err != nil {
		return "", fmt.Errorf("image: failed to open git repository at %s: %w", productDir, err)
	}

	hash, err := repo.HeadShortHash()
	if err != nil {
		return "", fmt.Errorf("image: failed to resolve HEAD: %w", err)
	}

	dirty, err := repo.IsDirty("")
	if err != nil {
		return "", fmt.Errorf("image: failed to check worktree status: %w", err)
	}
	if !dirty {
		return hash, nil
	}

	digest, err := repo.DirtyDigest()
	if err != nil {
		return "", fmt.Errorf("image: failed to compute dirty digest: %w", err)
	}
	return fmt.Sprintf("%s-wip-%s", hash, digest), nil
}
