// Package vcs reads the version-control state an Image's tag is rooted in:
// the product directory's HEAD short-hash, and whether a given build
// context has uncommitted changes.
//
// The original shells `git rev-parse`/`git status`; here the read is done
// in-process via go-git/v5 (grounded on ncrmro-catalyst/operator/go.mod),
// since unlike docker/kubectl/kubeseal this is read-only introspection of
// a repository rush already has on disk, not a call to a genuinely
// external system.
package vcs

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repo wraps a product directory's git repository.
type Repo struct {
	repo *git.Repository
	root string
}

// Open opens the git repository rooted at or above productDir.
func Open(productDir string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(productDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to open repository at %s: %w", productDir, err)
	}
	return &Repo{repo: repo, root: productDir}, nil
}

// HeadShortHash returns the first 8 hex characters of HEAD.
func (r *Repo) HeadShortHash() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("vcs: failed to resolve HEAD: %w", err)
	}
	hash := head.Hash().String()
	if len(hash) < 8 {
		return hash, nil
	}
	return hash[:8], nil
}

// IsDirty reports whether the worktree has uncommitted changes under
// contextPath (relative to the repository root). An empty contextPath
// checks the whole worktree.
func (r *Repo) IsDirty(contextPath string) (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("vcs: failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("vcs: failed to compute status: %w", err)
	}
	if contextPath == "" || contextPath == "." {
		return !status.IsClean(), nil
	}
	for file, fileStatus := range status {
		if fileStatus.Worktree == git.Unmodified && fileStatus.Staging == git.Unmodified {
			continue
		}
		if withinContext(file, contextPath) {
			return true, nil
		}
	}
	return false, nil
}

func withinContext(file, contextPath string) bool {
	n := len(contextPath)
	return len(file) >= n && file[:n] == contextPath
}

// DirtyDigest returns a short, stable marker derived from the dirty diff,
// used as the WIP-suffix component of a tag (e.g. "-wip-a1b2c3d4").
func (r *Repo) DirtyDigest() (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", err
	}
	status, err := wt.Status()
	if err != nil {
		return "", err
	}
	h := plumbing.ComputeHash(plumbing.BlobObject, []byte(status.String()))
	s := h.String()
	if len(s) < 8 {
		return s, nil
	}
	return s[:8], nil
}
