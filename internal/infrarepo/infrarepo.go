// Package infrarepo wraps the GitOps-style infrastructure repository that
// `rollout` pushes rendered manifests into: a separate git remote, checked
// out locally, that a cluster-side GitOps controller watches.
//
// The original shells `git clone`/`git add`/`git commit`/`git push`; here
// checkout/commit/push are done in-process via go-git/v5, the same library
// [[internal/vcs]] already uses for read-only repository introspection, so
// one dependency now serves both the read and write sides of rush's git
// usage instead of adding a second collaborator-process path for writes.
package infrarepo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// InfrastructureRepo checks out remoteURL into localPath, accepts copied-in
// manifest trees, and commits/pushes them back. Used by `rollout` once per
// run, so it doesn't need to be safe for concurrent use.
type InfrastructureRepo struct {
	RemoteURL string
	LocalPath string
	Branch    string

	// AuthToken, when set, is used as the HTTP basic-auth password against
	// an "x-access-token" username, matching how the teacher's CI
	// workflows authenticate git pushes against a token-gated remote.
	AuthToken string

	repo *git.Repository
}

// New describes an infrastructure repository without touching disk; call
// Checkout to materialize it.
func New(remoteURL, localPath, branch, authToken string) *InfrastructureRepo {
	if branch == "" {
		branch = "main"
	}
	return &InfrastructureRepo{RemoteURL: remoteURL, LocalPath: localPath, Branch: branch, AuthToken: authToken}
}

// Checkout clones RemoteURL into LocalPath if it isn't already a checkout,
// otherwise opens the existing one and pulls the latest Branch.
func (r *InfrastructureRepo) Checkout() error {
	if existing, err := git.PlainOpen(r.LocalPath); err == nil {
		r.repo = existing
		return r.pullLatest()
	}

	repo, err := git.PlainClone(r.LocalPath, false, &git.CloneOptions{
		URL:           r.RemoteURL,
		Auth:          r.auth(),
		ReferenceName: branchRef(r.Branch),
		SingleBranch:  true,
	})
	if err != nil {
		return fmt.Errorf("infrarepo: failed to clone %s: %w", r.RemoteURL, err)
	}
	r.repo = repo
	return nil
}

func (r *InfrastructureRepo) pullLatest() error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("infrarepo: failed to open worktree: %w", err)
	}
	err = wt.Pull(&git.PullOptions{Auth: r.auth(), ReferenceName: branchRef(r.Branch), SingleBranch: true})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("infrarepo: failed to pull %s: %w", r.Branch, err)
	}
	return nil
}

// CopyManifests recursively copies every file under sourceDir into
// LocalPath, overwriting what's there. It mirrors the build output tree
// ClusterManifests just rendered into the infrastructure checkout.
func (r *InfrastructureRepo) CopyManifests(sourceDir string) error {
	return filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(r.LocalPath, rel)

		if info.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		return copyFile(path, dest, info.Mode())
	})
}

func copyFile(src, dest string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// CommitAndPush stages every change in the checkout, commits it with
// message, and pushes Branch upstream. A no-op (returns nil) when there is
// nothing to commit, since a rollout that didn't change any manifest
// shouldn't fail.
func (r *InfrastructureRepo) CommitAndPush(message string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("infrarepo: failed to open worktree: %w", err)
	}
	if _, err := wt.Add("."); err != nil {
		return fmt.Errorf("infrarepo: failed to stage changes: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("infrarepo: failed to compute status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "rush", Email: "rush@wonop.com", When: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("infrarepo: failed to commit: %w", err)
	}

	if err := r.repo.Push(&git.PushOptions{Auth: r.auth()}); err != nil {
		return fmt.Errorf("infrarepo: failed to push: %w", err)
	}
	return nil
}

func (r *InfrastructureRepo) auth() *http.BasicAuth {
	if r.AuthToken == "" {
		return nil
	}
	return &http.BasicAuth{Username: "x-access-token", Password: r.AuthToken}
}

func branchRef(branch string) plumbing.ReferenceName {
	return plumbing.NewBranchReferenceName(branch)
}
