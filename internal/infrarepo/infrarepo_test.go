package infrarepo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// initBareRemote creates a bare repository to act as RemoteURL, plus a
// seed checkout used to push an initial commit so Checkout has something
// to clone.
func initBareRemote(t *testing.T) string {
	t.Helper()
	remoteDir := t.TempDir()
	_, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)

	seedDir := t.TempDir()
	repo, err := git.PlainInit(seedDir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "README.md"), []byte("seed"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("seed", &git.CommitOptions{Author: &object.Signature{Name: "seed", Email: "seed@example.com"}})
	require.NoError(t, err)

	_, err = repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{remoteDir}})
	require.NoError(t, err)
	require.NoError(t, repo.Push(&git.PushOptions{RemoteName: "origin"}))

	return remoteDir
}

func TestCheckout_ClonesRemoteIntoLocalPath(t *testing.T) {
	remoteDir := initBareRemote(t)
	localDir := filepath.Join(t.TempDir(), "checkout")

	r := New(remoteDir, localDir, "master", "")
	require.NoError(t, r.Checkout())

	_, err := os.Stat(filepath.Join(localDir, "README.md"))
	require.NoError(t, err)
}

func TestCopyManifests_CopiesTreeIntoLocalPath(t *testing.T) {
	remoteDir := initBareRemote(t)
	localDir := filepath.Join(t.TempDir(), "checkout")

	r := New(remoteDir, localDir, "master", "")
	require.NoError(t, r.Checkout())

	sourceDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(sourceDir, "100_api"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "100_api", "deployment.yaml"), []byte("kind: Deployment\n"), 0o644))

	require.NoError(t, r.CopyManifests(sourceDir))

	contents, err := os.ReadFile(filepath.Join(localDir, "100_api", "deployment.yaml"))
	require.NoError(t, err)
	require.Equal(t, "kind: Deployment\n", string(contents))
}

func TestCommitAndPush_NoopWhenWorktreeClean(t *testing.T) {
	remoteDir := initBareRemote(t)
	localDir := filepath.Join(t.TempDir(), "checkout")

	r := New(remoteDir, localDir, "master", "")
	require.NoError(t, r.Checkout())

	require.NoError(t, r.CommitAndPush("nothing changed"))
}

func TestCommitAndPush_CommitsAndPushesChanges(t *testing.T) {
	remoteDir := initBareRemote(t)
	localDir := filepath.Join(t.TempDir(), "checkout")

	r := New(remoteDir, localDir, "master", "")
	require.NoError(t, r.Checkout())

	require.NoError(t, os.WriteFile(filepath.Join(localDir, "new.yaml"), []byte("kind: ConfigMap\n"), 0o644))
	require.NoError(t, r.CommitAndPush("add new manifest"))

	other := filepath.Join(t.TempDir(), "verify")
	clone, err := git.PlainClone(other, false, &git.CloneOptions{URL: remoteDir})
	require.NoError(t, err)
	_ = clone

	contents, err := os.ReadFile(filepath.Join(other, "new.yaml"))
	require.NoError(t, err)
	require.Equal(t, "kind: ConfigMap\n", string(contents))
}
