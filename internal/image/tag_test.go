package image

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func initTagTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	readme := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("hello"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "rush", Email: "rush@example.com"},
	})
	require.NoError(t, err)

	return dir
}

func TestComputeTag_CleanWorktreeHasNoWipSuffix(t *testing.T) {
	dir := initTagTestRepo(t)

	tag, err := ComputeTag(dir)
	require.NoError(t, err)
	require.Len(t, tag, 8)
}

func TestComputeTag_DirtyWorktreeAppendsWipSuffix(t *testing.T) {
	dir := initTagTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed"), 0o644))

	tag, err := ComputeTag(dir)
	require.NoError(t, err)
	require.Contains(t, tag, "-wip-")
}
