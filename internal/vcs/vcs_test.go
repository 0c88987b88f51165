package vcs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func initRepoWithCommit(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	filePath := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(filePath, []byte("hello"), 0644))

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

func TestHeadShortHash_IsEightChars(t *testing.T) {
	dir := initRepoWithCommit(t)

	repo, err := Open(dir)
	require.NoError(t, err)

	hash, err := repo.HeadShortHash()
	require.NoError(t, err)
	require.Len(t, hash, 8)
}

func TestIsDirty_DetectsUncommittedChange(t *testing.T) {
	dir := initRepoWithCommit(t)

	repo, err := Open(dir)
	require.NoError(t, err)

	clean, err := repo.IsDirty("")
	require.NoError(t, err)
	require.False(t, clean)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed"), 0644))

	dirty, err := repo.IsDirty("")
	require.NoError(t, err)
	require.True(t, dirty)
}
