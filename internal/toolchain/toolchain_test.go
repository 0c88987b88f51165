package toolchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossCompileGuard_RestoresPreviousValue(t *testing.T) {
	os.Setenv("CROSS_CONTAINER_OPTS", "--platform linux/arm64")
	defer os.Unsetenv("CROSS_CONTAINER_OPTS")

	g := AcquireCrossCompileGuard("linux/amd64")
	assert.Equal(t, "--platform linux/amd64", os.Getenv("CROSS_CONTAINER_OPTS"))
	assert.Equal(t, "linux/amd64", os.Getenv("DOCKER_DEFAULT_PLATFORM"))

	g.Release()
	assert.Equal(t, "--platform linux/arm64", os.Getenv("CROSS_CONTAINER_OPTS"))
	_, stillSet := os.LookupEnv("DOCKER_DEFAULT_PLATFORM")
	assert.False(t, stillSet)
}

func TestCrossCompileGuard_RemovesWhenNotPreviouslySet(t *testing.T) {
	os.Unsetenv("CROSS_CONTAINER_OPTS")
	os.Unsetenv("DOCKER_DEFAULT_PLATFORM")

	g := AcquireCrossCompileGuard("linux/arm64")
	g.Release()

	_, ok1 := os.LookupEnv("CROSS_CONTAINER_OPTS")
	_, ok2 := os.LookupEnv("DOCKER_DEFAULT_PLATFORM")
	assert.False(t, ok1)
	assert.False(t, ok2)
}

func TestChdir_RestoresWorkingDirectory(t *testing.T) {
	original, err := os.Getwd()
	require.NoError(t, err)

	tmp := t.TempDir()
	guard, err := Chdir(tmp)
	require.NoError(t, err)

	cur, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, resolveSymlink(t, tmp), resolveSymlink(t, cur))

	require.NoError(t, guard.Release())
	cur2, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, original, cur2)
}

func resolveSymlink(t *testing.T, p string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(p)
	require.NoError(t, err)
	return resolved
}

func TestResolve_MissingBinaryReturnsHelpfulError(t *testing.T) {
	tc := &Toolchain{binaries: map[string]string{}}
	_, err := tc.Resolve("kubeseal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kubeseal")
}
