package manifests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopEncoder_LeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deployment.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: Deployment\n"), 0o644))

	require.NoError(t, NoopEncoder{}.EncodeFile(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "kind: Deployment\n", string(contents))
}

func TestLooksLikeSecret_RequiresKindAndDataBlock(t *testing.T) {
	require.True(t, looksLikeSecret([]byte("apiVersion: v1\nkind: Secret\ndata:\n  key: dmFsdWU=\n")))
	require.False(t, looksLikeSecret([]byte("apiVersion: v1\nkind: Deployment\ndata:\n  key: value\n")))
	require.False(t, looksLikeSecret([]byte("apiVersion: v1\nkind: Secret\n")))
}
