package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonop-io/rush/internal/config"
	"github.com/wonop-io/rush/internal/manifests"
	"github.com/wonop-io/rush/internal/toolchain"
	"github.com/wonop-io/rush/internal/vault"
)

func TestNewVault_DefaultsToDotenv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stack.spec.yaml"), []byte("{}"), 0644))

	v, err := newVault(&config.Config{ProductDir: dir}, filepath.Join(dir, "stack.spec.yaml"))
	require.NoError(t, err)
	require.IsType(t, &vault.Dotenv{}, v)
}

func TestNewVault_JSONFile(t *testing.T) {
	dir := t.TempDir()
	v, err := newVault(&config.Config{ProductDir: dir, VaultBackend: "jsonfile"}, "")
	require.NoError(t, err)
	require.IsType(t, &vault.JSONFile{}, v)
}

func TestNewVault_OnePassword(t *testing.T) {
	v, err := newVault(&config.Config{VaultBackend: "onepassword"}, "")
	require.NoError(t, err)
	require.IsType(t, &vault.OnePassword{}, v)
}

func TestNewVault_UnknownBackendFails(t *testing.T) {
	_, err := newVault(&config.Config{VaultBackend: "s3"}, "")
	require.Error(t, err)
}

func TestNewEncoders_NoopByDefault(t *testing.T) {
	secretsEncoder, k8sEncoder := newEncoders(&config.Config{}, &toolchain.Toolchain{})
	require.IsType(t, vault.NoopEncoder{}, secretsEncoder)
	require.IsType(t, manifests.NoopEncoder{}, k8sEncoder)
}

func TestNewEncoders_KubesealPairsWithBase64(t *testing.T) {
	secretsEncoder, k8sEncoder := newEncoders(&config.Config{K8sEncoder: "kubeseal"}, &toolchain.Toolchain{})
	require.IsType(t, vault.Base64Encoder{}, secretsEncoder)
	require.IsType(t, manifests.KubesealEncoder{}, k8sEncoder)
}

func TestSecretsDefsPath(t *testing.T) {
	p := &product{cfg: &config.Config{ProductDir: "/tmp/myproduct"}}
	require.Equal(t, "/tmp/myproduct/stack.env.secrets.yaml", p.secretsDefsPath())
}
