package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDotenv_SetThenGetRoundTrips(t *testing.T) {
	productDir := t.TempDir()
	componentDir := filepath.Join(productDir, "api")
	require.NoError(t, os.MkdirAll(componentDir, 0755))

	stackSpec := "api:\n  location: api\n  build_type: RustBinary\n"
	stackSpecPath := filepath.Join(productDir, "stack.spec.yaml")
	require.NoError(t, os.WriteFile(stackSpecPath, []byte(stackSpec), 0644))

	v, err := NewDotenv(productDir, stackSpecPath)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, v.Set(ctx, "demo", "api", "local", map[string]string{"TOKEN": "abc123"}))

	got, err := v.Get(ctx, "demo", "api", "local")
	require.NoError(t, err)
	require.Equal(t, "abc123", got["TOKEN"])
}

func TestDotenv_GetMissingComponentReturnsEmptyMap(t *testing.T) {
	productDir := t.TempDir()
	stackSpecPath := filepath.Join(productDir, "stack.spec.yaml")
	require.NoError(t, os.WriteFile(stackSpecPath, []byte("api:\n  location: api\n"), 0644))

	v, err := NewDotenv(productDir, stackSpecPath)
	require.NoError(t, err)

	got, err := v.Get(context.Background(), "demo", "unknown", "local")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestJSONFile_SetGetRemove(t *testing.T) {
	dir := t.TempDir()
	v := NewJSONFile(dir)
	ctx := context.Background()

	require.NoError(t, v.CreateVault(ctx, "demo"))
	exists, err := v.CheckIfVaultExists(ctx, "demo")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, v.Set(ctx, "demo", "api", "prod", map[string]string{"K": "V"}))
	got, err := v.Get(ctx, "demo", "api", "prod")
	require.NoError(t, err)
	require.Equal(t, "V", got["K"])

	require.NoError(t, v.Remove(ctx, "demo", "api", "prod"))
	got2, err := v.Get(ctx, "demo", "api", "prod")
	require.NoError(t, err)
	require.Empty(t, got2)
}

func TestBase64Encoder_EncodesEveryValue(t *testing.T) {
	enc := Base64Encoder{}
	out := enc.EncodeSecrets(map[string]string{"a": "hello"})
	require.Equal(t, "aGVsbG8=", out["a"])
}

func TestNoopEncoder_ReturnsUnchanged(t *testing.T) {
	enc := NoopEncoder{}
	in := map[string]string{"a": "hello"}
	require.Equal(t, in, enc.EncodeSecrets(in))
}

func TestGuarded_DelegatesToUnderlyingVault(t *testing.T) {
	dir := t.TempDir()
	g := NewGuarded(NewJSONFile(dir))
	ctx := context.Background()

	require.NoError(t, g.Set(ctx, "demo", "api", "local", map[string]string{"X": "1"}))
	got, err := g.Get(ctx, "demo", "api", "local")
	require.NoError(t, err)
	require.Equal(t, "1", got["X"])
}
