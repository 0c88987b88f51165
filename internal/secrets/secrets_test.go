package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonop-io/rush/internal/vault"
)

func TestParse_ParsesStaticSecret(t *testing.T) {
	raw := []byte(`
api:
  secrets:
    TOKEN:
      kind: Static
      value: abc123
`)
	defs, err := Parse("demo", raw)
	require.NoError(t, err)
	require.Equal(t, KindStatic, defs.Components["api"].Secrets["TOKEN"].Kind)
	require.Equal(t, "abc123", defs.Components["api"].Secrets["TOKEN"].Value)
}

func TestPopulate_GeneratesAndWritesStaticSecrets(t *testing.T) {
	raw := []byte(`
api:
  secrets:
    TOKEN:
      kind: Static
      value: abc123
`)
	defs, err := Parse("demo", raw)
	require.NoError(t, err)

	v := vault.NewJSONFile(t.TempDir())
	prompter := &NonInteractivePrompter{}

	require.NoError(t, defs.Populate(context.Background(), v, "local", prompter))

	got, err := v.Get(context.Background(), "demo", "api", "local")
	require.NoError(t, err)
	require.Equal(t, "abc123", got["TOKEN"])
}

func TestPopulate_ResolvesReferenceAcrossComponents(t *testing.T) {
	raw := []byte(`
api:
  secrets:
    SHARED:
      kind: Static
      value: shared-value
worker:
  secrets:
    BORROWED:
      kind: Ref
      ref: api.SHARED
`)
	defs, err := Parse("demo", raw)
	require.NoError(t, err)

	v := vault.NewJSONFile(t.TempDir())
	require.NoError(t, defs.Populate(context.Background(), v, "local", &NonInteractivePrompter{}))

	got, err := v.Get(context.Background(), "demo", "worker", "local")
	require.NoError(t, err)
	require.Equal(t, "shared-value", got["BORROWED"])
}

func TestPopulate_UnresolvedReferenceIsFatal(t *testing.T) {
	raw := []byte(`
worker:
  secrets:
    BORROWED:
      kind: Ref
      ref: missing.NOPE
`)
	defs, err := Parse("demo", raw)
	require.NoError(t, err)

	v := vault.NewJSONFile(t.TempDir())
	err = defs.Populate(context.Background(), v, "local", &NonInteractivePrompter{})
	require.Error(t, err)
}

func TestGenerate_RSAKeyPairSplitsIntoTwoEntries(t *testing.T) {
	raw := []byte(`
api:
  secrets:
    SIGNING:
      kind: RSAKeyPair
      bits: 2048
      base64: true
`)
	defs, err := Parse("demo", raw)
	require.NoError(t, err)

	v := vault.NewJSONFile(t.TempDir())
	require.NoError(t, defs.Populate(context.Background(), v, "local", &NonInteractivePrompter{}))

	got, err := v.Get(context.Background(), "demo", "api", "local")
	require.NoError(t, err)
	require.NotEmpty(t, got["SIGNING_PRIVATE_KEY"])
	require.NotEmpty(t, got["SIGNING_PUBLIC_KEY"])
}

func TestValidate_ReportsMissingSecret(t *testing.T) {
	raw := []byte(`
api:
  secrets:
    TOKEN:
      kind: Static
      value: abc123
`)
	defs, err := Parse("demo", raw)
	require.NoError(t, err)

	v := vault.NewJSONFile(t.TempDir())
	problems, err := defs.Validate(context.Background(), v, "local")
	require.NoError(t, err)
	require.Len(t, problems, 1)
}

func TestValidate_NoProblemsAfterPopulate(t *testing.T) {
	raw := []byte(`
api:
  secrets:
    TOKEN:
      kind: Static
      value: abc123
`)
	defs, err := Parse("demo", raw)
	require.NoError(t, err)

	v := vault.NewJSONFile(t.TempDir())
	require.NoError(t, defs.Populate(context.Background(), v, "local", &NonInteractivePrompter{}))

	problems, err := defs.Validate(context.Background(), v, "local")
	require.NoError(t, err)
	require.Empty(t, problems)
}
