package publicenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubPrompter struct{ answer string }

func (s *stubPrompter) Ask(prompt string) (string, error) { return s.answer, nil }

func TestParse_ParsesStaticVariable(t *testing.T) {
	raw := []byte(`
api:
  environment_variables:
    LOG_LEVEL:
      kind: Static
      value: debug
`)
	defs, err := Parse("demo", "/tmp/demo", raw)
	require.NoError(t, err)
	require.Equal(t, KindStatic, defs.Components["api"].Variables["LOG_LEVEL"].Kind)
}

func TestGenerateDotenvFiles_StaticAlwaysOverwritesExisting(t *testing.T) {
	productDir := t.TempDir()
	componentDir := filepath.Join(productDir, "api")
	require.NoError(t, os.MkdirAll(componentDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(componentDir, ".env"), []byte(`LOG_LEVEL="info"`+"\n"), 0644))

	stackSpec := "api:\n  location: api\n"
	stackSpecPath := filepath.Join(productDir, "stack.spec.yaml")
	require.NoError(t, os.WriteFile(stackSpecPath, []byte(stackSpec), 0644))

	raw := []byte(`
api:
  environment_variables:
    LOG_LEVEL:
      kind: Static
      value: debug
`)
	defs, err := Parse("demo", productDir, raw)
	require.NoError(t, err)

	require.NoError(t, defs.GenerateDotenvFiles(stackSpecPath, &stubPrompter{}))

	got, err := loadDotenv(filepath.Join(componentDir, ".env"))
	require.NoError(t, err)
	require.Equal(t, "debug", got["LOG_LEVEL"])
}

func TestGenerateDotenvFiles_NonStaticFillsOnlyMissing(t *testing.T) {
	productDir := t.TempDir()
	componentDir := filepath.Join(productDir, "api")
	require.NoError(t, os.MkdirAll(componentDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(componentDir, ".env"), []byte(`GREETING="kept"`+"\n"), 0644))

	stackSpecPath := filepath.Join(productDir, "stack.spec.yaml")
	require.NoError(t, os.WriteFile(stackSpecPath, []byte("api:\n  location: api\n"), 0644))

	raw := []byte(`
api:
  environment_variables:
    GREETING:
      kind: Ask
      prompt: say hi
`)
	defs, err := Parse("demo", productDir, raw)
	require.NoError(t, err)

	require.NoError(t, defs.GenerateDotenvFiles(stackSpecPath, &stubPrompter{answer: "asked"}))

	got, err := loadDotenv(filepath.Join(componentDir, ".env"))
	require.NoError(t, err)
	require.Equal(t, "kept", got["GREETING"])
}
