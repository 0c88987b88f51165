package rusherr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError_ExitCodeAndMessage(t *testing.T) {
	cause := errors.New("directory missing")
	err := ConfigError("product directory not found", "run rush init", cause)

	var re RushError = err
	assert.Equal(t, ExitConfig, re.ExitCode())
	assert.Equal(t, "product directory not found", re.UserMessage())
	assert.Equal(t, "run rush init", re.SuggestedAction())
	assert.ErrorIs(t, err, cause)
}

func TestErrorCategories_HaveDistinctExitCodes(t *testing.T) {
	codes := map[string]int{
		"config":     ConfigError("m", "s", nil).ExitCode(),
		"spec":       SpecParseError("m", "s", nil).ExitCode(),
		"build":      BuildErr("m", "s", nil).ExitCode(),
		"runtime":    RuntimeError("m", "s", nil).ExitCode(),
		"vault":      VaultError("m", "s", nil).ExitCode(),
		"validation": ValidationError("m", "s", nil).ExitCode(),
		"kube-auth":  KubeAuthError("m", "s", nil).ExitCode(),
	}

	seen := map[int]string{}
	for category, code := range codes {
		if prev, ok := seen[code]; ok {
			t.Fatalf("exit code %d reused by both %q and %q", code, prev, category)
		}
		seen[code] = category
	}
}

func TestIs_MatchesCategory(t *testing.T) {
	err := BuildErr("docker build failed", "check the Dockerfile", nil)
	require.True(t, Is(err, "build"))
	require.False(t, Is(err, "vault"))
}

func TestTaxonomyError_WithoutCause(t *testing.T) {
	err := VaultError("secret not found", "", nil)
	assert.Equal(t, "vault: secret not found", err.Error())
}
