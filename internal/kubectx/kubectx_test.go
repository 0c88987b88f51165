package kubectx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonop-io/rush/internal/rusherr"
)

func TestValidator_AllowsDefaultLocalContexts(t *testing.T) {
	v := NewValidator("", false)
	require.NoError(t, v.validateName("docker-desktop"))
	require.NoError(t, v.validateName("kind-dev"))
	require.NoError(t, v.validateName("k3d-demo"))
	require.NoError(t, v.validateName("staging-local-1"))
}

func TestValidator_RejectsUnknownContext(t *testing.T) {
	v := NewValidator("", false)
	err := v.validateName("prod-us-east")
	require.Error(t, err)
	require.True(t, rusherr.Is(err, "kube-auth"))
}

func TestValidator_ForceOverridesRejection(t *testing.T) {
	v := NewValidator("", true)
	require.NoError(t, v.validateName("prod-us-east"))
}

func TestValidator_ConfiguredContextIsAllowed(t *testing.T) {
	v := NewValidator("acme-staging", false)
	require.NoError(t, v.validateName("acme-staging"))
	require.Error(t, v.validateName("acme-prod"))
}
