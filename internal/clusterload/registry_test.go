package clusterload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect_DockerDesktop(t *testing.T) {
	ct, name := Detect("docker-desktop")
	require.Equal(t, ClusterDockerDesktop, ct)
	require.Empty(t, name)
}

func TestDetect_Minikube(t *testing.T) {
	ct, _ := Detect("minikube")
	require.Equal(t, ClusterMinikube, ct)
}

func TestDetect_Kind(t *testing.T) {
	ct, name := Detect("kind-dev")
	require.Equal(t, ClusterKind, ct)
	require.Equal(t, "dev", name)
}

func TestDetect_Unknown(t *testing.T) {
	ct, _ := Detect("prod-us-east")
	require.Equal(t, ClusterUnknown, ct)
}
