package k8sops

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarize_AllReady(t *testing.T) {
	health, msg := summarize(3, 3, nil)
	require.Equal(t, "Running", health)
	require.Contains(t, msg, "3 replicas")
}

func TestSummarize_ZeroDesired(t *testing.T) {
	health, _ := summarize(0, 0, nil)
	require.Equal(t, "Unknown", health)
}

func TestSummarize_PendingWithNoRestarts(t *testing.T) {
	health, _ := summarize(0, 2, []PodStatus{{Restarts: 1}})
	require.Equal(t, "Pending", health)
}

func TestSummarize_FailedAfterRepeatedRestarts(t *testing.T) {
	health, msg := summarize(0, 2, []PodStatus{{Restarts: 5}})
	require.Equal(t, "Failed", health)
	require.Contains(t, msg, "logs")
}

func TestSummarize_Degraded(t *testing.T) {
	health, msg := summarize(1, 3, nil)
	require.Equal(t, "Degraded", health)
	require.Contains(t, msg, "1/3")
}

func TestComponentStatus_IsHealthy(t *testing.T) {
	healthy := &ComponentStatus{ReadyReplicas: 2, DesiredReplicas: 2}
	require.True(t, healthy.IsHealthy())

	unhealthy := &ComponentStatus{ReadyReplicas: 1, DesiredReplicas: 2}
	require.False(t, unhealthy.IsHealthy())

	zeroDesired := &ComponentStatus{ReadyReplicas: 0, DesiredReplicas: 0}
	require.False(t, zeroDesired.IsHealthy())
}
