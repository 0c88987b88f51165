package k8sops

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/stretchr/testify/require"
)

func int32ptr(i int32) *int32 { return &i }

func TestStatus_ReportsRunningWhenReplicasReady(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
			Spec:       appsv1.DeploymentSpec{Replicas: int32ptr(1)},
			Status:     appsv1.DeploymentStatus{ReadyReplicas: 1},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "web-abc123",
				Namespace: "default",
				Labels:    map[string]string{"app": "web"},
			},
			Status: corev1.PodStatus{
				Phase:      corev1.PodRunning,
				Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: corev1.ConditionTrue}},
			},
		},
	)

	status, err := Status(context.Background(), clientset, "web", "default")
	require.NoError(t, err)
	require.Equal(t, "Running", status.Health)
	require.Len(t, status.Pods, 1)
	require.True(t, status.Pods[0].Ready)
}

func TestStatus_MissingDeploymentReturnsError(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	_, err := Status(context.Background(), clientset, "ghost", "default")
	require.Error(t, err)
}
