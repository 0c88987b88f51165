// Package k8sops talks to a live cluster on behalf of the operational
// companion commands (status, logs, port-forward) that sit alongside
// build/deploy but never mutate a manifest: each discovers one
// component's pods by the conventional `app=<component>` label and
// reports on or streams from them directly through client-go.
//
// Grounded on the teacher's pkg/deployer/status.go (status computation),
// pkg/logs (pod discovery and log tailing) and pkg/portfwd (SPDY port
// forwarding), adapted from a single fixed-app deployer to rush's
// per-component, multi-namespace model.
package k8sops

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
)

// PodStatus is one pod's health, as reported under a component's status.
type PodStatus struct {
	Name      string
	Phase     string
	Ready     bool
	Restarts  int32
	CreatedAt time.Time
	Message   string
}

// ComponentStatus is the reported health of one component's deployment.
type ComponentStatus struct {
	Component       string
	Namespace       string
	ReadyReplicas   int32
	DesiredReplicas int32
	Health          string
	Pods            []PodStatus
	Message         string
}

// IsHealthy reports whether every desired replica is ready.
func (s *ComponentStatus) IsHealthy() bool {
	return s.DesiredReplicas > 0 && s.ReadyReplicas >= s.DesiredReplicas
}

// Status fetches a component's Deployment and its pods (selected by the
// conventional `app=<component>` label) and summarizes their health.
func Status(ctx context.Context, clientset kubernetes.Interface, component, namespace string) (*ComponentStatus, error) {
	deployment, err := clientset.AppsV1().Deployments(namespace).Get(ctx, component, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("k8sops: no deployment %q in namespace %q", component, namespace)
		}
		return nil, fmt.Errorf("k8sops: failed to get deployment %q: %w", component, err)
	}

	pods, err := listComponentPods(ctx, clientset, component, namespace)
	if err != nil {
		return nil, err
	}

	desired := int32(1)
	if deployment.Spec.Replicas != nil {
		desired = *deployment.Spec.Replicas
	}

	podStatuses := make([]PodStatus, 0, len(pods.Items))
	for _, pod := range pods.Items {
		ps := PodStatus{
			Name:      pod.Name,
			Phase:     string(pod.Status.Phase),
			Ready:     podReady(&pod),
			CreatedAt: pod.CreationTimestamp.Time,
		}
		for _, cs := range pod.Status.ContainerStatuses {
			ps.Restarts += cs.RestartCount
			if cs.State.Waiting != nil && cs.State.Waiting.Message != "" {
				ps.Message = cs.State.Waiting.Message
			}
			if cs.State.Terminated != nil && cs.State.Terminated.Message != "" {
				ps.Message = cs.State.Terminated.Message
			}
		}
		podStatuses = append(podStatuses, ps)
	}

	health, message := summarize(deployment.Status.ReadyReplicas, desired, podStatuses)

	return &ComponentStatus{
		Component:       component,
		Namespace:       namespace,
		ReadyReplicas:   deployment.Status.ReadyReplicas,
		DesiredReplicas: desired,
		Health:          health,
		Pods:            podStatuses,
		Message:         message,
	}, nil
}

func listComponentPods(ctx context.Context, clientset kubernetes.Interface, component, namespace string) (*corev1.PodList, error) {
	selector := labels.SelectorFromSet(labels.Set{"app": component})
	pods, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector.String()})
	if err != nil {
		return nil, fmt.Errorf("k8sops: failed to list pods for %q: %w", component, err)
	}
	return pods, nil
}

func podReady(pod *corev1.Pod) bool {
	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady {
			return condition.Status == corev1.ConditionTrue
		}
	}
	return false
}

func summarize(ready, desired int32, pods []PodStatus) (health, message string) {
	switch {
	case desired == 0:
		return "Unknown", "unable to determine desired replica count"
	case ready >= desired:
		return "Running", fmt.Sprintf("all %d replicas are running", desired)
	case ready == 0:
		for _, pod := range pods {
			if pod.Restarts > 3 {
				return "Failed", "pods are crash-looping, check `rush logs`"
			}
		}
		return "Pending", fmt.Sprintf("waiting for pods to start (0/%d ready)", desired)
	default:
		return "Degraded", fmt.Sprintf("partially running (%d/%d ready)", ready, desired)
	}
}

// WaitForReady polls Status until the component is healthy or timeout
// elapses.
func WaitForReady(ctx context.Context, clientset kubernetes.Interface, component, namespace string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("k8sops: timed out waiting for %q to be ready", component)
		}
		status, err := Status(ctx, clientset, component, namespace)
		if err == nil && status.IsHealthy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}
