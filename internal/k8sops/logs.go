package k8sops

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
)

// DiscoverPod waits up to timeout for a running pod matching
// `app=<component>` in namespace and returns it.
func DiscoverPod(ctx context.Context, clientset kubernetes.Interface, component, namespace string, timeout time.Duration) (*corev1.Pod, error) {
	selector := labels.SelectorFromSet(labels.Set{"app": component})
	deadline := time.Now().Add(timeout)

	for {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("k8sops: timed out waiting for a pod matching app=%s", component)
		}

		pods, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector.String()})
		if err != nil {
			return nil, fmt.Errorf("k8sops: failed to list pods: %w", err)
		}
		for i := range pods.Items {
			if pods.Items[i].Status.Phase == corev1.PodRunning {
				return &pods.Items[i], nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

// TailLogs discovers a running pod for component and streams its logs to
// w, following new lines until ctx is canceled or the pod terminates.
func TailLogs(ctx context.Context, clientset kubernetes.Interface, component, namespace string, tailLines int64, w io.Writer) error {
	pod, err := DiscoverPod(ctx, clientset, component, namespace, 5*time.Minute)
	if err != nil {
		return err
	}

	opts := &corev1.PodLogOptions{
		Follow:     true,
		TailLines:  &tailLines,
		Timestamps: true,
	}
	req := clientset.CoreV1().Pods(namespace).GetLogs(pod.Name, opts)
	stream, err := req.Stream(ctx)
	if err != nil {
		return fmt.Errorf("k8sops: failed to open log stream for %s: %w", pod.Name, err)
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			fmt.Fprintln(w, scanner.Text())
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("k8sops: log stream error: %w", err)
	}
	return nil
}
