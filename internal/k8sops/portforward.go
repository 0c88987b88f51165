package k8sops

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"
)

// PortForward discovers a running pod for component and forwards localPort
// on the caller's machine to podPort on that pod, blocking until ready is
// signaled or the forward fails to establish. The returned stop function
// terminates forwarding; it is safe to call multiple times.
func PortForward(ctx context.Context, restConfig *rest.Config, clientset kubernetes.Interface, component, namespace string, localPort, podPort int) (stop func(), err error) {
	if err := checkPortAvailable(localPort); err != nil {
		return nil, fmt.Errorf("k8sops: local port %d is unavailable: %w", localPort, err)
	}

	pod, err := DiscoverPod(ctx, clientset, component, namespace, 5*time.Minute)
	if err != nil {
		return nil, err
	}

	hostURL, err := url.Parse(restConfig.Host)
	if err != nil {
		return nil, fmt.Errorf("k8sops: failed to parse cluster host: %w", err)
	}
	hostURL.Path = fmt.Sprintf("/api/v1/namespaces/%s/pods/%s/portforward", namespace, pod.Name)

	transport, upgrader, err := spdy.RoundTripperFor(restConfig)
	if err != nil {
		return nil, fmt.Errorf("k8sops: failed to build spdy transport: %w", err)
	}
	dialer := spdy.NewDialer(upgrader, &http.Client{Transport: transport}, http.MethodPost, hostURL)

	stopChan := make(chan struct{}, 1)
	readyChan := make(chan struct{})
	ports := []string{fmt.Sprintf("%d:%d", localPort, podPort)}

	fw, err := portforward.New(dialer, ports, stopChan, readyChan, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("k8sops: failed to build port forwarder: %w", err)
	}

	errChan := make(chan error, 1)
	go func() { errChan <- fw.ForwardPorts() }()

	stop = func() {
		select {
		case <-stopChan:
		default:
			close(stopChan)
		}
	}

	select {
	case <-readyChan:
		return stop, nil
	case err := <-errChan:
		return nil, fmt.Errorf("k8sops: port forwarding failed: %w", err)
	case <-ctx.Done():
		stop()
		return nil, ctx.Err()
	}
}

func checkPortAvailable(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	return ln.Close()
}
