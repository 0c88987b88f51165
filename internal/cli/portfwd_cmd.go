package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/k8sops"
	"github.com/wonop-io/rush/internal/kubectx"
	"github.com/wonop-io/rush/internal/rusherr"
)

var portfwdCmd = &cobra.Command{
	Use:   "portfwd <component> <local-port>:<pod-port>",
	Short: "Forward a local port to one component's running pod",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		r, err := p.newReactor(nil, nil)
		if err != nil {
			return err
		}

		components, err := componentsToInspect(r.ClusterManifests.Components(), args[:1])
		if err != nil {
			return err
		}
		cm := components[0]

		localPort, podPort, err := parsePortPair(args[1])
		if err != nil {
			return rusherr.ConfigError(err.Error(), "pass ports as <local>:<pod>, e.g. 8080:80", err)
		}

		clientset, restConfig, err := kubectx.BuildClientset()
		if err != nil {
			return rusherr.RuntimeError("failed to build Kubernetes client", "", err)
		}

		stop, err := k8sops.PortForward(cmd.Context(), restConfig, clientset, cm.Name, cm.Namespace, localPort, podPort)
		if err != nil {
			return rusherr.RuntimeError("port forward failed", "", err)
		}
		defer stop()

		fmt.Printf("forwarding localhost:%d -> %s:%d (Ctrl+C to stop)\n", localPort, cm.Name, podPort)
		<-cmd.Context().Done()
		return nil
	},
}

func parsePortPair(raw string) (local, pod int, err error) {
	localStr, podStr, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid port pair %q", raw)
	}
	local, err = strconv.Atoi(localStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid local port %q: %w", localStr, err)
	}
	pod, err = strconv.Atoi(podStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pod port %q: %w", podStr, err)
	}
	return local, pod, nil
}

func init() {
	rootCmd.AddCommand(portfwdCmd)
}
