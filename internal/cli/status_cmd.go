package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/k8sops"
	"github.com/wonop-io/rush/internal/kubectx"
	"github.com/wonop-io/rush/internal/manifests"
	"github.com/wonop-io/rush/internal/rusherr"
)

var watchStatus bool

var statusCmd = &cobra.Command{
	Use:   "status [component]",
	Short: "Show the deployed Kubernetes status of one component, or every component",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		r, err := p.newReactor(nil, nil)
		if err != nil {
			return err
		}

		components, err := componentsToInspect(r.ClusterManifests.Components(), args)
		if err != nil {
			return err
		}

		clientset, _, err := kubectx.BuildClientset()
		if err != nil {
			return rusherr.RuntimeError("failed to build Kubernetes client", "", err)
		}

		print := func() error {
			for _, cm := range components {
				status, err := k8sops.Status(cmd.Context(), clientset, cm.Name, cm.Namespace)
				if err != nil {
					fmt.Printf("%s: %v\n", cm.Name, err)
					continue
				}
				fmt.Printf("%s: %s (%d/%d ready) - %s\n",
					status.Component, status.Health, status.ReadyReplicas, status.DesiredReplicas, status.Message)
				for _, pod := range status.Pods {
					ready := "not ready"
					if pod.Ready {
						ready = "ready"
					}
					fmt.Printf("  %s %s, %s, restarts=%d\n", pod.Name, pod.Phase, ready, pod.Restarts)
				}
			}
			return nil
		}

		if err := print(); err != nil {
			return err
		}
		if !watchStatus {
			return nil
		}

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case <-ticker.C:
				fmt.Println("---")
				if err := print(); err != nil {
					fmt.Println(err)
				}
			}
		}
	},
}

func componentsToInspect(all []*manifests.ComponentManifests, args []string) ([]*manifests.ComponentManifests, error) {
	if len(args) == 0 {
		return all, nil
	}
	for _, cm := range all {
		if cm.Name == args[0] {
			return []*manifests.ComponentManifests{cm}, nil
		}
	}
	return nil, rusherr.ConfigError(fmt.Sprintf("unknown component %q", args[0]), "", nil)
}

func init() {
	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "keep polling and re-printing status every 2 seconds")
	rootCmd.AddCommand(statusCmd)
}
