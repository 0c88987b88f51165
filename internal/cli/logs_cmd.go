package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/k8sops"
	"github.com/wonop-io/rush/internal/kubectx"
	"github.com/wonop-io/rush/internal/rusherr"
)

var logsTailLines int64

var logsCmd = &cobra.Command{
	Use:   "logs <component>",
	Short: "Stream logs from one component's running pod",
	Args:  cobra.ExactArgs(1),
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
		cm := components[0]

		clientset, _, err := kubectx.BuildClientset()
		if err != nil {
			return rusherr.RuntimeError("failed to build Kubernetes client", "", err)
		}

		if err := k8sops.TailLogs(cmd.Context(), clientset, cm.Name, cm.Namespace, logsTailLines, os.Stdout); err != nil {
			return rusherr.RuntimeError("failed to tail logs for "+cm.Name, "", err)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().Int64Var(&logsTailLines, "tail", 100, "number of existing lines to print before following new ones")
	rootCmd.AddCommand(logsCmd)
}
