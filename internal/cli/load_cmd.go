package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/clusterload"
	"github.com/wonop-io/rush/internal/rusherr"
)

var loadCmd = &cobra.Command{
	Use:   "load <component>",
	Short: "Load one component's built image into the active local cluster (minikube/kind/Docker Desktop)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		r, err := p.newReactor(nil, nil)
		if err != nil {
			return err
		}
		img := r.ImageByName(args[0])
		if img == nil {
			return rusherr.ConfigError(fmt.Sprintf("unknown component %q", args[0]), "", nil)
		}

		identifier, err := img.Identifier()
		if err != nil {
			return rusherr.BuildErr("failed to resolve image identifier for "+args[0], "", err)
		}

		fmt.Printf("loading %s into %s...\n", identifier, p.cfg.KubeContext)
		if err := clusterload.Load(cmd.Context(), p.tc, p.cfg.KubeContext, identifier); err != nil {
			return rusherr.RuntimeError("load failed", "", err)
		}
		fmt.Println("loaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
