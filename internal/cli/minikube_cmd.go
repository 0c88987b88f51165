package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/rusherr"
)

var minikubeCmd = &cobra.Command{
	Use:   "minikube",
	Short: "Manage a local minikube cluster",
}

func minikubeSubcommand(use, short, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := getProduct()
			c, err := p.tc.Command(cmd.Context(), "minikube", verb)
			if err != nil {
				return rusherr.ConfigError(err.Error(), "install minikube and retry", err)
			}
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return rusherr.RuntimeError("minikube "+verb+" failed", "", err)
			}
			return nil
		},
	}
}

func init() {
	minikubeCmd.AddCommand(
		minikubeSubcommand("start", "Start the local minikube cluster", "start"),
		minikubeSubcommand("stop", "Stop the local minikube cluster", "stop"),
		minikubeSubcommand("delete", "Delete the local minikube cluster", "delete"),
	)
	rootCmd.AddCommand(minikubeCmd)
}
