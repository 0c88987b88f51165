package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/rusherr"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Render and apply every non-installation component's manifests",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getProduct().newReactor(nil, nil)
		if err != nil {
			return err
		}
		fmt.Println("rendering manifests...")
		if err := r.BuildManifests(cmd.Context()); err != nil {
			return rusherr.ValidationError("failed to render manifests", "", err)
		}
		fmt.Println("applying manifests...")
		if err := r.Apply(cmd.Context(), os.Stdout); err != nil {
			return rusherr.RuntimeError("apply failed", "", err)
		}
		return nil
	},
}

var unapplyCmd = &cobra.Command{
	Use:   "unapply",
	Short: "Delete every non-installation component's applied manifests",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getProduct().newReactor(nil, nil)
		if err != nil {
			return err
		}
		fmt.Println("unapplying manifests...")
		if err := r.Unapply(cmd.Context(), os.Stdout); err != nil {
			return rusherr.RuntimeError("unapply failed", "", err)
		}
		return nil
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Create every KubernetesInstallation component's namespace and apply its manifests",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getProduct().newReactor(nil, nil)
		if err != nil {
			return err
		}
		fmt.Println("installing...")
		if err := r.InstallManifests(cmd.Context(), os.Stdout); err != nil {
			return rusherr.RuntimeError("install failed", "", err)
		}
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Tear down every KubernetesInstallation component's manifests and namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getProduct().newReactor(nil, nil)
		if err != nil {
			return err
		}
		fmt.Println("uninstalling...")
		if err := r.UninstallManifests(cmd.Context(), os.Stdout); err != nil {
			return rusherr.RuntimeError("uninstall failed", "", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd, unapplyCmd, installCmd, uninstallCmd)
}
