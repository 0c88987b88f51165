package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/rusherr"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build every component's container image",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getProduct().newReactor(nil, nil)
		if err != nil {
			return err
		}
		fmt.Println("building every component...")
		if err := r.Build(cmd.Context(), os.Stdout); err != nil {
			return rusherr.BuildErr("build failed", "", err)
		}
		return nil
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push every component's built image to the configured registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getProduct().newReactor(nil, nil)
		if err != nil {
			return err
		}
		fmt.Println("pushing every component...")
		if err := r.Push(cmd.Context(), os.Stdout); err != nil {
			return rusherr.BuildErr("push failed", "", err)
		}
		return nil
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Build, push, render manifests, and apply them to the cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getProduct().newReactor(nil, nil)
		if err != nil {
			return err
		}
		fmt.Println("deploying...")
		if err := r.Deploy(cmd.Context(), os.Stdout); err != nil {
			return rusherr.RuntimeError("deploy failed", "", err)
		}
		fmt.Println("deploy complete")
		return nil
	},
}

var (
	rolloutMessage string
)

var rolloutCmd = &cobra.Command{
	Use:   "rollout",
	Short: "Build, push, render manifests, and push them to the infrastructure repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getProduct().newReactor(nil, nil)
		if err != nil {
			return err
		}
		fmt.Println("rolling out...")
		if err := r.Rollout(cmd.Context(), os.Stdout, rolloutMessage); err != nil {
			return rusherr.RuntimeError("rollout failed", "", err)
		}
		fmt.Println("rollout complete")
		return nil
	},
}

func init() {
	rolloutCmd.Flags().StringVar(&rolloutMessage, "message", "", "commit message for the infrastructure repository (defaults to \"rollout <tag>\")")
	rootCmd.AddCommand(buildCmd, pushCmd, deployCmd, rolloutCmd)
}
