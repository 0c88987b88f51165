package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/manifests"
	"github.com/wonop-io/rush/internal/rusherr"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate rendered artefacts",
}

var k8sVersion string

var validateManifestsCmd = &cobra.Command{
	Use:   "manifests",
	Short: "Schema-validate every rendered component's manifests against a Kubernetes API version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if k8sVersion == "" {
			return rusherr.ConfigError("--version is required", "pass the target Kubernetes API version, e.g. --version 1.29.0", nil)
		}

		p := getProduct()
		r, err := p.newReactor(nil, nil)
		if err != nil {
			return err
		}

		fmt.Println("rendering manifests...")
		if err := r.BuildManifests(cmd.Context()); err != nil {
			return rusherr.ValidationError("failed to render manifests", "", err)
		}

		validator, err := manifests.NewValidator(p.cfg.K8sValidator)
		if err != nil {
			return rusherr.ConfigError(err.Error(), "use one of: kubeconform, kubeval", err)
		}

		var failed []string
		for _, cm := range r.ClusterManifests.Components() {
			fmt.Printf("validating %s...\n", cm.Name)
			if err := validator.Validate(cmd.Context(), p.tc, cm.OutputDirectory, k8sVersion); err != nil {
				fmt.Printf("  %v\n", err)
				failed = append(failed, cm.Name)
			}
		}

		if len(failed) > 0 {
			return rusherr.ValidationError(fmt.Sprintf("%d component(s) failed validation: %v", len(failed), failed), "", nil)
		}
		fmt.Println("all manifests valid")
		return nil
	},
}

func init() {
	validateManifestsCmd.Flags().StringVar(&k8sVersion, "version", "", "target Kubernetes API version")
	validateCmd.AddCommand(validateManifestsCmd)
	rootCmd.AddCommand(validateCmd)
}
