package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/rusherr"
	"github.com/wonop-io/rush/internal/toolchain"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print a read-only view of the product's resolved configuration",
}

func init() {
	describeCmd.AddCommand(
		describeToolchainCmd,
		describeImagesCmd,
		describeServicesCmd,
		describeBuildScriptCmd,
		describeBuildContextCmd,
		describeArtefactsCmd,
		describeK8sCmd,
	)
	rootCmd.AddCommand(describeCmd)
}

var describeToolchainCmd = &cobra.Command{
	Use:   "toolchain",
	Short: "List every external executable rush looked for and where it found it",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		resolved := p.tc.Binaries()
		fmt.Printf("host:   %s\n", p.tc.Host)
		fmt.Printf("target: %s\n", p.tc.Target)
		for _, name := range toolchain.KnownBinaries {
			if path, ok := resolved[name]; ok {
				fmt.Printf("  %-12s %s\n", name, path)
			} else {
				fmt.Printf("  %-12s (not found on PATH)\n", name)
			}
		}
		return nil
	},
}

var describeImagesCmd = &cobra.Command{
	Use:   "images",
	Short: "List every component and the image name it builds",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		r, err := p.newReactor(nil, nil)
		if err != nil {
			return err
		}
		for _, img := range r.Images() {
			identifier, err := img.Identifier()
			if err != nil {
				identifier = fmt.Sprintf("%s (untagged)", img.ImageName)
			}
			fmt.Printf("%-24s %s\n", img.ComponentName, identifier)
		}
		return nil
	},
}

var describeServicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List every component's declared port, target port, and subdomain",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		names := make([]string, 0, len(p.specs))
		for name := range p.specs {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			s := p.specs[name]
			port, target := "-", "-"
			if s.Port != nil {
				port = fmt.Sprint(*s.Port)
			}
			if s.TargetPort != nil {
				target = fmt.Sprint(*s.TargetPort)
			}
			fmt.Printf("%-24s port=%-6s target_port=%-6s subdomain=%s\n", name, port, target, s.Subdomain)
		}
		return nil
	},
}

var describeBuildScriptCmd = &cobra.Command{
	Use:   "build-script <component>",
	Short: "Render a component's precompile commands without building it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		r, err := p.newReactor(nil, nil)
		if err != nil {
			return err
		}
		img := r.ImageByName(args[0])
		if img == nil {
			return rusherr.ConfigError(fmt.Sprintf("unknown component %q", args[0]), "run `rush describe images` to list components", nil)
		}

		bc, err := r.BuildContextFor(cmd.Context(), args[0])
		if err != nil {
			return rusherr.ConfigError(fmt.Sprintf("failed to resolve build context for %s", args[0]), "", err)
		}
		script, ok, err := img.BuildScript(bc)
		if err != nil {
			return rusherr.BuildErr(fmt.Sprintf("failed to render build script for %s", args[0]), "", err)
		}
		if !ok {
			fmt.Printf("%s has no precompile commands\n", args[0])
			return nil
		}
		fmt.Println(script)
		return nil
	},
}

var describeBuildContextCmd = &cobra.Command{
	Use:   "build-context <component>",
	Short: "Print the resolved BuildContext a component renders its manifests/scripts against",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		r, err := p.newReactor(nil, nil)
		if err != nil {
			return err
		}
		if r.ImageByName(args[0]) == nil {
			return rusherr.ConfigError(fmt.Sprintf("unknown component %q", args[0]), "run `rush describe images` to list components", nil)
		}
		bc, err := r.BuildContextFor(cmd.Context(), args[0])
		if err != nil {
			return rusherr.ConfigError(fmt.Sprintf("failed to resolve build context for %s", args[0]), "", err)
		}
		fmt.Printf("%+v\n", bc)
		return nil
	},
}

var describeArtefactsCmd = &cobra.Command{
	Use:   "artefacts <component>",
	Short: "List the artefact templates a component declares and where they render to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		s, ok := p.specs[args[0]]
		if !ok {
			return rusherr.ConfigError(fmt.Sprintf("unknown component %q", args[0]), "run `rush describe images` to list components", nil)
		}
		names := make([]string, 0, len(s.Artefacts))
		for name := range s.Artefacts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%-32s -> %s\n", name, s.Artefacts[name])
		}
		return nil
	},
}

var describeK8sCmd = &cobra.Command{
	Use:   "k8s",
	Short: "List every component's rendered manifest output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		r, err := p.newReactor(nil, nil)
		if err != nil {
			return err
		}
		for _, cm := range r.ClusterManifests.Components() {
			fmt.Printf("%-24s %s\n", cm.Name, cm.OutputDirectory)
		}
		return nil
	},
}
