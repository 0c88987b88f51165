package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("rush version " + version.Version)
		fmt.Println("Built with " + version.GoVersion)
		fmt.Printf("OS/Arch: %s/%s\n", version.OS, version.Arch)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
