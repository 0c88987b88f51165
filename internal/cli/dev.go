package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/reactor"
	"github.com/wonop-io/rush/internal/rusherr"
)

var (
	redirectFlags []string
	silenceFlags  []string
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Build, launch, and hot-reload every component",
	Long: `dev runs the interactive supervisor loop: it builds every component,
launches them in dependency order on the shared product network, watches
the source tree for changes, and rebuilds/relaunches affected components in
place. Press Ctrl+C to shut everything down.`,
	RunE: runDev,
}

func init() {
	devCmd.Flags().StringArrayVar(&redirectFlags, "redirect", nil, "component@host:port — point a component at an externally running instance instead of launching it")
	devCmd.Flags().StringArrayVar(&silenceFlags, "silence", nil, "component — drop its stdout/stderr instead of streaming it")
	rootCmd.AddCommand(devCmd)
}

func runDev(cmd *cobra.Command, args []string) error {
	p := getProduct()

	redirects, err := parseRedirects(redirectFlags)
	if err != nil {
		return rusherr.ConfigError("invalid --redirect flag", "use the form component@host:port", err)
	}
	silenced := make(map[string]struct{}, len(silenceFlags))
	for _, name := range silenceFlags {
		silenced[name] = struct{}{}
	}

	r, err := p.newReactor(redirects, silenced)
	if err != nil {
		return err
	}

	fmt.Println("starting dev loop, press Ctrl+C to stop")
	if err := r.Launch(cmd.Context(), os.Stdout); err != nil {
		return rusherr.RuntimeError("dev loop exited with an error", "", err)
	}
	return nil
}

// parseRedirects parses a "component@host:port" flag value list into the
// map reactor.New expects.
func parseRedirects(flags []string) (map[string]reactor.Redirect, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	out := make(map[string]reactor.Redirect, len(flags))
	for _, raw := range flags {
		name, hostPort, ok := strings.Cut(raw, "@")
		if !ok {
			return nil, fmt.Errorf("expected component@host:port, got %q", raw)
		}
		host, portStr, ok := strings.Cut(hostPort, ":")
		if !ok {
			return nil, fmt.Errorf("expected component@host:port, got %q", raw)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port in %q: %w", raw, err)
		}
		out[name] = reactor.Redirect{Host: host, Port: port}
	}
	return out, nil
}
