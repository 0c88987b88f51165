// Package cli implements the rush command tree: a thin cobra adapter over
// the Reactor and its collaborators. Every subcommand loads the product
// once (via the shared PersistentPreRunE bootstrap) and then calls exactly
// one domain method, mirroring the teacher's cmd/commands package where
// each file is a single RunE wrapping one deployer/watch call.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/rushlog"
	"github.com/wonop-io/rush/internal/rusherr"
)

var rootCmd = &cobra.Command{
	Use:   "rush",
	Short: "Build, run, and deploy a multi-component product",
	Long: `rush drives a product's components through build, dev, and deploy
cycles from a single stack.spec.yaml description.

rush manages the full cycle:
  - Build each component's container image from its declared BuildType
  - Run every component locally with file-watching hot rebuild (dev)
  - Render and apply Kubernetes manifests (deploy, rollout)
  - Resolve and seal secrets through a pluggable vault backend

Safety features:
  - Whitelist for kube-contexts (prevents accidental prod deploys)
  - Config and stack-spec validation before any build starts

Examples:
  rush describe toolchain    Show which external tools were found on PATH
  rush dev                   Build, launch, and hot-reload every component
  rush deploy                Build, push, render manifests, and apply
  rush secrets init          Populate the vault from stack.env.secrets.yaml
  rush status --watch        Watch every component's deployed health
  rush logs api --tail 50    Stream a component's pod logs
`,
	PersistentPreRunE: rootPersistentPreRun,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

var (
	configPath   string
	environment  string
	debugMode    bool
	forceContext bool

	logger        rushlog.LoggerInterface
	loadedProduct *product
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "rush.yaml path")
	rootCmd.PersistentFlags().StringVarP(&environment, "env", "e", "local", "target environment (local, dev, staging, prod)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&forceContext, "force-context", false, "skip the kube-context safety check (use with caution!)")
}

// rootPersistentPreRun runs before every command except version/help: it
// initializes logging, loads and validates the product configuration, and
// checks the active kube-context against the safety whitelist.
func rootPersistentPreRun(cmd *cobra.Command, args []string) error {
	logger = rushlog.InitLogger(debugMode)

	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}
	if cmd.Flag("help") != nil && cmd.Flag("help").Changed {
		return nil
	}

	ctx := context.Background()
	p, err := bootstrapProduct(ctx)
	if err != nil {
		return err
	}
	loadedProduct = p

	validator := p.kubeValidator()
	if err := validator.Validate(); err != nil {
		return err
	}

	return nil
}

// getProduct returns the product loaded in PersistentPreRunE. Safe to call
// from any command's RunE once Execute has started.
func getProduct() *product {
	return loadedProduct
}

// Execute runs the root command, returning the process exit code. Called
// directly from cmd/rush/main.go.
func Execute() int {
	ctx := setupSignalContext()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	return handleError(err)
}

func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		fmt.Println()
		if logger != nil {
			logger.Debug("received signal", "signal", sig)
		}
		cancel()

		<-sigCh
		fmt.Println("\nForce exit...")
		os.Exit(1)
	}()

	return ctx
}

// handleError maps a command's returned error to an exit code, printing a
// formatted message for any rusherr.RushError and a plain one otherwise.
func handleError(err error) int {
	var rerr rusherr.RushError
	if errors.As(err, &rerr) {
		printRushError(rerr)
		return rerr.ExitCode()
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return rusherr.ExitGeneral
}

func printRushError(err rusherr.RushError) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.UserMessage())
	if suggestion := err.SuggestedAction(); suggestion != "" {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "Suggestion: %s\n", suggestion)
	}
	fmt.Fprintln(os.Stderr)
}
