package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/rusherr"
	"github.com/wonop-io/rush/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage the product's declared secrets",
}

var nonInteractiveSecrets bool

var secretsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Populate the vault from stack.env.secrets.yaml, generating or prompting for anything missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()

		raw, err := os.ReadFile(p.secretsDefsPath())
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("no stack.env.secrets.yaml found, nothing to do")
				return nil
			}
			return rusherr.ConfigError(fmt.Sprintf("failed to read %s", p.secretsDefsPath()), "", err)
		}

		defs, err := secrets.Parse(p.cfg.ProductName, raw)
		if err != nil {
			return rusherr.SpecParseError("failed to parse stack.env.secrets.yaml", "", err)
		}

		var prompter secrets.Prompter = secrets.NewTerminalPrompter()
		if nonInteractiveSecrets {
			prompter = &secrets.NonInteractivePrompter{}
		}

		if err := defs.Populate(cmd.Context(), p.vlt, string(p.cfg.Environment), prompter); err != nil {
			return rusherr.VaultError("failed to populate secrets", "", err)
		}

		problems, err := defs.Validate(cmd.Context(), p.vlt, string(p.cfg.Environment))
		if err != nil {
			return rusherr.VaultError("failed to validate secrets after populating", "", err)
		}
		if len(problems) > 0 {
			for _, problem := range problems {
				fmt.Println("  " + problem)
			}
			return rusherr.ValidationError("secrets validation found problems after populate", "", nil)
		}

		fmt.Println("secrets initialized")
		return nil
	},
}

func init() {
	secretsInitCmd.Flags().BoolVar(&nonInteractiveSecrets, "non-interactive", false, "fail instead of prompting for any Ask/AskPassword secret")
	secretsCmd.AddCommand(secretsInitCmd)
	rootCmd.AddCommand(secretsCmd)
}
