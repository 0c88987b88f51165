package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonop-io/rush/internal/rusherr"
	"github.com/wonop-io/rush/internal/vault"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage the product's secret-store backend",
}

var vaultCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the backing store for this product if it doesn't already exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		exists, err := p.vlt.CheckIfVaultExists(cmd.Context(), p.cfg.ProductName)
		if err != nil {
			return rusherr.VaultError("failed to check for an existing vault", "", err)
		}
		if exists {
			fmt.Println("vault already exists")
			return nil
		}
		if err := p.vlt.CreateVault(cmd.Context(), p.cfg.ProductName); err != nil {
			return rusherr.VaultError("failed to create vault", "", err)
		}
		fmt.Println("vault created")
		return nil
	},
}

var vaultAddCmd = &cobra.Command{
	Use:   "add <component> <json>",
	Short: "Set a component's secrets from a flat JSON object of name -> value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		component, rawJSON := args[0], args[1]

		var secrets map[string]string
		if err := json.Unmarshal([]byte(rawJSON), &secrets); err != nil {
			return rusherr.ConfigError("failed to parse secrets JSON", "pass a flat JSON object of secret name to string value", err)
		}

		if err := p.vlt.Set(cmd.Context(), p.cfg.ProductName, component, string(p.cfg.Environment), secrets); err != nil {
			return rusherr.VaultError(fmt.Sprintf("failed to write secrets for %s", component), "", err)
		}
		fmt.Printf("wrote %d secret(s) for %s\n", len(secrets), component)
		return nil
	},
}

var vaultRemoveCmd = &cobra.Command{
	Use:   "remove <component>",
	Short: "Remove a component's secrets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		if err := p.vlt.Remove(cmd.Context(), p.cfg.ProductName, args[0], string(p.cfg.Environment)); err != nil {
			return rusherr.VaultError(fmt.Sprintf("failed to remove secrets for %s", args[0]), "", err)
		}
		fmt.Printf("removed secrets for %s\n", args[0])
		return nil
	},
}

var vaultMigrateCmd = &cobra.Command{
	Use:   "migrate <dest-backend>",
	Short: "Copy every component's secrets from the configured vault backend into another backend (dotenv, jsonfile, onepassword)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getProduct()
		destCfg := *p.cfg
		destCfg.VaultBackend = args[0]
		dest, err := newVault(&destCfg, p.stackSpecPath)
		if err != nil {
			return err
		}
		destGuarded := vault.NewGuarded(dest)

		if err := destGuarded.CreateVault(cmd.Context(), p.cfg.ProductName); err != nil {
			return rusherr.VaultError("failed to create destination vault", "", err)
		}

		migrated := 0
		for component := range p.specs {
			secrets, err := p.vlt.Get(cmd.Context(), p.cfg.ProductName, component, string(p.cfg.Environment))
			if err != nil {
				return rusherr.VaultError(fmt.Sprintf("failed to read secrets for %s", component), "", err)
			}
			if len(secrets) == 0 {
				continue
			}
			if err := destGuarded.Set(cmd.Context(), p.cfg.ProductName, component, string(p.cfg.Environment), secrets); err != nil {
				return rusherr.VaultError(fmt.Sprintf("failed to write secrets for %s to destination vault", component), "", err)
			}
			migrated++
		}
		fmt.Printf("migrated %d component(s) to %s\n", migrated, args[0])
		return nil
	},
}

func init() {
	vaultCmd.AddCommand(vaultCreateCmd, vaultAddCmd, vaultRemoveCmd, vaultMigrateCmd)
	rootCmd.AddCommand(vaultCmd)
}
