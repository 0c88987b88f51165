package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// OnePassword is a Vault backed by the `op` CLI. Items are titled
// `<component>-<env>` inside a 1Password vault named `<product>`; each
// secret becomes a labeled field on that item.
//
// Grounded on original_source/rush/src/vault/one_password.rs.
type OnePassword struct{}

// NewOnePassword creates a 1Password-CLI-backed vault.
func NewOnePassword() *OnePassword { return &OnePassword{} }

func (o *OnePassword) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "op", args...)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("op %s: %s", strings.Join(args, " "), strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("op %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

type opItem struct {
	Title  string `json:"title"`
	Fields []struct {
		Label string `json:"label"`
		Value string `json:"value"`
	} `json:"fields"`
}

func itemName(component, environment string) string {
	return fmt.Sprintf("%s-%s", component, environment)
}

func (o *OnePassword) Get(ctx context.Context, product, component, environment string) (map[string]string, error) {
	name := itemName(component, environment)
	out, err := o.run(ctx, "item", "get", name, "--vault", product, "--format", "json")
	if err != nil {
		// Missing item: a Get for an absent component returns an empty
		// map rather than an error, per the vault error-handling policy.
		return map[string]string{}, nil
	}

	var item opItem
	if err := json.Unmarshal([]byte(out), &item); err != nil {
		return nil, fmt.Errorf("1password vault: invalid item JSON for %s: %w", name, err)
	}

	secrets := map[string]string{}
	for _, field := range item.Fields {
		if field.Label == "" {
			continue
		}
		secrets[field.Label] = field.Value
	}
	return secrets, nil
}

func (o *OnePassword) Set(ctx context.Context, product, component, environment string, secrets map[string]string) error {
	name := itemName(component, environment)

	listOut, err := o.run(ctx, "item", "list", "--vault", product, "--format", "json")
	if err != nil {
		return fmt.Errorf("1password vault: failed to list items: %w", err)
	}
	var items []opItem
	if err := json.Unmarshal([]byte(listOut), &items); err != nil {
		return fmt.Errorf("1password vault: invalid item list JSON: %w", err)
	}

	exists := false
	for _, it := range items {
		if it.Title == name {
			exists = true
			break
		}
	}

	args := []string{"item"}
	if exists {
		args = append(args, "edit", name, "--vault", product)
	} else {
		args = append(args, "create", "--title", name, "--vault", product, "--category", "Secure Note")
	}
	for key, value := range secrets {
		args = append(args, fmt.Sprintf("%s[text]=%s", key, value))
	}

	if _, err := o.run(ctx, args...); err != nil {
		return fmt.Errorf("1password vault: failed to set secrets for %s: %w", name, err)
	}
	return nil
}

func (o *OnePassword) Remove(ctx context.Context, product, component, environment string) error {
	name := itemName(component, environment)
	if _, err := o.run(ctx, "item", "delete", name, "--vault", product); err != nil {
		return fmt.Errorf("1password vault: failed to delete %s: %w", name, err)
	}
	return nil
}

func (o *OnePassword) CreateVault(ctx context.Context, product string) error {
	if _, err := o.run(ctx, "vault", "create", product); err != nil {
		return fmt.Errorf("1password vault: failed to create vault %s: %w", product, err)
	}
	return nil
}

func (o *OnePassword) CheckIfVaultExists(ctx context.Context, product string) (bool, error) {
	if _, err := o.run(ctx, "vault", "get", product, "--format", "json"); err != nil {
		return false, nil
	}
	return true, nil
}

var _ Vault = (*OnePassword)(nil)
