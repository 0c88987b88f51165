// Package vault defines the pluggable secret-store abstraction and its
// three implementations (Dotenv, JSON file, 1Password CLI).
//
// Grounded on original_source/rush/src/vault/vault_trait.rs.
package vault

import (
	"context"
	"sync"
)

// Vault is the interface every secret-store backend implements.
type Vault interface {
	// Get retrieves secrets for (product, component, environment). A
	// missing component returns an empty map, not an error.
	Get(ctx context.Context, product, component, environment string) (map[string]string, error)

	// Set stores secrets for (product, component, environment), replacing
	// whatever was previously stored for that component.
	Set(ctx context.Context, product, component, environment string, secrets map[string]string) error

	// Remove deletes secrets for (product, component, environment).
	Remove(ctx context.Context, product, component, environment string) error

	// CreateVault creates the backing store for product if it doesn't
	// already exist.
	CreateVault(ctx context.Context, product string) error

	// CheckIfVaultExists reports whether product's backing store exists.
	CheckIfVaultExists(ctx context.Context, product string) (bool, error)
}

// Guarded wraps a Vault behind a mutex, since the OnePassword
// implementation shells a CLI per call and is not safely reentrant —
// matching the concurrency model's "Vault is held behind a mutex" note.
type Guarded struct {
	mu sync.Mutex
	v  Vault
}

// NewGuarded wraps v for safe concurrent use from the Reactor's many
// per-image tasks.
func NewGuarded(v Vault) *Guarded {
	return &Guarded{v: v}
}

func (g *Guarded) Get(ctx context.Context, product, component, environment string) (map[string]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.v.Get(ctx, product, component, environment)
}

func (g *Guarded) Set(ctx context.Context, product, component, environment string, secrets map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.v.Set(ctx, product, component, environment, secrets)
}

func (g *Guarded) Remove(ctx context.Context, product, component, environment string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.v.Remove(ctx, product, component, environment)
}

func (g *Guarded) CreateVault(ctx context.Context, product string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.v.CreateVault(ctx, product)
}

func (g *Guarded) CheckIfVaultExists(ctx context.Context, product string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.v.CheckIfVaultExists(ctx, product)
}

var _ Vault = (*Guarded)(nil)
