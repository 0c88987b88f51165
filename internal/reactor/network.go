package reactor

import (
	"context"
	"fmt"
	"io"
)

// createNetwork creates the product's shared docker network if it doesn't
// already exist, mirroring the original's `docker network inspect` /
// `docker network create -d bridge` probe-then-create.
func (r *Reactor) createNetwork(ctx context.Context, out io.Writer) error {
	docker, err := r.Toolchain.Resolve("docker")
	if err != nil {
		return fmt.Errorf("reactor: %w", err)
	}

	if _, err := outputCommand(ctx, docker, []string{"network", "inspect", r.Config.NetworkName}); err == nil {
		return nil
	}
	return runCommand(ctx, "network", docker, []string{"network", "create", "-d", "bridge", r.Config.NetworkName}, out)
}

// deleteNetwork removes the product's shared docker network if it exists.
func (r *Reactor) deleteNetwork(ctx context.Context, out io.Writer) error {
	docker, err := r.Toolchain.Resolve("docker")
	if err != nil {
		return fmt.Errorf("reactor: %w", err)
	}

	if _, err := outputCommand(ctx, docker, []string{"network", "inspect", r.Config.NetworkName}); err != nil {
		return nil
	}
	return runCommand(ctx, "network", docker, []string{"network", "rm", r.Config.NetworkName}, out)
}
