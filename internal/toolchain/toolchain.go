// Package toolchain locates the external executables rush shells out to
// and owns the cross-compile environment scope guard used during an
// image's build step.
//
// Grounded on original_source/rush/src/utils.rs (DockerCrossCompileGuard,
// the Directory cwd guard) and the teacher's pkg/registry loader pattern
// for locating/validating an external CLI via exec.
package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Platform is a target/host platform string, e.g. "linux/amd64".
type Platform string

// Toolchain locates the external executables (docker, kubectl, kubeseal,
// kubeconform/kubeval, minikube, git) the system treats as collaborators.
type Toolchain struct {
	Host   Platform
	Target Platform

	binaries map[string]string
}

// KnownBinaries lists every external executable New probes for, in a fixed
// order so callers (e.g. `rush describe toolchain`) can report on all of
// them deterministically regardless of which were actually found.
var KnownBinaries = []string{"docker", "kubectl", "kubeseal", "kubeconform", "kubeval", "minikube", "kind", "git"}

// New probes PATH for every external executable rush may invoke. Binaries
// that aren't found are recorded as missing and only surface as an error
// the first time a caller tries to use them — mirroring the spec's
// collaborator-boundary treatment of these tools (they are optional until
// exercised, e.g. kubeseal is unused when the k8s-encoder is Noop).
func New(host, target Platform) *Toolchain {
	t := &Toolchain{Host: host, Target: target, binaries: map[string]string{}}
	for _, name := range KnownBinaries {
		if p, err := exec.LookPath(name); err == nil {
			t.binaries[name] = p
		}
	}
	return t
}

// Binaries returns a copy of the resolved-path map for every known
// executable that was found on PATH at construction time.
func (t *Toolchain) Binaries() map[string]string {
	out := make(map[string]string, len(t.binaries))
	for name, path := range t.binaries {
		out[name] = path
	}
	return out
}

// Resolve returns the absolute path of a required external executable, or
// an error naming what's missing and how to install it.
func (t *Toolchain) Resolve(name string) (string, error) {
	if p, ok := t.binaries[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%s not found on PATH; install it and retry", name)
}

// Command builds an *exec.Cmd for a resolved toolchain binary.
func (t *Toolchain) Command(ctx context.Context, name string, args ...string) (*exec.Cmd, error) {
	path, err := t.Resolve(name)
	if err != nil {
		return nil, err
	}
	return exec.CommandContext(ctx, path, args...), nil
}

// CrossCompileGuard temporarily sets CROSS_CONTAINER_OPTS and
// DOCKER_DEFAULT_PLATFORM for the duration of a build, restoring whatever
// value (or absence of one) was previously set. Every code path that
// acquires one must call Release, typically via defer.
type CrossCompileGuard struct {
	prevOpts     (*string)
	prevPlatform (*string)
}

// AcquireCrossCompileGuard sets the process-wide env vars for target and
// returns a guard that restores the previous values on Release.
func AcquireCrossCompileGuard(target Platform) *CrossCompileGuard {
	g := &CrossCompileGuard{
		prevOpts:     lookupEnv("CROSS_CONTAINER_OPTS"),
		prevPlatform: lookupEnv("DOCKER_DEFAULT_PLATFORM"),
	}
	os.Setenv("CROSS_CONTAINER_OPTS", fmt.Sprintf("--platform %s", target))
	os.Setenv("DOCKER_DEFAULT_PLATFORM", string(target))
	return g
}

// Release restores the environment to what it was before Acquire.
func (g *CrossCompileGuard) Release() {
	restoreEnv("CROSS_CONTAINER_OPTS", g.prevOpts)
	restoreEnv("DOCKER_DEFAULT_PLATFORM", g.prevPlatform)
}

func lookupEnv(name string) *string {
	if v, ok := os.LookupEnv(name); ok {
		return &v
	}
	return nil
}

func restoreEnv(name string, prev *string) {
	if prev == nil {
		os.Unsetenv(name)
		return
	}
	os.Setenv(name, *prev)
}

// WorkingDirGuard changes the process working directory and restores the
// previous one on Release; mirrors the original's Directory::chdir guard.
type WorkingDirGuard struct {
	previous string
}

// Chdir changes into dir, returning a guard that restores the previous cwd.
func Chdir(dir string) (*WorkingDirGuard, error) {
	previous, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("toolchain: failed to get current directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return nil, fmt.Errorf("toolchain: failed to chdir to %s: %w", dir, err)
	}
	return &WorkingDirGuard{previous: previous}, nil
}

// Release restores the previous working directory.
func (g *WorkingDirGuard) Release() error {
	return os.Chdir(g.previous)
}
