// Package image owns one component's container image through its whole
// lifecycle: computing its tag, building it, pushing it to the registry,
// launching it as a running container, and tearing it back down.
//
// Grounded on the teacher's pkg/builder/docker/builder.go (exec-based
// `docker build`, piped stdout/stderr streaming) and
// original_source/rush/src/container/docker.rs, whose DockerImage struct
// and launch/build/push/kill/clean methods this generalizes across every
// BuildType variant instead of just a single Dockerfile build.
package image

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"github.com/wonop-io/rush/internal/buildctx"
	"github.com/wonop-io/rush/internal/rushlog"
	"github.com/wonop-io/rush/internal/spec"
	"github.com/wonop-io/rush/internal/status"
	"github.com/wonop-io/rush/internal/templateengine"
	"github.com/wonop-io/rush/internal/toolchain"
	"github.com/wonop-io/rush/internal/vault"
)

// Image is one component's container image: its build-time identity (name,
// tag, Dockerfile/context) plus the runtime state the Reactor drives it
// through (should-rebuild flag, assigned port, network membership).
type Image struct {
	Spec *spec.ComponentBuildSpec

	ComponentName string
	ProductName   string
	ProductURI    string
	Environment   string
	Color         string

	ImageName string // "<product>-<component>"
	Repo      string // docker registry, empty when pushing isn't needed
	NetworkName string

	Port       *int
	TargetPort *int

	DependsOn []string

	Toolchain *toolchain.Toolchain
	Vault     vault.Vault
	Logger    rushlog.LoggerInterface
	Engine    *templateengine.Engine

	// ReadyHook holds a caller-supplied readiness check (e.g. polling an
	// HTTP health endpoint). Launch does not call it: StartupCompleted is
	// always reported when the first line of output is observed.
	ReadyHook func() bool

	// DevIgnore excludes this image from the dev loop's build/launch
	// cycle entirely — set for components redirected to an externally
	// running instance.
	DevIgnore bool
	// Silenced drops this image's stdout/stderr instead of streaming it
	// through the labeled writer, for noisy components a developer
	// doesn't want interleaved into the console.
	Silenced bool

	mu            sync.Mutex
	tag           string
	shouldRebuild bool
}

// New builds an Image for one component's build spec. The toolchain, vault,
// and logger are shared across every component in the product.
func New(s *spec.ComponentBuildSpec, productName, productURI, environment string, tc *toolchain.Toolchain, v vault.Vault, logger rushlog.LoggerInterface, engine *templateengine.Engine) *Image {
	return &Image{
		Spec:          s,
		ComponentName: s.ComponentName,
		ProductName:   productName,
		ProductURI:    productURI,
		Environment:   environment,
		Color:         s.Color,
		ImageName:     fmt.Sprintf("%s-%s", productName, s.ComponentName),
		Port:          s.Port,
		TargetPort:    s.TargetPort,
		DependsOn:     s.DependsOn,
		Toolchain:     tc,
		Vault:         v,
		Logger:        logger,
		Engine:        engine,
		shouldRebuild: true,
	}
}

// SetTag records the tag this image was most recently built (or resolved)
// under.
func (img *Image) SetTag(tag string) {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.tag = tag
}

func (img *Image) Tag() string {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.tag
}

// TaggedImageName is "<image-name>:<tag>"; it panics the caller's
// expectations loudly via an error instead of the original's
// `.expect("Image is not tagged")` panic.
func (img *Image) TaggedImageName() (string, error) {
	tag := img.Tag()
	if tag == "" {
		return "", fmt.Errorf("image %s: not tagged yet", img.ImageName)
	}
	return fmt.Sprintf("%s:%s", img.ImageName, tag), nil
}

// Identifier is the fully-qualified name docker push/pull and manifest
// rendering refer to this image by: the registry-qualified tag, or for
// PureDockerImage the pre-existing image reference verbatim.
func (img *Image) Identifier() (string, error) {
	if pdi, ok := img.Spec.BuildType.(spec.PureDockerImage); ok && img.Repo == "" {
		return pdi.ImageNameWithTag, nil
	}
	tagged, err := img.TaggedImageName()
	if err != nil {
		return "", err
	}
	if img.Repo != "" {
		return fmt.Sprintf("%s/%s", img.Repo, tagged), nil
	}
	return tagged, nil
}

// ShouldRebuild reports whether the next launch cycle should rebuild this
// image rather than reuse the last build.
func (img *Image) ShouldRebuild() bool {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.shouldRebuild
}

func (img *Image) SetShouldRebuild(v bool) {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.shouldRebuild = v
}

// dockerfileAndContext extracts the Dockerfile path and build context
// directory from build types that have an image phase with a Dockerfile.
// Ingress carries its own Dockerfile directly rather than through
// pathBuildType; PureDockerImage/PureKubernetes/KubernetesInstallation
// have no Dockerfile at all.
func dockerfileAndContext(bt spec.BuildType) (dockerfile, contextDir string, ok bool) {
	switch v := bt.(type) {
	case spec.TrunkWasm:
		return v.DockerfilePath, v.ContextDir, true
	case spec.RustBinary:
		return v.DockerfilePath, v.ContextDir, true
	case spec.Book:
		return v.DockerfilePath, v.ContextDir, true
	case spec.Zola:
		return v.DockerfilePath, v.ContextDir, true
	case spec.Script:
		return v.DockerfilePath, v.ContextDir, true
	case spec.Ingress:
		return v.DockerfilePath, v.ContextDir, true
	default:
		return "", "", false
	}
}

// CreateCrossCompileGuard scopes CROSS_CONTAINER_OPTS/DOCKER_DEFAULT_PLATFORM
// for the duration of a build. PureDockerImage never cross
// compiles anything itself, so it guards for the host platform; every
// build type with a real Dockerfile guards for the toolchain's target.
func (img *Image) CreateCrossCompileGuard() *toolchain.CrossCompileGuard {
	target := img.Toolchain.Target
	if _, ok := img.Spec.BuildType.(spec.PureDockerImage); ok {
		target = img.Toolchain.Host
	}
	return toolchain.AcquireCrossCompileGuard(target)
}

// GenerateBuildContext projects this image's spec plus resolved secrets
// into the immutable BuildContext the template engine renders against.
func (img *Image) GenerateBuildContext(dockerRegistry string, allServices map[string][]buildctx.ServiceSpec, allDomains map[string]string, env, secrets map[string]string) buildctx.BuildContext {
	imageRef, _ := img.Identifier()
	return buildctx.New(img.Spec, img.Toolchain.Host, img.Toolchain.Target, img.Environment, img.ProductName, img.ProductURI, dockerRegistry, imageRef, allServices, allDomains, env, secrets)
}

// BuildScript renders this image's precompile commands (TrunkWasm/
// RustBinary only) against ctx, joined into a single shell script. The
// second return is false when the build type carries no precompile step.
func (img *Image) BuildScript(ctx buildctx.BuildContext) (string, bool, error) {
	var commands []string
	switch v := img.Spec.BuildType.(type) {
	case spec.TrunkWasm:
		commands = v.PrecompileCommands
	case spec.RustBinary:
		commands = v.PrecompileCommands
	default:
		return "", false, nil
	}
	if len(commands) == 0 {
		return "", false, nil
	}

	rendered := make([]string, 0, len(commands))
	for i, cmd := range commands {
		out, err := img.Engine.Render(fmt.Sprintf("%s-precompile-%d", img.ComponentName, i), cmd, ctx)
		if err != nil {
			return "", false, fmt.Errorf("image %s: failed to render precompile command %d: %w", img.ComponentName, i, err)
		}
		rendered = append(rendered, out)
	}
	return strings.Join(rendered, "\n"), true, nil
}

// IsAnyFileInContext reports whether any of filePaths falls within this
// image's Dockerfile directory or build context, used by significant-change
// detection to decide whether a changed file should trigger a rebuild.
func (img *Image) IsAnyFileInContext(filePaths []string) bool {
	dockerfile, contextDir, ok := dockerfileAndContext(img.Spec.BuildType)
	if !ok {
		return false
	}
	absDockerfile, err := filepath.Abs(dockerfile)
	if err != nil {
		return false
	}
	dockerfileDir := filepath.Dir(absDockerfile)

	absContextDir := dockerfileDir
	if contextDir != "" && contextDir != "." {
		absContextDir, err = filepath.Abs(filepath.Join(dockerfileDir, contextDir))
		if err != nil {
			absContextDir = dockerfileDir
		}
	}

	for _, fp := range filePaths {
		absFile, err := filepath.Abs(fp)
		if err != nil {
			continue
		}
		if strings.HasPrefix(absFile, absContextDir) || strings.HasPrefix(absFile, dockerfileDir) {
			return true
		}
	}
	return false
}

// colorStyle maps the spec's free-form color name onto a pterm style,
// falling back to plain white-bold for anything it doesn't recognize.
func colorStyle(name string) *pterm.Style {
	switch strings.ToLower(name) {
	case "red":
		return pterm.NewStyle(pterm.FgRed, pterm.Bold)
	case "green":
		return pterm.NewStyle(pterm.FgGreen, pterm.Bold)
	case "yellow":
		return pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	case "blue":
		return pterm.NewStyle(pterm.FgBlue, pterm.Bold)
	case "magenta", "purple":
		return pterm.NewStyle(pterm.FgMagenta, pterm.Bold)
	case "cyan":
		return pterm.NewStyle(pterm.FgCyan, pterm.Bold)
	default:
		return pterm.NewStyle(pterm.FgWhite, pterm.Bold)
	}
}

// streamOutput prints every line read from r prefixed with a fixed-width,
// color-styled label, mirroring the teacher's Builder.streamOutput and the
// original's formatted_label println loop.
func streamOutput(label string, style *pterm.Style, r io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		fmt.Fprintf(out, "%s |   %s\n", style.Sprint(label), line)
	}
}

// runCommand runs name with args to completion, streaming its combined
// output through a label-prefixed writer. Used for the short, synchronous
// docker subcommands (build/tag/push/kill/clean/inspect), as opposed to
// Launch's long-running container process.
func runCommand(ctx context.Context, label string, name string, args []string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("image: failed to open stdout pipe for %s: %w", name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("image: failed to open stderr pipe for %s: %w", name, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("image: failed to start %s: %w", name, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	style := colorStyle("white")
	go func() { defer wg.Done(); streamOutput(label, style, stdout, out) }()
	go func() { defer wg.Done(); streamOutput(label, style, stderr, out) }()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("image: %s %s failed: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

// outputCommand runs name with args to completion and returns its trimmed
// stdout, for the check-before-kill/check-before-clean `docker ps` probes.
func outputCommand(ctx context.Context, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("image: %s %s failed: %w", name, strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}
