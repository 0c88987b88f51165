// Package reactor owns the supervisor loop that drives a product's
// components through build, launch, and teardown: the Go-native successor
// to the teacher's pkg/watch.Orchestrator, generalized from one service's
// debounce-and-rebuild loop into a whole product's dependency-ordered
// build/launch/monitor/shutdown cycle.
package reactor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/wonop-io/rush/internal/buildctx"
	"github.com/wonop-io/rush/internal/config"
	"github.com/wonop-io/rush/internal/image"
	"github.com/wonop-io/rush/internal/infrarepo"
	"github.com/wonop-io/rush/internal/manifests"
	"github.com/wonop-io/rush/internal/pathmatcher"
	"github.com/wonop-io/rush/internal/rushlog"
	"github.com/wonop-io/rush/internal/spec"
	"github.com/wonop-io/rush/internal/status"
	"github.com/wonop-io/rush/internal/templateengine"
	"github.com/wonop-io/rush/internal/toolchain"
	"github.com/wonop-io/rush/internal/vault"
)

// Redirect overrides a component's ServiceSpec host/port to point at an
// externally running instance instead of a container this Reactor launches,
// and marks that component dev-ignored.
type Redirect struct {
	Host string
	Port int
}

// Reactor owns every component's Image plus the shared collaborators
// (ClusterManifests, InfrastructureRepo) needed to build, deploy, and
// interactively run a whole product.
type Reactor struct {
	Config    *config.Config
	Toolchain *toolchain.Toolchain
	Vault     vault.Vault
	Engine    *templateengine.Engine
	Logger    rushlog.LoggerInterface

	SecretsEncoder vault.SecretsEncoder
	ClusterManifests *manifests.ClusterManifests
	InfrastructureRepo *infrarepo.InfrastructureRepo

	Tag         string
	ArtefactDir string

	// ShutdownGrace is how long graceful shutdown waits for every image to
	// reach a terminal status before force-killing. Defaults to 5s.
	ShutdownGrace time.Duration

	names        []string
	images       []*image.Image
	imagesByName map[string]*image.Image
	watchGlobs   map[string]*pathmatcher.PathMatcher

	ignoreMatcher *pathmatcher.PathMatcher

	servicesByDomain map[string][]buildctx.ServiceSpec
	domainsByComponent map[string]string

	statusMu sync.Mutex
	statuses map[string]status.Status

	changeMu     sync.Mutex
	changedFiles map[string]struct{}
}

// New constructs a Reactor from every component's already-parsed build spec.
// tag is the shared image tag this run builds under (see
// image.ComputeTag); callers resolve it once, up front, so Reactor
// construction never needs a git repository to succeed.
func New(
	cfg *config.Config,
	tc *toolchain.Toolchain,
	v vault.Vault,
	secretsEncoder vault.SecretsEncoder,
	k8sEncoder manifests.K8sEncoder,
	engine *templateengine.Engine,
	logger rushlog.LoggerInterface,
	specs map[string]*spec.ComponentBuildSpec,
	order []string,
	redirects map[string]Redirect,
	silenced map[string]struct{},
	tag, outputDir, artefactDir string,
) (*Reactor, error) {
	names := order

	r := &Reactor{
		Config:              cfg,
		Toolchain:           tc,
		Vault:               v,
		Engine:              engine,
		Logger:              logger,
		SecretsEncoder:      secretsEncoder,
		Tag:                 tag,
		ArtefactDir:         artefactDir,
		ShutdownGrace:       5 * time.Second,
		names:               names,
		imagesByName:        make(map[string]*image.Image, len(names)),
		watchGlobs:          make(map[string]*pathmatcher.PathMatcher),
		servicesByDomain:    make(map[string][]buildctx.ServiceSpec),
		domainsByComponent:  make(map[string]string),
		statuses:            make(map[string]status.Status),
		changedFiles:        make(map[string]struct{}),
		ClusterManifests:    manifests.New(outputDir, tc, k8sEncoder, engine),
	}

	if cfg.InfrastructureRepository != "" {
		r.InfrastructureRepo = infrarepo.New(cfg.InfrastructureRepository, filepath.Join(outputDir, "..", "infrastructure"), "main", "")
	}

	nextPort := cfg.StartPort
	for _, name := range names {
		s := specs[name]
		img := image.New(s, cfg.ProductName, cfg.URI, string(cfg.Environment), tc, v, logger, engine)
		img.NetworkName = cfg.NetworkName
		if _, ok := s.BuildType.(spec.PureDockerImage); !ok {
			img.Repo = cfg.DockerRegistry
			if tag != "" {
				img.SetTag(tag)
			}
		}

		if _, isPureDocker := s.BuildType.(spec.PureDockerImage); !isPureDocker && img.Port == nil {
			port := nextPort
			nextPort++
			img.Port = &port
			if img.TargetPort == nil {
				target := port
				img.TargetPort = &target
			}
		}

		if _, ok := silenced[name]; ok {
			img.Silenced = true
		}

		host := name
		port := 0
		if img.Port != nil {
			port = *img.Port
		}
		targetPort := port
		if img.TargetPort != nil {
			targetPort = *img.TargetPort
		}
		if redirect, ok := redirects[name]; ok {
			img.DevIgnore = true
			host = redirect.Host
			port = redirect.Port
			targetPort = redirect.Port
		}

		domain, err := r.expandDomain(name, s.Subdomain)
		if err != nil {
			return nil, fmt.Errorf("reactor: component %s: %w", name, err)
		}
		r.domainsByComponent[name] = domain
		if domain != "" {
			r.servicesByDomain[domain] = append(r.servicesByDomain[domain], buildctx.ServiceSpec{
				Name:          name,
				Host:          host,
				Port:          port,
				TargetPort:    targetPort,
				Domain:        domain,
				ContainerName: name,
			})
		}

		if len(s.Watch) > 0 {
			r.watchGlobs[name] = pathmatcher.New(cfg.ProductDir, s.Watch)
		}

		if s.K8sDir != "" {
			inputDir := filepath.Join(cfg.ProductDir, s.K8sDir)
			if err := r.ClusterManifests.AddComponent(name, s, inputDir); err != nil {
				return nil, fmt.Errorf("reactor: %w", err)
			}
		}

		r.imagesByName[name] = img
		r.images = append(r.images, img)
	}

	ignoreMatcher, err := pathmatcher.NewFromGitignoreStack(cfg.ProductDir, cfg.ProductDir)
	if err != nil {
		return nil, fmt.Errorf("reactor: failed to build gitignore stack: %w", err)
	}
	r.ignoreMatcher = ignoreMatcher

	return r, nil
}

// expandDomain renders Config.DomainTemplate against a component's
// subdomain, returning "" when either is unset (the component has no
// externally addressable service).
func (r *Reactor) expandDomain(componentName, subdomain string) (string, error) {
	if subdomain == "" || r.Config.DomainTemplate == "" {
		return "", nil
	}
	return r.Engine.Render(componentName+"-domain", r.Config.DomainTemplate, struct{ Subdomain string }{Subdomain: subdomain})
}

// Images returns every registered image, in insertion (spec file) order.
func (r *Reactor) Images() []*image.Image {
	return r.images
}

// ImageByName returns a registered component's Image, or nil if name isn't
// a registered component.
func (r *Reactor) ImageByName(name string) *image.Image {
	return r.imagesByName[name]
}

// BuildContextFor resolves a single named component's BuildContext, for
// callers (e.g. `rush describe build-context`) that want to inspect it
// without running a build.
func (r *Reactor) BuildContextFor(ctx context.Context, componentName string) (buildctx.BuildContext, error) {
	img, ok := r.imagesByName[componentName]
	if !ok {
		return buildctx.BuildContext{}, fmt.Errorf("reactor: unknown component %q", componentName)
	}
	return r.buildContextFor(ctx, img)
}

// maxLabelLength is the widest component name, used to pad launch output
// labels to a common column.
func (r *Reactor) maxLabelLength() int {
	max := 0
	for _, name := range r.names {
		if len(name) > max {
			max = len(name)
		}
	}
	return max
}

// buildContextFor resolves a component's secrets from the vault, encodes
// them for manifest rendering, and projects the image into a BuildContext.
func (r *Reactor) buildContextFor(ctx context.Context, img *image.Image) (buildctx.BuildContext, error) {
	secrets, err := r.Vault.Get(ctx, r.Config.ProductName, img.ComponentName, string(r.Config.Environment))
	if err != nil {
		return buildctx.BuildContext{}, fmt.Errorf("reactor: failed to resolve secrets for %s: %w", img.ComponentName, err)
	}
	encoded := secrets
	if r.SecretsEncoder != nil {
		encoded = r.SecretsEncoder.EncodeSecrets(secrets)
	}
	bc := img.GenerateBuildContext(r.Config.DockerRegistry, r.servicesByDomain, r.domainsByComponent, r.Config.Variables, encoded)
	return bc, nil
}

// buildContexts computes a BuildContext for every registered component, for
// operations (BuildManifests, InstallManifests) that need the whole map at
// once.
func (r *Reactor) buildContexts(ctx context.Context) (map[string]buildctx.BuildContext, error) {
	out := make(map[string]buildctx.BuildContext, len(r.images))
	for _, img := range r.images {
		bc, err := r.buildContextFor(ctx, img)
		if err != nil {
			return nil, err
		}
		out[img.ComponentName] = bc
	}
	return out, nil
}

// writerFor returns the writer an image's launch output should stream
// through: out itself, or io.Discard for a silenced component.
func (r *Reactor) writerFor(img *image.Image, out io.Writer) io.Writer {
	if img.Silenced {
		return io.Discard
	}
	return out
}
