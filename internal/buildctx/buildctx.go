// Package buildctx builds the immutable record handed to the template
// engine when rendering build scripts, artefacts, and manifests: a
// component's build type, its resolved services and domains, and the
// product-wide config, secrets, and toolchain values it needs.
//
// Grounded on original_source/rush/src/builder/build_context.rs.
package buildctx

import (
	"github.com/wonop-io/rush/internal/spec"
	"github.com/wonop-io/rush/internal/toolchain"
)

// ServiceSpec is one entry the template engine can address by domain: a
// running (or about-to-run) container's externally visible coordinates.
type ServiceSpec struct {
	Name           string
	Host           string
	Port           int
	TargetPort     int
	MountPoint     string
	Domain         string
	ContainerName  string
}

// BuildContext is pure and immutable once constructed.
type BuildContext struct {
	BuildType spec.BuildType
	Location  string
	Host      toolchain.Platform
	Target    toolchain.Platform
	RustTarget string

	Services map[string][]ServiceSpec // keyed by domain

	Environment   string
	Domain        string
	ProductName   string
	ProductURI    string
	Component     string
	DockerRegistry string
	ImageName     string

	Env     map[string]string
	Secrets map[string]string
	Domains map[string]string // component -> domain
}

// rustTargetTriples maps a toolchain.Platform to the Rust target triple
// the teacher's build scripts cross-compile for.
var rustTargetTriples = map[toolchain.Platform]string{
	"linux/amd64": "x86_64-unknown-linux-musl",
	"linux/arm64": "aarch64-unknown-linux-musl",
}

// New projects a ComponentBuildSpec plus the current toolchain, resolved
// secrets, and full cross-component service/domain maps into an immutable
// BuildContext. For an Ingress build type, services is filtered down to
// only the names the ingress's `components` list declares.
func New(
	s *spec.ComponentBuildSpec,
	host, target toolchain.Platform,
	environment, productName, productURI, dockerRegistry, imageName string,
	allServices map[string][]ServiceSpec,
	allDomains map[string]string,
	env map[string]string,
	secrets map[string]string,
) BuildContext {
	services := allServices
	if ingress, ok := s.BuildType.(spec.Ingress); ok {
		services = filterServices(allServices, ingress.Components)
	}

	return BuildContext{
		BuildType:      s.BuildType,
		Location:       componentLocation(s.BuildType),
		Host:           host,
		Target:         target,
		RustTarget:     rustTargetTriples[target],
		Services:       services,
		Environment:    environment,
		Domain:         s.Subdomain,
		ProductName:    productName,
		ProductURI:     productURI,
		Component:      s.ComponentName,
		DockerRegistry: dockerRegistry,
		ImageName:      imageName,
		Env:            env,
		Secrets:        secrets,
		Domains:        allDomains,
	}
}

// filterServices keeps only the domains whose service list contains at
// least one name from allowed, and within those domains only the allowed
// services.
func filterServices(all map[string][]ServiceSpec, allowed []string) map[string][]ServiceSpec {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = struct{}{}
	}

	filtered := make(map[string][]ServiceSpec, len(all))
	for domain, services := range all {
		var kept []ServiceSpec
		for _, svc := range services {
			if _, ok := allowedSet[svc.Name]; ok {
				kept = append(kept, svc)
			}
		}
		if len(kept) > 0 {
			filtered[domain] = kept
		}
	}
	return filtered
}

// componentLocation extracts the source-tree location field BuildType
// variants that have one carry, empty for the ones that don't (Ingress,
// PureDockerImage, PureKubernetes, KubernetesInstallation).
func componentLocation(bt spec.BuildType) string {
	switch v := bt.(type) {
	case spec.TrunkWasm:
		return v.Location
	case spec.RustBinary:
		return v.Location
	case spec.Book:
		return v.Location
	case spec.Zola:
		return v.Location
	case spec.Script:
		return v.Location
	default:
		return ""
	}
}
