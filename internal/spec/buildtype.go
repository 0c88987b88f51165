// Package spec parses stack.spec.yaml into ComponentBuildSpec values and
// the closed set of BuildType variants each of them carries.
//
// Grounded on original_source/rush/src/builder/build_type.rs and
// original_source/rush/src/builder/spec.rs.
package spec

// BuildType is the closed set of ways a component can be built. Each
// variant carries the paths it needs (dockerfile location, build context
// directory).
type BuildType interface {
	Kind() string
}

// pathBuildType is the shape shared by TrunkWasm, RustBinary, Book, Zola,
// and Script: a source location, a Dockerfile, and an optional separate
// docker build context directory (defaulting to "." when unset).
type pathBuildType struct {
	kind           string
	Location       string
	DockerfilePath string
	ContextDir     string
}

func (p pathBuildType) Kind() string { return p.kind }

// TrunkWasm builds a Rust/WASM frontend via trunk.
type TrunkWasm struct {
	pathBuildType
	SSR                bool
	Features           []string
	PrecompileCommands []string
}

func NewTrunkWasm(location, dockerfilePath, contextDir string, ssr bool, features, precompile []string) TrunkWasm {
	return TrunkWasm{
		pathBuildType:      pathBuildType{kind: "TrunkWasm", Location: location, DockerfilePath: dockerfilePath, ContextDir: contextDir},
		SSR:                ssr,
		Features:           features,
		PrecompileCommands: precompile,
	}
}

// RustBinary builds a plain Rust binary.
type RustBinary struct {
	pathBuildType
	Features           []string
	PrecompileCommands []string
}

func NewRustBinary(location, dockerfilePath, contextDir string, features, precompile []string) RustBinary {
	return RustBinary{
		pathBuildType:      pathBuildType{kind: "RustBinary", Location: location, DockerfilePath: dockerfilePath, ContextDir: contextDir},
		Features:           features,
		PrecompileCommands: precompile,
	}
}

// Book builds an mdBook documentation site.
type Book struct{ pathBuildType }

func NewBook(location, dockerfilePath, contextDir string) Book {
	return Book{pathBuildType{kind: "Book", Location: location, DockerfilePath: dockerfilePath, ContextDir: contextDir}}
}

// Zola builds a Zola static site.
type Zola struct{ pathBuildType }

func NewZola(location, dockerfilePath, contextDir string) Zola {
	return Zola{pathBuildType{kind: "Zola", Location: location, DockerfilePath: dockerfilePath, ContextDir: contextDir}}
}

// Script runs an arbitrary precompile script before the docker build.
type Script struct{ pathBuildType }

func NewScript(location, dockerfilePath, contextDir string) Script {
	return Script{pathBuildType{kind: "Script", Location: location, DockerfilePath: dockerfilePath, ContextDir: contextDir}}
}

// Ingress aggregates a set of named components behind a single reverse
// proxy image; Components lists which service names it fronts.
type Ingress struct {
	DockerfilePath string
	ContextDir     string
	Components     []string
}

func (Ingress) Kind() string { return "Ingress" }

// PureDockerImage skips the build phase entirely: ImageNameWithTag is
// already present (e.g. pulled from a registry).
type PureDockerImage struct {
	ImageNameWithTag string
	Command          *string
	Entrypoint       *string
}

func (PureDockerImage) Kind() string { return "PureDockerImage" }

// PureKubernetes has no image phase at all — manifests only.
type PureKubernetes struct{}

func (PureKubernetes) Kind() string { return "PureKubernetes" }

// KubernetesInstallation is a namespace-scoped bundle of cluster resources
// installed/uninstalled as a unit, also with no image phase.
type KubernetesInstallation struct {
	Namespace string
}

func (KubernetesInstallation) Kind() string { return "KubernetesInstallation" }

var (
	_ BuildType = TrunkWasm{}
	_ BuildType = RustBinary{}
	_ BuildType = Book{}
	_ BuildType = Zola{}
	_ BuildType = Script{}
	_ BuildType = Ingress{}
	_ BuildType = PureDockerImage{}
	_ BuildType = PureKubernetes{}
	_ BuildType = KubernetesInstallation{}
)

// HasImagePhase reports whether bt requires building/pushing/launching a
// container image, per §4.3: PureKubernetes and KubernetesInstallation
// skip the image phase entirely.
func HasImagePhase(bt BuildType) bool {
	switch bt.(type) {
	case PureKubernetes, KubernetesInstallation:
		return false
	default:
		return true
	}
}

// RequiresBuild reports whether bt needs docker build to run at all, as
// opposed to PureDockerImage which treats its tag as already present.
func RequiresBuild(bt BuildType) bool {
	switch bt.(type) {
	case PureDockerImage, PureKubernetes, KubernetesInstallation:
		return false
	default:
		return true
	}
}
