package spec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func noopExpand(raw string) (string, error) { return raw, nil }

func TestParseAll_RustBinary(t *testing.T) {
	raw := []byte(`
api:
  build_type: RustBinary
  location: services/api
  dockerfile: services/api/Dockerfile
  priority: 10
  depends_on: [db]
`)
	specs, _, err := ParseAll("demo", "/product", raw, noopExpand)
	require.NoError(t, err)

	api := specs["api"]
	require.Equal(t, "RustBinary", api.BuildType.Kind())
	require.Equal(t, 10, api.Priority)
	require.Equal(t, []string{"db"}, api.DependsOn)

	rb := api.BuildType.(RustBinary)
	require.Equal(t, "services/api", rb.Location)
	require.Equal(t, ".", rb.ContextDir)
}

func TestParseAll_MissingRequiredFieldErrors(t *testing.T) {
	raw := []byte(`
api:
  build_type: RustBinary
  dockerfile: services/api/Dockerfile
`)
	_, _, err := ParseAll("demo", "/product", raw, noopExpand)
	require.Error(t, err)
}

func TestParseAll_DefaultPriorityIs100(t *testing.T) {
	raw := []byte(`
db:
  build_type: PureKubernetes
`)
	specs, _, err := ParseAll("demo", "/product", raw, noopExpand)
	require.NoError(t, err)
	require.Equal(t, defaultPriority, specs["db"].Priority)
}

func TestParseAll_IngressRequiresComponents(t *testing.T) {
	raw := []byte(`
gw:
  build_type: Ingress
  dockerfile: gw/Dockerfile
`)
	_, _, err := ParseAll("demo", "/product", raw, noopExpand)
	require.Error(t, err)
}

func TestParseAll_ExpandsTemplateVariable(t *testing.T) {
	raw := []byte(`
api:
  build_type: RustBinary
  location: "{{ API_LOCATION }}"
  dockerfile: api/Dockerfile
`)
	expand := VariablesExpander(map[string]string{"API_LOCATION": "services/api"})
	specs, _, err := ParseAll("demo", "/product", raw, expand)
	require.NoError(t, err)

	rb := specs["api"].BuildType.(RustBinary)
	require.Equal(t, "services/api", rb.Location)
}

func TestParseAll_UnresolvedVariableIsFatal(t *testing.T) {
	raw := []byte(`
api:
  build_type: RustBinary
  location: "{{ MISSING }}"
  dockerfile: api/Dockerfile
`)
	expand := VariablesExpander(map[string]string{})
	_, _, err := ParseAll("demo", "/product", raw, expand)
	require.Error(t, err)
}

func TestParseAll_OrderMatchesDeclarationNotAlphabetical(t *testing.T) {
	raw := []byte(`
worker:
  build_type: PureKubernetes
api:
  build_type: PureKubernetes
db:
  build_type: PureKubernetes
`)
	_, order, err := ParseAll("demo", "/product", raw, noopExpand)
	require.NoError(t, err)
	require.Equal(t, []string{"worker", "api", "db"}, order)
}

func TestParseAll_AbsolutizesVolumeHostPaths(t *testing.T) {
	raw := []byte(`
api:
  build_type: RustBinary
  location: services/api
  dockerfile: services/api/Dockerfile
  volumes:
    "./data": /data
    "/already/absolute": /abs
`)
	specs, _, err := ParseAll("demo", "/product", raw, noopExpand)
	require.NoError(t, err)

	volumes := specs["api"].Volumes
	require.Equal(t, "/data", volumes["/product/data"])
	require.Equal(t, "/abs", volumes["/already/absolute"])
}

func TestHasImagePhase_FalseForPureKubernetes(t *testing.T) {
	require.False(t, HasImagePhase(PureKubernetes{}))
	require.False(t, HasImagePhase(KubernetesInstallation{Namespace: "ns"}))
	require.True(t, HasImagePhase(RustBinary{}))
}

func TestRequiresBuild_FalseForPureDockerImage(t *testing.T) {
	require.False(t, RequiresBuild(PureDockerImage{ImageNameWithTag: "nginx:latest"}))
	require.True(t, RequiresBuild(RustBinary{}))
}
