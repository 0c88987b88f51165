package buildctx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonop-io/rush/internal/spec"
	"github.com/wonop-io/rush/internal/toolchain"
)

func TestNew_ProjectsRustBinaryLocation(t *testing.T) {
	s := &spec.ComponentBuildSpec{
		ComponentName: "api",
		BuildType:     spec.NewRustBinary("services/api", "Dockerfile", ".", nil, nil),
	}

	host := toolchain.Platform("linux/amd64")
	bc := New(s, host, host, "local", "demo", "demo", "localhost:5000", "demo-api:abc12345",
		nil, nil, map[string]string{}, map[string]string{})

	require.Equal(t, "services/api", bc.Location)
	require.Equal(t, "x86_64-unknown-linux-musl", bc.RustTarget)
	require.Equal(t, "api", bc.Component)
}

func TestNew_IngressFiltersServicesToDeclaredComponents(t *testing.T) {
	s := &spec.ComponentBuildSpec{
		ComponentName: "gw",
		BuildType:     spec.Ingress{DockerfilePath: "gw/Dockerfile", ContextDir: ".", Components: []string{"api"}},
	}

	all := map[string][]ServiceSpec{
		"example.com": {
			{Name: "api", Host: "api", Port: 8080},
			{Name: "worker", Host: "worker", Port: 9090},
		},
	}

	host := toolchain.Platform("linux/amd64")
	bc := New(s, host, host, "local", "demo", "demo", "localhost:5000", "demo-gw:abc12345",
		all, nil, map[string]string{}, map[string]string{})

	require.Len(t, bc.Services["example.com"], 1)
	require.Equal(t, "api", bc.Services["example.com"][0].Name)
}

func TestNew_PureKubernetesHasNoLocation(t *testing.T) {
	s := &spec.ComponentBuildSpec{
		ComponentName: "db",
		BuildType:     spec.PureKubernetes{},
	}

	host := toolchain.Platform("linux/amd64")
	bc := New(s, host, host, "local", "demo", "demo", "localhost:5000", "",
		nil, nil, map[string]string{}, map[string]string{})

	require.Empty(t, bc.Location)
}
