package reactor

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonop-io/rush/internal/config"
	"github.com/wonop-io/rush/internal/manifests"
	"github.com/wonop-io/rush/internal/rushlog"
	"github.com/wonop-io/rush/internal/spec"
	"github.com/wonop-io/rush/internal/templateengine"
	"github.com/wonop-io/rush/internal/toolchain"
	"github.com/wonop-io/rush/internal/vault"
)

// fakeVault is an in-memory vault.Vault used only by this package's tests.
type fakeVault struct {
	secrets map[string]map[string]string
}

func newFakeVault() *fakeVault { return &fakeVault{secrets: map[string]map[string]string{}} }

func (f *fakeVault) Get(_ context.Context, _, component, _ string) (map[string]string, error) {
	if s, ok := f.secrets[component]; ok {
		return s, nil
	}
	return map[string]string{}, nil
}
func (f *fakeVault) Set(_ context.Context, _, component, _ string, secrets map[string]string) error {
	f.secrets[component] = secrets
	return nil
}
func (f *fakeVault) Remove(_ context.Context, _, component, _ string) error {
	delete(f.secrets, component)
	return nil
}
func (f *fakeVault) CreateVault(context.Context, string) error                { return nil }
func (f *fakeVault) CheckIfVaultExists(context.Context, string) (bool, error) { return true, nil }

var _ vault.Vault = (*fakeVault)(nil)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ProductName:    "demo",
		URI:            "demo",
		ProductDir:     t.TempDir(),
		Environment:    config.EnvLocal,
		DockerRegistry: "localhost:5000",
		NetworkName:    "net-demo",
		StartPort:      8080,
		DomainTemplate: "{{ .Subdomain }}.dev.example.com",
		Variables:      map[string]string{},
	}
}

func newTestReactor(t *testing.T, specs map[string]*spec.ComponentBuildSpec, redirects map[string]Redirect) *Reactor {
	t.Helper()
	cfg := testConfig(t)
	tc := toolchain.New("linux/amd64", "linux/amd64")
	engine := templateengine.New()

	order := make([]string, 0, len(specs))
	for name := range specs {
		order = append(order, name)
	}
	sort.Strings(order)

	r, err := New(cfg, tc, newFakeVault(), vault.NoopEncoder{}, manifests.NoopEncoder{}, engine, rushlog.Init(false),
		specs, order, redirects, map[string]struct{}{}, "abc1234", t.TempDir(), t.TempDir())
	require.NoError(t, err)
	return r
}

func rustSpec(name string, dependsOn []string) *spec.ComponentBuildSpec {
	return &spec.ComponentBuildSpec{
		ComponentName: name,
		BuildType:     spec.NewRustBinary("services/"+name, "services/"+name+"/Dockerfile", ".", nil, nil),
		DependsOn:     dependsOn,
		Subdomain:     name,
	}
}

func TestNew_AssignsPortsMonotonicallyForComponentsWithoutExplicitPort(t *testing.T) {
	specs := map[string]*spec.ComponentBuildSpec{
		"api":    rustSpec("api", nil),
		"worker": rustSpec("worker", nil),
	}
	r := newTestReactor(t, specs, nil)

	api := r.imagesByName["api"]
	worker := r.imagesByName["worker"]
	require.NotNil(t, api.Port)
	require.NotNil(t, worker.Port)
	require.NotEqual(t, *api.Port, *worker.Port)
	require.GreaterOrEqual(t, *api.Port, 8080)
	require.GreaterOrEqual(t, *worker.Port, 8080)
}

func TestNew_ExplicitPortIsNotReassigned(t *testing.T) {
	port := 9999
	s := rustSpec("api", nil)
	s.Port = &port
	r := newTestReactor(t, map[string]*spec.ComponentBuildSpec{"api": s}, nil)

	require.Equal(t, 9999, *r.imagesByName["api"].Port)
}

func TestNew_RedirectMarksDevIgnoreAndOverridesServiceHostPort(t *testing.T) {
	specs := map[string]*spec.ComponentBuildSpec{
		"api": rustSpec("api", nil),
	}
	r := newTestReactor(t, specs, map[string]Redirect{"api": {Host: "localhost", Port: 4000}})

	img := r.imagesByName["api"]
	require.True(t, img.DevIgnore)

	domain := r.domainsByComponent["api"]
	require.Equal(t, "api.dev.example.com", domain)

	services := r.servicesByDomain[domain]
	require.Len(t, services, 1)
	require.Equal(t, "localhost", services[0].Host)
	require.Equal(t, 4000, services[0].Port)
}

func TestNew_DomainExpandedFromSubdomainTemplate(t *testing.T) {
	specs := map[string]*spec.ComponentBuildSpec{
		"api": rustSpec("api", nil),
	}
	r := newTestReactor(t, specs, nil)
	require.Equal(t, "api.dev.example.com", r.domainsByComponent["api"])
}

func TestComputePriorities_LongestDependencyChain(t *testing.T) {
	specs := map[string]*spec.ComponentBuildSpec{
		"db":     rustSpec("db", nil),
		"api":    rustSpec("api", []string{"db"}),
		"worker": rustSpec("worker", []string{"db"}),
		"gw":     rustSpec("gw", []string{"api", "worker"}),
	}
	r := newTestReactor(t, specs, nil)

	priorities := r.computePriorities()
	require.Equal(t, 0, priorities["db"])
	require.Equal(t, 1, priorities["api"])
	require.Equal(t, 1, priorities["worker"])
	require.Equal(t, 2, priorities["gw"])
}

func TestCheckSignificantChange_MarksOnlyMatchingImages(t *testing.T) {
	specs := map[string]*spec.ComponentBuildSpec{
		"api":    rustSpec("api", nil),
		"worker": rustSpec("worker", nil),
	}
	r := newTestReactor(t, specs, nil)
	r.imagesByName["api"].SetShouldRebuild(false)
	r.imagesByName["worker"].SetShouldRebuild(false)

	r.recordChange("services/api/src/main.rs")

	significant := r.checkSignificantChange()
	require.True(t, significant)
	require.True(t, r.imagesByName["api"].ShouldRebuild())
	require.False(t, r.imagesByName["worker"].ShouldRebuild())
}

func TestCheckSignificantChange_NoFilesReturnsFalse(t *testing.T) {
	specs := map[string]*spec.ComponentBuildSpec{"api": rustSpec("api", nil)}
	r := newTestReactor(t, specs, nil)

	require.False(t, r.checkSignificantChange())
}

func TestCheckSignificantChange_HonorsDevIgnoredImages(t *testing.T) {
	specs := map[string]*spec.ComponentBuildSpec{"api": rustSpec("api", nil)}
	r := newTestReactor(t, specs, map[string]Redirect{"api": {Host: "localhost", Port: 4000}})
	r.imagesByName["api"].SetShouldRebuild(false)

	r.recordChange("services/api/src/main.rs")
	require.False(t, r.checkSignificantChange())
	require.False(t, r.imagesByName["api"].ShouldRebuild())
}

func TestMaxLabelLength_ReturnsWidestComponentName(t *testing.T) {
	specs := map[string]*spec.ComponentBuildSpec{
		"api":      rustSpec("api", nil),
		"frontend": rustSpec("frontend", nil),
	}
	r := newTestReactor(t, specs, nil)
	require.Equal(t, len("frontend"), r.maxLabelLength())
}
