package manifests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonop-io/rush/internal/buildctx"
	"github.com/wonop-io/rush/internal/spec"
	"github.com/wonop-io/rush/internal/templateengine"
	"github.com/wonop-io/rush/internal/toolchain"
)

func writeManifest(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func newTestCluster(t *testing.T) (*ClusterManifests, string) {
	t.Helper()
	outputDir := filepath.Join(t.TempDir(), "rendered")
	tc := toolchain.New("linux/amd64", "linux/amd64")
	return New(outputDir, tc, NoopEncoder{}, templateengine.New()), outputDir
}

func TestNewComponentManifests_OnlyCollectsTopLevelYamlFiles(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "deployment.yaml", "kind: Deployment\n")
	writeManifest(t, dir, "service.yaml", "kind: Service\n")
	writeManifest(t, dir, "README.md", "not a manifest")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "subdir"), 0o755))

	cm, err := NewComponentManifests("api", &spec.ComponentBuildSpec{Priority: 100}, dir, filepath.Join(t.TempDir(), "out"), NoopEncoder{}, templateengine.New())
	require.NoError(t, err)
	require.Len(t, cm.Manifests, 2)
	require.False(t, cm.IsInstallation)
	require.Equal(t, "default", cm.Namespace)
}

func TestNewComponentManifests_DetectsKubernetesInstallation(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "namespace.yaml", "kind: Namespace\n")

	s := &spec.ComponentBuildSpec{Priority: 50, BuildType: spec.KubernetesInstallation{Namespace: "cert-manager"}}
	cm, err := NewComponentManifests("cert-manager", s, dir, filepath.Join(t.TempDir(), "out"), NoopEncoder{}, templateengine.New())
	require.NoError(t, err)
	require.True(t, cm.IsInstallation)
	require.Equal(t, "cert-manager", cm.Namespace)
}

func TestArtefact_RenderToFile_SubstitutesBuildContext(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "deployment.yaml", "image: {{ .ImageName }}\n")

	cm, err := NewComponentManifests("api", &spec.ComponentBuildSpec{Priority: 100}, dir, filepath.Join(t.TempDir(), "out"), NoopEncoder{}, templateengine.New())
	require.NoError(t, err)
	require.NoError(t, cm.Render(buildctx.BuildContext{ImageName: "demo-api:abc123"}))

	rendered, err := os.ReadFile(cm.Manifests[0].OutputPath)
	require.NoError(t, err)
	require.Equal(t, "image: demo-api:abc123\n", string(rendered))
}

func TestClusterManifests_BuildManifests_SkipsInstallationComponents(t *testing.T) {
	cluster, outputDir := newTestCluster(t)

	apiDir := filepath.Join(t.TempDir(), "api-k8s")
	writeManifest(t, apiDir, "deployment.yaml", "kind: Deployment\n")
	require.NoError(t, cluster.AddComponent("api", &spec.ComponentBuildSpec{Priority: 100}, apiDir))

	nsDir := filepath.Join(t.TempDir(), "ns-k8s")
	writeManifest(t, nsDir, "namespace.yaml", "kind: Namespace\n")
	require.NoError(t, cluster.AddComponent("cert-manager", &spec.ComponentBuildSpec{Priority: 10, BuildType: spec.KubernetesInstallation{Namespace: "cert-manager"}}, nsDir))

	err := cluster.BuildManifests(map[string]buildctx.BuildContext{
		"api": {Component: "api"},
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outputDir, "100_api", "deployment.yaml"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outputDir, "10_cert-manager", "namespace.yaml"))
	require.True(t, os.IsNotExist(err))
}

func TestClusterManifests_RenderedFiles_OrderedByPriorityThenName(t *testing.T) {
	cluster, _ := newTestCluster(t)

	bDir := filepath.Join(t.TempDir(), "b-k8s")
	writeManifest(t, bDir, "b.yaml", "kind: Deployment\n")
	require.NoError(t, cluster.AddComponent("b", &spec.ComponentBuildSpec{Priority: 100}, bDir))

	aDir := filepath.Join(t.TempDir(), "a-k8s")
	writeManifest(t, aDir, "a.yaml", "kind: Deployment\n")
	require.NoError(t, cluster.AddComponent("a", &spec.ComponentBuildSpec{Priority: 10}, aDir))

	files := cluster.renderedFiles(cluster.nonInstallation())
	require.Len(t, files, 2)
	require.Contains(t, files[0], "10_a")
	require.Contains(t, files[1], "100_b")
}

func TestClusterManifests_UpdateEncoder_PropagatesToComponents(t *testing.T) {
	cluster, _ := newTestCluster(t)

	dir := filepath.Join(t.TempDir(), "api-k8s")
	writeManifest(t, dir, "deployment.yaml", "kind: Deployment\n")
	require.NoError(t, cluster.AddComponent("api", &spec.ComponentBuildSpec{Priority: 100}, dir))

	sealer := KubesealEncoder{Toolchain: toolchain.New("linux/amd64", "linux/amd64")}
	cluster.UpdateEncoder(sealer)

	require.Equal(t, sealer, cluster.components[0].Manifests[0].Encoder)
}
