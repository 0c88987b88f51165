package image

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

func newTestImage(t *testing.T, bt spec.BuildType) *Image {
	t.Helper()
	s := &spec.ComponentBuildSpec{ComponentName: "api", BuildType: bt}
	tc := toolchain.New("linux/amd64", "linux/amd64")
	return New(s, "demo", "demo", "local", tc, nil, nil, templateengine.New())
}

func TestTaggedImageName_ErrorsBeforeTagSet(t *testing.T) {
	img := newTestImage(t, spec.NewRustBinary("services/api", "Dockerfile", ".", nil, nil))
	_, err := img.TaggedImageName()
	require.Error(t, err)
}

func TestTaggedImageName_AfterSetTag(t *testing.T) {
	img := newTestImage(t, spec.NewRustBinary("services/api", "Dockerfile", ".", nil, nil))
	img.SetTag("a1b2c3d4")

	tagged, err := img.TaggedImageName()
	require.NoError(t, err)
	require.Equal(t, "demo-api:a1b2c3d4", tagged)
}

func TestIdentifier_PureDockerImageUsesImageNameWithTagVerbatim(t *testing.T) {
	img := newTestImage(t, spec.PureDockerImage{ImageNameWithTag: "nginx:1.27"})
	id, err := img.Identifier()
	require.NoError(t, err)
	require.Equal(t, "nginx:1.27", id)
}

func TestIdentifier_WithRepoPrefixesTaggedName(t *testing.T) {
	img := newTestImage(t, spec.NewRustBinary("services/api", "Dockerfile", ".", nil, nil))
	img.SetTag("a1b2c3d4")
	img.Repo = "registry.example.com"

	id, err := img.Identifier()
	require.NoError(t, err)
	require.Equal(t, "registry.example.com/demo-api:a1b2c3d4", id)
}

func TestShouldRebuild_DefaultsTrueAndToggles(t *testing.T) {
	img := newTestImage(t, spec.NewRustBinary("services/api", "Dockerfile", ".", nil, nil))
	require.True(t, img.ShouldRebuild())

	img.SetShouldRebuild(false)
	require.False(t, img.ShouldRebuild())
}

func TestIsAnyFileInContext_MatchesFileUnderDockerfileDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "services", "api"), 0o755))
	dockerfile := filepath.Join(dir, "services", "api", "Dockerfile")
	require.NoError(t, os.WriteFile(dockerfile, []byte("FROM scratch"), 0o644))

	changed := filepath.Join(dir, "services", "api", "main.rs")
	require.NoError(t, os.WriteFile(changed, []byte("fn main() {}"), 0o644))

	img := newTestImage(t, spec.NewRustBinary("services/api", dockerfile, ".", nil, nil))
	require.True(t, img.IsAnyFileInContext([]string{changed}))
}

func TestIsAnyFileInContext_FalseOutsideContext(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "services", "api"), 0o755))
	dockerfile := filepath.Join(dir, "services", "api", "Dockerfile")
	require.NoError(t, os.WriteFile(dockerfile, []byte("FROM scratch"), 0o644))

	unrelated := filepath.Join(dir, "docs", "README.md")

	img := newTestImage(t, spec.NewRustBinary("services/api", dockerfile, ".", nil, nil))
	require.False(t, img.IsAnyFileInContext([]string{unrelated}))
}

func TestIsAnyFileInContext_FalseForBuildTypeWithoutDockerfile(t *testing.T) {
	img := newTestImage(t, spec.PureKubernetes{})
	require.False(t, img.IsAnyFileInContext([]string{"/anything"}))
}

func TestBuildScript_RendersPrecompileCommandsAgainstContext(t *testing.T) {
	img := newTestImage(t, spec.NewRustBinary("services/api", "Dockerfile", ".", []string{"release"}, []string{"echo building {{ .Component }}"}))

	ctx := buildctx.BuildContext{Component: "api"}
	script, has, err := img.BuildScript(ctx)
	require.NoError(t, err)
	require.True(t, has)
	require.Equal(t, "echo building api", script)
}

func TestBuildScript_FalseWhenNoPrecompileCommands(t *testing.T) {
	img := newTestImage(t, spec.NewBook("docs", "Dockerfile", "."))
	_, has, err := img.BuildScript(buildctx.BuildContext{})
	require.NoError(t, err)
	require.False(t, has)
}

func TestNeedsPush_FalseWithoutK8sDir(t *testing.T) {
	s := &spec.ComponentBuildSpec{BuildType: spec.NewRustBinary("a", "b", ".", nil, nil)}
	require.False(t, needsPush(s))
}

func TestNeedsPush_FalseForPureKubernetes(t *testing.T) {
	s := &spec.ComponentBuildSpec{K8sDir: "k8s", BuildType: spec.PureKubernetes{}}
	require.False(t, needsPush(s))
}

func TestNeedsPush_TrueWithK8sDirAndBuildableType(t *testing.T) {
	s := &spec.ComponentBuildSpec{K8sDir: "k8s", BuildType: spec.NewRustBinary("a", "b", ".", nil, nil)}
	require.True(t, needsPush(s))
}
