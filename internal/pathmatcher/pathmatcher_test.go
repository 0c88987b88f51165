package pathmatcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathMatcher_BasicGlob(t *testing.T) {
	pm := New("/product", []string{"*.log", "build/"})

	assert.True(t, pm.Match("debug.log", false))
	assert.False(t, pm.Match("debug.log", true))
	assert.True(t, pm.Match("build", true))
	assert.False(t, pm.Match("build", false))
}

func TestPathMatcher_NegationOverridesPriorMatch(t *testing.T) {
	pm := New("/product", []string{"*.log", "!keep.log"})

	assert.True(t, pm.Match("debug.log", false))
	assert.False(t, pm.Match("keep.log", false))
}

func TestPathMatcher_RecursiveGlob(t *testing.T) {
	pm := New("/product", []string{"src/**/*.go"})

	assert.True(t, pm.Match("src/a/b/c.go", false))
	assert.False(t, pm.Match("other/a/b/c.go", false))
}

func TestPathMatcher_DirectoryOnlyNeverMatchesFiles(t *testing.T) {
	pm := New("/product", []string{"node_modules/"})

	assert.False(t, pm.Match("node_modules", false))
	assert.True(t, pm.Match("node_modules", true))
}

func TestNewFromGitignoreStack_WalksUpward(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "component")
	require.NoError(t, os.MkdirAll(sub, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.tmp\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, ".gitignore"), []byte("local.env\n"), 0644))

	pm, err := NewFromGitignoreStack(root, sub)
	require.NoError(t, err)

	assert.True(t, pm.Match(filepath.Join(sub, "scratch.tmp"), false))
	assert.True(t, pm.Match(filepath.Join(sub, "local.env"), false))
	assert.False(t, pm.Match(filepath.Join(sub, "keep.txt"), false))
}
