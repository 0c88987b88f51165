package templateengine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_SubstitutesData(t *testing.T) {
	e := New()
	out, err := e.Render("greeting", "hello {{ .Name }}", struct{ Name string }{Name: "world"})
	require.NoError(t, err)
	require.Equal(t, "hello world", out)
}

func TestRender_SprigFuncsAvailable(t *testing.T) {
	e := New()
	out, err := e.Render("upper", "{{ upper .Name }}", struct{ Name string }{Name: "rush"})
	require.NoError(t, err)
	require.Equal(t, "RUSH", out)
}

func TestExpandString_SubstitutesMapVariables(t *testing.T) {
	e := New()
	out, err := e.ExpandString("vars", "{{ .NAME }}-{{ .ENV }}", map[string]string{"NAME": "api", "ENV": "prod"})
	require.NoError(t, err)
	require.Equal(t, "api-prod", out)
}

func TestRender_InvalidTemplateReturnsError(t *testing.T) {
	e := New()
	_, err := e.Render("bad", "{{ .Unclosed", nil)
	require.Error(t, err)
}
