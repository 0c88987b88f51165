package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonop-io/rush/internal/reactor"
)

func TestParseRedirects_Empty(t *testing.T) {
	redirects, err := parseRedirects(nil)
	require.NoError(t, err)
	require.Nil(t, redirects)
}

func TestParseRedirects_Valid(t *testing.T) {
	redirects, err := parseRedirects([]string{"web@localhost:3000", "api@127.0.0.1:8080"})
	require.NoError(t, err)
	require.Equal(t, map[string]reactor.Redirect{
		"web": {Host: "localhost", Port: 3000},
		"api": {Host: "127.0.0.1", Port: 8080},
	}, redirects)
}

func TestParseRedirects_MissingAt(t *testing.T) {
	_, err := parseRedirects([]string{"weblocalhost:3000"})
	require.Error(t, err)
}

func TestParseRedirects_MissingColon(t *testing.T) {
	_, err := parseRedirects([]string{"web@localhost"})
	require.Error(t, err)
}

func TestParseRedirects_InvalidPort(t *testing.T) {
	_, err := parseRedirects([]string{"web@localhost:notaport"})
	require.Error(t, err)
}
