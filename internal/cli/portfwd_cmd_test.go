package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePortPair_Valid(t *testing.T) {
	local, pod, err := parsePortPair("8080:80")
	require.NoError(t, err)
	require.Equal(t, 8080, local)
	require.Equal(t, 80, pod)
}

func TestParsePortPair_MissingColon(t *testing.T) {
	_, _, err := parsePortPair("8080")
	require.Error(t, err)
}

func TestParsePortPair_NonNumeric(t *testing.T) {
	_, _, err := parsePortPair("abc:80")
	require.Error(t, err)
}
