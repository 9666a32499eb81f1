package execshell

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeEnvironmentReplacesOverriddenVariables(testInstance *testing.T) {
	merged := mergeEnvironment(
		[]string{"HOME=/home/user", "GIT_TERMINAL_PROMPT=1", "PATH=/usr/bin"},
		map[string]string{"GIT_TERMINAL_PROMPT": "0", "LANG": "C"},
	)

	require.Equal(testInstance, []string{"HOME=/home/user", "PATH=/usr/bin", "GIT_TERMINAL_PROMPT=0", "LANG=C"}, merged)
}
