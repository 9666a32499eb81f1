package fleet_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repofleet/internal/fleet"
)

func TestIOMessagePrompter(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "line", input: "Bump versions\nignored\n", expected: "Bump versions"},
		{name: "no_trailing_newline", input: "  Fix typo  ", expected: "Fix typo"},
		{name: "empty_input", input: "", expected: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			output := &bytes.Buffer{}
			response, promptError := fleet.NewIOMessagePrompter(strings.NewReader(testCase.input), output).Prompt("Commit Message: ")
			require.NoError(t, promptError)
			require.Equal(t, testCase.expected, response)
			require.Equal(t, "Commit Message: ", output.String())
		})
	}
}
