package flags

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "structured",
			choices:        []string{"structured", "console"},
			description:    "Log output format.",
			expectedOutput: "`<STRUCTURED|console>` Log output format.",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "info",
			choices:        []string{"debug", "info", "warn", "error"},
			description:    "Minimum log level.",
			expectedOutput: "`<debug|INFO|warn|error>` Minimum log level.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "console",
			choices:        []string{"structured", "console"},
			expectedOutput: "`<structured|CONSOLE>`",
		},
		{
			name:           "DuplicatesAndWhitespaceIgnored",
			defaultChoice:  "debug",
			choices:        []string{" debug ", "debug", " info "},
			description:    "Pick one.",
			expectedOutput: "`<DEBUG|info>` Pick one.",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expectedOutput, FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}

func TestAddChoiceFlagValidatesValues(t *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		expectedValue string
		expectError   bool
	}{
		{name: "DefaultRetained", arguments: nil, expectedValue: "structured"},
		{name: "ValueNormalized", arguments: []string{"--log-format", "CONSOLE"}, expectedValue: "console"},
		{name: "UnknownValueRejected", arguments: []string{"--log-format", "xml"}, expectError: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var selected string
			flagSet := pflag.NewFlagSet(testCase.name, pflag.ContinueOnError)
			AddChoiceFlag(flagSet, &selected, "log-format", "structured", []string{"structured", "console"}, "Log output format.")

			parseError := flagSet.Parse(testCase.arguments)
			if testCase.expectError {
				require.Error(t, parseError)
				return
			}
			require.NoError(t, parseError)
			require.Equal(t, testCase.expectedValue, selected)
		})
	}
}
