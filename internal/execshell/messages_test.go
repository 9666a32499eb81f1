package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMessagesForComponentCommands(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
		stage     messageStage
		result    ExecutionResult
		failure   error
		expected  string
	}{
		{
			name:      "clone_start",
			arguments: []string{"clone", "https://example.com/svc1.git", "/work/components/api/service-one"},
			stage:     messageStageStart,
			expected:  "Cloning https://example.com/svc1.git into /work/components/api/service-one",
		},
		{
			name:      "clone_after_end_of_options",
			arguments: []string{"clone", "--", "https://example.com/svc1.git", "/work/components/api/service-one"},
			stage:     messageStageSuccess,
			expected:  "Cloned https://example.com/svc1.git into /work/components/api/service-one",
		},
		{
			name:      "switch_success",
			arguments: []string{"switch", "feature/login"},
			stage:     messageStageSuccess,
			expected:  "/work/repo now on branch feature/login",
		},
		{
			name:      "create_branch_failure",
			arguments: []string{"switch", "-c", "feature/login"},
			stage:     messageStageFailure,
			result:    ExecutionResult{ExitCode: 128, StandardError: "fatal: bad name\n"},
			expected:  "Failed to create branch feature/login in /work/repo (exit code 128: fatal: bad name)",
		},
		{
			name:      "commit_start_quotes_message",
			arguments: []string{"commit", "-m", "Bump versions"},
			stage:     messageStageStart,
			expected:  `Creating commit in /work/repo with message "Bump versions"`,
		},
		{
			name:      "push_execution_failure",
			arguments: []string{"push", "origin", "main"},
			stage:     messageStageExecutionFailure,
			failure:   errors.New("executable not found"),
			expected:  "Unable to push main to origin from /work/repo: executable not found",
		},
		{
			name:      "unknown_subcommand_is_generic",
			arguments: []string{"gc", "--auto"},
			stage:     messageStageStart,
			expected:  "Running git gc --auto (in /work/repo)",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			command := ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: testCase.arguments, WorkingDirectory: "/work/repo"},
			}
			message := CommandMessageFormatter{}.buildMessage(command, testCase.result, testCase.failure, testCase.stage)
			require.Equal(subtestInstance, testCase.expected, message)
		})
	}
}

func TestBuildStartedMessageWithoutWorkingDirectoryUsesDefaultLabel(testInstance *testing.T) {
	command := ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"pull"}}}

	require.Equal(testInstance, "Pulling upstream changes into current directory", CommandMessageFormatter{}.BuildStartedMessage(command))
}

func TestCommandFailedErrorCarriesStandardError(testInstance *testing.T) {
	failure := CommandFailedError{
		Command: ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"pull"}, WorkingDirectory: "/work/repo"}},
		Result:  ExecutionResult{ExitCode: 1, StandardError: "fatal: no upstream configured\n"},
	}

	require.Equal(testInstance, "git pull (in /work/repo) failed with exit code 1: fatal: no upstream configured", failure.Error())
}
