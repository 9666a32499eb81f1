package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/repofleet/internal/execshell"
	"github.com/temirov/repofleet/internal/ui"
)

const (
	testWorkingDirectoryConstant           = "/work/components/api/service-one"
	testExecutionFailureReasonConstant     = "executable file not found"
	testStandardErrorMessageConstant       = "fatal: no upstream configured"
	testStartMessageExpectationConstant    = "Pulling upstream changes into " + testWorkingDirectoryConstant
	testSuccessMessageExpectationConstant  = "Pulled upstream changes into " + testWorkingDirectoryConstant
	testFailureMessageExpectationConstant  = "Failed to pull upstream changes into " + testWorkingDirectoryConstant + " (exit code 1: " + testStandardErrorMessageConstant + ")"
	testExecutionFailureMessageExpectation = "Unable to pull upstream changes into " + testWorkingDirectoryConstant + ": " + testExecutionFailureReasonConstant
)

var _ execshell.CommandEventObserver = (*ui.ConsoleCommandEventLogger)(nil)

func TestConsoleCommandEventLoggerEmitsMessages(testInstance *testing.T) {
	command := execshell.ShellCommand{
		Name: execshell.CommandGit,
		Details: execshell.CommandDetails{
			Arguments:        []string{"pull"},
			WorkingDirectory: testWorkingDirectoryConstant,
		},
	}

	testCases := []struct {
		name            string
		invoke          func(logger *ui.ConsoleCommandEventLogger)
		expectedLevel   zapcore.Level
		expectedMessage string
	}{
		{
			name: "command_started",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandStarted(command)
			},
			expectedLevel:   zapcore.DebugLevel,
			expectedMessage: testStartMessageExpectationConstant,
		},
		{
			name: "command_completed_success",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 0})
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testSuccessMessageExpectationConstant,
		},
		{
			name: "command_completed_failure",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 1, StandardError: testStandardErrorMessageConstant})
			},
			expectedLevel:   zapcore.WarnLevel,
			expectedMessage: testFailureMessageExpectationConstant,
		},
		{
			name: "command_execution_failure",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandExecutionFailed(command, errors.New(testExecutionFailureReasonConstant))
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: testExecutionFailureMessageExpectation,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			testCase.invoke(ui.NewConsoleCommandEventLogger(zap.New(observerCore)))

			entries := observedLogs.All()
			require.Len(testInstance, entries, 1)
			require.Equal(testInstance, testCase.expectedLevel, entries[0].Level)
			require.Equal(testInstance, testCase.expectedMessage, entries[0].Message)
		})
	}
}
