package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
)

const (
	gitCloneSubcommandNameConstant       = "clone"
	gitAddSubcommandNameConstant         = "add"
	gitCommitSubcommandNameConstant      = "commit"
	gitSwitchSubcommandNameConstant      = "switch"
	gitPullSubcommandNameConstant        = "pull"
	gitPushSubcommandNameConstant        = "push"
	gitStatusSubcommandNameConstant      = "status"
	gitSymbolicRefSubcommandNameConstant = "symbolic-ref"
	gitForEachRefSubcommandNameConstant  = "for-each-ref"
	gitCreateBranchFlagConstant          = "-c"
	gitMessageFlagConstant               = "-m"
	endOfOptionsConstant                 = "--"
)

const (
	gitCloneStartTemplateConstant                    = "Cloning %s into %s"
	gitCloneSuccessTemplateConstant                  = "Cloned %s into %s"
	gitCloneFailureTemplateConstant                  = "Failed to clone %s into %s (exit code %d%s)"
	gitCloneExecutionFailureTemplateConstant         = "Unable to clone %s into %s: %s"
	gitAddStartTemplateConstant                      = "Staging changes in %s"
	gitAddSuccessTemplateConstant                    = "Staged changes in %s"
	gitAddFailureTemplateConstant                    = "Failed to stage changes in %s (exit code %d%s)"
	gitAddExecutionFailureTemplateConstant           = "Unable to stage changes in %s: %s"
	gitCommitStartTemplateConstant                   = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant                 = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant                 = "Failed to create commit in %s with message %q (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant        = "Unable to create commit in %s with message %q: %s"
	gitSwitchStartTemplateConstant                   = "Switching %s to branch %s"
	gitSwitchSuccessTemplateConstant                 = "%s now on branch %s"
	gitSwitchFailureTemplateConstant                 = "Failed to switch %s to branch %s (exit code %d%s)"
	gitSwitchExecutionFailureTemplateConstant        = "Unable to switch %s to branch %s: %s"
	gitCreateBranchStartTemplateConstant             = "Creating branch %s in %s"
	gitCreateBranchSuccessTemplateConstant           = "Created branch %s in %s"
	gitCreateBranchFailureTemplateConstant           = "Failed to create branch %s in %s (exit code %d%s)"
	gitCreateBranchExecutionFailureTemplateConstant  = "Unable to create branch %s in %s: %s"
	gitPullStartTemplateConstant                     = "Pulling upstream changes into %s"
	gitPullSuccessTemplateConstant                   = "Pulled upstream changes into %s"
	gitPullFailureTemplateConstant                   = "Failed to pull upstream changes into %s (exit code %d%s)"
	gitPullExecutionFailureTemplateConstant          = "Unable to pull upstream changes into %s: %s"
	gitPushStartTemplateConstant                     = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant                   = "Pushed %s to %s from %s"
	gitPushFailureTemplateConstant                   = "Failed to push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant          = "Unable to push %s to %s from %s: %s"
	gitStatusStartTemplateConstant                   = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant                 = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant                 = "Failed to review working tree status in %s (exit code %d%s)"
	gitStatusExecutionFailureTemplateConstant        = "Unable to review working tree status in %s: %s"
	gitCurrentBranchStartTemplateConstant            = "Identifying current branch in %s"
	gitCurrentBranchSuccessTemplateConstant          = "Identified current branch in %s"
	gitCurrentBranchFailureTemplateConstant          = "No current branch in %s (exit code %d%s)"
	gitCurrentBranchExecutionFailureTemplateConstant = "Unable to identify current branch in %s: %s"
	gitBranchLookupStartTemplateConstant             = "Looking up branch references in %s"
	gitBranchLookupSuccessTemplateConstant           = "Looked up branch references in %s"
	gitBranchLookupFailureTemplateConstant           = "Failed to look up branch references in %s (exit code %d%s)"
	gitBranchLookupExecutionFailureTemplateConstant  = "Unable to look up branch references in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch strings.TrimSpace(arguments[0]) {
	case gitCloneSubcommandNameConstant:
		positional := positionalArguments(arguments[1:])
		return formatter.render(stageTemplates{gitCloneStartTemplateConstant, gitCloneSuccessTemplateConstant, gitCloneFailureTemplateConstant, gitCloneExecutionFailureTemplateConstant},
			stage, result, failure, ensureValue(valueAt(positional, 0)), ensureValue(valueAt(positional, 1)))
	case gitAddSubcommandNameConstant:
		return formatter.render(stageTemplates{gitAddStartTemplateConstant, gitAddSuccessTemplateConstant, gitAddFailureTemplateConstant, gitAddExecutionFailureTemplateConstant},
			stage, result, failure, workingDirectory)
	case gitCommitSubcommandNameConstant:
		return formatter.render(stageTemplates{gitCommitStartTemplateConstant, gitCommitSuccessTemplateConstant, gitCommitFailureTemplateConstant, gitCommitExecutionFailureTemplateConstant},
			stage, result, failure, workingDirectory, findFlagValue(arguments, gitMessageFlagConstant))
	case gitSwitchSubcommandNameConstant:
		if containsArgument(arguments, gitCreateBranchFlagConstant) {
			return formatter.render(stageTemplates{gitCreateBranchStartTemplateConstant, gitCreateBranchSuccessTemplateConstant, gitCreateBranchFailureTemplateConstant, gitCreateBranchExecutionFailureTemplateConstant},
				stage, result, failure, ensureValue(findFlagValue(arguments, gitCreateBranchFlagConstant)), workingDirectory)
		}
		return formatter.render(stageTemplates{gitSwitchStartTemplateConstant, gitSwitchSuccessTemplateConstant, gitSwitchFailureTemplateConstant, gitSwitchExecutionFailureTemplateConstant},
			stage, result, failure, workingDirectory, ensureValue(valueAt(positionalArguments(arguments[1:]), 0)))
	case gitPullSubcommandNameConstant:
		return formatter.render(stageTemplates{gitPullStartTemplateConstant, gitPullSuccessTemplateConstant, gitPullFailureTemplateConstant, gitPullExecutionFailureTemplateConstant},
			stage, result, failure, workingDirectory)
	case gitPushSubcommandNameConstant:
		positional := positionalArguments(arguments[1:])
		return formatter.render(stageTemplates{gitPushStartTemplateConstant, gitPushSuccessTemplateConstant, gitPushFailureTemplateConstant, gitPushExecutionFailureTemplateConstant},
			stage, result, failure, ensureValue(valueAt(positional, 1)), ensureValue(valueAt(positional, 0)), workingDirectory)
	case gitStatusSubcommandNameConstant:
		return formatter.render(stageTemplates{gitStatusStartTemplateConstant, gitStatusSuccessTemplateConstant, gitStatusFailureTemplateConstant, gitStatusExecutionFailureTemplateConstant},
			stage, result, failure, workingDirectory)
	case gitSymbolicRefSubcommandNameConstant:
		return formatter.render(stageTemplates{gitCurrentBranchStartTemplateConstant, gitCurrentBranchSuccessTemplateConstant, gitCurrentBranchFailureTemplateConstant, gitCurrentBranchExecutionFailureTemplateConstant},
			stage, result, failure, workingDirectory)
	case gitForEachRefSubcommandNameConstant:
		return formatter.render(stageTemplates{gitBranchLookupStartTemplateConstant, gitBranchLookupSuccessTemplateConstant, gitBranchLookupFailureTemplateConstant, gitBranchLookupExecutionFailureTemplateConstant},
			stage, result, failure, workingDirectory)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) render(templates stageTemplates, stage messageStage, result ExecutionResult, failure error, values ...any) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, values...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, values...)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, append(values, result.ExitCode, formatStandardErrorSuffix(result.StandardError))...)
	default:
		return fmt.Sprintf(templates.executionFailure, append(values, describeFailure(failure))...)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)

	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return commandLabel
	}
	return commandLabel + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for argumentIndex := 0; argumentIndex < len(arguments)-1; argumentIndex++ {
		if strings.TrimSpace(arguments[argumentIndex]) == flag {
			return arguments[argumentIndex+1]
		}
	}
	return emptyStringConstant
}

// positionalArguments drops flags and the values of flags that take one. Everything after "--" is positional.
func positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		trimmedArgument := strings.TrimSpace(arguments[argumentIndex])
		if trimmedArgument == endOfOptionsConstant {
			return append(positional, arguments[argumentIndex+1:]...)
		}
		if strings.HasPrefix(trimmedArgument, flagPrefixConstant) {
			if trimmedArgument == gitCreateBranchFlagConstant || trimmedArgument == gitMessageFlagConstant {
				argumentIndex++
			}
			continue
		}
		positional = append(positional, trimmedArgument)
	}
	return positional
}

func valueAt(values []string, index int) string {
	if index < 0 || index >= len(values) {
		return emptyStringConstant
	}
	return values[index]
}

func ensureValue(value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmedValue
}
