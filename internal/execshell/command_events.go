package execshell

// CommandEventObserver receives the lifecycle of every command the executor runs.
// Observers are called from concurrent batch tasks and must be safe for concurrent use.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	CommandExecutionFailed(command ShellCommand, failure error)
}
