// Package execshell runs external tools on behalf of the component adapters.
//
// ShellExecutor wraps a CommandRunner with lifecycle logging and typed errors.
// CommandMessageFormatter describes the git invocations in plain language.
package execshell
