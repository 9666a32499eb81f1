// Package cli constructs the repofleet command-line interface, wiring the Cobra
// command hierarchy, configuration loader, and structured logging. Run executes a
// single invocation and reports the process exit code.
package cli
