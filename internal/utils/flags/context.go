package flags

import "github.com/spf13/cobra"

const (
	// BranchFlagName exposes the branch selection flag name.
	BranchFlagName = "branch"
	// BranchFlagShorthand provides the shorthand for the branch flag.
	BranchFlagShorthand = "b"
	// BranchFlagUsage describes the branch flag purpose.
	BranchFlagUsage = "Branch to switch every component to (created when missing)"
	// MessageFlagName exposes the commit message flag name.
	MessageFlagName = "message"
	// MessageFlagShorthand provides the shorthand for the commit message flag.
	MessageFlagShorthand = "m"
	// MessageFlagUsage describes the commit message flag purpose.
	MessageFlagUsage = "Commit message applied to every component (prompted when omitted)"
	// ComponentTypeFlagName exposes the component type filter flag name.
	ComponentTypeFlagName = "type"
	// ComponentTypeFlagShorthand provides the shorthand for the component type flag.
	ComponentTypeFlagShorthand = "t"
	// ConcurrencyFlagName exposes the worker limit flag name.
	ConcurrencyFlagName = "concurrency"
	// ConcurrencyFlagUsage describes the worker limit flag purpose.
	ConcurrencyFlagUsage = "Maximum number of components processed at once (0 selects a limit from the CPU count)"
)

// StringFlagDefinition describes a single string flag.
type StringFlagDefinition struct {
	Name      string
	Shorthand string
	Usage     string
}

// StringFlagValue stores a bound string flag and remembers whether the user set it.
type StringFlagValue struct {
	Value   string
	command *cobra.Command
	name    string
}

// BindStringFlag attaches a local string flag to command.
func BindStringFlag(command *cobra.Command, defaultValue string, definition StringFlagDefinition) *StringFlagValue {
	value := &StringFlagValue{Value: defaultValue, command: command, name: definition.Name}
	if command == nil || len(definition.Name) == 0 {
		return value
	}
	command.Flags().StringVarP(&value.Value, definition.Name, definition.Shorthand, defaultValue, definition.Usage)
	return value
}

// Changed reports whether the flag was supplied on the command line.
func (value *StringFlagValue) Changed() bool {
	if value == nil || value.command == nil {
		return false
	}
	return value.command.Flags().Changed(value.name)
}
