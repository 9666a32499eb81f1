package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefix     = "<"
	choicePlaceholderSuffix     = ">"
	choiceSeparatorLiteral      = "|"
	choiceUsageEmptyTemplate    = "`%s`"
	choiceUsageFullTemplate     = "`%s` %s"
	choiceInvalidValueTemplate  = "invalid value %q, expected one of %s"
	choiceValueTypeNameConstant = "choice"
	choiceListSeparatorLiteral  = ", "
)

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := choicePlaceholderPrefix + strings.Join(highlightDefaultChoice(defaultChoice, choices), choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

func highlightDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}

		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		highlighted = append(highlighted, trimmedChoice)
	}

	return highlighted
}

// ChoiceValue is a pflag.Value restricted to a fixed set of case-insensitive choices.
type ChoiceValue struct {
	target  *string
	choices []string
}

// AddChoiceFlag registers a string flag that rejects values outside choices at parse time.
func AddChoiceFlag(flagSet *pflag.FlagSet, target *string, name string, defaultChoice string, choices []string, description string) {
	*target = defaultChoice
	flagSet.Var(&ChoiceValue{target: target, choices: choices}, name, FormatChoiceUsage(defaultChoice, choices, description))
}

// String returns the current value.
func (value *ChoiceValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return *value.target
}

// Set validates and stores the provided value in lower case.
func (value *ChoiceValue) Set(raw string) error {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, choice := range value.choices {
		if normalized == strings.ToLower(choice) {
			*value.target = normalized
			return nil
		}
	}
	return fmt.Errorf(choiceInvalidValueTemplate, raw, strings.Join(value.choices, choiceListSeparatorLiteral))
}

// Type names the value kind in help output.
func (value *ChoiceValue) Type() string {
	return choiceValueTypeNameConstant
}
