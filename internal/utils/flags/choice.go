package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefix    = "<"
	choicePlaceholderSuffix    = ">"
	choiceSeparatorLiteral     = "|"
	choiceUsageEmptyTemplate   = "`%s`"
	choiceUsageFullTemplate    = "`%s` %s"
	choiceTypeName             = "choice"
	invalidChoiceTemplate      = "invalid value %q, expected one of %s"
	choiceListSeparatorLiteral = ", "
)

// ChoiceValue is a pflag.Value restricted to a fixed set of case-insensitive choices.
type ChoiceValue struct {
	choices []string
	value   string
}

var _ pflag.Value = (*ChoiceValue)(nil)

// NewChoiceValue constructs a choice flag value holding defaultChoice.
func NewChoiceValue(defaultChoice string, choices []string) *ChoiceValue {
	return &ChoiceValue{choices: normalizeChoices(choices), value: strings.ToLower(strings.TrimSpace(defaultChoice))}
}

// String returns the current selection.
func (choiceValue *ChoiceValue) String() string {
	if choiceValue == nil {
		return ""
	}
	return choiceValue.value
}

// Set validates and stores the selection.
func (choiceValue *ChoiceValue) Set(candidate string) error {
	normalized := strings.ToLower(strings.TrimSpace(candidate))
	for _, choice := range choiceValue.choices {
		if choice == normalized {
			choiceValue.value = normalized
			return nil
		}
	}
	return fmt.Errorf(invalidChoiceTemplate, candidate, strings.Join(choiceValue.choices, choiceListSeparatorLiteral))
}

// Type names the value kind in help output.
func (choiceValue *ChoiceValue) Type() string {
	return choiceTypeName
}

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	displayed := normalizeChoices(choices)
	for index, choice := range displayed {
		if choice == normalizedDefault {
			displayed[index] = strings.ToUpper(choice)
		}
	}

	placeholder := choicePlaceholderPrefix + strings.Join(displayed, choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

func normalizeChoices(choices []string) []string {
	normalized := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		candidate := strings.ToLower(strings.TrimSpace(choice))
		if len(candidate) == 0 {
			continue
		}
		if _, exists := seen[candidate]; exists {
			continue
		}
		seen[candidate] = struct{}{}
		normalized = append(normalized, candidate)
	}
	return normalized
}
