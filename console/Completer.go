package console

import (
	"strings"

	"github.com/c-bata/go-prompt"
	"golang.org/x/exp/slices"
)

// NewCompleter returns a go-prompt completer that suggests command names
// as the first word, then "profile" and known-object specifiers as the
// second word. ctrl may be nil (used before the engine starts accepting
// local objects) in which case the second word is completed with "profile"
// only.
func NewCompleter(ctrl Controller) prompt.Completer {
	return func(d prompt.Document) []prompt.Suggest {
		text := d.TextBeforeCursor()
		words := strings.Fields(text)
		trailingSpace := strings.HasSuffix(text, " ")

		switch {
		case len(words) == 0 || (len(words) == 1 && !trailingSpace):
			return prompt.FilterHasPrefix(commandSuggestions(), d.GetWordBeforeCursor(), true)
		case len(words) == 1 || (len(words) == 2 && !trailingSpace):
			return prompt.FilterHasPrefix(objectSuggestions(ctrl), d.GetWordBeforeCursor(), true)
		default:
			return nil
		}
	}
}

func commandSuggestions() []prompt.Suggest {
	suggestions := make([]prompt.Suggest, 0, len(CommandTable))
	for _, def := range CommandTable {
		suggestions = append(suggestions, prompt.Suggest{Text: def.Name, Description: def.Summary})
	}
	slices.SortFunc(suggestions, func(a, b prompt.Suggest) int {
		return strings.Compare(a.Text, b.Text)
	})
	return suggestions
}

func objectSuggestions(ctrl Controller) []prompt.Suggest {
	suggestions := []prompt.Suggest{{Text: "profile", Description: "node profile object (0EF0:1)"}}
	if ctrl == nil {
		return suggestions
	}
	for _, eoj := range ctrl.Objects() {
		if eoj.ClassCode().ClassGroupCode() == 0x0e {
			continue // already covered by "profile"
		}
		suggestions = append(suggestions, prompt.Suggest{Text: eoj.Specifier()})
	}
	return suggestions
}
