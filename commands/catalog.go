package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"voice-commander/actuator"
	"voice-commander/locale"
)

var ErrUnsupportedLanguage = errors.New("language not supported")

// Binding ties a phrase to an action. A prefix binding also matches any
// utterance that starts with the phrase followed by more words, and hands
// those words to the action as its payload.
type Binding struct {
	Phrase string
	Action Action
	Prefix bool
}

const RepeatTrigger = "repeat after me"

// catalog is keyed by ISO 639 base language. Hints are listed in the order
// they are offered to the recognizer.
var catalog = map[string][]Binding{
	"en": {
		{Phrase: "turn on the light", Action: SetLight(actuator.LightOn)},
		{Phrase: "turn off the light", Action: SetLight(actuator.LightOff)},
		{Phrase: "blink the light", Action: SetLight(actuator.LightBlink)},
		{Phrase: "goodbye", Action: Terminate()},
		{Phrase: RepeatTrigger, Action: Repeat(""), Prefix: true},
		{Phrase: "party", Action: Party()},
	},
}

// Languages lists the base languages that have commands, sorted.
func Languages() []string {
	languages := make([]string, 0, len(catalog))
	for base := range catalog {
		languages = append(languages, base)
	}

	sort.Strings(languages)

	return languages
}

// Hints returns the hint phrases for a language.
func Hints(tag language.Tag) ([]string, error) {
	bindings, err := bindingsFor(tag)
	if err != nil {
		return nil, err
	}

	hints := make([]string, len(bindings))
	for i, b := range bindings {
		hints[i] = b.Phrase
	}

	return hints, nil
}

// ForLanguage builds the command table for a language from its hints and
// bindings.
func ForLanguage(tag language.Tag) (*Table, error) {
	bindings, err := bindingsFor(tag)
	if err != nil {
		return nil, err
	}

	hints, err := Hints(tag)
	if err != nil {
		return nil, err
	}

	return NewTable(hints, bindings)
}

func bindingsFor(tag language.Tag) ([]Binding, error) {
	base := locale.Base(tag)

	bindings, ok := catalog[base]
	if !ok || len(bindings) == 0 {
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedLanguage, tag, strings.Join(Languages(), ", "))
	}

	return bindings, nil
}
