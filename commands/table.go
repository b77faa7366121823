// Package commands maps recognized phrases to device actions.
package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

var (
	ErrUnboundHint     = errors.New("hint has no bound action")
	ErrUnhintedBinding = errors.New("bound phrase is not a hint")
	ErrDuplicatePhrase = errors.New("duplicate phrase")
)

// Table is immutable once built.
type Table struct {
	hints    []string
	exact    map[string]Action
	prefixes []Binding
}

// NewTable checks that hints and bindings pair up one to one and builds the
// lookup structures.
func NewTable(hints []string, bindings []Binding) (*Table, error) {
	t := &Table{
		hints: make([]string, 0, len(hints)),
		exact: make(map[string]Action),
	}

	bound := make(map[string]bool, len(bindings))

	for _, b := range bindings {
		phrase := Normalize(b.Phrase)
		if phrase == "" {
			return nil, fmt.Errorf("empty phrase bound to %s", b.Action)
		}

		if bound[phrase] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePhrase, phrase)
		}

		bound[phrase] = true

		if b.Prefix {
			t.prefixes = append(t.prefixes, Binding{Phrase: phrase, Action: b.Action, Prefix: true})
		} else {
			t.exact[phrase] = b.Action
		}
	}

	hinted := make(map[string]bool, len(hints))

	for _, hint := range hints {
		phrase := Normalize(hint)

		if hinted[phrase] {
			return nil, fmt.Errorf("%w: hint %q", ErrDuplicatePhrase, phrase)
		}

		if !bound[phrase] {
			return nil, fmt.Errorf("%w: %q", ErrUnboundHint, phrase)
		}

		hinted[phrase] = true
		t.hints = append(t.hints, hint)
	}

	for phrase := range bound {
		if !hinted[phrase] {
			return nil, fmt.Errorf("%w: %q", ErrUnhintedBinding, phrase)
		}
	}

	// longest trigger first so a longer prefix is never shadowed by a shorter one
	sort.SliceStable(t.prefixes, func(i, j int) bool {
		return len(t.prefixes[i].Phrase) > len(t.prefixes[j].Phrase)
	})

	return t, nil
}

// Hints returns a copy of the hint phrases in their original order.
func (t *Table) Hints() []string {
	return append([]string(nil), t.hints...)
}

// Lookup finds the action for an utterance. Exact phrases are checked before
// prefix triggers. A prefix match carries the rest of the utterance, trimmed,
// as the action payload.
func (t *Table) Lookup(utterance string) (Action, bool) {
	text := Normalize(utterance)
	if text == "" {
		return Action{}, false
	}

	if action, ok := t.exact[text]; ok {
		return action, true
	}

	for _, b := range t.prefixes {
		if text == b.Phrase {
			action := b.Action
			action.Payload = ""

			return action, true
		}

		if rest, ok := strings.CutPrefix(text, b.Phrase+" "); ok {
			action := b.Action
			action.Payload = strings.TrimSpace(rest)

			return action, true
		}
	}

	return Action{}, false
}

// Normalize lower-cases text, turns punctuation into spaces and collapses
// whitespace. Recognizers tend to capitalize and punctuate ("Turn on the light.").
func Normalize(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			return unicode.ToLower(r)
		}

		return ' '
	}, text)

	return strings.Join(strings.Fields(cleaned), " ")
}
