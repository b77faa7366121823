// Package locale works out which language the device listens for.
package locale

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

// Fallback is used when the environment names no locale, or only C/POSIX.
const Fallback = "en_US"

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// SystemDefault reads the POSIX locale variables in precedence order.
func SystemDefault(lookup LookupEnv) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG", "LANGUAGE"} {
		value, ok := lookup(key)
		if !ok || value == "" {
			continue
		}

		// LANGUAGE is a colon separated priority list
		value, _, _ = strings.Cut(value, ":")

		if value == "C" || value == "POSIX" || strings.HasPrefix(value, "C.") {
			continue
		}

		return value
	}

	return Fallback
}

// Parse turns a POSIX locale ("en_US.UTF-8@euro") or a BCP 47 tag ("en-US")
// into a language tag.
func Parse(value string) (language.Tag, error) {
	cleaned := strings.TrimSpace(value)

	if i := strings.IndexAny(cleaned, ".@"); i >= 0 {
		cleaned = cleaned[:i]
	}

	cleaned = strings.ReplaceAll(cleaned, "_", "-")

	if cleaned == "" {
		return language.Und, fmt.Errorf("empty locale %q", value)
	}

	tag, err := language.Parse(cleaned)
	if err != nil {
		return language.Und, fmt.Errorf("parse locale %q: %w", value, err)
	}

	return tag, nil
}

// Resolve returns the explicit language when set, the system default
// otherwise.
func Resolve(explicit string, lookup LookupEnv) (language.Tag, error) {
	if strings.TrimSpace(explicit) != "" {
		return Parse(explicit)
	}

	return Parse(SystemDefault(lookup))
}

// Base returns the ISO 639 language code of a tag, e.g. "en" for en-GB.
func Base(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
