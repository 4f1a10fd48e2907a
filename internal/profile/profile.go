package profile

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"settings-converter/internal/scerrors"
)

// ID names a preset a governed field can be switched to.
type ID string

const (
	League ID = "league"
	TFT    ID = "tft"
)

func (id ID) String() string { return string(id) }

// Resolve validates a profile selector against the registered profiles.
func (t *Table) Resolve(raw string) (ID, error) {
	names := t.profileNames()
	choices := strings.Join(names, ", ")
	if raw == "" {
		return "", scerrors.Errorf(scerrors.KindUsage, "missing required -target (choose from %s)", choices)
	}
	for _, p := range t.profiles {
		if string(p) == raw {
			return p, nil
		}
	}
	if hint := suggest(raw, names); hint != "" {
		return "", scerrors.Errorf(scerrors.KindUsage, "invalid target %q (choose from %s); did you mean %q?", raw, choices, hint)
	}
	return "", scerrors.Errorf(scerrors.KindUsage, "invalid target %q (choose from %s)", raw, choices)
}

func suggest(raw string, names []string) string {
	matches := fuzzy.Find(strings.ToLower(raw), names)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

func (t *Table) profileNames() []string {
	names := make([]string, 0, len(t.profiles))
	for _, p := range t.profiles {
		names = append(names, string(p))
	}
	return names
}

// Usage describes the accepted selectors for flag help text.
func (t *Table) Usage() string {
	return fmt.Sprintf("target profile (%s)", strings.Join(t.profileNames(), "|"))
}
