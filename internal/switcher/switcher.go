// Package switcher is the fuzzy Switcher collaborator: it scores the
// engine's SwitcherEntry projection against a live query string using
// github.com/sahilm/fuzzy and returns ranked session ids. The Input State
// Machine never ranks matches itself.
package switcher

import (
	"fmt"

	"github.com/sahilm/fuzzy"

	"deckmux/internal/engine"
	"deckmux/internal/registry"
)

// Fuzzy implements inputfsm.Switcher.
type Fuzzy struct{}

// New returns a Fuzzy switcher.
func New() Fuzzy { return Fuzzy{} }

// Rank scores every entry's "name cwd notes" haystack against query and
// returns session ids best-match-first. An empty query returns entries in
// their original (registry display) order.
func (Fuzzy) Rank(query string, entries []engine.SwitcherEntry) []registry.ID {
	if query == "" {
		out := make([]registry.ID, len(entries))
		for i, e := range entries {
			out[i] = e.ID
		}
		return out
	}

	haystacks := make([]string, len(entries))
	for i, e := range entries {
		haystacks[i] = fmt.Sprintf("%s %s %s", e.Name, e.Cwd, e.Notes)
	}

	matches := fuzzy.Find(query, haystacks)
	out := make([]registry.ID, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index].ID)
	}
	return out
}
