package tui

import "github.com/charmbracelet/bubbles/key"

// keymap documents the prefixed command set shown in the help overlay. The
// bindings themselves are descriptive only — actual dispatch happens in
// internal/inputfsm, which owns the authoritative PrefixWait transition
// table. The help overlay's text is generated from this list; nothing
// derives it from, or checks it against, that table.
type keymap struct {
	New, Close, Next, Prev, Select   key.Binding
	Scrollback, Paste, Rename, Memo  key.Binding
	Switcher, ToggleMini, Help, Quit key.Binding
}

func newKeymap() keymap {
	return keymap{
		New:        key.NewBinding(key.WithKeys("c"), key.WithHelp("^b c", "new session")),
		Close:      key.NewBinding(key.WithKeys("d"), key.WithHelp("^b d", "close")),
		Next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("^b n", "next")),
		Prev:       key.NewBinding(key.WithKeys("p"), key.WithHelp("^b p", "prev")),
		Select:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("^b 1-9", "select by index")),
		Scrollback: key.NewBinding(key.WithKeys("["), key.WithHelp("^b [", "scrollback")),
		Paste:      key.NewBinding(key.WithKeys("]"), key.WithHelp("^b ]", "paste")),
		Rename:     key.NewBinding(key.WithKeys("r"), key.WithHelp("^b r", "rename")),
		Memo:       key.NewBinding(key.WithKeys("m"), key.WithHelp("^b m", "edit notes")),
		Switcher:   key.NewBinding(key.WithKeys("f"), key.WithHelp("^b f", "fuzzy switcher")),
		ToggleMini: key.NewBinding(key.WithKeys("`"), key.WithHelp("^b `", "toggle mini pane")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("^b ?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("^b q", "quit")),
	}
}

func (k keymap) bindings() []key.Binding {
	return []key.Binding{
		k.New, k.Close, k.Next, k.Prev, k.Select,
		k.Scrollback, k.Paste, k.Rename, k.Memo,
		k.Switcher, k.ToggleMini, k.Help, k.Quit,
	}
}
