// Package inputfsm is the prefix-key Input State Machine: a tmux-style
// "Ctrl+b" prefix gate plus the overlay states (scrollback, search, visual
// select, dialogs) layered on top of Normal passthrough to the active PTY.
package inputfsm

import (
	"time"

	"deckmux/internal/registry"
)

// Kind names a state in the machine.
type Kind int

const (
	Normal Kind = iota
	PrefixWait
	Scrollback
	ScrollbackSearch
	VisualSelect
	DialogInput
	MemoEdit
	HelpOverlay
	MiniFocused
)

// DialogKind distinguishes the DialogInput uses.
type DialogKind int

const (
	DialogRename DialogKind = iota
	DialogSwitcher
	DialogConfirmClose
)

// SelectKind distinguishes VisualSelect's character vs line mode.
type SelectKind int

const (
	SelectChar SelectKind = iota
	SelectLine
)

// State is the machine's current mode plus whatever data that mode needs.
// Only the fields relevant to Kind are meaningful.
type State struct {
	Kind Kind

	// PrefixWait
	Deadline time.Time

	// ScrollbackSearch
	Query   string
	Matches []int // absolute rows of confirmed matches, most recent search

	// VisualSelect
	SelectKind SelectKind
	Anchor     Pos
	Cursor     Pos

	// DialogInput
	Dialog       DialogKind
	Buffer       string
	SwitcherSel  []registry.ID // ranked results from the Switcher collaborator

	// MemoEdit
	MemoCursor int

	// Transient status line, e.g. "Yanked!" for ~2s after a VisualSelect yank.
	StatusText    string
	StatusExpires time.Time

	// ScrollOffset is the absolute row (Screen addressing) of the first
	// visible line while in Scrollback/ScrollbackSearch/VisualSelect.
	ScrollOffset int

	// MiniOpen tracks whether the footer mini pane is currently shown;
	// toggled by the backtick prefix command independent of Kind.
	MiniOpen bool

	// PendingCreate is set by the PrefixWait 'c' command and cleared by the
	// event loop once it has resolved a shell/cwd and called engine.Create;
	// the machine itself never touches the OS.
	PendingCreate bool

	// PendingMiniToggle is set by the PrefixWait '`' command when no mini
	// session is running yet, cleared by the event loop once it has resolved
	// a shell/cwd and called engine.CreateMini, mirroring PendingCreate.
	PendingMiniToggle bool

	// PrefixFrom records which state PrefixWait was entered from, so
	// toggleMini can tell a backtick pressed from Normal (mini open but
	// unfocused: refocus it) apart from one pressed from inside MiniFocused
	// itself (close it).
	PrefixFrom Kind
}

// Pos is a (row, col) cursor position within scrollback/visible rows, using
// the Screen's absolute-row addressing.
type Pos struct {
	Row int
	Col int
}

// New returns a State starting in Normal.
func New() *State {
	return &State{Kind: Normal}
}
