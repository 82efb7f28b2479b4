package inputfsm

import (
	"time"

	"deckmux/internal/appconfig"
	"deckmux/internal/engine"
	"deckmux/internal/registry"
	"deckmux/internal/screen"
)

// PrefixTimeout is the built-in fallback for how long PrefixWait lingers
// before collapsing back to Normal, used when cfg.PrefixTimeout is unset.
// The timeout is evaluated lazily at poll time rather than with a wake-up
// timer.
const PrefixTimeout = 1 * time.Second

// Switcher ranks an engine's searchable fields against a live query. The
// fuzzy scoring itself is entirely the collaborator's concern.
type Switcher interface {
	Rank(query string, entries []engine.SwitcherEntry) []registry.ID
}

// Machine drives the Input State Machine against one Engine, translating
// decoded keys into engine operations per state.
type Machine struct {
	state    *State
	eng      *engine.Engine
	switcher Switcher
	clock    func() time.Time

	prefixKey     Key
	prefixTimeout time.Duration

	quit bool
}

// NewMachine returns a Machine starting in Normal, configured from cfg's
// prefix_key and prefix_timeout knobs.
func NewMachine(eng *engine.Engine, switcher Switcher, clock func() time.Time, cfg appconfig.Config) *Machine {
	if clock == nil {
		clock = time.Now
	}
	timeout := cfg.PrefixTimeout
	if timeout <= 0 {
		timeout = PrefixTimeout
	}
	return &Machine{
		state:         New(),
		eng:           eng,
		switcher:      switcher,
		clock:         clock,
		prefixKey:     ParsePrefixKey(cfg.PrefixKey),
		prefixTimeout: timeout,
	}
}

// matchesPrefix reports whether k is the configured prefix key.
func (m *Machine) matchesPrefix(k Key) bool {
	return k.Ctrl && k.Rune == m.prefixKey.Rune
}

// State exposes the current state for the renderer.
func (m *Machine) State() *State { return m.state }

// Quit reports whether the user has requested the program exit.
func (m *Machine) Quit() bool { return m.quit }

// Tick evaluates the lazy prefix-wait timeout and transient status expiry;
// call once per event loop iteration before rendering.
func (m *Machine) Tick() {
	now := m.clock()
	if m.state.Kind == PrefixWait && !now.Before(m.state.Deadline) {
		m.eng.WriteToActive([]byte{ctrlByte(m.prefixKey.Rune)})
		m.toNormal()
	}
	if m.state.StatusText != "" && !now.Before(m.state.StatusExpires) {
		m.state.StatusText = ""
	}
}

// HandleKey dispatches one decoded key according to the current state.
func (m *Machine) HandleKey(k Key) {
	switch m.state.Kind {
	case Normal:
		m.handleNormal(k)
	case PrefixWait:
		m.handlePrefixWait(k)
	case Scrollback:
		m.handleScrollback(k)
	case ScrollbackSearch:
		m.handleScrollbackSearch(k)
	case VisualSelect:
		m.handleVisualSelect(k)
	case DialogInput:
		m.handleDialogInput(k)
	case MemoEdit:
		m.handleMemoEdit(k)
	case HelpOverlay:
		if k.Named == "esc" {
			m.toNormal()
		}
	case MiniFocused:
		m.handleMiniFocused(k)
	}
}

func (m *Machine) toNormal() {
	m.state.Kind = Normal
}

func (m *Machine) handleNormal(k Key) {
	if m.matchesPrefix(k) {
		m.state.PrefixFrom = Normal
		m.state.Kind = PrefixWait
		m.state.Deadline = m.clock().Add(m.prefixTimeout)
		return
	}
	sc := m.eng.ActiveScreen()
	decckm := sc != nil && sc.DECCKM()
	m.eng.WriteToActive(bytesForKey(k, decckm))
}

func (m *Machine) handlePrefixWait(k Key) {
	switch {
	case k.Named == "" && k.Rune == 'c':
		m.createDefault()
	case k.Named == "" && k.Rune == 'd':
		m.requestCloseActive()
		return
	case k.Named == "" && k.Rune == 'n':
		m.eng.SelectNext()
	case k.Named == "" && k.Rune == 'p':
		m.eng.SelectPrev()
	case k.Named == "" && k.Rune >= '1' && k.Rune <= '9':
		m.eng.SelectByIndex(int(k.Rune - '1'))
	case m.matchesPrefix(k):
		m.eng.WriteToActive([]byte{ctrlByte(m.prefixKey.Rune)})
	case k.Named == "" && k.Rune == '[':
		m.enterScrollback()
	case k.Named == "" && k.Rune == ']':
		m.eng.PasteToActive()
	case k.Named == "" && k.Rune == 'r':
		m.state.Dialog = DialogRename
		m.state.Buffer = ""
		m.state.Kind = DialogInput
		return
	case k.Named == "" && k.Rune == 'm':
		m.state.MemoCursor = 0
		if sess := m.eng.Registry().Get(m.eng.ActiveID()); sess != nil {
			m.state.Buffer = sess.Notes
			m.state.MemoCursor = len(sess.Notes)
		}
		m.state.Kind = MemoEdit
		return
	case k.Named == "" && k.Rune == 'f':
		m.state.Dialog = DialogSwitcher
		m.state.Buffer = ""
		m.rankSwitcher()
		m.state.Kind = DialogInput
		return
	case k.Named == "" && k.Rune == '`':
		m.toggleMini()
		return
	case k.Named == "" && k.Rune == '?':
		m.state.Kind = HelpOverlay
		return
	case k.Named == "" && k.Rune == 'q':
		m.quit = true
		return
	default:
		m.eng.WriteToActive([]byte{ctrlByte(m.prefixKey.Rune)})
	}
	m.toNormal()
}

// createDefault requests a new session; it spawns nothing itself. The event
// loop that drives this machine resolves the shell and cwd (the active
// session's cwd, or the current working directory if none is active) and
// creates the session.
func (m *Machine) createDefault() {
	// The concrete shell/cwd decision is made by the renderer's event loop
	// (tui.Model.spawnDefault, via ptyengine.ResolveShellDefault); the
	// machine exposes the request via
	// PendingCreate so the event loop can fulfil it with OS-level details
	// the Input State Machine itself shouldn't know about.
	m.state.PendingCreate = true
}

// requestCloseActive confirms before closing a Running session (spec §4.4:
// "d→CloseActive (confirm if Running)"); an already-Exited session is
// dismissed without asking, since there is nothing left to interrupt.
func (m *Machine) requestCloseActive() {
	sess := m.eng.Registry().Get(m.eng.ActiveID())
	if sess == nil || !sess.Status.Running {
		m.eng.CloseActive()
		m.toNormal()
		return
	}
	m.state.Dialog = DialogConfirmClose
	m.state.Buffer = ""
	m.state.Kind = DialogInput
}

// toggleMini opens the footer mini session (focusing it immediately so the
// user can type into it) if none is running. If one is already running, a
// backtick pressed from Normal (panel open but unfocused) refocuses it;
// a backtick pressed from inside MiniFocused itself closes it. Opening
// requires resolving a shell/cwd, which is OS-level detail the machine
// doesn't own, so it only raises PendingMiniToggle for the event loop to
// fulfil, same pattern as PendingCreate.
func (m *Machine) toggleMini() {
	if m.eng.HasMini() {
		if m.state.PrefixFrom == MiniFocused {
			m.eng.CloseMini()
			m.state.MiniOpen = false
			m.toNormal()
			return
		}
		m.state.Kind = MiniFocused
		return
	}
	m.state.PendingMiniToggle = true
	m.toNormal()
}

func (m *Machine) enterScrollback() {
	sc := m.eng.ActiveScreen()
	if sc == nil {
		return
	}
	m.state.Kind = Scrollback
	m.state.ScrollOffset = sc.TotalRows() - sc.Rows
	if m.state.ScrollOffset < 0 {
		m.state.ScrollOffset = 0
	}
}

func (m *Machine) handleScrollback(k Key) {
	sc := m.eng.ActiveScreen()
	if sc == nil {
		m.toNormal()
		return
	}
	maxOffset := sc.TotalRows() - sc.Rows
	if maxOffset < 0 {
		maxOffset = 0
	}
	switch {
	case k.Rune == 'j' || k.Named == "down":
		m.scrollBy(1, maxOffset)
	case k.Rune == 'k' || k.Named == "up":
		m.scrollBy(-1, maxOffset)
	case k.Named == "pgdn":
		m.scrollBy(sc.Rows, maxOffset)
	case k.Named == "pgup":
		m.scrollBy(-sc.Rows, maxOffset)
	case k.Rune == 'g':
		m.state.ScrollOffset = 0
	case k.Rune == 'G':
		m.state.ScrollOffset = maxOffset
	case k.Rune == '/':
		m.state.Query = ""
		m.state.Matches = nil
		m.state.Kind = ScrollbackSearch
	case k.Rune == 'n':
		m.jumpMatch(1)
	case k.Rune == 'N':
		m.jumpMatch(-1)
	case k.Rune == 'y':
		m.eng.Yank(sc.RowText(m.state.ScrollOffset))
	case k.Rune == 'Y':
		m.yankVisible(sc)
	case k.Rune == 'v':
		m.startVisualSelect(SelectChar)
	case k.Rune == 'V':
		m.startVisualSelect(SelectLine)
	case k.Named == "esc" || k.Rune == 'q':
		m.toNormal()
	}
}

func (m *Machine) scrollBy(delta, maxOffset int) {
	m.state.ScrollOffset += delta
	if m.state.ScrollOffset < 0 {
		m.state.ScrollOffset = 0
	}
	if m.state.ScrollOffset > maxOffset {
		m.state.ScrollOffset = maxOffset
	}
}

func (m *Machine) yankVisible(sc *screen.Screen) {
	var lines []byte
	for r := m.state.ScrollOffset; r < m.state.ScrollOffset+sc.Rows; r++ {
		lines = append(lines, []byte(sc.RowText(r))...)
		lines = append(lines, '\n')
	}
	m.eng.Yank(string(lines))
}

func (m *Machine) jumpMatch(dir int) {
	if len(m.state.Matches) == 0 {
		return
	}
	cur := m.state.ScrollOffset
	best := -1
	if dir > 0 {
		for _, row := range m.state.Matches {
			if row > cur && (best == -1 || row < best) {
				best = row
			}
		}
		if best == -1 {
			best = m.state.Matches[0]
		}
	} else {
		for _, row := range m.state.Matches {
			if row < cur && row > best {
				best = row
			}
		}
		if best == -1 {
			best = m.state.Matches[len(m.state.Matches)-1]
		}
	}
	m.state.ScrollOffset = best
}

func (m *Machine) handleScrollbackSearch(k Key) {
	sc := m.eng.ActiveScreen()
	switch {
	case k.Named == "enter":
		m.state.Kind = Scrollback
		if len(m.state.Matches) > 0 {
			m.state.ScrollOffset = m.state.Matches[0]
		}
	case k.Named == "esc":
		m.state.Query = ""
		m.state.Matches = nil
		m.state.Kind = Scrollback
	case k.Named == "backspace":
		if len(m.state.Query) > 0 {
			m.state.Query = m.state.Query[:len(m.state.Query)-1]
		}
		m.recomputeMatches(sc)
	default:
		if k.Rune != 0 {
			m.state.Query += string(k.Rune)
			m.recomputeMatches(sc)
		}
	}
}

func (m *Machine) recomputeMatches(sc *screen.Screen) {
	if sc == nil {
		return
	}
	matches := sc.Search(m.state.Query)
	rows := make([]int, 0, len(matches))
	seen := make(map[int]bool)
	for _, mt := range matches {
		if !seen[mt.AbsoluteRow] {
			seen[mt.AbsoluteRow] = true
			rows = append(rows, mt.AbsoluteRow)
		}
	}
	m.state.Matches = rows
}

func (m *Machine) startVisualSelect(kind SelectKind) {
	m.state.Kind = VisualSelect
	m.state.SelectKind = kind
	pos := Pos{Row: m.state.ScrollOffset, Col: 0}
	m.state.Anchor = pos
	m.state.Cursor = pos
}

func (m *Machine) handleVisualSelect(k Key) {
	sc := m.eng.ActiveScreen()
	if sc == nil {
		m.toNormal()
		return
	}
	switch {
	case k.Rune == 'h' || k.Named == "left":
		if m.state.Cursor.Col > 0 {
			m.state.Cursor.Col--
		}
	case k.Rune == 'l' || k.Named == "right":
		m.state.Cursor.Col++
	case k.Rune == 'j' || k.Named == "down":
		m.state.Cursor.Row++
	case k.Rune == 'k' || k.Named == "up":
		if m.state.Cursor.Row > 0 {
			m.state.Cursor.Row--
		}
	case k.Rune == '0':
		m.state.Cursor.Col = 0
	case k.Rune == '$':
		m.state.Cursor.Col = sc.Cols - 1
	case k.Named == "pgdn":
		m.state.Cursor.Row += sc.Rows
	case k.Named == "pgup":
		m.state.Cursor.Row -= sc.Rows
	case k.Rune == 'y':
		text := extractSelection(sc, m.state.Anchor, m.state.Cursor, m.state.SelectKind)
		m.eng.Yank(text)
		m.state.StatusText = "Yanked!"
		m.state.StatusExpires = m.clock().Add(2 * time.Second)
		m.state.Kind = Scrollback
	case k.Named == "esc":
		m.state.Kind = Scrollback
	}
}

func (m *Machine) handleDialogInput(k Key) {
	if m.state.Dialog == DialogConfirmClose {
		switch {
		case k.Named == "enter" || k.Rune == 'y':
			m.eng.CloseActive()
			m.toNormal()
		case k.Named == "esc" || k.Rune == 'n':
			m.toNormal()
		}
		return
	}

	switch {
	case k.Named == "esc":
		m.toNormal()
	case k.Named == "enter":
		m.confirmDialog()
	case k.Named == "backspace":
		if len(m.state.Buffer) > 0 {
			m.state.Buffer = m.state.Buffer[:len(m.state.Buffer)-1]
		}
		if m.state.Dialog == DialogSwitcher {
			m.rankSwitcher()
		}
	default:
		if k.Rune != 0 {
			m.state.Buffer += string(k.Rune)
			if m.state.Dialog == DialogSwitcher {
				m.rankSwitcher()
			}
		}
	}
}

func (m *Machine) rankSwitcher() {
	if m.switcher == nil {
		m.state.SwitcherSel = nil
		return
	}
	m.state.SwitcherSel = m.switcher.Rank(m.state.Buffer, m.eng.SearchableFields())
}

func (m *Machine) confirmDialog() {
	switch m.state.Dialog {
	case DialogRename:
		m.eng.Rename(m.eng.ActiveID(), m.state.Buffer)
	case DialogSwitcher:
		if len(m.state.SwitcherSel) > 0 {
			m.eng.SelectByID(m.state.SwitcherSel[0])
		}
	}
	m.toNormal()
}

func (m *Machine) handleMemoEdit(k Key) {
	switch {
	case k.Named == "esc":
		m.eng.SetNotes(m.eng.ActiveID(), m.state.Buffer)
		m.toNormal()
	case k.Named == "backspace":
		if m.state.MemoCursor > 0 && m.state.MemoCursor <= len(m.state.Buffer) {
			m.state.Buffer = m.state.Buffer[:m.state.MemoCursor-1] + m.state.Buffer[m.state.MemoCursor:]
			m.state.MemoCursor--
		}
	case k.Named == "enter":
		m.state.Buffer = m.state.Buffer[:m.state.MemoCursor] + "\n" + m.state.Buffer[m.state.MemoCursor:]
		m.state.MemoCursor++
	default:
		if k.Rune != 0 {
			m.state.Buffer = m.state.Buffer[:m.state.MemoCursor] + string(k.Rune) + m.state.Buffer[m.state.MemoCursor:]
			m.state.MemoCursor++
		}
	}
}

func (m *Machine) handleMiniFocused(k Key) {
	if k.Named == "esc" {
		m.toNormal()
		return
	}
	if m.matchesPrefix(k) {
		// Lets '`' close the mini session from within MiniFocused itself,
		// without requiring Esc first.
		m.state.PrefixFrom = MiniFocused
		m.state.Kind = PrefixWait
		m.state.Deadline = m.clock().Add(m.prefixTimeout)
		return
	}
	// MiniFocused routes ordinary keys to the mini session exactly like
	// Normal, just against a different PTY.
	sc := m.eng.MiniScreen()
	decckm := sc != nil && sc.DECCKM()
	m.eng.WriteToMini(bytesForKey(k, decckm))
}
