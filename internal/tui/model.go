// Package tui is the Renderer collaborator: a Bubble Tea program that reads
// the engine's cell grids and the Input State Machine's overlay state each
// tick and draws the sidebar, main pane, footer mini pane, and overlays.
package tui

import (
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"deckmux/internal/appconfig"
	"deckmux/internal/engine"
	"deckmux/internal/inputfsm"
	"deckmux/internal/ptyengine"
)

// pollInterval drives poll_all()/render cadence, matching spec's ~16-50ms
// cooperative event loop iteration.
const pollInterval = 33 * time.Millisecond

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the Bubble Tea program state.
type Model struct {
	cfg     appconfig.Config
	eng     *engine.Engine
	machine *inputfsm.Machine

	width, height int
}

// New builds the Renderer's top-level model.
func New(cfg appconfig.Config, eng *engine.Engine, machine *inputfsm.Machine) Model {
	return Model{cfg: cfg, eng: eng, machine: machine}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		rows, cols := mainPaneSize(m.width, m.height, m.machine.State().MiniOpen)
		m.eng.ResizeAll(rows, cols)
		return m, nil

	case tea.KeyMsg:
		m.machine.HandleKey(decodeKey(msg))
		if m.machine.State().PendingCreate {
			m.machine.State().PendingCreate = false
			m.spawnDefault()
		}
		if m.machine.State().PendingMiniToggle {
			m.machine.State().PendingMiniToggle = false
			m.spawnMini()
		}
		if m.machine.Quit() {
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		m.machine.Tick()
		m.eng.PollAll()
		return m, tick()
	}
	return m, nil
}

func (m Model) spawnDefault() {
	shell, args := ptyengine.ResolveShellDefault(m.cfg.DefaultShell)
	cwd := "."
	if sess := m.eng.Registry().Get(m.eng.ActiveID()); sess != nil && sess.Cwd != "" {
		cwd = sess.Cwd
	}
	rows, cols := mainPaneSize(m.width, m.height, m.machine.State().MiniOpen)
	m.eng.Create(shell, args, cwd, rows, cols)
}

// spawnMini resolves the shell/cwd for the footer mini session and opens it,
// focusing it immediately on success — the OS-level half of the machine's
// PendingMiniToggle intent (see inputfsm.Machine.toggleMini).
func (m Model) spawnMini() {
	shell, args := ptyengine.ResolveShellDefault(m.cfg.DefaultShell)
	cwd := "."
	if sess := m.eng.Registry().Get(m.eng.ActiveID()); sess != nil && sess.Cwd != "" {
		cwd = sess.Cwd
	}
	if err := m.eng.CreateMini(shell, args, cwd, 10, m.width-sidebarWidth); err != nil {
		log.Printf("mini session: %v", err)
		return
	}
	m.machine.State().MiniOpen = true
	m.machine.State().Kind = inputfsm.MiniFocused
}

// mainPaneSize computes the active session's grid size given the overall
// terminal dimensions, the fixed sidebar, and whether the footer mini pane
// is open (a reserved 10-row region at the bottom).
func mainPaneSize(width, height int, miniOpen bool) (rows, cols int) {
	cols = width - sidebarWidth
	if cols < 1 {
		cols = 1
	}
	rows = height
	if miniOpen {
		rows -= 10
	}
	if rows < 1 {
		rows = 1
	}
	return rows, cols
}

func decodeKey(msg tea.KeyMsg) inputfsm.Key {
	switch msg.Type {
	case tea.KeyUp:
		return inputfsm.Key{Named: "up"}
	case tea.KeyDown:
		return inputfsm.Key{Named: "down"}
	case tea.KeyLeft:
		return inputfsm.Key{Named: "left"}
	case tea.KeyRight:
		return inputfsm.Key{Named: "right"}
	case tea.KeyEnter:
		return inputfsm.Key{Named: "enter"}
	case tea.KeyEsc:
		return inputfsm.Key{Named: "esc"}
	case tea.KeyBackspace:
		return inputfsm.Key{Named: "backspace"}
	case tea.KeyTab:
		return inputfsm.Key{Named: "tab"}
	case tea.KeyPgUp:
		return inputfsm.Key{Named: "pgup"}
	case tea.KeyPgDown:
		return inputfsm.Key{Named: "pgdn"}
	case tea.KeyCtrlA:
		return inputfsm.Key{Rune: 'a', Ctrl: true}
	case tea.KeyCtrlB:
		return inputfsm.Key{Rune: 'b', Ctrl: true}
	case tea.KeyCtrlC:
		return inputfsm.Key{Rune: 'c', Ctrl: true}
	case tea.KeyCtrlD:
		return inputfsm.Key{Rune: 'd', Ctrl: true}
	case tea.KeyCtrlE:
		return inputfsm.Key{Rune: 'e', Ctrl: true}
	case tea.KeyCtrlF:
		return inputfsm.Key{Rune: 'f', Ctrl: true}
	case tea.KeyCtrlG:
		return inputfsm.Key{Rune: 'g', Ctrl: true}
	case tea.KeyCtrlH:
		return inputfsm.Key{Rune: 'h', Ctrl: true}
	case tea.KeyCtrlJ:
		return inputfsm.Key{Rune: 'j', Ctrl: true}
	case tea.KeyCtrlK:
		return inputfsm.Key{Rune: 'k', Ctrl: true}
	case tea.KeyCtrlL:
		return inputfsm.Key{Rune: 'l', Ctrl: true}
	case tea.KeyCtrlN:
		return inputfsm.Key{Rune: 'n', Ctrl: true}
	case tea.KeyCtrlO:
		return inputfsm.Key{Rune: 'o', Ctrl: true}
	case tea.KeyCtrlP:
		return inputfsm.Key{Rune: 'p', Ctrl: true}
	case tea.KeyCtrlQ:
		return inputfsm.Key{Rune: 'q', Ctrl: true}
	case tea.KeyCtrlR:
		return inputfsm.Key{Rune: 'r', Ctrl: true}
	case tea.KeyCtrlS:
		return inputfsm.Key{Rune: 's', Ctrl: true}
	case tea.KeyCtrlT:
		return inputfsm.Key{Rune: 't', Ctrl: true}
	case tea.KeyCtrlU:
		return inputfsm.Key{Rune: 'u', Ctrl: true}
	case tea.KeyCtrlV:
		return inputfsm.Key{Rune: 'v', Ctrl: true}
	case tea.KeyCtrlW:
		return inputfsm.Key{Rune: 'w', Ctrl: true}
	case tea.KeyCtrlX:
		return inputfsm.Key{Rune: 'x', Ctrl: true}
	case tea.KeyCtrlY:
		return inputfsm.Key{Rune: 'y', Ctrl: true}
	case tea.KeyCtrlZ:
		return inputfsm.Key{Rune: 'z', Ctrl: true}
	case tea.KeyRunes:
		if len(msg.Runes) > 0 {
			return inputfsm.Key{Rune: msg.Runes[0]}
		}
	}
	return inputfsm.Key{}
}
