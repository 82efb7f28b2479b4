package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"deckmux/internal/inputfsm"
	"deckmux/internal/registry"
	"deckmux/internal/screen"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	sidebar := m.renderSidebar()
	main := m.renderMain()
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)

	if overlay := m.renderOverlay(); overlay != "" {
		return overlayOnTop(body, overlay, m.width, m.height)
	}
	return body
}

func (m Model) renderSidebar() string {
	reg := m.eng.Registry()
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", sidebarHeaderStyle.Render(fmt.Sprintf("Terminals  %d", reg.Len())))

	for _, id := range reg.IDs() {
		sess := reg.Get(id)
		if sess == nil {
			continue
		}
		b.WriteString(m.renderSessionBlock(sess, id == m.eng.ActiveID()))
	}

	b.WriteString(sidebarHintStyle.Render("^b c new  ^b d close  ^b ?"))

	return lipgloss.NewStyle().Width(sidebarWidth).Height(m.height).Render(b.String())
}

func (m Model) renderSessionBlock(sess *registry.Session, active bool) string {
	icon := sessionRunningIcon
	statusText := "running"
	if !sess.Status.Running {
		icon = sessionExitedIcon
		statusText = fmt.Sprintf("exited(%d)", sess.Status.ExitCode)
	}

	notesMark := ""
	if sess.Notes != "" {
		notesMark = notesMarkStyle.Render(" ≡")
	}

	line1 := fmt.Sprintf("%s %d: %s%s", icon, sess.ID, sess.Name, notesMark)
	if active {
		line1 = sessionActiveStyle.Render(line1)
	} else {
		line1 = sessionNameStyle.Render(line1)
	}

	line2 := sessionCwdStyle.Render(truncate(sess.Cwd, sidebarWidth-1))

	unread := ""
	if sess.UnreadNotification {
		unread = " " + unreadMarkStyle.Render("*")
	}
	line3 := sessionCwdStyle.Render(statusText) + unread

	return line1 + "\n" + line2 + "\n" + line3 + "\n"
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

func (m Model) renderMain() string {
	state := m.machine.State()
	rows, cols := mainPaneSize(m.width, m.height, state.MiniOpen)

	sc := m.eng.ActiveScreen()
	if sc == nil {
		return lipgloss.NewStyle().Width(cols).Height(m.height).Render("no active session")
	}

	var body string
	switch state.Kind {
	case inputfsm.Scrollback, inputfsm.ScrollbackSearch, inputfsm.VisualSelect:
		body = m.renderScrollback(sc, rows, cols)
	default:
		body = renderGrid(sc, rows, cols)
	}

	if state.StatusText != "" {
		body += "\n" + statusLineStyle.Render(state.StatusText)
	}

	if state.MiniOpen {
		mini := m.renderMini()
		body = lipgloss.JoinVertical(lipgloss.Left, body, mini)
	}

	return lipgloss.NewStyle().Width(cols).Height(m.height).Render(body)
}

func renderGrid(sc *screen.Screen, rows, cols int) string {
	grid := sc.VisibleGrid()
	var b strings.Builder
	limit := rows
	if limit > len(grid) {
		limit = len(grid)
	}
	for r := 0; r < limit; r++ {
		b.WriteString(renderRow(grid[r]))
		if r != limit-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderRow(row screen.Row) string {
	var b strings.Builder
	for _, c := range row {
		if c.Continuation {
			continue
		}
		ch := c.Ch
		if ch == 0 {
			ch = ' '
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (m Model) renderScrollback(sc *screen.Screen, rows, cols int) string {
	state := m.machine.State()
	viewRows := rows
	if state.Kind == inputfsm.ScrollbackSearch {
		viewRows--
	}

	var b strings.Builder
	for i := 0; i < viewRows; i++ {
		row := state.ScrollOffset + i
		if row >= sc.TotalRows() {
			break
		}
		b.WriteString(sc.RowText(row))
		b.WriteByte('\n')
	}

	if state.Kind == inputfsm.ScrollbackSearch {
		b.WriteString(fmt.Sprintf("/%s (%d matches)", state.Query, len(state.Matches)))
	}

	return b.String()
}

func (m Model) renderMini() string {
	sc := m.eng.MiniScreen()
	if sc == nil {
		return lipgloss.NewStyle().Height(10).Render("")
	}
	return lipgloss.NewStyle().Height(10).Render(renderGrid(sc, 10, m.width-sidebarWidth))
}

func (m Model) renderOverlay() string {
	state := m.machine.State()
	switch state.Kind {
	case inputfsm.HelpOverlay:
		return overlayStyle.Render(overlayTitleStyle.Render("Help") + "\n" + helpText())
	case inputfsm.DialogInput:
		if state.Dialog == inputfsm.DialogConfirmClose {
			return overlayStyle.Render(overlayTitleStyle.Render(dialogTitle(state.Dialog)) + "\n" + "y/n")
		}
		return overlayStyle.Render(overlayTitleStyle.Render(dialogTitle(state.Dialog)) + "\n" + state.Buffer + "█")
	case inputfsm.MemoEdit:
		return overlayStyle.Render(overlayTitleStyle.Render("Notes") + "\n" + state.Buffer + "█")
	}
	return ""
}

func dialogTitle(kind inputfsm.DialogKind) string {
	switch kind {
	case inputfsm.DialogRename:
		return "Rename"
	case inputfsm.DialogConfirmClose:
		return "Close session?"
	default:
		return "Switch to…"
	}
}

func helpText() string {
	var lines []string
	for _, b := range newKeymap().bindings() {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("%-8s %s", h.Key, h.Desc))
	}
	return strings.Join(lines, "\n")
}

// overlayOnTop centers overlay as a full-screen panel. Bubble Tea has no
// layering primitive to composite a panel over the rendered body in place,
// so an active overlay takes the whole frame rather than the main pane
// underneath it — the sidebar and grid resume on the next render once the
// overlay closes.
func overlayOnTop(body, overlay string, width, height int) string {
	_ = body
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
}
