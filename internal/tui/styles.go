package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const sidebarWidth = 25

// colorsEnabled reflects the controlling terminal's actual color capability,
// probed once at startup via termenv rather than assumed from $TERM alone;
// a profile of Ascii means no color codes should be emitted at all.
var colorsEnabled = termenv.ColorProfile() != termenv.Ascii

func fg(c lipgloss.Color) lipgloss.Style {
	s := lipgloss.NewStyle()
	if colorsEnabled {
		s = s.Foreground(c)
	}
	return s
}

var (
	colorSurf   = lipgloss.Color("#313244")
	colorText   = lipgloss.Color("#cdd6f4")
	colorSub    = lipgloss.Color("#a6adc8")
	colorGreen  = lipgloss.Color("#a6e3a1")
	colorYellow = lipgloss.Color("#f9e2af")
	colorRed    = lipgloss.Color("#f38ba8")
	colorBlue   = lipgloss.Color("#89b4fa")
	colorMauve  = lipgloss.Color("#cba6f7")

	sidebarHeaderStyle = fg(colorBlue).Bold(true)
	sidebarHintStyle   = fg(colorSub)

	sessionActiveStyle = fg(colorText).Bold(true).Background(pick(colorSurf))
	sessionNameStyle    = fg(colorText)
	sessionCwdStyle     = fg(colorSub)
	sessionRunningIcon  = fg(colorGreen).Render("●")
	sessionExitedIcon   = fg(colorRed).Render("○")
	unreadMarkStyle     = fg(colorYellow).Bold(true)
	notesMarkStyle      = fg(colorMauve)

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Inherit(fg(colorText))

	overlayTitleStyle = fg(colorBlue).Bold(true)
	statusLineStyle    = fg(colorYellow).Bold(true)
)

// pick returns c when colors are enabled, or lipgloss's zero Color (no
// background) otherwise, so Background() never emits an escape code on a
// terminal that can't render one.
func pick(c lipgloss.Color) lipgloss.Color {
	if !colorsEnabled {
		return lipgloss.Color("")
	}
	return c
}
