// Package screen is the Screen Port: a hand-written VTE-style parser that
// drives a per-session cell grid, scrollback ring, alternate-screen state,
// and OSC side-channels, grounded on the cell/cursor modeling style of
// danielgatis/go-headless-term and owned one level up by the engine
// package, one Screen per session id.
package screen

// ColorKind distinguishes the three color spaces SGR can select.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorRGB
)

// Color is a cell foreground/background color in one of three spaces.
type Color struct {
	Kind  ColorKind
	Index uint8 // valid when Kind == ColorIndexed (0..255)
	R, G, B uint8 // valid when Kind == ColorRGB
}

// DefaultColor is the terminal's default foreground/background.
var DefaultColor = Color{Kind: ColorDefault}

// Indexed returns an indexed (0-255) color.
func Indexed(i uint8) Color { return Color{Kind: ColorIndexed, Index: i} }

// RGB returns a 24-bit true color.
func RGB(r, g, b uint8) Color { return Color{Kind: ColorRGB, R: r, G: g, B: b} }

// Cell is one character position in the visible grid.
type Cell struct {
	Ch            rune
	Fg            Color
	Bg            Color
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Reverse       bool
	Dim           bool

	// Continuation marks the trailing half of a wide (East-Asian-width=2)
	// glyph. A continuation cell must never be rendered on its own or
	// counted in search output; it is always immediately preceded by its
	// lead cell.
	Continuation bool
}

// blankCell returns a space cell with default colors and no attributes, used
// to clear regions. Erases do not carry the current pen's colors.
func blankCell() Cell {
	return Cell{Ch: ' ', Fg: DefaultColor, Bg: DefaultColor}
}

// CursorPos is a (row, col) position in the visible grid, 0-indexed.
type CursorPos struct {
	Row int
	Col int
}

// NotificationKind distinguishes the three notification triggers the Screen
// recognizes mid-stream.
type NotificationKind int

const (
	NotifyBell NotificationKind = iota
	NotifyOSC9
	NotifyOSC777
)

// NotificationEvent is dropped into the Screen's queue during parsing and
// drained by the Terminal Use Case on each poll.
type NotificationEvent struct {
	Kind    NotificationKind
	Text    string // Bell: empty; OSC9: the message
	Summary string // OSC777: summary
	Body    string // OSC777: body
}

// Match is one search hit. AbsoluteRow uses a coordinate system where the
// oldest scrollback line is 0 and the last visible row is
// scrollback_len + rows - 1.
type Match struct {
	AbsoluteRow int
	ColStart    int
	ColEnd      int
}
