package screen

import "github.com/mattn/go-runewidth"

// pen is the current SGR attribute state applied to newly written cells.
type pen struct {
	Fg, Bg                                       Color
	Bold, Italic, Underline, Strikethrough, Dim, Reverse bool
}

func (p pen) apply(c *Cell) {
	c.Fg, c.Bg = p.Fg, p.Bg
	c.Bold, c.Italic, c.Underline = p.Bold, p.Italic, p.Underline
	c.Strikethrough, c.Dim, c.Reverse = p.Strikethrough, p.Dim, p.Reverse
}

// Screen is one session's terminal emulator state: the visible cell grid,
// cursor, alternate-screen buffer, scroll region, scrollback ring, and OSC
// side-channels described in spec §3/§4.2.
type Screen struct {
	Rows, Cols int

	grid    []Row // primary visible grid, Rows*Cols logically, stored per-row
	altGrid []Row // alternate-screen grid, same shape, never touches scrollback

	cursor    CursorPos
	altScreen bool

	decsc       CursorPos // DECSC/DECRC saved cursor (ESC 7 / ESC 8)
	decscPen    pen
	decscValid  bool
	altEntryCur CursorPos // primary cursor captured on entering alt screen

	curPen pen

	scrollTop, scrollBottom int // inclusive scroll region

	decckm         bool
	bracketedPaste bool
	cursorVisible  bool

	ring *scrollback

	notifications []NotificationEvent

	title string
	cwd   string

	// pendingResponse holds the latest DSR response bytes awaiting pickup
	// by the Terminal Use Case, which forwards them to the PTY's stdin.
	pendingResponse []byte

	parser parserState
}

// New creates a Screen with the given visible size and scrollback capacity.
func New(rows, cols, scrollbackCapacity int) *Screen {
	s := &Screen{
		Rows: rows, Cols: cols,
		scrollTop: 0, scrollBottom: rows - 1,
		cursorVisible: true,
		ring:          newScrollback(scrollbackCapacity),
		curPen:        pen{Fg: DefaultColor, Bg: DefaultColor},
	}
	s.grid = newGrid(rows, cols)
	s.altGrid = newGrid(rows, cols)
	return s
}

func newGrid(rows, cols int) []Row {
	g := make([]Row, rows)
	for i := range g {
		g[i] = newBlankRow(cols)
	}
	return g
}

func newBlankRow(cols int) Row {
	row := make(Row, cols)
	for i := range row {
		row[i] = blankCell()
	}
	return row
}

func (s *Screen) activeGrid() []Row {
	if s.altScreen {
		return s.altGrid
	}
	return s.grid
}

// Cursor returns the current cursor position.
func (s *Screen) Cursor() CursorPos { return s.cursor }

// CursorVisible reports whether the cursor should be drawn.
func (s *Screen) CursorVisible() bool { return s.cursorVisible }

// DECCKM reports application-cursor-key mode.
func (s *Screen) DECCKM() bool { return s.decckm }

// BracketedPaste reports whether bracketed paste mode is enabled.
func (s *Screen) BracketedPaste() bool { return s.bracketedPaste }

// AltScreen reports whether the alternate screen is active.
func (s *Screen) AltScreen() bool { return s.altScreen }

// Title returns the last OSC 0/2 title set by the child.
func (s *Screen) Title() string { return s.title }

// Cwd returns the last OSC 7 working directory reported by the child.
func (s *Screen) Cwd() string { return s.cwd }

// ScrollbackLen returns the number of retained scrollback lines.
func (s *Screen) ScrollbackLen() int { return s.ring.len() }

// VisibleGrid returns the rows currently visible, read-only. Callers must
// not mutate the returned slices.
func (s *Screen) VisibleGrid() []Row {
	return s.activeGrid()
}

// TakeResponse returns and clears any pending DSR response bytes.
func (s *Screen) TakeResponse() []byte {
	r := s.pendingResponse
	s.pendingResponse = nil
	return r
}

// TakeNotifications returns and clears the pending notification queue.
func (s *Screen) TakeNotifications() []NotificationEvent {
	n := s.notifications
	s.notifications = nil
	return n
}

// GetRowCells returns the cells for an absolute row: 0..ScrollbackLen()-1
// addresses scrollback (oldest first), and ScrollbackLen()..ScrollbackLen()+Rows-1
// addresses the visible grid top-to-bottom. Returns nil if out of range.
func (s *Screen) GetRowCells(absoluteRow int) Row {
	n := s.ring.len()
	if absoluteRow < n {
		return s.ring.at(absoluteRow)
	}
	visibleRow := absoluteRow - n
	g := s.activeGrid()
	if visibleRow < 0 || visibleRow >= len(g) {
		return nil
	}
	return g[visibleRow]
}

// TotalRows returns ScrollbackLen() + Rows, the exclusive upper bound for
// GetRowCells' absolute row coordinate.
func (s *Screen) TotalRows() int {
	return s.ring.len() + s.Rows
}

// RowText extracts plain text from an absolute row: continuation cells are
// dropped and trailing spaces are trimmed.
func (s *Screen) RowText(absoluteRow int) string {
	row := s.GetRowCells(absoluteRow)
	return rowText(row)
}

func rowText(row Row) string {
	if row == nil {
		return ""
	}
	runes := make([]rune, 0, len(row))
	for _, c := range row {
		if c.Continuation {
			continue
		}
		runes = append(runes, c.Ch)
	}
	// Trim trailing spaces.
	end := len(runes)
	for end > 0 && runes[end-1] == ' ' {
		end--
	}
	return string(runes[:end])
}

// clampCursor keeps the cursor within [0,rows) x [0,cols).
func (s *Screen) clampCursor() {
	if s.cursor.Row < 0 {
		s.cursor.Row = 0
	}
	if s.cursor.Row >= s.Rows {
		s.cursor.Row = s.Rows - 1
	}
	if s.cursor.Col < 0 {
		s.cursor.Col = 0
	}
	if s.cursor.Col >= s.Cols {
		s.cursor.Col = s.Cols - 1
	}
}

// glyphWidth reports the column width (1 or 2) of a rune using East Asian
// width rules.
func glyphWidth(r rune) int {
	w := runewidth.RuneWidth(r)
	if w <= 0 {
		return 1
	}
	if w > 2 {
		return 2
	}
	return w
}

// Resize implements the reflow policy from spec §4.2: truncate/pad columns
// without rewrapping history, clear newly exposed cells, clamp the cursor,
// and reset the scroll region to full screen.
func (s *Screen) Resize(rows, cols int) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	s.grid = reflow(s.grid, s.Rows, s.Cols, rows, cols)
	s.altGrid = reflow(s.altGrid, s.Rows, s.Cols, rows, cols)
	s.Rows, s.Cols = rows, cols
	s.scrollTop, s.scrollBottom = 0, rows-1
	s.clampCursor()
}

func reflow(grid []Row, oldRows, oldCols, rows, cols int) []Row {
	out := newGrid(rows, cols)
	for r := 0; r < rows && r < oldRows; r++ {
		for c := 0; c < cols && c < oldCols; c++ {
			out[r][c] = grid[r][c]
		}
	}
	return out
}
