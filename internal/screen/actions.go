package screen

// putRune writes a single glyph at the cursor, advancing the cursor and
// wrapping/scrolling as needed. Wide glyphs occupy two cells: a lead cell
// carrying the rune and a Continuation cell.
func (s *Screen) putRune(r rune) {
	w := glyphWidth(r)
	grid := s.activeGrid()

	if s.cursor.Col+w > s.Cols {
		s.carriageReturn()
		s.lineFeed()
	}

	row := grid[s.cursor.Row]
	clearWideGlyph(row, s.cursor.Col)
	if w == 2 {
		clearWideGlyph(row, s.cursor.Col+1)
	}

	c := Cell{Ch: r}
	s.curPen.apply(&c)
	row[s.cursor.Col] = c
	if w == 2 && s.cursor.Col+1 < s.Cols {
		cont := Cell{Ch: 0, Continuation: true}
		s.curPen.apply(&cont)
		row[s.cursor.Col+1] = cont
	}

	s.cursor.Col += w
	if s.cursor.Col >= s.Cols {
		s.cursor.Col = s.Cols
	}
}

// clearWideGlyph blanks the other half of any wide glyph touching col, so
// overwriting one half of a lead/continuation pair never leaves the other
// half orphaned (invariant: every Continuation cell has a wide lead
// immediately to its left).
func clearWideGlyph(row Row, col int) {
	if col < 0 || col >= len(row) {
		return
	}
	if row[col].Continuation && col > 0 {
		row[col-1] = blankCell()
	} else if glyphWidth(row[col].Ch) == 2 && col+1 < len(row) {
		row[col+1] = blankCell()
	}
	row[col] = blankCell()
}

func (s *Screen) carriageReturn() {
	s.cursor.Col = 0
}

func (s *Screen) backspace() {
	if s.cursor.Col > 0 {
		s.cursor.Col--
	}
}

func (s *Screen) tab() {
	next := ((s.cursor.Col / 8) + 1) * 8
	if next >= s.Cols {
		next = s.Cols - 1
	}
	s.cursor.Col = next
}

// lineFeed advances to the next line, scrolling the active region if the
// cursor is already at the bottom margin.
func (s *Screen) lineFeed() {
	if s.cursor.Col >= s.Cols {
		s.cursor.Col = 0
	}
	if s.cursor.Row == s.scrollBottom {
		s.scrollUp(1)
		return
	}
	if s.cursor.Row < s.Rows-1 {
		s.cursor.Row++
	}
}

// reverseIndex moves up one line, scrolling down if at the top margin.
func (s *Screen) reverseIndex() {
	if s.cursor.Row == s.scrollTop {
		s.scrollDown(1)
		return
	}
	if s.cursor.Row > 0 {
		s.cursor.Row--
	}
}

// scrollUp moves n lines off the top of the scroll region. When the region
// is the full screen and we are on the primary buffer, evicted lines are
// pushed into scrollback; alternate-screen scrolling never touches it.
func (s *Screen) scrollUp(n int) {
	grid := s.activeGrid()
	full := s.scrollTop == 0 && s.scrollBottom == s.Rows-1
	for k := 0; k < n; k++ {
		if full && !s.altScreen {
			cp := make(Row, len(grid[s.scrollTop]))
			copy(cp, grid[s.scrollTop])
			s.ring.push(cp)
		}
		copy(grid[s.scrollTop:s.scrollBottom+1], grid[s.scrollTop+1:s.scrollBottom+1])
		grid[s.scrollBottom] = newBlankRow(s.Cols)
	}
}

func (s *Screen) scrollDown(n int) {
	grid := s.activeGrid()
	for k := 0; k < n; k++ {
		copy(grid[s.scrollTop+1:s.scrollBottom+1], grid[s.scrollTop:s.scrollBottom])
		grid[s.scrollTop] = newBlankRow(s.Cols)
	}
}

func (s *Screen) saveCursor() {
	s.decsc = s.cursor
	s.decscPen = s.curPen
	s.decscValid = true
}

func (s *Screen) restoreCursor() {
	if !s.decscValid {
		s.cursor = CursorPos{}
		return
	}
	s.cursor = s.decsc
	s.curPen = s.decscPen
	s.clampCursor()
}

func (s *Screen) fullReset() {
	s.grid = newGrid(s.Rows, s.Cols)
	s.altGrid = newGrid(s.Rows, s.Cols)
	s.cursor = CursorPos{}
	s.altScreen = false
	s.decscValid = false
	s.curPen = pen{Fg: DefaultColor, Bg: DefaultColor}
	s.scrollTop, s.scrollBottom = 0, s.Rows-1
	s.decckm = false
	s.bracketedPaste = false
	s.cursorVisible = true
}

func (s *Screen) queueBell() {
	s.notifications = append(s.notifications, NotificationEvent{Kind: NotifyBell})
}

// dispatchCSI applies one fully-parsed CSI sequence ending in final byte b,
// with the given DEC-private marker (0 or '?') and numeric parameters.
func (s *Screen) dispatchCSI(private byte, params []int, final byte) {
	if private == '?' {
		s.dispatchPrivateMode(params, final)
		return
	}

	switch final {
	case 'A': // CUU
		n := csiParam(params, 0, 1)
		s.cursor.Row -= n
		if s.cursor.Row < s.scrollTop {
			s.cursor.Row = s.scrollTop
		}
		s.clampCursor()
	case 'B': // CUD
		n := csiParam(params, 0, 1)
		s.cursor.Row += n
		if s.cursor.Row > s.scrollBottom {
			s.cursor.Row = s.scrollBottom
		}
		s.clampCursor()
	case 'C': // CUF
		n := csiParam(params, 0, 1)
		s.cursor.Col += n
		s.clampCursor()
	case 'D': // CUB
		n := csiParam(params, 0, 1)
		s.cursor.Col -= n
		s.clampCursor()
	case 'H', 'f': // CUP
		row := csiParam(params, 0, 1) - 1
		col := csiParam(params, 1, 1) - 1
		s.cursor.Row, s.cursor.Col = row, col
		s.clampCursor()
	case 'G': // CHA
		s.cursor.Col = csiParam(params, 0, 1) - 1
		s.clampCursor()
	case 'd': // VPA
		s.cursor.Row = csiParam(params, 0, 1) - 1
		s.clampCursor()
	case 'K': // EL
		s.eraseLine(csiParam(params, 0, 0))
	case 'J': // ED
		s.eraseDisplay(csiParam(params, 0, 0))
	case 'r': // DECSTBM
		top := csiParam(params, 0, 1) - 1
		bottom := csiParam(params, 1, s.Rows) - 1
		if top < 0 {
			top = 0
		}
		if bottom >= s.Rows {
			bottom = s.Rows - 1
		}
		if top > bottom {
			top = bottom
		}
		s.scrollTop, s.scrollBottom = top, bottom
		s.cursor = CursorPos{}
	case 'm': // SGR
		s.applySGR(params)
	case 'n': // DSR
		if csiParam(params, 0, 0) == 6 {
			s.queueCursorPositionReport()
		}
	case 'S': // SU — scroll up n
		s.scrollUp(csiParam(params, 0, 1))
	case 'T': // SD — scroll down n
		s.scrollDown(csiParam(params, 0, 1))
	}
}

func (s *Screen) dispatchPrivateMode(params []int, final byte) {
	if len(params) == 0 {
		return
	}
	set := final == 'h'
	if final != 'h' && final != 'l' {
		return
	}
	for _, mode := range params {
		switch mode {
		case 1: // DECCKM
			s.decckm = set
		case 25: // cursor visibility
			s.cursorVisible = set
		case 2004: // bracketed paste
			s.bracketedPaste = set
		case 1047, 1049:
			s.setAltScreen(set, mode == 1049)
		case 1048:
			if set {
				s.saveCursor()
			} else {
				s.restoreCursor()
			}
		}
	}
}

// setAltScreen toggles the alternate screen buffer. Entering captures and
// clears; leaving restores the primary cursor. withCursor additionally
// saves/restores the cursor position per DECSC semantics (mode 1049).
func (s *Screen) setAltScreen(enter bool, withCursor bool) {
	if enter == s.altScreen {
		return
	}
	if enter {
		s.altEntryCur = s.cursor
		if withCursor {
			s.saveCursor()
		}
		s.altScreen = true
		s.altGrid = newGrid(s.Rows, s.Cols)
		s.cursor = CursorPos{}
	} else {
		s.altScreen = false
		s.cursor = s.altEntryCur
		if withCursor {
			s.restoreCursor()
		}
		s.clampCursor()
	}
}

func (s *Screen) eraseLine(mode int) {
	grid := s.activeGrid()
	row := grid[s.cursor.Row]
	switch mode {
	case 0:
		for c := s.cursor.Col; c < s.Cols; c++ {
			row[c] = blankCell()
		}
	case 1:
		for c := 0; c <= s.cursor.Col && c < s.Cols; c++ {
			row[c] = blankCell()
		}
	case 2:
		for c := 0; c < s.Cols; c++ {
			row[c] = blankCell()
		}
	}
}

func (s *Screen) eraseDisplay(mode int) {
	grid := s.activeGrid()
	switch mode {
	case 0:
		s.eraseLine(0)
		for r := s.cursor.Row + 1; r < s.Rows; r++ {
			grid[r] = newBlankRow(s.Cols)
		}
	case 1:
		for r := 0; r < s.cursor.Row; r++ {
			grid[r] = newBlankRow(s.Cols)
		}
		s.eraseLine(1)
	case 2, 3:
		for r := 0; r < s.Rows; r++ {
			grid[r] = newBlankRow(s.Cols)
		}
		s.cursor = CursorPos{}
	}
}

func (s *Screen) applySGR(params []int) {
	if len(params) == 0 {
		s.curPen = pen{Fg: DefaultColor, Bg: DefaultColor}
		return
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			s.curPen = pen{Fg: DefaultColor, Bg: DefaultColor}
		case p == 1:
			s.curPen.Bold = true
		case p == 2:
			s.curPen.Dim = true
		case p == 3:
			s.curPen.Italic = true
		case p == 4:
			s.curPen.Underline = true
		case p == 7:
			s.curPen.Reverse = true
		case p == 9:
			s.curPen.Strikethrough = true
		case p == 22:
			s.curPen.Bold, s.curPen.Dim = false, false
		case p == 23:
			s.curPen.Italic = false
		case p == 24:
			s.curPen.Underline = false
		case p == 27:
			s.curPen.Reverse = false
		case p == 29:
			s.curPen.Strikethrough = false
		case p >= 30 && p <= 37:
			s.curPen.Fg = Indexed(uint8(p - 30))
		case p == 38:
			i = s.parseExtendedColor(params, i, &s.curPen.Fg)
		case p == 39:
			s.curPen.Fg = DefaultColor
		case p >= 40 && p <= 47:
			s.curPen.Bg = Indexed(uint8(p - 40))
		case p == 48:
			i = s.parseExtendedColor(params, i, &s.curPen.Bg)
		case p == 49:
			s.curPen.Bg = DefaultColor
		case p >= 90 && p <= 97:
			s.curPen.Fg = Indexed(uint8(p - 90 + 8))
		case p >= 100 && p <= 107:
			s.curPen.Bg = Indexed(uint8(p - 100 + 8))
		}
	}
}

// parseExtendedColor handles the 38/48;5;n and 38/48;2;r;g;b forms, returning
// the index of the last param consumed.
func (s *Screen) parseExtendedColor(params []int, i int, out *Color) int {
	if i+1 >= len(params) {
		return i
	}
	switch params[i+1] {
	case 5:
		if i+2 < len(params) {
			*out = Indexed(uint8(params[i+2]))
			return i + 2
		}
	case 2:
		if i+4 < len(params) {
			*out = RGB(uint8(params[i+2]), uint8(params[i+3]), uint8(params[i+4]))
			return i + 4
		}
	}
	return i + 1
}

// queueCursorPositionReport prepares a DSR CPR response (1-indexed row;col)
// for the Terminal Use Case to forward to the child's stdin.
func (s *Screen) queueCursorPositionReport() {
	resp := []byte("\x1b[")
	resp = appendInt(resp, s.cursor.Row+1)
	resp = append(resp, ';')
	resp = appendInt(resp, s.cursor.Col+1)
	resp = append(resp, 'R')
	s.pendingResponse = resp
}

func appendInt(buf []byte, n int) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	var tmp [8]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
	}
	return append(buf, tmp[i:]...)
}
