package screen

import "unicode/utf8"

// parseState is the byte-level state of the VTE-style parser.
type parseState int

const (
	stateGround parseState = iota
	stateEscape
	stateCSI
	stateOSC
	stateOSCEsc // inside OSC, just saw ESC, waiting for ST's '\\'
)

// parserState holds the parser's carry-over state across Write calls, since
// the PTY Port may split a single escape sequence or multi-byte UTF-8
// rune across two reads.
type parserState struct {
	state parseState

	// CSI accumulation.
	csiParams []int
	csiCur    int
	csiHasCur bool
	csiPrivate byte // '?' for DEC private sequences, 0 otherwise
	csiInterm  byte // single trailing intermediate byte, e.g. ' ' before final

	// OSC accumulation.
	oscBuf []byte

	// UTF-8 carry-over: bytes of a rune seen so far that need more input.
	utf8Buf [4]byte
	utf8Len int
}

// Feed parses a chunk of PTY output, mutating the grid/cursor/scrollback and
// queuing any OSC-driven notifications or DSR responses. It never blocks and
// never panics on malformed input — unrecognized sequences are dropped.
func (s *Screen) Feed(data []byte) {
	i := 0
	for i < len(data) {
		b := data[i]
		switch s.parser.state {
		case stateGround:
			n := s.feedGround(data[i:])
			i += n
		case stateEscape:
			i += s.feedEscape(b)
		case stateCSI:
			i += s.feedCSI(b)
		case stateOSC:
			i += s.feedOSC(b)
		case stateOSCEsc:
			i += s.feedOSCEsc(b)
		default:
			s.parser.state = stateGround
			i++
		}
	}
}

// feedGround consumes as many plain/control bytes as possible from the
// front of buf, returning the number of bytes consumed (at least 1).
func (s *Screen) feedGround(buf []byte) int {
	b := buf[0]

	switch b {
	case 0x1b: // ESC
		s.parser.state = stateEscape
		return 1
	case '\r':
		s.carriageReturn()
		return 1
	case '\n':
		s.lineFeed()
		return 1
	case '\b':
		s.backspace()
		return 1
	case '\t':
		s.tab()
		return 1
	case 0x07: // BEL
		s.queueBell()
		return 1
	}

	if b < 0x20 {
		// Other C0 controls are ignored.
		return 1
	}

	if b < 0x80 {
		s.putRune(rune(b))
		return 1
	}

	// Multi-byte UTF-8: combine with any carried-over prefix.
	full := buf
	prefixLen := 0
	if s.parser.utf8Len > 0 {
		full = append(append([]byte{}, s.parser.utf8Buf[:s.parser.utf8Len]...), buf...)
		prefixLen = s.parser.utf8Len
	}

	r, size := utf8.DecodeRune(full)
	if r == utf8.RuneError && size <= 1 {
		if !utf8.FullRune(full) {
			// Incomplete sequence at end of buffer: carry it over.
			s.parser.utf8Len = copy(s.parser.utf8Buf[:], full)
			return len(buf)
		}
		// Genuinely invalid byte: drop it and resync.
		s.parser.utf8Len = 0
		s.putRune(utf8.RuneError)
		consumed := 1
		if prefixLen > 0 {
			consumed = 0 // the bad byte was in the carried prefix
		}
		return max(consumed, 1)
	}
	if r == utf8.RuneError && size == 0 {
		// Need more bytes than we have.
		s.parser.utf8Len = copy(s.parser.utf8Buf[:], full)
		return len(buf)
	}

	s.parser.utf8Len = 0
	s.putRune(r)
	consumed := size - prefixLen
	if consumed < 1 {
		consumed = 1
	}
	return consumed
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (s *Screen) feedEscape(b byte) int {
	switch b {
	case '[':
		s.parser.state = stateCSI
		s.parser.csiParams = s.parser.csiParams[:0]
		s.parser.csiCur = 0
		s.parser.csiHasCur = false
		s.parser.csiPrivate = 0
		s.parser.csiInterm = 0
		return 1
	case ']':
		s.parser.state = stateOSC
		s.parser.oscBuf = s.parser.oscBuf[:0]
		return 1
	case '7': // DECSC
		s.saveCursor()
		s.parser.state = stateGround
		return 1
	case '8': // DECRC
		s.restoreCursor()
		s.parser.state = stateGround
		return 1
	case 'M': // reverse index
		s.reverseIndex()
		s.parser.state = stateGround
		return 1
	case 'c': // full reset
		s.fullReset()
		s.parser.state = stateGround
		return 1
	default:
		// Unhandled single-char escape (charset selection, etc): consume and
		// return to ground.
		s.parser.state = stateGround
		return 1
	}
}

func (s *Screen) feedCSI(b byte) int {
	switch {
	case b == '?' && len(s.parser.csiParams) == 0 && !s.parser.csiHasCur:
		s.parser.csiPrivate = '?'
		return 1
	case b >= '0' && b <= '9':
		s.parser.csiCur = s.parser.csiCur*10 + int(b-'0')
		s.parser.csiHasCur = true
		return 1
	case b == ';':
		s.parser.csiParams = append(s.parser.csiParams, s.parser.csiCur)
		s.parser.csiCur = 0
		s.parser.csiHasCur = false
		return 1
	case b == ' ' || b == '\'':
		s.parser.csiInterm = b
		return 1
	default:
		if s.parser.csiHasCur || len(s.parser.csiParams) == 0 {
			s.parser.csiParams = append(s.parser.csiParams, s.parser.csiCur)
		}
		params := s.parser.csiParams
		private := s.parser.csiPrivate
		s.parser.state = stateGround
		s.dispatchCSI(private, params, b)
		return 1
	}
}

func (s *Screen) feedOSC(b byte) int {
	switch b {
	case 0x07: // BEL terminator
		s.dispatchOSC(s.parser.oscBuf)
		s.parser.state = stateGround
		return 1
	case 0x1b:
		s.parser.state = stateOSCEsc
		return 1
	default:
		s.parser.oscBuf = append(s.parser.oscBuf, b)
		return 1
	}
}

func (s *Screen) feedOSCEsc(b byte) int {
	if b == '\\' {
		s.dispatchOSC(s.parser.oscBuf)
		s.parser.state = stateGround
		return 1
	}
	// Not a valid ST: treat the ESC as data-ish and resume OSC accumulation.
	s.parser.oscBuf = append(s.parser.oscBuf, 0x1b, b)
	s.parser.state = stateOSC
	return 1
}

func csiParam(params []int, idx, def int) int {
	if idx >= len(params) {
		return def
	}
	if params[idx] == 0 {
		return def
	}
	return params[idx]
}
