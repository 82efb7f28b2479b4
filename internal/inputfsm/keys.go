package inputfsm

import "strings"

// Key is a single input event as delivered by the renderer, already
// decoded from whatever terminal escape sequence produced it.
type Key struct {
	Rune  rune   // set for printable/character keys
	Named string // e.g. "up", "down", "pgup", "pgdn", "enter", "esc", "backspace", "tab"
	Ctrl  bool
}

// CtrlB reports whether k is Ctrl+B, the default tmux-style prefix key. The
// Machine matches the configured prefix key instead.
func (k Key) CtrlB() bool { return k.Ctrl && k.Rune == 'b' }

// ParsePrefixKey parses a config prefix_key string like "ctrl+b" into the
// Key that gates PrefixWait, defaulting to Ctrl+B when the string is empty
// or doesn't name a recognized ctrl+letter combination.
func ParsePrefixKey(s string) Key {
	s = strings.ToLower(strings.TrimSpace(s))
	if rest, ok := strings.CutPrefix(s, "ctrl+"); ok && len(rest) == 1 {
		if r := rune(rest[0]); r >= 'a' && r <= 'z' {
			return Key{Rune: r, Ctrl: true}
		}
	}
	return Key{Rune: 'b', Ctrl: true}
}

// bytesForKey encodes a Normal-state key as the bytes to write to the active
// PTY, honoring DECCKM for arrow keys (CSI when false, SS3 when true) per
// xterm convention.
func bytesForKey(k Key, decckm bool) []byte {
	switch k.Named {
	case "up":
		return arrowBytes('A', decckm)
	case "down":
		return arrowBytes('B', decckm)
	case "right":
		return arrowBytes('C', decckm)
	case "left":
		return arrowBytes('D', decckm)
	case "enter":
		return []byte{'\r'}
	case "backspace":
		return []byte{0x7f}
	case "tab":
		return []byte{'\t'}
	case "esc":
		return []byte{0x1b}
	case "pgup":
		return []byte("\x1b[5~")
	case "pgdn":
		return []byte("\x1b[6~")
	}

	if k.Ctrl && k.Rune != 0 {
		return []byte{ctrlByte(k.Rune)}
	}
	if k.Rune != 0 {
		return []byte(string(k.Rune))
	}
	return nil
}

// arrowBytes encodes an arrow key's final byte as CSI (ESC [ <final>) in
// normal cursor key mode, or SS3 (ESC O <final>) when DECCKM is set.
func arrowBytes(final byte, decckm bool) []byte {
	if decckm {
		return []byte{0x1b, 'O', final}
	}
	return []byte{0x1b, '[', final}
}

// ctrlByte maps a control-combined letter to its C0 control byte, e.g.
// Ctrl+A -> 0x01, Ctrl+B -> 0x02.
func ctrlByte(r rune) byte {
	r = toLowerASCII(r)
	if r < 'a' || r > 'z' {
		return byte(r)
	}
	return byte(r-'a') + 1
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r - 'A' + 'a'
	}
	return r
}
