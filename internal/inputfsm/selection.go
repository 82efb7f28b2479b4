package inputfsm

import "deckmux/internal/screen"

// extractSelection renders the text spanned by anchor..cursor (inclusive,
// order-independent) as it would be yanked: whole lines for SelectLine; for
// SelectChar, the first line from the start column, the last line up to and
// including the end column, and any lines between them whole.
func extractSelection(sc *screen.Screen, anchor, cursor Pos, kind SelectKind) string {
	start, end := anchor, cursor
	if end.Row < start.Row || (end.Row == start.Row && end.Col < start.Col) {
		start, end = end, start
	}

	var out []byte
	for row := start.Row; row <= end.Row; row++ {
		text := []rune(sc.RowText(row))
		if kind == SelectLine {
			out = append(out, []byte(string(text))...)
		} else {
			from, to := 0, len(text)
			if row == start.Row {
				from = clampCol(start.Col, len(text))
			}
			if row == end.Row {
				to = clampCol(end.Col+1, len(text))
			}
			if from < to {
				out = append(out, []byte(string(text[from:to]))...)
			}
		}
		if row != end.Row {
			out = append(out, '\n')
		}
	}
	return string(out)
}

func clampCol(c, n int) int {
	if c < 0 {
		return 0
	}
	if c > n {
		return n
	}
	return c
}
