package terminal

import (
	"strings"
)

// Screen is a fixed-width virtual display fed by a character stream.
// Text flows into rows; a newline pads the current row with blanks. When
// maxRows is positive the oldest rows scroll off.
type Screen struct {
	width   int
	maxRows int
	rows    [][]byte
	col     int
	escape  escapeState
}

type escapeState int

const (
	escapeNone escapeState = iota
	escapeStart
	escapeCSI
)

// NewScreen returns an empty screen of the given width.
func NewScreen(width, maxRows int) *Screen {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Screen{width: width, maxRows: maxRows}
}

// Width returns the row width.
func (s *Screen) Width() int {
	return s.width
}

// Clear empties the screen.
func (s *Screen) Clear() {
	s.rows = nil
	s.col = 0
	s.escape = escapeNone
}

// Write places text on the screen. Control characters other than newline,
// carriage return and tab are dropped, as are ANSI escape sequences.
func (s *Screen) Write(p []byte) {
	for _, b := range p {
		switch s.escape {
		case escapeStart:
			if b == '[' {
				s.escape = escapeCSI
			} else {
				s.escape = escapeNone
			}
			continue
		case escapeCSI:
			if b >= 0x40 && b <= 0x7e {
				s.escape = escapeNone
			}
			continue
		}

		switch {
		case b == 0x1b:
			s.escape = escapeStart
		case b == '\n':
			s.newRow()
		case b == '\r':
			s.col = 0
		case b == '\t':
			next := (s.col/8 + 1) * 8
			for s.col < next && s.col < s.width {
				s.put(' ')
			}
		case b < 0x20 || b == 0x7f:
			// unprintable
		default:
			s.put(b)
		}
	}
}

func (s *Screen) current() []byte {
	if len(s.rows) == 0 {
		s.appendRow()
	}
	return s.rows[len(s.rows)-1]
}

func (s *Screen) put(b byte) {
	if s.col >= s.width {
		s.newRow()
	}
	row := s.current()
	row[s.col] = b
	s.col++
}

func (s *Screen) newRow() {
	if len(s.rows) == 0 {
		s.appendRow()
	}
	s.appendRow()
	s.col = 0
}

func (s *Screen) appendRow() {
	row := make([]byte, s.width)
	for i := range row {
		row[i] = ' '
	}
	s.rows = append(s.rows, row)
	if s.maxRows > 0 && len(s.rows) > s.maxRows {
		s.rows = s.rows[len(s.rows)-s.maxRows:]
	}
}

// String returns the flattened display: every row padded to the width and
// concatenated without separators.
func (s *Screen) String() string {
	var sb strings.Builder
	sb.Grow(len(s.rows) * s.width)
	for _, row := range s.rows {
		sb.Write(row)
	}
	return sb.String()
}
