package racf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// OutcomeKind classifies the terminal state of one command cycle.
type OutcomeKind int

const (
	OutcomeComplete OutcomeKind = iota
	OutcomeError
	OutcomeTimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeComplete:
		return "complete"
	case OutcomeError:
		return "error"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Outcome is the result of one command cycle. Text is the reflowed
// response for Complete, the screen captured when the error was detected for
// Error, and whatever had accumulated for TimedOut.
type Outcome struct {
	Kind OutcomeKind
	Text string
}

// key is the keystroke a transition asks the driver to send.
type key int

const (
	keyNone key = iota
	keyEnter
	keyAttention
)

// transition describes what the driver must do after a step.
type transition struct {
	key key
	// clear empties the display before the key is sent, so the next page
	// starts on a fresh screen.
	clear bool
	// event names the transition for logging; empty when nothing happened.
	event string
}

// waitState is the per-command accumulator threaded through the driver loop.
type waitState struct {
	chunks       []string
	captured     bool
	lastCaptured string
	lastDisplay  string
	pendingError string
	errorSeen    bool
	done         bool
}

func (st waitState) capture(content string) waitState {
	st.chunks = append(st.chunks[:len(st.chunks):len(st.chunks)], content)
	st.captured = true
	st.lastCaptured = content
	return st
}

// captureFinal records the completion screen unless it repeats the last
// capture exactly.
func (st waitState) captureFinal(content string) waitState {
	if st.captured && content == st.lastCaptured {
		return st
	}
	return st.capture(content)
}

// accumulated returns everything captured so far plus the live display when
// it has not been captured yet.
func (st waitState) accumulated() string {
	text := strings.Join(st.chunks, "")
	if st.lastDisplay != "" && (!st.captured || st.lastDisplay != st.lastCaptured) {
		text += st.lastDisplay
	}
	return text
}

// outcome converts a finished state into an Outcome. The text is raw; the
// driver post-processes it.
func (st waitState) outcome() Outcome {
	if st.pendingError != "" {
		return Outcome{Kind: OutcomeError, Text: st.pendingError}
	}
	return Outcome{Kind: OutcomeComplete, Text: strings.Join(st.chunks, "")}
}

// markers holds the compiled signals the state machine watches for.
type markers struct {
	continuation string
	completion   string
	errors       []*regexp2.Regexp
}

func newMarkers(continuation, completion string, errorPatterns []string) (*markers, error) {
	m := &markers{continuation: continuation, completion: completion}
	for _, p := range errorPatterns {
		re, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("invalid error pattern %q: %w", p, err)
		}
		m.errors = append(m.errors, re)
	}
	return m, nil
}

// step evaluates one display against the current state. It has no side
// effects; the returned transition tells the driver which key to send.
func (m *markers) step(st waitState, display string, width int) (waitState, transition) {
	if st.done || display == st.lastDisplay {
		return st, transition{}
	}
	st.lastDisplay = display

	var collision bool
	if m.continuation != "" {
		idx, offBoundary := boundaryIndex(display, m.continuation, width)
		if idx >= 0 {
			st = st.capture(display[:idx])
			// The driver clears the screen, so the next page is new even when
			// it repeats this one byte for byte.
			st.lastDisplay = ""
			return st, transition{key: keyEnter, clear: true, event: "continuation"}
		}
		// Known fragility: a marker at a row boundary is assumed structural.
		collision = offBoundary
	}

	// Only a marker that starts a row counts; "ALREADY" is data.
	completeIdx := -1
	if m.completion != "" {
		completeIdx = lastBoundaryIndex(display, m.completion, width)
	}
	trailing := completeIdx >= 0 && strings.TrimSpace(display[completeIdx+len(m.completion):]) == ""

	if !st.errorSeen && m.matchesError(display, width) {
		st.errorSeen = true
		st.pendingError = display
		if !trailing {
			return st, transition{key: keyAttention, event: "embedded_error"}
		}
	}

	if completeIdx < 0 {
		if collision {
			return st, transition{event: "marker_collision"}
		}
		return st, transition{}
	}

	if !trailing {
		return st, transition{key: keyEnter, event: "completion_not_trailing"}
	}

	end := min(len(display), completeIdx+width)
	st = st.captureFinal(display[:end])
	st.done = true
	return st, transition{event: "command_complete"}
}

// boundaryIndex returns the first offset of marker that lies on a row
// boundary, or -1. offBoundary reports whether the marker occurs elsewhere.
func boundaryIndex(display, marker string, width int) (idx int, offBoundary bool) {
	from := 0
	for {
		i := strings.Index(display[from:], marker)
		if i < 0 {
			return -1, offBoundary
		}
		i += from
		if width > 0 && i%width == 0 {
			return i, offBoundary
		}
		offBoundary = true
		from = i + len(marker)
	}
}

// onRowBoundary reports whether offset i starts a row. Without a width
// rows are delimited by newlines.
func onRowBoundary(text string, i, width int) bool {
	if width > 0 {
		return i%width == 0
	}
	return i == 0 || text[i-1] == '\n'
}

// lastBoundaryIndex returns the last offset of marker that starts a row, or
// -1.
func lastBoundaryIndex(display, marker string, width int) int {
	end := len(display)
	for {
		i := strings.LastIndex(display[:end], marker)
		if i < 0 {
			return -1
		}
		if onRowBoundary(display, i, width) {
			return i
		}
		end = i + len(marker) - 1
	}
}

func (m *markers) matchesError(display string, width int) bool {
	if len(m.errors) == 0 {
		return false
	}
	lines := strings.Join(rows(display, width), "\n")
	for _, re := range m.errors {
		if ok, err := re.MatchString(lines); err == nil && ok {
			return true
		}
	}
	return false
}

// rows slices a flattened display into width-wide rows without trailing
// blanks.
func rows(display string, width int) []string {
	if width <= 0 {
		return []string{strings.TrimRight(display, " ")}
	}
	out := make([]string, 0, len(display)/width+1)
	for start := 0; start < len(display); start += width {
		end := min(start+width, len(display))
		out = append(out, strings.TrimRight(display[start:end], " "))
	}
	return out
}

// postProcess strips the command echo and trailing completion marker from
// raw screen text and reflows the remainder into lines.
func postProcess(raw string, command []byte, completion string, width int) string {
	text := raw

	if len(command) > 0 {
		if i := bytes.Index([]byte(text), command); i >= 0 {
			end := i + len(command)
			if width > 0 && end%width != 0 {
				end += width - end%width
			}
			text = text[min(end, len(text)):]
		}
	}

	text = strings.TrimRight(text, " ")
	if completion != "" && strings.HasSuffix(text, completion) && onRowBoundary(text, len(text)-len(completion), width) {
		text = text[:len(text)-len(completion)]
	}

	lines := rows(text, width)
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}
