// Package terminal provides block-mode terminal sessions for driving a
// mainframe command processor.
//
// A Terminal exposes the flattened display buffer (rows of a fixed width
// concatenated without separators) and a handful of keystrokes. Deciding
// when a command is complete is left to the caller; the terminal only reports
// that the display changed.
package terminal

import (
	"context"
	"errors"
)

// DefaultWidth is the row width of a 3270 model 2 screen.
const DefaultWidth = 80

// ErrClosed is returned by operations on a closed terminal.
var ErrClosed = errors.New("terminal is closed")

// Terminal is the minimal contract of an interactive terminal session.
type Terminal interface {
	// Connect opens the underlying connection.
	Connect(ctx context.Context) error

	// Send types data at the cursor without submitting it.
	Send(data []byte) error

	// SendEnter submits the current input.
	SendEnter() error

	// SendAttention sends the attention (interrupt) key n times.
	SendAttention(n int) error

	// Display returns the flattened screen content.
	Display() string

	// Width returns the row width of the display.
	Width() int

	// ClearAndUnlock clears the display and unlocks the keyboard so the next
	// command starts from an empty buffer.
	ClearAndUnlock()

	// WaitForUpdate blocks until the display changes, the connection ends or
	// ctx is done.
	WaitForUpdate(ctx context.Context) error

	// Close releases the connection.
	Close() error
}
