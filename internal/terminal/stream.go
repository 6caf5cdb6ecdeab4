package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// DialFunc opens the byte stream behind a StreamTerminal.
type DialFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// StreamOptions configures a StreamTerminal.
type StreamOptions struct {
	Width     int
	MaxRows   int
	Newline   []byte
	Attention []byte
	// Filter rewrites inbound bytes before they reach the screen. It may
	// write protocol replies to reply; an error stops the reader.
	Filter func(p []byte, reply io.Writer) ([]byte, error)
	// Escape rewrites outbound bytes.
	Escape func(p []byte) []byte
}

// StreamTerminal renders a line-oriented byte stream onto a virtual screen.
type StreamTerminal struct {
	dial DialFunc
	opts StreamOptions

	mu     sync.Mutex
	screen *Screen
	conn   io.ReadWriteCloser
	closed bool

	writeMu sync.Mutex

	updates chan struct{}
	done    chan struct{}
	readErr error
	wg      sync.WaitGroup
}

var _ Terminal = (*StreamTerminal)(nil)

// NewStreamTerminal returns an unconnected terminal.
func NewStreamTerminal(dial DialFunc, opts StreamOptions) *StreamTerminal {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if len(opts.Newline) == 0 {
		opts.Newline = []byte("\r\n")
	}
	return &StreamTerminal{
		dial:    dial,
		opts:    opts,
		screen:  NewScreen(opts.Width, opts.MaxRows),
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Connect dials the stream and starts the reader.
func (t *StreamTerminal) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.conn != nil {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	t.wg.Add(1)
	go t.readLoop(conn)
	return nil
}

func (t *StreamTerminal) readLoop(conn io.Reader) {
	defer t.wg.Done()
	defer close(t.done)

	reply := writerFunc(func(p []byte) (int, error) {
		return len(p), t.write(p)
	})

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := buf[:n]
			var ferr error
			if t.opts.Filter != nil {
				data, ferr = t.opts.Filter(data, reply)
			}
			if len(data) > 0 {
				t.mu.Lock()
				t.screen.Write(data)
				t.mu.Unlock()
				t.notify()
			}
			if ferr != nil {
				t.mu.Lock()
				t.readErr = fmt.Errorf("terminal negotiation failed: %w", ferr)
				t.mu.Unlock()
				return
			}
		}
		if err != nil {
			t.mu.Lock()
			if t.closed || errors.Is(err, io.EOF) {
				t.readErr = ErrClosed
			} else {
				t.readErr = fmt.Errorf("terminal read failed: %w", err)
			}
			t.mu.Unlock()
			return
		}
	}
}

func (t *StreamTerminal) notify() {
	select {
	case t.updates <- struct{}{}:
	default:
	}
}

func (t *StreamTerminal) write(p []byte) error {
	t.mu.Lock()
	conn, closed := t.conn, t.closed
	t.mu.Unlock()
	if closed || conn == nil {
		return ErrClosed
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, err := conn.Write(p)
	return err
}

// Send writes data to the stream.
func (t *StreamTerminal) Send(data []byte) error {
	if t.opts.Escape != nil {
		data = t.opts.Escape(data)
	}
	return t.write(data)
}

// SendEnter writes the newline sequence.
func (t *StreamTerminal) SendEnter() error {
	return t.write(t.opts.Newline)
}

// SendAttention writes the attention sequence n times.
func (t *StreamTerminal) SendAttention(n int) error {
	if len(t.opts.Attention) == 0 {
		return errors.New("attention is not supported by this terminal")
	}
	for range n {
		if err := t.write(t.opts.Attention); err != nil {
			return err
		}
	}
	return nil
}

// Display returns the flattened screen.
func (t *StreamTerminal) Display() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen.String()
}

// Width returns the row width.
func (t *StreamTerminal) Width() int {
	return t.opts.Width
}

// ClearAndUnlock empties the screen. Stream keyboards never lock.
func (t *StreamTerminal) ClearAndUnlock() {
	t.mu.Lock()
	t.screen.Clear()
	t.mu.Unlock()

	select {
	case <-t.updates:
	default:
	}
}

// WaitForUpdate blocks until new output arrives.
func (t *StreamTerminal) WaitForUpdate(ctx context.Context) error {
	select {
	case <-t.updates:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		// drain output that raced with the close
		select {
		case <-t.updates:
			return nil
		default:
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.readErr
	}
}

// Close shuts the stream and waits for the reader to exit.
func (t *StreamTerminal) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	t.wg.Wait()
	return err
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) {
	return f(p)
}
