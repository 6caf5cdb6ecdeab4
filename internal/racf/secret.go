package racf

import (
	"bytes"
)

// secretFiller overwrites secret bytes once a buffer is released.
const secretFiller = '*'

// SecretBuffer holds sensitive character data (passwords, passphrases)
// while a command is being composed. Its contents are overwritten with
// filler characters when Wipe is called; use WithSecret to guarantee that on
// every exit path.
type SecretBuffer struct {
	buf   []byte
	wiped bool
}

// NewSecretBuffer returns an empty buffer with room for size bytes.
func NewSecretBuffer(size int) *SecretBuffer {
	return &SecretBuffer{buf: make([]byte, 0, size)}
}

// WithSecret runs fn with a fresh buffer and wipes it when fn returns,
// panics, or fails.
func WithSecret(size int, fn func(*SecretBuffer) error) error {
	sb := NewSecretBuffer(size)
	defer sb.Wipe()
	return fn(sb)
}

// WriteString appends non-sensitive text.
func (s *SecretBuffer) WriteString(text string) {
	s.grow(len(text))
	s.buf = append(s.buf, text...)
}

// Write appends raw bytes, typically the secret itself.
func (s *SecretBuffer) Write(p []byte) {
	s.grow(len(p))
	s.buf = append(s.buf, p...)
}

// grow reallocates the backing array without leaving a stale copy behind.
func (s *SecretBuffer) grow(n int) {
	if len(s.buf)+n <= cap(s.buf) {
		return
	}
	next := make([]byte, len(s.buf), 2*cap(s.buf)+n)
	copy(next, s.buf)
	fill(s.buf[:cap(s.buf)])
	s.buf = next
}

// Bytes exposes the composed content. The slice is only valid until Wipe.
func (s *SecretBuffer) Bytes() []byte {
	return s.buf
}

// Len returns the number of composed bytes.
func (s *SecretBuffer) Len() int {
	return len(s.buf)
}

// Wipe overwrites the content with filler characters. It is safe to call more than once.
func (s *SecretBuffer) Wipe() {
	if s == nil || s.wiped {
		return
	}
	fill(s.buf[:cap(s.buf)])
	s.buf = s.buf[:0]
	s.wiped = true
}

// Wiped reports whether Wipe has run.
func (s *SecretBuffer) Wiped() bool {
	return s.wiped
}

// Redact returns text with every occurrence of secret replaced by filler characters.
func Redact(text string, secret []byte) string {
	if len(secret) == 0 {
		return text
	}
	return string(bytes.ReplaceAll([]byte(text), secret, bytes.Repeat([]byte{secretFiller}, 8)))
}

func fill(b []byte) {
	for i := range b {
		b[i] = secretFiller
	}
}
