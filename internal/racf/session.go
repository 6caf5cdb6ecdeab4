package racf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/isometry/terraform-provider-racf/internal/terminal"
)

// Session drives one logged-on terminal. It runs at most one command cycle
// at a time.
type Session struct {
	id      string
	term    terminal.Terminal
	config  *SessionConfig
	markers *markers

	mu       sync.Mutex
	healthy  bool
	lastUsed time.Time
}

// NewTerminal returns an unconnected terminal for the configured transport.
func NewTerminal(cfg *SessionConfig) (terminal.Terminal, error) {
	switch cfg.Transport {
	case TransportTelnet:
		return terminal.DialTelnet(terminal.TelnetConfig{
			Host:        cfg.Host,
			Port:        cfg.Port,
			Width:       cfg.Width,
			DialTimeout: cfg.DialTimeout,
		}), nil
	case TransportSSH:
		return terminal.DialSSH(terminal.SSHConfig{
			Host:                  cfg.Host,
			Port:                  cfg.Port,
			Username:              cfg.Username,
			Password:              cfg.Password,
			Width:                 cfg.Width,
			KnownHostsFile:        cfg.KnownHostsFile,
			InsecureIgnoreHostKey: cfg.InsecureIgnoreHostKey,
			DialTimeout:           cfg.DialTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}

// NewSession wraps term. The terminal is not connected until Open.
func NewSession(term terminal.Terminal, cfg *SessionConfig) (*Session, error) {
	if cfg == nil {
		cfg = NewSessionConfig()
	}
	m, err := newMarkers(cfg.ContinuationMarker, cfg.CompletionMarker, cfg.ErrorPatterns)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:       uuid.NewString(),
		term:     term,
		config:   cfg,
		markers:  m,
		healthy:  true,
		lastUsed: time.Now(),
	}, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Healthy reports whether the session may be reused.
func (s *Session) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}

// LastUsed returns the time the last command finished.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) logFields(fields map[string]any) map[string]any {
	if fields == nil {
		fields = make(map[string]any)
	}
	fields["session_id"] = s.id
	return fields
}

// Open connects the terminal and logs on.
func (s *Session) Open(ctx context.Context) error {
	if err := s.term.Connect(ctx); err != nil {
		LogSessionEvent(ctx, "connect_failed", s.logFields(map[string]any{"error": err.Error()}))
		return NewConnectionError("failed to connect terminal", true, err)
	}
	LogSessionEvent(ctx, "session_connected", s.logFields(map[string]any{
		"host":      s.config.Host,
		"transport": s.config.Transport,
	}))

	steps := s.config.LogonSteps
	if len(steps) == 0 && s.config.Transport == TransportTelnet {
		steps = DefaultLogonSteps
	}
	if err := s.Logon(ctx, steps); err != nil {
		_ = s.term.Close()
		return err
	}
	return nil
}

// Logon answers each step's prompt and then waits for the first ready
// prompt. Responses are composed in a SecretBuffer that is wiped after
// sending.
func (s *Session) Logon(ctx context.Context, steps []LogonStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.CommandTimeout)
	defer cancel()

	for i, step := range steps {
		if err := s.waitFor(ctx, func(display string) bool {
			return strings.Contains(display, step.Expect)
		}); err != nil {
			LogSessionEvent(ctx, "logon_failed", s.logFields(map[string]any{"step": i, "expect": step.Expect}))
			return NewConnectionError(fmt.Sprintf("logon step %d: prompt %q not seen", i+1, step.Expect), false, err)
		}

		s.term.ClearAndUnlock()
		err := WithSecret(len(step.Respond)+len(s.config.Password), func(buf *SecretBuffer) error {
			s.composeResponse(buf, step.Respond)
			if err := s.term.Send(buf.Bytes()); err != nil {
				return err
			}
			return s.term.SendEnter()
		})
		if err != nil {
			return NewConnectionError("failed to send logon response", true, err)
		}
	}

	if err := s.waitFor(ctx, func(display string) bool {
		return strings.HasSuffix(strings.TrimRight(display, " "), s.config.CompletionMarker)
	}); err != nil {
		LogSessionEvent(ctx, "logon_failed", s.logFields(map[string]any{"display": Redact(s.term.Display(), []byte(s.config.Password))}))
		return NewConnectionError("logon did not reach the ready prompt", false, err)
	}

	s.lastUsed = time.Now()
	LogSessionEvent(ctx, "logon_complete", s.logFields(nil))
	return nil
}

// composeResponse expands {username} and {password} into buf.
func (s *Session) composeResponse(buf *SecretBuffer, template string) {
	rest := template
	for rest != "" {
		i := strings.IndexByte(rest, '{')
		if i < 0 {
			buf.WriteString(rest)
			return
		}
		buf.WriteString(rest[:i])
		rest = rest[i:]
		switch {
		case strings.HasPrefix(rest, "{username}"):
			buf.WriteString(s.config.Username)
			rest = rest[len("{username}"):]
		case strings.HasPrefix(rest, "{password}"):
			buf.WriteString(s.config.Password)
			rest = rest[len("{password}"):]
		default:
			buf.WriteString("{")
			rest = rest[1:]
		}
	}
}

// waitFor blocks until done reports true for the display.
func (s *Session) waitFor(ctx context.Context, done func(string) bool) error {
	for {
		if done(s.term.Display()) {
			return nil
		}
		if err := s.term.WaitForUpdate(ctx); err != nil {
			return err
		}
	}
}

// Run sends command and drives the wait state machine until the command
// completes, reports an error or times out. The returned error is set only
// for transport failures.
func (s *Session) Run(ctx context.Context, command []byte) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	verb := CommandVerb(command)
	ctx, cancel := context.WithTimeout(ctx, s.config.CommandTimeout)
	defer cancel()

	width := s.term.Width()
	finish := func(out Outcome) Outcome {
		out.Text = postProcess(out.Text, command, s.config.CompletionMarker, width)
		s.lastUsed = time.Now()
		return out
	}

	s.term.ClearAndUnlock()
	if err := s.term.Send(command); err != nil {
		s.healthy = false
		return Outcome{}, err
	}
	if err := s.term.SendEnter(); err != nil {
		s.healthy = false
		return Outcome{}, err
	}
	LogSessionEvent(ctx, "command_sent", s.logFields(map[string]any{"command": verb}))

	var st waitState
	for {
		var t transition
		st, t = s.markers.step(st, s.term.Display(), width)
		if t.event != "" {
			LogSessionEvent(ctx, t.event, s.logFields(map[string]any{"command": verb}))
		}

		var err error
		switch t.key {
		case keyEnter:
			if t.clear {
				s.term.ClearAndUnlock()
			}
			err = s.term.SendEnter()
		case keyAttention:
			err = s.term.SendAttention(1)
		}
		if err != nil {
			s.healthy = false
			return Outcome{}, err
		}

		if st.done {
			return finish(st.outcome()), nil
		}

		if err := s.term.WaitForUpdate(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				// A timed-out terminal is in an unknown state.
				s.healthy = false
				LogSessionEvent(ctx, "command_timed_out", s.logFields(map[string]any{
					"command": verb,
					"timeout": s.config.CommandTimeout.String(),
				}))
				return finish(Outcome{Kind: OutcomeTimedOut, Text: st.accumulated()}), nil
			}
			s.healthy = false
			return Outcome{}, err
		}
	}
}

// Execute runs command and maps the outcome to an error.
func (s *Session) Execute(ctx context.Context, command []byte) (string, error) {
	verb := CommandVerb(command)

	out, err := s.Run(ctx, command)
	if err != nil {
		return "", NewConnectionError(fmt.Sprintf("%s failed on session %s", verb, s.id), true, err)
	}

	switch out.Kind {
	case OutcomeTimedOut:
		return out.Text, NewTimeoutError(verb, out.Text)
	case OutcomeError:
		return out.Text, NewEmbeddedCommandError(verb, out.Text)
	}
	return out.Text, nil
}

// Close logs off and closes the terminal.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = false
	return s.term.Close()
}
