package racf

import (
	"context"
	"fmt"
	"time"

	"github.com/creasty/defaults"
)

// Transport names accepted by SessionConfig.
const (
	TransportTelnet = "telnet"
	TransportSSH    = "ssh"
)

// SessionConfig holds settings for one terminal session.
type SessionConfig struct {
	// Connection settings
	Host      string
	Port      int    `default:"23"`
	Transport string `default:"telnet"`
	Username  string
	Password  string
	Width     int `default:"80"`

	// SSH host key verification
	KnownHostsFile        string
	InsecureIgnoreHostKey bool

	// Timeouts
	DialTimeout    time.Duration `default:"30s"`
	CommandTimeout time.Duration `default:"60s"`

	// Markers
	ContinuationMarker string   `default:"***"`
	CompletionMarker   string   `default:"READY"`
	// ErrorPatterns are matched against display lines. When empty,
	// DefaultErrorPatterns is used.
	ErrorPatterns []string

	// LogonSteps drive the terminal from connect to the first ready prompt.
	// When empty, DefaultLogonSteps is used.
	LogonSteps []LogonStep
}

// LogonStep waits for Expect to appear on the display and then sends
// Respond followed by Enter. Respond may contain the placeholders
// {username} and {password}.
type LogonStep struct {
	Expect  string
	Respond string
}

// DefaultLogonSteps is a TSO line-mode logon.
var DefaultLogonSteps = []LogonStep{
	{Expect: "ENTER USERID", Respond: "{username}"},
	{Expect: "ENTER CURRENT PASSWORD", Respond: "{password}"},
}

// DefaultErrorPatterns recognise TSO and RACF error message identifiers at
// the start of a line.
var DefaultErrorPatterns = []string{
	`^IKJ\d{5}[AEI]`,
	`^ICH\d{5}I`,
	`^IRR\d{5}I`,
}

// NewSessionConfig returns a SessionConfig with defaults applied.
func NewSessionConfig() *SessionConfig {
	cfg := &SessionConfig{}
	if err := cfg.ApplyDefaults(); err != nil {
		panic(err)
	}
	return cfg
}

// ApplyDefaults fills zero-valued fields.
func (c *SessionConfig) ApplyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("failed to apply session defaults: %w", err)
	}
	if c.Transport == TransportSSH && c.Port == 23 {
		c.Port = 22
	}
	if len(c.ErrorPatterns) == 0 {
		c.ErrorPatterns = append([]string(nil), DefaultErrorPatterns...)
	}
	return nil
}

// Validate checks the session configuration.
func (c *SessionConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	switch c.Transport {
	case TransportTelnet, TransportSSH:
	default:
		return fmt.Errorf("unsupported transport %q", c.Transport)
	}
	if c.Width < 40 {
		return fmt.Errorf("screen width %d is too small", c.Width)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command timeout must be positive")
	}
	if c.CompletionMarker == "" {
		return fmt.Errorf("completion marker is required")
	}
	return nil
}

// Session pool limits.
const (
	// MaxSessionPoolLimit caps concurrent host sessions. Every session is a
	// logged-on TSO address space on the host.
	MaxSessionPoolLimit = 16
)

// PoolConfig holds session pool settings.
type PoolConfig struct {
	MaxSessions int           `default:"2"`
	MaxIdleTime time.Duration `default:"10m"`
	HealthCheck time.Duration
	// AcquireTimeout bounds the wait for a free session when the pool is full.
	AcquireTimeout time.Duration `default:"2m"`
}

// NewPoolConfig returns a PoolConfig with defaults applied.
func NewPoolConfig() *PoolConfig {
	cfg := &PoolConfig{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("invalid pool defaults: %v", err))
	}
	return cfg
}

// PoolStats provides statistics about the session pool.
type PoolStats struct {
	Total   int           // Open sessions
	Active  int64         // Sessions in use
	Idle    int           // Idle sessions
	Created int64         // Sessions created
	Evicted int64         // Sessions discarded as unhealthy
	Errors  int64         // Session creation errors
	Uptime  time.Duration // Pool uptime
}

// SessionPool hands out logged-on sessions.
type SessionPool interface {
	// Get borrows a session. The caller must call Release.
	Get(ctx context.Context) (*PooledSession, error)

	// Close closes all sessions and shuts down the pool.
	Close() error

	// Stats returns pool statistics.
	Stats() PoolStats

	// HealthCheck probes idle sessions.
	HealthCheck(ctx context.Context) error
}

// Client provides command execution against the security database.
type Client interface {
	// Connection management
	Connect(ctx context.Context) error
	Close() error

	// Execute runs one command and returns its reflowed output. The command
	// slice may hold secret material and is not retained.
	Execute(ctx context.Context, command []byte) (string, error)

	// Health and statistics
	Ping(ctx context.Context) error
	Stats() PoolStats
}
