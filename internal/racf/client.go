package racf

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// client implements the Client interface on top of a session pool.
type client struct {
	pool       SessionPool
	config     *SessionConfig
	logContext context.Context // Context with configured subsystems for logging
}

// NewClient creates a client whose sessions dial the configured host.
func NewClient(ctx context.Context, config *SessionConfig, poolConfig *PoolConfig) (Client, error) {
	if config == nil {
		return nil, fmt.Errorf("session configuration is required")
	}
	if err := config.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, NewValidationError("configure", "%s", err.Error())
	}

	factory := func(ctx context.Context) (*Session, error) {
		term, err := NewTerminal(config)
		if err != nil {
			return nil, err
		}
		s, err := NewSession(term, config)
		if err != nil {
			return nil, err
		}
		if err := s.Open(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}

	return NewClientWithFactory(ctx, config, poolConfig, factory)
}

// NewClientWithFactory creates a client using factory to open sessions.
func NewClientWithFactory(ctx context.Context, config *SessionConfig, poolConfig *PoolConfig, factory SessionFactory) (Client, error) {
	if poolConfig == nil {
		poolConfig = NewPoolConfig()
	}

	tflog.SubsystemDebug(ctx, SubsystemRACF, "Creating new RACF client", map[string]any{
		"host":         config.Host,
		"transport":    config.Transport,
		"max_sessions": poolConfig.MaxSessions,
	})

	start := time.Now()
	pool, err := NewSessionPool(ctx, poolConfig, factory)
	if err != nil {
		tflog.SubsystemError(ctx, SubsystemRACF, "Failed to create session pool", map[string]any{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil, fmt.Errorf("failed to create session pool: %w", err)
	}

	tflog.SubsystemInfo(ctx, SubsystemRACF, "RACF client created successfully", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &client{
		pool:       pool,
		config:     config,
		logContext: ctx,
	}, nil
}

// Connect opens one session to prove the host is reachable and the logon
// works.
func (c *client) Connect(ctx context.Context) error {
	return LogOperation(ctx, SubsystemRACF, "connection_test", map[string]any{
		"host": c.config.Host,
	}, func() error {
		s, err := c.pool.Get(ctx)
		if err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}
		defer s.Release()

		tflog.SubsystemInfo(ctx, SubsystemRACF, "Connection test successful", map[string]any{
			"session_id": s.ID(),
		})
		return nil
	})
}

// Close closes the client and all its sessions.
func (c *client) Close() error {
	return c.pool.Close()
}

// Execute borrows a session, runs command and returns the session.
func (c *client) Execute(ctx context.Context, command []byte) (string, error) {
	s, err := c.pool.Get(ctx)
	if err != nil {
		return "", err
	}
	defer s.Release()

	start := time.Now()
	out, err := s.Execute(ctx, command)
	LogPerformance(ctx, SubsystemRACF, CommandVerb(command), time.Since(start), map[string]any{
		"session_id": s.ID(),
	})
	return out, err
}

// Ping submits an empty command and expects the ready prompt back.
func (c *client) Ping(ctx context.Context) error {
	_, err := c.Execute(ctx, nil)
	return err
}

// Stats returns pool statistics.
func (c *client) Stats() PoolStats {
	return c.pool.Stats()
}
