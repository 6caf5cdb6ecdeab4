package racf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// SessionFactory creates and logs on a new session.
type SessionFactory func(ctx context.Context) (*Session, error)

// PooledSession is a session borrowed from a pool.
type PooledSession struct {
	*Session
	pool     *sessionPool
	released atomic.Bool
}

// Release returns the session to its pool. Unhealthy sessions are closed.
func (ps *PooledSession) Release() {
	if ps == nil || !ps.released.CompareAndSwap(false, true) {
		return
	}
	ps.pool.release(ps.Session)
}

// sessionPool implements SessionPool.
type sessionPool struct {
	ctx     context.Context // Logging context with pool subsystem
	config  *PoolConfig
	factory SessionFactory
	idle    chan *Session
	slots   chan struct{}
	mu      sync.RWMutex
	closed  bool

	// Statistics
	activeSessions int64
	totalCreated   int64
	totalEvicted   int64
	totalErrors    int64
	startTime      time.Time

	// Health checking
	healthTicker *time.Ticker
	healthStop   chan struct{}
	healthWg     sync.WaitGroup
}

// NewSessionPool creates a pool. Sessions are created lazily on Get.
func NewSessionPool(ctx context.Context, config *PoolConfig, factory SessionFactory) (SessionPool, error) {
	if config == nil {
		config = NewPoolConfig()
	}
	if factory == nil {
		return nil, errors.New("session factory is required")
	}
	if err := validatePoolConfig(config); err != nil {
		return nil, fmt.Errorf("invalid pool configuration: %w", err)
	}

	pool := &sessionPool{
		ctx:        ctx,
		config:     config,
		factory:    factory,
		idle:       make(chan *Session, config.MaxSessions),
		slots:      make(chan struct{}, config.MaxSessions),
		startTime:  time.Now(),
		healthStop: make(chan struct{}),
	}

	if config.HealthCheck > 0 {
		pool.startHealthChecker()
	}

	LogPoolEvent(ctx, "pool_initialized", map[string]any{
		"max_sessions":  config.MaxSessions,
		"max_idle_time": config.MaxIdleTime.String(),
	})
	return pool, nil
}

// Get borrows a session, creating one when none is idle. It blocks while
// MaxSessions sessions are in use.
func (p *sessionPool) Get(ctx context.Context) (*PooledSession, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, errors.New("session pool is closed")
	}
	p.mu.RUnlock()

	if err := p.acquireSlot(ctx); err != nil {
		return nil, err
	}

	// Try an idle session first
	for {
		select {
		case s := <-p.idle:
			if p.isSessionHealthy(s) {
				atomic.AddInt64(&p.activeSessions, 1)
				LogPoolEvent(ctx, "session_acquired", map[string]any{"session_id": s.ID(), "reused": true})
				return &PooledSession{Session: s, pool: p}, nil
			}
			p.evict(ctx, s, "idle session unhealthy or expired")
			continue
		default:
		}
		break
	}

	s, err := p.factory(ctx)
	if err != nil {
		<-p.slots
		atomic.AddInt64(&p.totalErrors, 1)
		LogPoolEvent(ctx, "session_creation_failed", map[string]any{"error": err.Error()})
		return nil, WrapError("create_session", err)
	}

	atomic.AddInt64(&p.totalCreated, 1)
	atomic.AddInt64(&p.activeSessions, 1)
	LogPoolEvent(ctx, "session_acquired", map[string]any{"session_id": s.ID(), "reused": false})
	return &PooledSession{Session: s, pool: p}, nil
}

func (p *sessionPool) acquireSlot(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	default:
	}

	LogPoolEvent(ctx, "pool_exhausted", map[string]any{
		"active": atomic.LoadInt64(&p.activeSessions),
	})

	timer := time.NewTimer(p.config.AcquireTimeout)
	defer timer.Stop()

	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return NewConnectionError("timed out waiting for a free session", true, nil)
	}
}

// release returns a session to the pool.
func (p *sessionPool) release(s *Session) {
	atomic.AddInt64(&p.activeSessions, -1)
	defer func() { <-p.slots }()

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		_ = s.Close()
		return
	}

	// Sessions whose last command timed out are in an unknown state
	if !p.isSessionHealthy(s) {
		p.evict(p.ctx, s, "session unhealthy after last command")
		return
	}

	select {
	case p.idle <- s:
		LogPoolEvent(p.ctx, "session_released", map[string]any{"session_id": s.ID()})
	default:
		_ = s.Close()
	}
}

// isSessionHealthy checks if a session may be handed out.
func (p *sessionPool) isSessionHealthy(s *Session) bool {
	if s == nil || !s.Healthy() {
		return false
	}
	return time.Since(s.LastUsed()) <= p.config.MaxIdleTime
}

func (p *sessionPool) evict(ctx context.Context, s *Session, reason string) {
	atomic.AddInt64(&p.totalEvicted, 1)
	LogPoolEvent(ctx, "session_evicted", map[string]any{
		"session_id": s.ID(),
		"reason":     reason,
	})
	_ = s.Close()
}

// Close closes all sessions and shuts down the pool.
func (p *sessionPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	// Stop health checker
	if p.healthTicker != nil {
		close(p.healthStop)
		p.healthWg.Wait()
		p.healthTicker.Stop()
	}

	// Close idle sessions; borrowed ones close on release
	for {
		select {
		case s := <-p.idle:
			_ = s.Close()
		default:
			return nil
		}
	}
}

// Stats returns pool statistics.
func (p *sessionPool) Stats() PoolStats {
	idle := len(p.idle)
	active := atomic.LoadInt64(&p.activeSessions)

	return PoolStats{
		Total:   idle + int(active),
		Active:  active,
		Idle:    idle,
		Created: atomic.LoadInt64(&p.totalCreated),
		Evicted: atomic.LoadInt64(&p.totalEvicted),
		Errors:  atomic.LoadInt64(&p.totalErrors),
		Uptime:  time.Since(p.startTime),
	}
}

// HealthCheck submits an empty command on every idle session and evicts the
// ones that do not return to the ready prompt.
func (p *sessionPool) HealthCheck(ctx context.Context) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return errors.New("pool is closed")
	}
	p.mu.RUnlock()

	var toCheck []*Session
drain:
	for {
		select {
		case s := <-p.idle:
			toCheck = append(toCheck, s)
		default:
			break drain
		}
	}

	var failed int
	for _, s := range toCheck {
		out, err := s.Run(ctx, nil)
		if err != nil || out.Kind == OutcomeTimedOut {
			failed++
			p.evict(ctx, s, "health check failed")
			continue
		}
		select {
		case p.idle <- s:
		default:
			_ = s.Close()
		}
	}

	if failed > 0 {
		LogPoolEvent(ctx, "health_check_failed", map[string]any{
			"checked": len(toCheck),
			"failed":  failed,
		})
		return fmt.Errorf("%d of %d idle sessions failed health check", failed, len(toCheck))
	}
	return nil
}

// startHealthChecker starts the periodic health checker.
func (p *sessionPool) startHealthChecker() {
	p.healthTicker = time.NewTicker(p.config.HealthCheck)

	p.healthWg.Go(func() {
		for {
			select {
			case <-p.healthTicker.C:
				if err := p.HealthCheck(p.ctx); err != nil {
					tflog.SubsystemDebug(p.ctx, SubsystemPool, "Periodic health check reported failures", map[string]any{
						"error": err.Error(),
					})
				}
			case <-p.healthStop:
				return
			}
		}
	})
}

// validatePoolConfig validates the pool configuration.
func validatePoolConfig(config *PoolConfig) error {
	if config.MaxSessions <= 0 {
		return errors.New("MaxSessions must be positive")
	}

	if config.MaxSessions > MaxSessionPoolLimit {
		return fmt.Errorf("MaxSessions too high (max %d)", MaxSessionPoolLimit)
	}

	if config.MaxIdleTime <= 0 {
		return errors.New("MaxIdleTime must be positive")
	}

	if config.AcquireTimeout <= 0 {
		return errors.New("AcquireTimeout must be positive")
	}

	return nil
}
