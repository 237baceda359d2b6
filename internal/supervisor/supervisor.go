// Package supervisor owns the lifecycle of the presence-service connection:
// connect, publish, detect loss, reconnect, republish. All state lives
// behind one mutex; the liveness loop and foreground command handlers never
// touch fields directly.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/presence"
)

// State is the connection state, owned exclusively by the Supervisor.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// Service is the external presence-service boundary. The production
// implementation is the Discord IPC client; tests supply fakes.
type Service interface {
	Connect(ctx context.Context, appID string) error
	SetActivity(ctx context.Context, activity *presence.Activity) error
	Clear(ctx context.Context) error
	Close() error
}

// ErrNotConnected rejects publish/clear operations outside the Connected
// state.
var ErrNotConnected = errors.New("not connected to the presence service")

// DefaultLivenessInterval is how often the liveness loop probes the
// connection by republishing the last-known payload.
const DefaultLivenessInterval = 10 * time.Second

// Event describes one state transition, delivered to the notify callback.
type Event struct {
	State  State
	Detail string
}

// Supervisor serializes every state transition and remembers the last
// successfully published payload for replay after reconnection.
type Supervisor struct {
	svc      Service
	interval time.Duration
	logger   *slog.Logger
	notify   func(Event)

	mu          sync.Mutex
	state       State
	appID       string
	lastPayload *presence.Payload

	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLivenessInterval overrides the probe interval. Tests shrink it.
func WithLivenessInterval(d time.Duration) Option {
	return func(s *Supervisor) { s.interval = d }
}

// WithNotify installs a transition callback. It runs synchronously on the
// goroutine performing the transition and must not call back into the
// Supervisor.
func WithNotify(fn func(Event)) Option {
	return func(s *Supervisor) { s.notify = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = logger }
}

// New creates a Supervisor in the Disconnected state.
func New(svc Service, opts ...Option) *Supervisor {
	s := &Supervisor{
		svc:      svc,
		interval: DefaultLivenessInterval,
		logger:   slog.Default(),
		state:    StateDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AppID returns the service identifier of the current/last connection.
func (s *Supervisor) AppID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appID
}

// LastPayload returns a copy of the last successfully published payload,
// or nil when none is remembered.
func (s *Supervisor) LastPayload() *presence.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastPayload == nil {
		return nil
	}
	cp := *s.lastPayload
	return &cp
}

func (s *Supervisor) setStateLocked(state State, detail string) {
	if s.state == state {
		return
	}
	s.state = state
	s.logger.Info("connection state changed", "state", state, "detail", detail)
	if s.notify != nil {
		s.notify(Event{State: state, Detail: detail})
	}
}

// Connect establishes the presence-service connection for appID and starts
// the liveness loop. Calling it while already Connected with the same appID
// is a no-op success. Handshake failures leave the state at Error and are
// returned as-is so callers can classify them.
func (s *Supervisor) Connect(ctx context.Context, appID string) error {
	s.mu.Lock()
	if s.state == StateConnected && s.appID == appID {
		s.mu.Unlock()
		s.logger.Info("already connected", "app_id", appID)
		return nil
	}
	s.mu.Unlock()

	// Tear down any existing connection (and its loop) before dialing anew.
	s.Disconnect()

	s.mu.Lock()
	s.setStateLocked(StateConnecting, appID)
	s.appID = appID
	s.mu.Unlock()

	err := s.svc.Connect(ctx, appID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setStateLocked(StateError, err.Error())
		return fmt.Errorf("connect to presence service: %w", err)
	}

	s.setStateLocked(StateConnected, appID)
	s.startLivenessLocked()
	return nil
}

// Publish sends a payload to the presence service and remembers it as the
// last-known payload for replay. Rejected unless Connected.
func (s *Supervisor) Publish(ctx context.Context, payload presence.Payload) error {
	if err := payload.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return ErrNotConnected
	}

	if err := s.svc.SetActivity(ctx, payload.Activity()); err != nil {
		return fmt.Errorf("publish presence: %w", err)
	}
	cp := payload
	s.lastPayload = &cp
	return nil
}

// Clear removes the published payload. Rejected unless Connected.
func (s *Supervisor) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return ErrNotConnected
	}
	if err := s.svc.Clear(ctx); err != nil {
		return fmt.Errorf("clear presence: %w", err)
	}
	s.lastPayload = nil
	return nil
}

// Disconnect stops the liveness loop, tears down the connection, and resets
// to Disconnected, discarding the last-known payload. Idempotent.
func (s *Supervisor) Disconnect() {
	// Cancel the loop outside the lock: a tick in flight needs the lock to
	// finish, and we wait for it below.
	s.mu.Lock()
	cancel := s.loopCancel
	done := s.loopDone
	s.loopCancel = nil
	s.loopDone = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisconnected && s.lastPayload == nil {
		return
	}
	_ = s.svc.Close()
	s.lastPayload = nil
	s.setStateLocked(StateDisconnected, "disconnected")
}

// startLivenessLocked launches the background probe loop. Caller holds mu.
func (s *Supervisor) startLivenessLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.loopCancel = cancel
	s.loopDone = done
	go s.livenessLoop(ctx, done)
}

// livenessLoop republishes the last-known payload every interval as a cheap
// probe. A failed probe marks the connection lost and triggers exactly one
// reconnect attempt; a successful reconnect republishes the remembered
// payload so the externally visible state is restored. Exit is prompt: the
// ticker wait is interrupted by cancellation.
func (s *Supervisor) livenessLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *Supervisor) probe(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnected || s.lastPayload == nil {
		return
	}

	if err := s.svc.SetActivity(ctx, s.lastPayload.Activity()); err == nil {
		return
	} else if ctx.Err() != nil {
		// Shutdown raced the probe; leave state alone.
		return
	} else {
		s.logger.Warn("connection lost, attempting reconnect", "error", err)
	}

	s.setStateLocked(StateDisconnected, "liveness probe failed")

	if err := s.svc.Connect(ctx, s.appID); err != nil {
		s.logger.Warn("reconnect failed", "error", err)
		return
	}
	s.setStateLocked(StateConnected, "reconnected")

	if err := s.svc.SetActivity(ctx, s.lastPayload.Activity()); err != nil {
		s.logger.Warn("republish after reconnect failed", "error", err)
		s.setStateLocked(StateDisconnected, "republish failed")
		return
	}
	s.logger.Info("presence restored after reconnect")
}
