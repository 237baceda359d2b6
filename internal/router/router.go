// Package router composes the single-instance model: the invocation that
// wins the lock becomes the long-running owner serving the loopback command
// channel; every other invocation forwards its intent to the owner and
// prints the response.
package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/command"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/config"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/discord"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/eventlog"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/instance"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/paths"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/profile"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/status"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/supervisor"
)

// ErrNoOwner is returned by the forwarding path when the lock is held but no
// usable port record exists, so the running instance cannot be reached.
var ErrNoOwner = errors.New("cannot reach running instance")

// defaultPollInterval paces the host loop between empty accept polls.
const defaultPollInterval = 50 * time.Millisecond

// Router decides at startup whether this process becomes the owner or a
// forwarding client, and runs whichever role it lands.
type Router struct {
	stateDir      string
	logger        *slog.Logger
	stdout        io.Writer
	preferredPort int
	pollInterval  time.Duration
	sendTimeout   time.Duration
	newService    func() supervisor.Service
	supOpts       []supervisor.Option
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithOutput redirects response output away from stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Router) { r.stdout = w }
}

// WithPreferredPort requests a fixed command port instead of an ephemeral
// one. The bound port is persisted either way.
func WithPreferredPort(port int) Option {
	return func(r *Router) { r.preferredPort = port }
}

// WithPollInterval overrides the host loop pacing. Tests shrink it.
func WithPollInterval(d time.Duration) Option {
	return func(r *Router) { r.pollInterval = d }
}

// WithSendTimeout overrides the forwarding client timeout.
func WithSendTimeout(d time.Duration) Option {
	return func(r *Router) { r.sendTimeout = d }
}

// WithService overrides the presence-service factory. Tests install fakes;
// the default dials the local Discord client.
func WithService(factory func() supervisor.Service) Option {
	return func(r *Router) { r.newService = factory }
}

// WithSupervisorOptions forwards options to the owner's supervisor.
func WithSupervisorOptions(opts ...supervisor.Option) Option {
	return func(r *Router) { r.supOpts = opts }
}

// New creates a Router rooted at stateDir.
func New(stateDir string, opts ...Option) *Router {
	r := &Router{
		stateDir:     stateDir,
		logger:       slog.Default(),
		stdout:       os.Stdout,
		pollInterval: defaultPollInterval,
		sendTimeout:  command.DefaultSendTimeout,
		newService:   func() supervisor.Service { return discord.NewClient() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run acquires the instance lock and becomes the owner, or forwards intent to
// the existing owner when the lock is already held. An empty intent action
// means "run the agent"; forwarded, it is an error because there is nothing
// to ask the owner for.
func (r *Router) Run(ctx context.Context, intent command.Command) error {
	lock, err := instance.Acquire(paths.LockPath(r.stateDir))
	if errors.Is(err, instance.ErrLockHeld) {
		return r.forward(intent)
	}
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	return r.runOwner(ctx, lock, intent)
}

// forward sends intent to the owner as one command and surfaces the response
// on the invoking terminal. Output is printed verbatim; failures become a
// non-nil error so the process exits non-zero.
func (r *Router) forward(intent command.Command) error {
	if intent.Action == "" {
		return errors.New("another instance is already running")
	}

	port, ok := instance.ReadPortFile(paths.PortPath(r.stateDir))
	if !ok {
		return ErrNoOwner
	}

	r.logger.Debug("forwarding command to running instance", "port", port, "action", intent.Action)
	resp := command.Send(port, intent, r.sendTimeout)
	if resp.Output != "" {
		fmt.Fprint(r.stdout, resp.Output)
	}
	if !resp.Success {
		return errors.New(resp.Error)
	}
	return nil
}

// runOwner is the long-running agent: it wires the supervisor, profile store,
// event log, and status stream together behind the command server, applies
// the triggering intent locally, then polls for commands until quit or
// cancellation.
func (r *Router) runOwner(ctx context.Context, lock *instance.Lock, intent command.Command) error {
	defer func() { _ = lock.Release() }()

	cfg, err := config.Load(paths.ConfigPath(r.stateDir))
	if err != nil {
		return err
	}

	profiles, err := profile.NewStore(paths.ProfilesPath(r.stateDir))
	if err != nil {
		return err
	}

	// History and the status stream are auxiliary: losing either degrades
	// the agent, it does not stop it.
	events, err := eventlog.Open(paths.EventsDBPath(r.stateDir))
	if err != nil {
		r.logger.Warn("event log unavailable", "error", err)
		events = nil
	} else {
		defer func() { _ = events.Close() }()
	}

	stream := status.NewServer(r.logger)
	if statusPort, err := stream.Start(); err != nil {
		r.logger.Warn("status stream unavailable", "error", err)
		stream = nil
	} else {
		defer stream.Stop()
		if err := instance.WritePortFile(paths.StatusPortPath(r.stateDir), statusPort); err != nil {
			r.logger.Warn("failed to persist status port", "error", err)
		}
		defer func() { _ = instance.RemovePortFile(paths.StatusPortPath(r.stateDir)) }()
	}

	supOpts := append([]supervisor.Option{
		supervisor.WithLogger(r.logger),
		supervisor.WithNotify(func(e supervisor.Event) {
			if stream != nil {
				stream.Broadcast(status.Event{Kind: "state", State: string(e.State), Detail: e.Detail})
			}
			if events != nil && e.Detail == "reconnected" {
				_ = events.Record(eventlog.KindReconnected, "")
			}
		}),
	}, r.supOpts...)
	sup := supervisor.New(r.newService(), supOpts...)
	defer sup.Disconnect()

	h := &handler{
		ctx:      ctx,
		cfg:      cfg,
		profiles: profiles,
		sup:      sup,
		events:   events,
		stream:   stream,
		logger:   r.logger,
	}

	srv := command.NewServer(h.handle, r.logger)
	port, err := srv.Start(r.preferredPort)
	if err != nil {
		// Not binding any loopback port at all is the one fatal outcome.
		return err
	}
	defer srv.Stop()

	if err := instance.WritePortFile(paths.PortPath(r.stateDir), port); err != nil {
		return fmt.Errorf("persist command port: %w", err)
	}
	defer func() { _ = instance.RemovePortFile(paths.PortPath(r.stateDir)) }()

	r.applyStartupIntent(h, intent, cfg)

	r.logger.Info("agent running", "port", port, "pid", os.Getpid())
	for !h.quitRequested() {
		if srv.AcceptOne() {
			continue
		}
		select {
		case <-ctx.Done():
			r.logger.Info("agent shutting down", "reason", "cancelled")
			return nil
		case <-time.After(r.pollInterval):
		}
	}
	r.logger.Info("agent shutting down", "reason", "quit command")
	return nil
}

// applyStartupIntent executes the command that launched this process locally,
// or the configured auto-connect when the launch carried no command.
func (r *Router) applyStartupIntent(h *handler, intent command.Command, cfg *config.Config) {
	if intent.Action == "" {
		if !cfg.AutoConnect {
			return
		}
		intent = command.Command{Action: command.ActionConnect, Profile: cfg.AutoConnectProfile}
	}

	resp := h.handle(intent)
	if resp.Output != "" {
		fmt.Fprint(r.stdout, resp.Output)
	}
	if !resp.Success {
		fmt.Fprintf(os.Stderr, "%s\n", resp.Error)
	}
}
