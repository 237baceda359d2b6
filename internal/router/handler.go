package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/command"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/config"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/eventlog"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/profile"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/status"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/supervisor"
)

// opTimeout bounds each presence-service operation triggered by a command so
// a hung dial cannot wedge the host loop past the client's send timeout.
const opTimeout = 10 * time.Second

// handler binds command actions to the owner's supervisor, profile store,
// config, and event log. It runs on the host loop goroutine; the quit flag is
// atomic because tests drive it from other goroutines.
type handler struct {
	ctx      context.Context
	cfg      *config.Config
	profiles *profile.Store
	sup      *supervisor.Supervisor
	events   *eventlog.Log
	stream   *status.Server
	logger   *slog.Logger

	quit atomic.Bool
}

func (h *handler) quitRequested() bool {
	return h.quit.Load()
}

func (h *handler) handle(cmd command.Command) command.Response {
	switch cmd.Action {
	case command.ActionConnect:
		return h.connect(cmd.Profile)
	case command.ActionDisconnect:
		return h.disconnect()
	case command.ActionQuit:
		h.quit.Store(true)
		return command.Ok("Quitting application...\n")
	case command.ActionListProfiles:
		return h.listProfiles()
	case command.ActionLoadProfile:
		return h.loadProfile(cmd.Profile)
	default:
		return command.Failf("unknown action: %q", cmd.Action)
	}
}

// connect loads the named profile (falling back to the configured last
// profile), connects the supervisor, and publishes the profile's payload.
// A missing profile is a non-fatal branch: the response succeeds and carries
// the not-found text.
func (h *handler) connect(name string) command.Response {
	if name == "" {
		name = h.cfg.LastProfile
	}
	if name == "" {
		return command.Failf("no profile specified and no previous profile to fall back to")
	}

	prof, err := h.profiles.Load(name)
	if errors.Is(err, profile.ErrNotFound) {
		return command.Ok(fmt.Sprintf("Profile '%s' not found\n", name))
	}
	if err != nil {
		return command.Fail(err, "")
	}

	ctx, cancel := context.WithTimeout(h.ctx, opTimeout)
	defer cancel()

	if err := h.sup.Connect(ctx, prof.AppID); err != nil {
		h.record(eventlog.KindError, err.Error())
		return command.Fail(err, "")
	}
	h.record(eventlog.KindConnected, name)

	if err := h.sup.Publish(ctx, prof.Payload()); err != nil {
		h.record(eventlog.KindError, err.Error())
		return command.Fail(err, "")
	}
	h.record(eventlog.KindPublished, name)
	h.broadcast("publish", name)

	if err := h.cfg.SetLastProfile(name); err != nil {
		h.logger.Warn("failed to persist last profile", "error", err)
	}
	return command.Ok(fmt.Sprintf("Connected to Discord RPC with profile: %s\n", name))
}

func (h *handler) disconnect() command.Response {
	h.sup.Disconnect()
	h.record(eventlog.KindDisconnected, "")
	return command.Ok("Disconnected from Discord RPC\n")
}

// listProfiles returns one name per line in lexicographic order.
func (h *handler) listProfiles() command.Response {
	names, err := h.profiles.List()
	if err != nil {
		return command.Fail(err, "")
	}
	if len(names) == 0 {
		return command.Ok("No profiles found.\n")
	}
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return command.Ok(b.String())
}

// loadProfile records the named profile as the default for future connects
// without touching the connection.
func (h *handler) loadProfile(name string) command.Response {
	if name == "" {
		return command.Failf("profile name required")
	}
	if _, err := h.profiles.Load(name); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return command.Failf("profile %q not found", name)
		}
		return command.Fail(err, "")
	}
	if err := h.cfg.SetLastProfile(name); err != nil {
		return command.Fail(err, "")
	}
	return command.Ok(fmt.Sprintf("Loaded profile: %s\n", name))
}

func (h *handler) record(kind eventlog.Kind, detail string) {
	if h.events == nil {
		return
	}
	if err := h.events.Record(kind, detail); err != nil {
		h.logger.Warn("event log write failed", "kind", kind, "error", err)
	}
}

func (h *handler) broadcast(kind, detail string) {
	if h.stream == nil {
		return
	}
	h.stream.Broadcast(status.Event{Kind: kind, State: string(h.sup.State()), Detail: detail})
}
