package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/command"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/config"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/paths"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/presence"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/profile"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/supervisor"
)

// fakeService is an in-memory presence service. Errors queued on a call are
// consumed FIFO; an empty queue means success.
type fakeService struct {
	mu          sync.Mutex
	connectErrs []error
	connected   bool
	appID       string
	activities  []*presence.Activity
}

func (f *fakeService) Connect(_ context.Context, appID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.connectErrs) > 0 {
		err := f.connectErrs[0]
		f.connectErrs = f.connectErrs[1:]
		if err != nil {
			return err
		}
	}
	f.connected = true
	f.appID = appID
	return nil
}

func (f *fakeService) SetActivity(_ context.Context, activity *presence.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, activity)
	return nil
}

func (f *fakeService) Clear(_ context.Context) error { return nil }

func (f *fakeService) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeService) activityCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.activities)
}

func newTestHandler(t *testing.T) (*handler, *fakeService) {
	t.Helper()
	dir := t.TempDir()

	cfg, err := config.Load(paths.ConfigPath(dir))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	profiles, err := profile.NewStore(paths.ProfilesPath(dir))
	if err != nil {
		t.Fatalf("profile store: %v", err)
	}

	svc := &fakeService{}
	h := &handler{
		ctx:      context.Background(),
		cfg:      cfg,
		profiles: profiles,
		sup:      supervisor.New(svc, supervisor.WithLogger(slog.Default())),
		logger:   slog.Default(),
	}
	t.Cleanup(h.sup.Disconnect)
	return h, svc
}

func createProfile(t *testing.T, h *handler, name string) {
	t.Helper()
	err := h.profiles.Create(name, profile.Profile{
		Name:    name,
		AppID:   "123456789012345678",
		Details: "testing",
	})
	if err != nil {
		t.Fatalf("create profile %s: %v", name, err)
	}
}

func TestConnectPublishesProfile(t *testing.T) {
	h, svc := newTestHandler(t)
	createProfile(t, h, "Gaming")

	resp := h.handle(command.Command{Action: command.ActionConnect, Profile: "Gaming"})
	if !resp.Success {
		t.Fatalf("connect failed: %s", resp.Error)
	}
	if resp.Output != "Connected to Discord RPC with profile: Gaming\n" {
		t.Errorf("output = %q", resp.Output)
	}
	if svc.appID != "123456789012345678" {
		t.Errorf("service connected with app ID %q", svc.appID)
	}
	if svc.activityCount() != 1 {
		t.Errorf("published %d activities, want 1", svc.activityCount())
	}
	if h.cfg.LastProfile != "Gaming" {
		t.Errorf("last profile = %q, want Gaming", h.cfg.LastProfile)
	}
}

func TestConnectUnknownProfileIsNonFatal(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := h.handle(command.Command{Action: command.ActionConnect, Profile: "Gaming"})
	if !resp.Success {
		t.Fatalf("expected non-fatal response, got error %q", resp.Error)
	}
	if resp.Output != "Profile 'Gaming' not found\n" {
		t.Errorf("output = %q", resp.Output)
	}
	if h.sup.State() != supervisor.StateDisconnected {
		t.Errorf("state = %s after missing profile", h.sup.State())
	}
}

func TestConnectFallsBackToLastProfile(t *testing.T) {
	h, _ := newTestHandler(t)
	createProfile(t, h, "Work")
	if err := h.cfg.SetLastProfile("Work"); err != nil {
		t.Fatalf("set last profile: %v", err)
	}

	resp := h.handle(command.Command{Action: command.ActionConnect})
	if !resp.Success {
		t.Fatalf("connect failed: %s", resp.Error)
	}
	if !strings.Contains(resp.Output, "Work") {
		t.Errorf("output = %q, expected fallback to Work", resp.Output)
	}
}

func TestConnectWithoutAnyProfileFails(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := h.handle(command.Command{Action: command.ActionConnect})
	if resp.Success {
		t.Fatal("expected failure with no profile and no fallback")
	}
	if resp.Error == "" {
		t.Error("failure response missing error text")
	}
}

func TestConnectServiceFailure(t *testing.T) {
	h, svc := newTestHandler(t)
	createProfile(t, h, "Gaming")
	svc.connectErrs = []error{errors.New("ipc socket not found")}

	resp := h.handle(command.Command{Action: command.ActionConnect, Profile: "Gaming"})
	if resp.Success {
		t.Fatal("expected failure when the service handshake fails")
	}
	if !strings.Contains(resp.Error, "ipc socket not found") {
		t.Errorf("error = %q", resp.Error)
	}
	if h.sup.State() != supervisor.StateError {
		t.Errorf("state = %s, want error", h.sup.State())
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	h, _ := newTestHandler(t)
	createProfile(t, h, "Gaming")
	h.handle(command.Command{Action: command.ActionConnect, Profile: "Gaming"})

	for i := 0; i < 2; i++ {
		resp := h.handle(command.Command{Action: command.ActionDisconnect})
		if !resp.Success {
			t.Fatalf("disconnect #%d failed: %s", i+1, resp.Error)
		}
		if resp.Output != "Disconnected from Discord RPC\n" {
			t.Errorf("disconnect #%d output = %q", i+1, resp.Output)
		}
		if h.sup.State() != supervisor.StateDisconnected {
			t.Errorf("disconnect #%d state = %s", i+1, h.sup.State())
		}
	}
}

func TestListProfiles(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := h.handle(command.Command{Action: command.ActionListProfiles})
	if !resp.Success || resp.Output != "No profiles found.\n" {
		t.Errorf("empty store: success=%v output=%q", resp.Success, resp.Output)
	}

	createProfile(t, h, "Work")
	createProfile(t, h, "Gaming")

	resp = h.handle(command.Command{Action: command.ActionListProfiles})
	if !resp.Success {
		t.Fatalf("list failed: %s", resp.Error)
	}
	if resp.Output != "Gaming\nWork\n" {
		t.Errorf("output = %q, want lexicographic listing", resp.Output)
	}
}

func TestLoadProfile(t *testing.T) {
	h, _ := newTestHandler(t)
	createProfile(t, h, "Gaming")

	resp := h.handle(command.Command{Action: command.ActionLoadProfile, Profile: "Gaming"})
	if !resp.Success {
		t.Fatalf("load failed: %s", resp.Error)
	}
	if h.cfg.LastProfile != "Gaming" {
		t.Errorf("last profile = %q", h.cfg.LastProfile)
	}

	resp = h.handle(command.Command{Action: command.ActionLoadProfile, Profile: "Nope"})
	if resp.Success {
		t.Error("expected failure for unknown profile")
	}

	resp = h.handle(command.Command{Action: command.ActionLoadProfile})
	if resp.Success {
		t.Error("expected failure for missing name")
	}
}

func TestQuitSetsFlag(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := h.handle(command.Command{Action: command.ActionQuit})
	if !resp.Success || resp.Output != "Quitting application...\n" {
		t.Errorf("quit: success=%v output=%q", resp.Success, resp.Output)
	}
	if !h.quitRequested() {
		t.Error("quit flag not set")
	}
}
