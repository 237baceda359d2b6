package profile

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/presence"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "profiles"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func sample() Profile {
	return Profile{
		AppID:   "123456789012345678",
		Details: "Playing ranked",
		State:   "In queue",
	}
}

func TestCreateAndLoad(t *testing.T) {
	store := newTestStore(t)

	if err := store.Create("Gaming", sample()); err != nil {
		t.Fatalf("create: %v", err)
	}

	p, err := store.Load("Gaming")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Name != "Gaming" {
		t.Errorf("name = %q", p.Name)
	}
	if p.AppID != "123456789012345678" {
		t.Errorf("app ID = %q", p.AppID)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("timestamps not set on create")
	}
}

func TestCreateDuplicateRejected(t *testing.T) {
	store := newTestStore(t)

	if err := store.Create("Gaming", sample()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create("Gaming", sample()); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got: %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load("Nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestSavePreservesCreatedAt(t *testing.T) {
	store := newTestStore(t)

	if err := store.Create("Gaming", sample()); err != nil {
		t.Fatalf("create: %v", err)
	}
	original, err := store.Load("Gaming")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	updated := sample()
	updated.Details = "Different"
	if err := store.Save("Gaming", updated); err != nil {
		t.Fatalf("save: %v", err)
	}

	p, err := store.Load("Gaming")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if p.Details != "Different" {
		t.Error("save did not persist changes")
	}
	if !p.CreatedAt.Equal(original.CreatedAt) {
		t.Error("save did not preserve creation time")
	}
}

func TestDeleteAndRename(t *testing.T) {
	store := newTestStore(t)

	if err := store.Create("Old", sample()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Rename("Old", "New"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := store.Load("Old"); !errors.Is(err, ErrNotFound) {
		t.Error("old name still loadable after rename")
	}
	p, err := store.Load("New")
	if err != nil {
		t.Fatalf("load renamed: %v", err)
	}
	if p.Name != "New" {
		t.Errorf("renamed profile carries name %q", p.Name)
	}

	if err := store.Delete("New"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete("New"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got: %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	store := newTestStore(t)

	if err := store.Create("Gaming", sample()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Duplicate("Gaming", "Gaming Copy"); err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	copyP, err := store.Load("Gaming Copy")
	if err != nil {
		t.Fatalf("load copy: %v", err)
	}
	if copyP.AppID != sample().AppID {
		t.Error("duplicate lost fields")
	}
}

func TestListSorted(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"Work", "Gaming", "Art"} {
		if err := store.Create(name, sample()); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Art", "Gaming", "Work"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, expected %v", names, want)
		}
	}
}

func TestListEmpty(t *testing.T) {
	store := newTestStore(t)
	names, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected no profiles, got %v", names)
	}
}

func TestExportImport(t *testing.T) {
	store := newTestStore(t)
	if err := store.Create("Gaming", sample()); err != nil {
		t.Fatalf("create: %v", err)
	}

	exportPath := filepath.Join(t.TempDir(), "gaming-export.json")
	if err := store.Export("Gaming", exportPath); err != nil {
		t.Fatalf("export: %v", err)
	}

	other := newTestStore(t)
	if err := other.Import(exportPath, ""); err != nil {
		t.Fatalf("import: %v", err)
	}
	p, err := other.Load("Gaming")
	if err != nil {
		t.Fatalf("load imported: %v", err)
	}
	if p.AppID != sample().AppID {
		t.Error("import lost fields")
	}
}

func TestSanitizedNames(t *testing.T) {
	store := newTestStore(t)

	if err := store.Create("../evil", sample()); err != nil {
		t.Fatalf("create with dirty name: %v", err)
	}
	// Path traversal characters are stripped; the profile lands inside the store
	if _, err := store.Load("evil"); err != nil {
		t.Errorf("sanitized profile not loadable: %v", err)
	}

	if err := store.Create("///", sample()); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got: %v", err)
	}
}

func TestPayloadMapping(t *testing.T) {
	instance := true
	p := Profile{
		Name:      "Gaming",
		AppID:     "123456789012345678",
		Details:   "d",
		State:     "s",
		PartySize: 1,
		PartyMax:  4,
		Buttons:   []presence.Button{{Label: "Join", URL: "https://example.com"}},
		Instance:  &instance,
	}

	payload := p.Payload()
	if payload.Name != "Gaming" || payload.Details != "d" || payload.State != "s" {
		t.Error("text fields not mapped")
	}
	if payload.PartySize != 1 || payload.PartyMax != 4 {
		t.Error("party not mapped")
	}
	if len(payload.Buttons) != 1 {
		t.Error("buttons not mapped")
	}
	if payload.Instance == nil || !*payload.Instance {
		t.Error("instance flag not mapped")
	}
	if err := payload.Validate(); err != nil {
		t.Errorf("mapped payload invalid: %v", err)
	}
}
