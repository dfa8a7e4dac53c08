package bot

import (
	"os"
	"path/filepath"
	"testing"

	"dirtyseven/internal/app"
)

func TestNewRosterFillsIdentities(t *testing.T) {
	r := NewRoster([]BotIdentity{
		{UserID: "fixed", Username: "alpha", DisplayName: "Alpha"},
		{Username: "beta"},
		{},
	})

	if r.Len() != 3 {
		t.Fatalf("len = %d", r.Len())
	}
	if got := r.Pick(0); got.UserID != "fixed" || got.DisplayName != "Alpha" {
		t.Fatalf("explicit identity changed: %+v", got)
	}

	beta := r.Pick(1)
	if beta.DisplayName != "beta" || beta.UserID == "" {
		t.Fatalf("beta = %+v", beta)
	}
	again := NewRoster([]BotIdentity{{Username: "beta"}}).Pick(0)
	if again.UserID != beta.UserID {
		t.Fatalf("generated ids must be stable: %s vs %s", again.UserID, beta.UserID)
	}

	anon := r.Pick(2)
	if anon.DisplayName != "Bot 3" {
		t.Fatalf("anonymous display name = %q", anon.DisplayName)
	}
	if got := r.Pick(4); got != beta {
		t.Fatalf("Pick should wrap, got %+v", got)
	}
}

func TestDefaultRosterNamesAreValidPlayerNames(t *testing.T) {
	r := DefaultRoster()
	seen := map[string]bool{}
	for i := 0; i < r.Len(); i++ {
		id := r.Pick(i)
		if _, err := app.NormalizeName(id.DisplayName); err != nil {
			t.Fatalf("%q rejected: %v", id.DisplayName, err)
		}
		if seen[id.UserID] {
			t.Fatalf("duplicate id %s", id.UserID)
		}
		seen[id.UserID] = true
	}
}

func TestAvailable(t *testing.T) {
	r := DefaultRoster()
	first := r.Pick(0)
	got, ok := r.Available(func(id BotIdentity) bool { return id.UserID == first.UserID })
	if !ok || got != r.Pick(1) {
		t.Fatalf("Available = %+v, %v", got, ok)
	}
	if _, ok := r.Available(func(BotIdentity) bool { return true }); ok {
		t.Fatalf("expected no identity when all are taken")
	}
}

func TestLoadIdentities(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bots.json")
	body := `[{"username":"gus","display_name":"Gus","brain":"basic"},{"user_id":"b-2","display_name":"Hal"}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := LoadIdentities(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Len() != 2 || r.Pick(0).Brain != BrainBasic {
		t.Fatalf("roster = %+v", r.identities)
	}
	if id := r.Pick(1); id.UserID != "b-2" || id.DisplayName != "Hal" || id.Username != "Hal" {
		t.Fatalf("Pick(1) = %+v", id)
	}

	if _, err := LoadIdentities(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`[]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadIdentities(empty); err == nil {
		t.Fatalf("expected error for empty roster")
	}
}
