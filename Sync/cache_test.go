package Sync

import (
	"testing"
	"time"

	"Gestora/Client"
)

func TestCacheColdStartKeepsActivities(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	tasks := []Client.Task{{ID: "42", Title: "Ship it", Status: Client.StatusOpen}}
	users := []Client.User{{ID: "1", Name: "Ana"}}
	activities := []Client.SystemActivity{{
		ID: "A-1", UserID: "1", Action: Client.ActionCreated,
		EntityType: "task", EntityID: "42", Timestamp: time.Now(),
	}}
	if err := cache.SaveTasks(tasks); err != nil {
		t.Fatal(err)
	}
	if err := cache.SaveUsers(users); err != nil {
		t.Fatal(err)
	}
	if err := cache.SaveActivities(activities); err != nil {
		t.Fatal(err)
	}

	cache.ClearSessionData()

	if got := cache.LoadTasks(); got != nil {
		t.Errorf("tasks survived cold start: %+v", got)
	}
	if got := cache.LoadUsers(); got != nil {
		t.Errorf("users survived cold start: %+v", got)
	}
	if got := cache.LoadActivities(); len(got) != 1 {
		t.Errorf("activities did not survive cold start: %+v", got)
	}
}

func TestCacheRebuildsRefState(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	tasks := []Client.Task{
		{ID: "T-ABC123", Title: "local only"},
		{ID: "42", Title: "confirmed"},
	}
	if err := cache.SaveTasks(tasks); err != nil {
		t.Fatal(err)
	}

	loaded := cache.LoadTasks()
	if len(loaded) != 2 {
		t.Fatalf("loaded %d tasks, want 2", len(loaded))
	}
	if loaded[0].Ref != Client.Provisional {
		t.Error("locally minted id should load as provisional")
	}
	if loaded[1].Ref != Client.Confirmed {
		t.Error("server id should load as confirmed")
	}
}

func TestCacheRememberedEmail(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if got := cache.LoadRememberedEmail(); got != "" {
		t.Errorf("fresh cache remembered %q", got)
	}
	if err := cache.SaveRememberedEmail("ana@example.com"); err != nil {
		t.Fatal(err)
	}

	// Remembered email is independent of the session snapshots.
	cache.ClearSessionData()
	if got := cache.LoadRememberedEmail(); got != "ana@example.com" {
		t.Errorf("LoadRememberedEmail = %q", got)
	}
}

func TestCacheAvatarPerUser(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := cache.SaveAvatar("1", []byte{0xFF, 0xD8}); err != nil {
		t.Fatal(err)
	}
	if got := cache.LoadAvatar("1"); len(got) != 2 {
		t.Errorf("LoadAvatar returned %d bytes, want 2", len(got))
	}
	if got := cache.LoadAvatar("2"); got != nil {
		t.Error("avatar for another user should be absent")
	}
}
