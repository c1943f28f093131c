package Sync

import (
	"fmt"
	"testing"
	"time"

	"Gestora/Client"
)

func newTestLog(t *testing.T) *ActivityLog {
	t.Helper()
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewActivityLog(cache)
}

func TestActivityDuplicateInsertIsNoOp(t *testing.T) {
	log := newTestLog(t)
	actor := Client.User{ID: "1", Name: "Ana"}

	_, inserted := log.Record(actor, Client.ActionStatusChanged, "task", "42", "Ship it",
		Client.StatusOpen, Client.StatusToStart)
	if !inserted {
		t.Fatal("first record should insert")
	}
	_, inserted = log.Record(actor, Client.ActionStatusChanged, "task", "42", "Ship it",
		Client.StatusOpen, Client.StatusToStart)
	if inserted {
		t.Error("identical event should not insert again")
	}
	if got := len(log.Entries()); got != 1 {
		t.Errorf("log length = %d, want 1", got)
	}

	// A different transition on the same entity is a distinct event.
	_, inserted = log.Record(actor, Client.ActionStatusChanged, "task", "42", "Ship it",
		Client.StatusToStart, Client.StatusInProgress)
	if !inserted {
		t.Error("distinct transition should insert")
	}
	if got := len(log.Entries()); got != 2 {
		t.Errorf("log length = %d, want 2", got)
	}
}

func TestActivityCap(t *testing.T) {
	log := newTestLog(t)
	actor := Client.User{ID: "1", Name: "Ana"}

	for i := 0; i < maxActivityEntries+50; i++ {
		log.Record(actor, Client.ActionCreated, "task", fmt.Sprintf("id-%d", i), "t", "", "")
	}
	if got := len(log.Entries()); got != maxActivityEntries {
		t.Errorf("log length = %d, want %d", got, maxActivityEntries)
	}
	// Newest entry survives the cap, oldest fell off.
	if log.Entries()[0].EntityID != fmt.Sprintf("id-%d", maxActivityEntries+49) {
		t.Errorf("newest entry is %s", log.Entries()[0].EntityID)
	}
}

func TestActivityVisibility(t *testing.T) {
	log := newTestLog(t)
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	employee := Client.User{ID: "2", Name: "Bruno", Role: Client.RoleEmployee}

	tasks := []Client.Task{
		{ID: "10", ResponsibleID: "2"},
		{ID: "11", ResponsibleID: "1"},
	}

	log.Record(admin, Client.ActionCreated, "task", "10", "Mine", "", "")
	log.Record(admin, Client.ActionCreated, "task", "11", "Not mine", "", "")
	log.Record(admin, Client.ActionDeleted, "user", "5", "Carla", "", "")

	if got := len(log.VisibleTo(admin, tasks)); got != 3 {
		t.Errorf("admin sees %d entries, want 3", got)
	}
	visible := log.VisibleTo(employee, tasks)
	if len(visible) != 1 || visible[0].EntityID != "10" {
		t.Errorf("employee sees %+v, want only task 10", visible)
	}
}

func TestActivityLoadDedupKeepsTimedRepeats(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []Client.SystemActivity{
		{ID: "A-1", UserID: "1", Action: Client.ActionStatusChanged, EntityID: "42",
			FromStatus: Client.StatusOpen, ToStatus: Client.StatusToStart, Timestamp: base},
		// Exact duplicate, same moment: dropped on load.
		{ID: "A-2", UserID: "1", Action: Client.ActionStatusChanged, EntityID: "42",
			FromStatus: Client.StatusOpen, ToStatus: Client.StatusToStart, Timestamp: base},
		// Same event at a later moment: a legitimate repeat, kept.
		{ID: "A-3", UserID: "1", Action: Client.ActionStatusChanged, EntityID: "42",
			FromStatus: Client.StatusOpen, ToStatus: Client.StatusToStart, Timestamp: base.Add(time.Hour)},
	}
	if err := cache.SaveActivities(entries); err != nil {
		t.Fatal(err)
	}

	loaded := cache.LoadActivities()
	if len(loaded) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(loaded))
	}
}
