package Sync

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"Gestora/Client"
)

type fakeRemote struct {
	tasks      []Client.Task
	users      []Client.User
	nextID     int
	patched    []string
	deleted    []string
	createErr  error
	updateErr  error
	patchErr   error
	commentErr error
	listErr    error
	commentSeq int
}

func (f *fakeRemote) ListTasks() ([]Client.Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tasks, nil
}

func (f *fakeRemote) CreateTask(task Client.Task) (*Client.Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	stored := task
	stored.ID = strconv.Itoa(100 + f.nextID)
	stored.Ref = Client.Confirmed
	f.tasks = append(f.tasks, stored)
	return &stored, nil
}

func (f *fakeRemote) UpdateTask(id string, task Client.Task) (*Client.Task, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	stored := task
	stored.ID = id
	stored.Ref = Client.Confirmed
	return &stored, nil
}

func (f *fakeRemote) DeleteTask(id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) PatchStatus(id string, status Client.Status) error {
	if f.patchErr != nil {
		return f.patchErr
	}
	f.patched = append(f.patched, id+":"+string(status))
	return nil
}

func (f *fakeRemote) CreateComment(taskID, text string) (*Client.Comment, error) {
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	f.commentSeq++
	return &Client.Comment{
		ID:        strconv.Itoa(500 + f.commentSeq),
		Text:      text,
		Timestamp: time.Now(),
	}, nil
}

func (f *fakeRemote) ListUsers() ([]Client.User, error) {
	return f.users, nil
}

func newTestController(t *testing.T, actor Client.User, remote *fakeRemote) *Controller {
	t.Helper()
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	session := Client.NewSession("http://localhost:3001")
	session.SetUser("token", &actor)
	ctrl := NewController(session, remote, cache, nil)
	// Pin the text generator to the deterministic fallback.
	ctrl.smart = &SmartText{Language: "en"}
	return ctrl
}

func confirmedTask(id string, status Client.Status, responsible string, participants ...string) Client.Task {
	return Client.Task{
		ID:            id,
		Ref:           Client.Confirmed,
		Title:         "Task " + id,
		Status:        status,
		ResponsibleID: responsible,
		Participants:  participants,
		DeadlineType:  "days",
		DeadlineValue: 5,
		StartDate:     time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestAdvanceGuards(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	member := Client.User{ID: "2", Name: "Bruno", Role: Client.RoleEmployee}
	outsider := Client.User{ID: "3", Name: "Carla", Role: Client.RoleEmployee}

	tests := []struct {
		name       string
		actor      Client.User
		status     Client.Status
		wantMove   bool
		wantStatus Client.Status
	}{
		{"member advances open", member, Client.StatusOpen, true, Client.StatusToStart},
		{"outsider is a no-op", outsider, Client.StatusOpen, false, Client.StatusOpen},
		{"member cannot close finished", member, Client.StatusFinished, false, Client.StatusFinished},
		{"admin closes finished", admin, Client.StatusFinished, true, Client.StatusClosed},
		{"closed is terminal for admin", admin, Client.StatusClosed, false, Client.StatusClosed},
		{"closed is terminal for member", member, Client.StatusClosed, false, Client.StatusClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemote{}
			ctrl := newTestController(t, tt.actor, remote)
			ctrl.tasks = []Client.Task{confirmedTask("42", tt.status, "2")}

			outcome := ctrl.Advance("42")
			if outcome.Applied != tt.wantMove {
				t.Errorf("Applied = %v, want %v", outcome.Applied, tt.wantMove)
			}
			if got := ctrl.tasks[0].Status; got != tt.wantStatus {
				t.Errorf("status = %q, want %q", got, tt.wantStatus)
			}
			if !tt.wantMove && len(remote.patched) != 0 {
				t.Errorf("no-op advance reached the remote store: %v", remote.patched)
			}
		})
	}
}

func TestAdvanceClosedSetsClosedAt(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	ctrl := newTestController(t, admin, &fakeRemote{})
	ctrl.tasks = []Client.Task{confirmedTask("42", Client.StatusFinished, "2")}

	if outcome := ctrl.Advance("42"); !outcome.Applied || outcome.Remote != RemoteOK {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if ctrl.tasks[0].ClosedAt == nil {
		t.Error("closing a task should set ClosedAt")
	}
}

func TestAdvanceTwiceScenario(t *testing.T) {
	// The responsible employee advances a fresh task twice in a row.
	member := Client.User{ID: "2", Name: "Bruno", Role: Client.RoleEmployee}
	remote := &fakeRemote{}
	ctrl := newTestController(t, member, remote)
	ctrl.tasks = []Client.Task{confirmedTask("42", Client.StatusOpen, "2")}

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ctrl.now = func() time.Time { return base }

	first := ctrl.Advance("42")
	base = base.Add(time.Minute)
	second := ctrl.Advance("42")

	if !first.Applied || first.Remote != RemoteOK {
		t.Fatalf("first advance outcome %+v", first)
	}
	if !second.Applied || second.Remote != RemoteOK {
		t.Fatalf("second advance outcome %+v", second)
	}
	if got := ctrl.tasks[0].Status; got != Client.StatusInProgress {
		t.Errorf("status = %q, want %q", got, Client.StatusInProgress)
	}

	changes := 0
	for _, e := range ctrl.activity.Entries() {
		if e.Action == Client.ActionStatusChanged && e.EntityID == "42" {
			changes++
		}
	}
	if changes != 2 {
		t.Errorf("status_changed entries = %d, want 2", changes)
	}
	if got := len(ctrl.queue.For("2")); got != 2 {
		t.Errorf("notifications for responsible = %d, want 2", got)
	}
	if len(remote.patched) != 2 {
		t.Errorf("remote patches = %v, want two", remote.patched)
	}
}

func TestAdvanceEmployeeAddsComment(t *testing.T) {
	member := Client.User{ID: "2", Name: "Bruno", Role: Client.RoleEmployee}
	ctrl := newTestController(t, member, &fakeRemote{})
	ctrl.tasks = []Client.Task{confirmedTask("42", Client.StatusOpen, "2")}

	ctrl.Advance("42")
	comments := ctrl.tasks[0].Comments
	if len(comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(comments))
	}
	want := "Advanced status to " + string(Client.StatusToStart)
	if comments[0].Text != want {
		t.Errorf("auto comment = %q, want %q", comments[0].Text, want)
	}
}

func TestAdvanceNotificationSeverity(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	member := Client.User{ID: "2", Name: "Bruno", Role: Client.RoleEmployee}

	tests := []struct {
		name   string
		actor  Client.User
		status Client.Status
		want   Client.Severity
	}{
		{"own advance to To Start is info", member, Client.StatusOpen, Client.SeverityInfo},
		{"advance to In Progress is info", member, Client.StatusToStart, Client.SeverityInfo},
		{"reaching Finished is success", admin, Client.StatusInProgress, Client.SeveritySuccess},
		{"closing is info", admin, Client.StatusFinished, Client.SeverityInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newTestController(t, tt.actor, &fakeRemote{})
			task := confirmedTask("42", tt.status, "2")
			ctrl.tasks = []Client.Task{task}

			ctrl.Advance("42")

			items := ctrl.queue.For("2")
			if len(items) != 1 {
				t.Fatalf("responsible received %d notifications, want 1", len(items))
			}
			if items[0].Type != tt.want {
				t.Errorf("severity = %q, want %q", items[0].Type, tt.want)
			}
			// The message comes from the text generator, which always
			// names the task.
			if !strings.Contains(items[0].Message, task.Title) {
				t.Errorf("message %q does not name the task", items[0].Message)
			}
		})
	}
}

func TestCreateSwapsProvisionalID(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	remote := &fakeRemote{}
	ctrl := newTestController(t, admin, remote)

	task, outcome := ctrl.Create(TaskDraft{
		Title:         "Ship release",
		StartDate:     time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		DeadlineValue: 2,
		DeadlineType:  "days",
		AssigneeIDs:   []string{"2", "3"},
	})
	if outcome.Err != nil {
		t.Fatal(outcome.Err)
	}
	if !outcome.Applied || outcome.Remote != RemoteOK {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if task.Ref != Client.Confirmed || Client.IsLocalID(task.ID) {
		t.Errorf("task kept a provisional identity: %q", task.ID)
	}
	if len(ctrl.tasks) != 1 {
		t.Fatalf("task collection holds %d tasks, want 1", len(ctrl.tasks))
	}
	if ctrl.tasks[0].ID != task.ID {
		t.Errorf("collection id %q differs from returned id %q", ctrl.tasks[0].ID, task.ID)
	}
	if ctrl.tasks[0].ResponsibleID != "2" || len(ctrl.tasks[0].Participants) != 1 {
		t.Errorf("assignees mapped wrong: responsible %q participants %v",
			ctrl.tasks[0].ResponsibleID, ctrl.tasks[0].Participants)
	}
	want := time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC)
	if !ctrl.tasks[0].DeliveryDate.Equal(want) {
		t.Errorf("delivery date = %v, want %v", ctrl.tasks[0].DeliveryDate, want)
	}

	// The created entry points at the id the task ended up with, so viewers
	// filtering by membership still see it.
	entries := ctrl.activity.Entries()
	if len(entries) != 1 || entries[0].Action != Client.ActionCreated {
		t.Fatalf("activity log = %+v, want one created entry", entries)
	}
	if entries[0].EntityID != task.ID {
		t.Errorf("created entry id %q, want server id %q", entries[0].EntityID, task.ID)
	}
}

func TestCreateKeepsLocalTaskOnRemoteFailure(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	remote := &fakeRemote{createErr: fmt.Errorf("connection refused")}
	ctrl := newTestController(t, admin, remote)

	task, outcome := ctrl.Create(TaskDraft{
		Title:         "Offline task",
		StartDate:     time.Now(),
		DeadlineValue: 1,
		DeadlineType:  "days",
		AssigneeIDs:   []string{"2"},
	})
	if !outcome.Applied || outcome.Remote != RemoteFailed {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if task.Ref != Client.Provisional || !Client.IsLocalID(task.ID) {
		t.Errorf("failed sync should leave a provisional task, got %q", task.ID)
	}
	if len(ctrl.tasks) != 1 {
		t.Errorf("task collection holds %d tasks, want 1", len(ctrl.tasks))
	}
	entries := ctrl.activity.Entries()
	if len(entries) != 1 || entries[0].EntityID != task.ID {
		t.Errorf("created entry should carry the provisional id %q, got %+v", task.ID, entries)
	}
}

func TestCreateValidation(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	ctrl := newTestController(t, admin, &fakeRemote{})

	_, outcome := ctrl.Create(TaskDraft{Title: "No one assigned", DeadlineValue: 1})
	if outcome.Err == nil {
		t.Error("create without assignees should fail")
	}
	if len(ctrl.tasks) != 0 {
		t.Error("failed validation must not mutate the collection")
	}
}

func TestDeleteProvisionalNeverCallsRemote(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	remote := &fakeRemote{createErr: fmt.Errorf("offline")}
	ctrl := newTestController(t, admin, remote)

	task, _ := ctrl.Create(TaskDraft{
		Title:         "Doomed",
		StartDate:     time.Now(),
		DeadlineValue: 1,
		DeadlineType:  "days",
		AssigneeIDs:   []string{"2"},
	})

	outcome := ctrl.Delete(task.ID)
	if !outcome.Applied || outcome.Remote != RemoteSkipped {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(remote.deleted) != 0 {
		t.Errorf("provisional delete reached the remote store: %v", remote.deleted)
	}
	if len(ctrl.tasks) != 0 {
		t.Error("task should be removed locally")
	}

	deletions := 0
	for _, e := range ctrl.activity.Entries() {
		if e.Action == Client.ActionDeleted && e.EntityID == task.ID {
			deletions++
		}
	}
	if deletions != 1 {
		t.Errorf("deleted activity entries = %d, want 1", deletions)
	}
}

func TestDeleteDeclinedConfirmation(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	remote := &fakeRemote{}
	ctrl := newTestController(t, admin, remote)
	ctrl.confirm = func(string) bool { return false }
	ctrl.tasks = []Client.Task{confirmedTask("42", Client.StatusOpen, "2")}

	if outcome := ctrl.Delete("42"); outcome.Applied {
		t.Error("declined confirmation must not delete")
	}
	if len(ctrl.tasks) != 1 || len(remote.deleted) != 0 {
		t.Error("declined confirmation must leave everything untouched")
	}
}

func TestUpdateRecomputesDeliveryOnEdit(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	ctrl := newTestController(t, admin, &fakeRemote{})
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	task := confirmedTask("42", Client.StatusOpen, "2")
	task.StartDate = start
	task.DeliveryDate = Client.ComputeDeliveryDate(start, 5, "days")
	ctrl.tasks = []Client.Task{task}

	outcome := ctrl.Update("42", TaskDraft{DeadlineValue: 2, DeadlineType: "hours"})
	if !outcome.Applied || outcome.Remote != RemoteOK {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	// Same derivation as on create: start plus the deadline in its unit.
	want := Client.ComputeDeliveryDate(start, 2, "hours")
	if !ctrl.tasks[0].DeliveryDate.Equal(want) {
		t.Errorf("delivery date = %v, want %v", ctrl.tasks[0].DeliveryDate, want)
	}

	updates := 0
	for _, e := range ctrl.activity.Entries() {
		if e.Action == Client.ActionUpdated && e.EntityID == "42" {
			updates++
		}
	}
	if updates != 1 {
		t.Errorf("updated activity entries = %d, want 1", updates)
	}
}

func TestUpdateEmployeeOnlyTitleAndDescription(t *testing.T) {
	member := Client.User{ID: "2", Name: "Bruno", Role: Client.RoleEmployee}
	ctrl := newTestController(t, member, &fakeRemote{})
	task := confirmedTask("42", Client.StatusOpen, "2")
	delivery := Client.ComputeDeliveryDate(task.StartDate, 5, "days")
	task.DeliveryDate = delivery
	ctrl.tasks = []Client.Task{task}

	outcome := ctrl.Update("42", TaskDraft{
		Title:         "New title",
		Description:   "new details",
		DeadlineValue: 99,
		AssigneeIDs:   []string{"9"},
	})
	if !outcome.Applied {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	got := ctrl.tasks[0]
	if got.Title != "New title" || got.Description != "new details" {
		t.Errorf("text fields not updated: %+v", got)
	}
	if got.DeadlineValue != 5 || got.ResponsibleID != "2" {
		t.Errorf("employee edit touched schedule or assignment: %+v", got)
	}
	if !got.DeliveryDate.Equal(delivery) {
		t.Errorf("delivery date changed to %v", got.DeliveryDate)
	}
}

func TestUpdateNonMemberEmployeeIsNoOp(t *testing.T) {
	outsider := Client.User{ID: "3", Name: "Carla", Role: Client.RoleEmployee}
	ctrl := newTestController(t, outsider, &fakeRemote{})
	ctrl.tasks = []Client.Task{confirmedTask("42", Client.StatusOpen, "2")}

	outcome := ctrl.Update("42", TaskDraft{Title: "hijacked"})
	if outcome.Applied {
		t.Error("non-member employee update should be a no-op")
	}
	if ctrl.tasks[0].Title != "Task 42" {
		t.Errorf("title changed to %q", ctrl.tasks[0].Title)
	}
}

func TestUpdateKeepsLocalEditOnRemoteFailure(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	remote := &fakeRemote{updateErr: fmt.Errorf("offline")}
	ctrl := newTestController(t, admin, remote)
	ctrl.tasks = []Client.Task{confirmedTask("42", Client.StatusOpen, "2")}

	outcome := ctrl.Update("42", TaskDraft{Title: "Edited offline"})
	if !outcome.Applied || outcome.Remote != RemoteFailed {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if ctrl.tasks[0].Title != "Edited offline" {
		t.Error("local edit should be retained after a remote failure")
	}
}

func TestAddCommentFallsBackLocally(t *testing.T) {
	member := Client.User{ID: "2", Name: "Bruno", Role: Client.RoleEmployee}
	remote := &fakeRemote{commentErr: fmt.Errorf("offline")}
	ctrl := newTestController(t, member, remote)
	ctrl.tasks = []Client.Task{confirmedTask("42", Client.StatusOpen, "2")}

	comment, outcome := ctrl.AddComment("42", "looks good")
	if !outcome.Applied || outcome.Remote != RemoteFailed {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if !Client.IsLocalID(comment.ID) {
		t.Errorf("fallback comment should carry a local id, got %q", comment.ID)
	}
	if len(ctrl.tasks[0].Comments) != 1 {
		t.Errorf("comments = %d, want 1", len(ctrl.tasks[0].Comments))
	}
	// The commenter never gets notified about their own comment.
	if got := len(ctrl.queue.For("2")); got != 0 {
		t.Errorf("commenter received %d notifications, want 0", got)
	}
}

func TestLoadFromRemoteFiltersForEmployee(t *testing.T) {
	member := Client.User{ID: "2", Name: "Bruno", Role: Client.RoleEmployee}
	remote := &fakeRemote{tasks: []Client.Task{
		confirmedTask("10", Client.StatusOpen, "2"),
		confirmedTask("11", Client.StatusOpen, "9"),
		confirmedTask("12", Client.StatusOpen, "9", "2"),
	}}
	ctrl := newTestController(t, member, remote)

	if err := ctrl.LoadFromRemote(); err != nil {
		t.Fatal(err)
	}
	if got := len(ctrl.Tasks()); got != 2 {
		t.Errorf("employee sees %d tasks, want 2", got)
	}
	for _, task := range ctrl.Tasks() {
		if !task.IsMember("2") {
			t.Errorf("employee loaded task %s they are not a member of", task.ID)
		}
	}
}

func TestLoadFromRemoteFailureEmptiesWorkingSet(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	remote := &fakeRemote{listErr: fmt.Errorf("offline")}
	ctrl := newTestController(t, admin, remote)
	ctrl.tasks = []Client.Task{confirmedTask("42", Client.StatusOpen, "2")}

	if err := ctrl.LoadFromRemote(); err == nil {
		t.Fatal("expected load error")
	}
	if len(ctrl.Tasks()) != 0 {
		t.Error("failed load should empty the working set, not leave it stale")
	}
}

func TestAdminActivityFanOut(t *testing.T) {
	member := Client.User{ID: "2", Name: "Bruno", Role: Client.RoleEmployee}
	ctrl := newTestController(t, member, &fakeRemote{})
	ctrl.users = []Client.User{
		{ID: "1", Name: "Ana", Role: Client.RoleAdmin},
		{ID: "2", Name: "Bruno", Role: Client.RoleEmployee},
		{ID: "5", Name: "Dora", Role: Client.RoleAdmin},
	}
	ctrl.tasks = []Client.Task{confirmedTask("42", Client.StatusOpen, "2")}

	ctrl.Advance("42")

	for _, adminID := range []string{"1", "5"} {
		if got := len(ctrl.queue.For(adminID)); got != 1 {
			t.Errorf("admin %s received %d notifications, want 1", adminID, got)
		}
	}
}

func TestActivityFanOutIncludesActingAdmin(t *testing.T) {
	admin := Client.User{ID: "1", Name: "Ana", Role: Client.RoleAdmin}
	ctrl := newTestController(t, admin, &fakeRemote{})
	ctrl.users = []Client.User{
		{ID: "1", Name: "Ana", Role: Client.RoleAdmin},
		{ID: "5", Name: "Dora", Role: Client.RoleAdmin},
	}
	ctrl.tasks = []Client.Task{confirmedTask("42", Client.StatusOpen, "2")}

	ctrl.Advance("42")

	// Every administrator account gets the entry, the actor included.
	for _, adminID := range []string{"1", "5"} {
		if got := len(ctrl.queue.For(adminID)); got != 1 {
			t.Errorf("admin %s received %d notifications, want 1", adminID, got)
		}
	}
}
