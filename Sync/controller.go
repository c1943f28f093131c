package Sync

import (
	"fmt"
	"log"
	"time"

	"Gestora/Client"
)

// RemoteStore is the slice of the REST client the controller needs. Every
// call is best effort: local state commits first and a remote failure is
// reported, not rolled back.
type RemoteStore interface {
	ListTasks() ([]Client.Task, error)
	CreateTask(task Client.Task) (*Client.Task, error)
	UpdateTask(id string, task Client.Task) (*Client.Task, error)
	DeleteTask(id string) error
	PatchStatus(id string, status Client.Status) error
	CreateComment(taskID, text string) (*Client.Comment, error)
	ListUsers() ([]Client.User, error)
}

// ConfirmFunc asks the user to confirm a destructive action.
type ConfirmFunc func(prompt string) bool

// RemoteResult says what happened upstream after a local commit.
type RemoteResult int

const (
	RemoteOK RemoteResult = iota
	RemoteSkipped
	RemoteFailed
)

// Outcome reports an operation in two phases: whether the local state
// changed, and what the remote store said about it.
type Outcome struct {
	Applied bool
	Remote  RemoteResult
	Err     error
}

// TaskDraft carries user input for creating or editing a task. The first
// assignee is the responsible party, the rest are participants.
type TaskDraft struct {
	Title         string
	Description   string
	StartDate     time.Time
	DeadlineValue int
	DeadlineType  string
	AssigneeIDs   []string
}

// Controller owns the client-side task state: the working set of tasks and
// users, the activity log, and the notification queue. Methods are meant
// to be called from a single goroutine, mirroring a UI event loop.
type Controller struct {
	session  *Client.Session
	remote   RemoteStore
	cache    *Cache
	activity *ActivityLog
	queue    *Queue
	smart    *SmartText
	confirm  ConfirmFunc
	now      func() time.Time

	tasks []Client.Task
	users []Client.User
}

// NewController builds a controller and performs the cold start: the task
// and user snapshots from a previous run are discarded, the activity log
// is kept.
func NewController(session *Client.Session, remote RemoteStore, cache *Cache, confirm ConfirmFunc) *Controller {
	if cache != nil {
		cache.ClearSessionData()
	}
	if confirm == nil {
		confirm = func(string) bool { return true }
	}
	return &Controller{
		session:  session,
		remote:   remote,
		cache:    cache,
		activity: NewActivityLog(cache),
		queue:    NewQueue(),
		smart:    NewSmartText(session.Language),
		confirm:  confirm,
		now:      time.Now,
	}
}

func (c *Controller) actor() Client.User {
	if c.session.User != nil {
		return *c.session.User
	}
	return Client.User{}
}

func (c *Controller) saveTasks() {
	if c.cache == nil {
		return
	}
	if err := c.cache.SaveTasks(c.tasks); err != nil {
		log.Printf("Failed to save task snapshot: %v", err)
	}
}

func (c *Controller) saveUsers() {
	if c.cache == nil {
		return
	}
	if err := c.cache.SaveUsers(c.users); err != nil {
		log.Printf("Failed to save user snapshot: %v", err)
	}
}

// record logs an activity and fans it out to every admin except the actor.
func (c *Controller) record(action Client.ActionKind, entityType, entityID, entityTitle string, from, to Client.Status) {
	actor := c.actor()
	entry, inserted := c.activity.Record(actor, action, entityType, entityID, entityTitle, from, to)
	if !inserted {
		return
	}
	message := Describe(entry)
	for _, u := range c.users {
		if u.Role == Client.RoleAdmin {
			c.queue.Push(u.ID, message, Client.SeverityInfo)
		}
	}
}

// LoadFromRemote replaces the working set with the server's view. Employees
// only keep tasks they are a member of; admins also refresh the user list.
// On failure the working set is emptied rather than left stale.
func (c *Controller) LoadFromRemote() error {
	actor := c.actor()

	tasks, err := c.remote.ListTasks()
	if err != nil {
		c.tasks = nil
		c.saveTasks()
		return err
	}
	if actor.Role != Client.RoleAdmin {
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.IsMember(actor.ID) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	c.tasks = tasks
	c.saveTasks()

	if actor.Role == Client.RoleAdmin {
		users, err := c.remote.ListUsers()
		if err != nil {
			log.Printf("Failed to load users: %v", err)
		} else {
			c.users = users
			c.saveUsers()
		}
	}
	return nil
}

// SetUsers seeds the user list directly, for sessions that already carry it.
func (c *Controller) SetUsers(users []Client.User) {
	c.users = users
	c.saveUsers()
}

func (c *Controller) findTask(id string) *Client.Task {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return &c.tasks[i]
		}
	}
	return nil
}

// Create commits a new task locally under a provisional id, then tries to
// persist it; on success the provisional id is swapped for the server's
// without duplicating the task.
func (c *Controller) Create(draft TaskDraft) (Client.Task, Outcome) {
	if draft.Title == "" {
		return Client.Task{}, Outcome{Err: fmt.Errorf("title is required")}
	}
	if len(draft.AssigneeIDs) == 0 {
		return Client.Task{}, Outcome{Err: fmt.Errorf("at least one assignee is required")}
	}
	if draft.DeadlineValue < 1 {
		return Client.Task{}, Outcome{Err: fmt.Errorf("deadline value must be at least 1")}
	}
	if draft.DeadlineType != "days" && draft.DeadlineType != "hours" {
		draft.DeadlineType = "days"
	}

	now := c.now()
	task := Client.Task{
		ID:            Client.NewLocalTaskID(),
		Ref:           Client.Provisional,
		Title:         draft.Title,
		Description:   draft.Description,
		StartDate:     draft.StartDate,
		DeadlineValue: draft.DeadlineValue,
		DeadlineType:  draft.DeadlineType,
		DeliveryDate:  Client.ComputeDeliveryDate(draft.StartDate, draft.DeadlineValue, draft.DeadlineType),
		ResponsibleID: draft.AssigneeIDs[0],
		Participants:  draft.AssigneeIDs[1:],
		Status:        Client.StatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	c.tasks = append([]Client.Task{task}, c.tasks...)
	c.saveTasks()

	stored, err := c.remote.CreateTask(task)
	if err != nil {
		c.record(Client.ActionCreated, "task", task.ID, task.Title, "", "")
		c.queue.Push(c.actor().ID, fmt.Sprintf("Task \"%s\" saved locally, sync pending", task.Title), Client.SeverityError)
		return task, Outcome{Applied: true, Remote: RemoteFailed, Err: err}
	}

	// Swap the provisional entry for the confirmed one in place. The
	// activity entry is recorded afterwards so it carries the id the task
	// actually ends up with.
	if local := c.findTask(task.ID); local != nil {
		stored.Comments = local.Comments
		*local = *stored
		task = *stored
	}
	c.saveTasks()
	c.record(Client.ActionCreated, "task", task.ID, task.Title, "", "")
	c.queue.Push(c.actor().ID, fmt.Sprintf("Task \"%s\" created", task.Title), Client.SeveritySuccess)
	return task, Outcome{Applied: true, Remote: RemoteOK}
}

// Advance moves a task one step along the status chain, enforcing the
// role guards. An ineligible advance is a silent no-op.
func (c *Controller) Advance(taskID string) Outcome {
	actor := c.actor()
	task := c.findTask(taskID)
	if task == nil {
		return Outcome{Err: fmt.Errorf("task %s not found", taskID)}
	}

	next, ok := Client.NextStatus(task.Status)
	if !ok {
		return Outcome{Remote: RemoteSkipped}
	}
	if actor.Role != Client.RoleAdmin && !task.IsMember(actor.ID) {
		return Outcome{Remote: RemoteSkipped}
	}
	if task.Status == Client.StatusFinished && actor.Role != Client.RoleAdmin {
		return Outcome{Remote: RemoteSkipped}
	}

	now := c.now()
	from := task.Status
	task.Status = next
	task.UpdatedAt = now
	if next == Client.StatusClosed {
		closed := now
		task.ClosedAt = &closed
	}

	if actor.Role != Client.RoleAdmin {
		task.Comments = append(task.Comments, Client.Comment{
			ID:        Client.NewLocalCommentID(),
			UserID:    actor.ID,
			UserName:  actor.Name,
			Text:      fmt.Sprintf("Advanced status to %s", next),
			Timestamp: now,
		})
	}

	c.saveTasks()
	c.record(Client.ActionStatusChanged, "task", task.ID, task.Title, from, next)

	// Reaching Finished is the milestone worth celebrating; everything else
	// is informational. The message comes from the text generator.
	severity := Client.SeverityInfo
	if next == Client.StatusFinished {
		severity = Client.SeveritySuccess
	}
	c.queue.Push(task.ResponsibleID, c.smart.TaskLine(*task, now), severity)

	if task.Ref == Client.Provisional {
		return Outcome{Applied: true, Remote: RemoteSkipped}
	}
	if err := c.remote.PatchStatus(task.ID, next); err != nil {
		return Outcome{Applied: true, Remote: RemoteFailed, Err: err}
	}
	return Outcome{Applied: true, Remote: RemoteOK}
}

// Update applies edits to a task. Employees may only change the title and
// description; admins may change everything, including reassignment.
func (c *Controller) Update(taskID string, draft TaskDraft) Outcome {
	actor := c.actor()
	task := c.findTask(taskID)
	if task == nil {
		return Outcome{Err: fmt.Errorf("task %s not found", taskID)}
	}
	if actor.Role != Client.RoleAdmin && !task.IsMember(actor.ID) {
		return Outcome{Remote: RemoteSkipped}
	}

	if draft.Title != "" {
		task.Title = draft.Title
	}
	task.Description = draft.Description
	if actor.Role == Client.RoleAdmin {
		if !draft.StartDate.IsZero() {
			task.StartDate = draft.StartDate
		}
		if draft.DeadlineValue >= 1 {
			task.DeadlineValue = draft.DeadlineValue
		}
		if draft.DeadlineType == "days" || draft.DeadlineType == "hours" {
			task.DeadlineType = draft.DeadlineType
		}
		if len(draft.AssigneeIDs) > 0 {
			task.ResponsibleID = draft.AssigneeIDs[0]
			task.Participants = draft.AssigneeIDs[1:]
		}
		task.DeliveryDate = Client.ComputeDeliveryDate(task.StartDate, task.DeadlineValue, task.DeadlineType)
	}
	task.UpdatedAt = c.now()

	c.saveTasks()
	c.record(Client.ActionUpdated, "task", task.ID, task.Title, "", "")

	if task.Ref == Client.Provisional {
		return Outcome{Applied: true, Remote: RemoteSkipped}
	}
	stored, err := c.remote.UpdateTask(task.ID, *task)
	if err != nil {
		return Outcome{Applied: true, Remote: RemoteFailed, Err: err}
	}
	stored.Comments = task.Comments
	*task = *stored
	c.saveTasks()
	return Outcome{Applied: true, Remote: RemoteOK}
}

// Delete removes a task after confirmation. A provisional task never
// reaches the remote store since it does not exist there.
func (c *Controller) Delete(taskID string) Outcome {
	task := c.findTask(taskID)
	if task == nil {
		return Outcome{Err: fmt.Errorf("task %s not found", taskID)}
	}
	if c.actor().Role != Client.RoleAdmin {
		return Outcome{Remote: RemoteSkipped}
	}
	if !c.confirm(fmt.Sprintf("Delete task \"%s\"?", task.Title)) {
		return Outcome{Remote: RemoteSkipped}
	}

	// Record before removal so the entry still carries the title.
	c.record(Client.ActionDeleted, "task", task.ID, task.Title, "", "")
	provisional := task.Ref == Client.Provisional
	id := task.ID

	kept := c.tasks[:0]
	for _, t := range c.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	c.tasks = kept
	c.saveTasks()

	if provisional {
		return Outcome{Applied: true, Remote: RemoteSkipped}
	}
	if err := c.remote.DeleteTask(id); err != nil {
		return Outcome{Applied: true, Remote: RemoteFailed, Err: err}
	}
	return Outcome{Applied: true, Remote: RemoteOK}
}

// AddComment appends a comment, preferring the server's copy of it so the
// id and timestamp are authoritative; on failure a local comment is kept.
func (c *Controller) AddComment(taskID, text string) (Client.Comment, Outcome) {
	actor := c.actor()
	task := c.findTask(taskID)
	if task == nil {
		return Client.Comment{}, Outcome{Err: fmt.Errorf("task %s not found", taskID)}
	}
	if text == "" {
		return Client.Comment{}, Outcome{Err: fmt.Errorf("comment text is required")}
	}

	var comment Client.Comment
	remote := RemoteSkipped
	var remoteErr error
	if task.Ref == Client.Confirmed {
		stored, err := c.remote.CreateComment(task.ID, text)
		if err != nil {
			remote = RemoteFailed
			remoteErr = err
		} else {
			remote = RemoteOK
			comment = *stored
		}
	}
	if comment.ID == "" {
		comment = Client.Comment{
			ID:        Client.NewLocalCommentID(),
			UserID:    actor.ID,
			UserName:  actor.Name,
			Text:      text,
			Timestamp: c.now(),
		}
	}

	task.Comments = append(task.Comments, comment)
	task.UpdatedAt = c.now()
	c.saveTasks()
	c.record(Client.ActionCommented, "task", task.ID, task.Title, "", "")
	return comment, Outcome{Applied: true, Remote: remote, Err: remoteErr}
}

// Remind queues a generated reminder line for the task's responsible party.
func (c *Controller) Remind(taskID string) bool {
	task := c.findTask(taskID)
	if task == nil {
		return false
	}
	severity := Client.SeverityInfo
	if task.Status == Client.StatusOverdue {
		severity = Client.SeverityError
	}
	return c.queue.Push(task.ResponsibleID, c.smart.TaskLine(*task, c.now()), severity)
}

// Tasks returns the working set.
func (c *Controller) Tasks() []Client.Task {
	return c.tasks
}

// Users returns the known user list.
func (c *Controller) Users() []Client.User {
	return c.users
}

// Activities returns the activity log filtered for the current actor.
func (c *Controller) Activities() []Client.SystemActivity {
	return c.activity.VisibleTo(c.actor(), c.tasks)
}

// Notifications returns the current actor's notifications, newest first.
func (c *Controller) Notifications() []Client.Notification {
	return c.queue.For(c.actor().ID)
}

// UnreadCount counts the current actor's unread notifications.
func (c *Controller) UnreadCount() int {
	return c.queue.Unread(c.actor().ID)
}

// MarkAllNotificationsRead marks the current actor's notifications read.
func (c *Controller) MarkAllNotificationsRead() {
	c.queue.MarkAllRead(c.actor().ID)
}
