package Sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"Gestora/Client"
)

const (
	tasksFile      = "tasks.json"
	usersFile      = "users.json"
	activitiesFile = "activities.json"
	emailFile      = "remembered_email"
)

// Cache is the durable local snapshot store. Everything is best effort:
// a failed write never blocks an operation, a missing or corrupt file
// reads as empty.
type Cache struct {
	Dir string
}

// NewCache creates a cache rooted at dir, creating the directory if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %v", err)
	}
	return &Cache{Dir: dir}, nil
}

func (c *Cache) path(name string) string {
	return filepath.Join(c.Dir, name)
}

func (c *Cache) writeJSON(name string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(name), data, 0o644)
}

func (c *Cache) readJSON(name string, out interface{}) error {
	data, err := os.ReadFile(c.path(name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// SaveTasks writes the task snapshot.
func (c *Cache) SaveTasks(tasks []Client.Task) error {
	return c.writeJSON(tasksFile, tasks)
}

// LoadTasks reads the task snapshot. Ref state is rebuilt from the id
// prefix since it is not serialized.
func (c *Cache) LoadTasks() []Client.Task {
	var tasks []Client.Task
	if err := c.readJSON(tasksFile, &tasks); err != nil {
		return nil
	}
	for i := range tasks {
		tasks[i].Ref = Client.RefForID(tasks[i].ID)
	}
	return tasks
}

// SaveUsers writes the user snapshot.
func (c *Cache) SaveUsers(users []Client.User) error {
	return c.writeJSON(usersFile, users)
}

// LoadUsers reads the user snapshot.
func (c *Cache) LoadUsers() []Client.User {
	var users []Client.User
	if err := c.readJSON(usersFile, &users); err != nil {
		return nil
	}
	return users
}

// SaveActivities writes the activity snapshot.
func (c *Cache) SaveActivities(entries []Client.SystemActivity) error {
	return c.writeJSON(activitiesFile, entries)
}

// LoadActivities reads the activity snapshot and drops duplicates. Unlike
// the in-memory insert check, the load-time key includes the timestamp, so
// legitimate repeats recorded at different moments survive a reload.
func (c *Cache) LoadActivities() []Client.SystemActivity {
	var entries []Client.SystemActivity
	if err := c.readJSON(activitiesFile, &entries); err != nil {
		return nil
	}
	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		key := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
			e.UserID, e.Action, e.EntityID, e.FromStatus, e.ToStatus, e.Timestamp.UnixMilli())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// ClearSessionData removes the task and user snapshots. Activities survive
// across sessions so the history is not lost on restart.
func (c *Cache) ClearSessionData() {
	os.Remove(c.path(tasksFile))
	os.Remove(c.path(usersFile))
}

// SaveRememberedEmail persists the last login email.
func (c *Cache) SaveRememberedEmail(email string) error {
	if email == "" {
		return os.Remove(c.path(emailFile))
	}
	return os.WriteFile(c.path(emailFile), []byte(email), 0o644)
}

// LoadRememberedEmail reads the last login email, empty when unset.
func (c *Cache) LoadRememberedEmail() string {
	data, err := os.ReadFile(c.path(emailFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveAvatar stores an avatar image for a user.
func (c *Cache) SaveAvatar(userID string, data []byte) error {
	return os.WriteFile(c.path("avatar_"+userID+".jpg"), data, 0o644)
}

// LoadAvatar reads a cached avatar, nil when absent.
func (c *Cache) LoadAvatar(userID string) []byte {
	data, err := os.ReadFile(c.path("avatar_" + userID + ".jpg"))
	if err != nil {
		return nil
	}
	return data
}
