package Sync

import (
	"fmt"
	"log"
	"time"

	"Gestora/Client"
)

// maxActivityEntries caps the log; the oldest entries fall off the end.
const maxActivityEntries = 200

// ActivityLog records what happened to which entity, newest first. Every
// insert is persisted through the cache and fanned out to admins as an
// info notification.
type ActivityLog struct {
	entries []Client.SystemActivity
	cache   *Cache
	now     func() time.Time
}

// NewActivityLog creates a log backed by the cache, seeded from the
// persisted snapshot.
func NewActivityLog(cache *Cache) *ActivityLog {
	log := &ActivityLog{
		cache: cache,
		now:   time.Now,
	}
	if cache != nil {
		log.entries = cache.LoadActivities()
	}
	return log
}

// insertKey identifies a logical event regardless of when it happened.
// Re-recording the same event back to back is a no-op.
func insertKey(e Client.SystemActivity) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", e.UserID, e.Action, e.EntityID, e.FromStatus, e.ToStatus)
}

// Record inserts an activity entry unless an identical event is already in
// the log. It returns the stored entry and whether it was inserted.
func (l *ActivityLog) Record(actor Client.User, action Client.ActionKind, entityType, entityID, entityTitle string, from, to Client.Status) (Client.SystemActivity, bool) {
	entry := Client.SystemActivity{
		ID:          Client.NewActivityID(),
		UserID:      actor.ID,
		UserName:    actor.Name,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		EntityTitle: entityTitle,
		FromStatus:  from,
		ToStatus:    to,
		Timestamp:   l.now(),
	}

	key := insertKey(entry)
	for _, existing := range l.entries {
		if insertKey(existing) == key {
			return existing, false
		}
	}

	l.entries = append([]Client.SystemActivity{entry}, l.entries...)
	if len(l.entries) > maxActivityEntries {
		l.entries = l.entries[:maxActivityEntries]
	}
	if l.cache != nil {
		// Persistence is best effort, the in-memory log is authoritative.
		if err := l.cache.SaveActivities(l.entries); err != nil {
			log.Printf("Failed to save activity snapshot: %v", err)
		}
	}
	return entry, true
}

// Entries returns the log, newest first.
func (l *ActivityLog) Entries() []Client.SystemActivity {
	return l.entries
}

// VisibleTo filters the log for a viewer. Admins see everything; employees
// only see entries about tasks they are a member of.
func (l *ActivityLog) VisibleTo(viewer Client.User, tasks []Client.Task) []Client.SystemActivity {
	if viewer.Role == Client.RoleAdmin {
		return l.entries
	}
	membership := make(map[string]bool, len(tasks))
	for i := range tasks {
		if tasks[i].IsMember(viewer.ID) {
			membership[tasks[i].ID] = true
		}
	}
	var out []Client.SystemActivity
	for _, e := range l.entries {
		if e.EntityType == "task" && membership[e.EntityID] {
			out = append(out, e)
		}
	}
	return out
}

// Describe renders an activity entry as the one-line message used for
// admin notifications.
func Describe(e Client.SystemActivity) string {
	switch e.Action {
	case Client.ActionCreated:
		return fmt.Sprintf("%s created %s: %s", e.UserName, e.EntityType, e.EntityTitle)
	case Client.ActionUpdated:
		return fmt.Sprintf("%s updated %s: %s", e.UserName, e.EntityType, e.EntityTitle)
	case Client.ActionDeleted:
		return fmt.Sprintf("%s deleted %s: %s", e.UserName, e.EntityType, e.EntityTitle)
	case Client.ActionStatusChanged:
		return fmt.Sprintf("%s changed status of %s (%s → %s)", e.UserName, e.EntityTitle, e.FromStatus, e.ToStatus)
	case Client.ActionCommented:
		return fmt.Sprintf("%s commented on %s", e.UserName, e.EntityTitle)
	}
	return fmt.Sprintf("%s %s %s", e.UserName, e.Action, e.EntityTitle)
}
