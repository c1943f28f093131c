package Sync

import (
	"time"

	"Gestora/Client"
)

const (
	// Identical notifications within this window of the last send are
	// dropped outright.
	notifyCooldown = 5 * time.Second
	// Identical notifications already in the list newer than this are
	// treated as still fresh and not re-queued.
	notifyListWindow = 10 * time.Second
)

// Queue holds in-memory notifications for all users, most recent first,
// and rate-limits repeats so a burst of identical events produces one
// entry instead of a pile.
type Queue struct {
	items    []Client.Notification
	lastSent map[string]time.Time
	now      func() time.Time
}

// NewQueue creates an empty notification queue.
func NewQueue() *Queue {
	return &Queue{
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

func dedupKey(userID, message string, severity Client.Severity) string {
	return userID + "|" + string(severity) + "|" + message
}

// Push queues a notification for the user unless an identical one was sent
// within the cooldown or is still fresh in the list. It reports whether
// the notification was actually queued.
func (q *Queue) Push(userID, message string, severity Client.Severity) bool {
	now := q.now()
	key := dedupKey(userID, message, severity)

	if last, ok := q.lastSent[key]; ok && now.Sub(last) < notifyCooldown {
		return false
	}
	for _, n := range q.items {
		if n.UserID == userID && n.Message == message && n.Type == severity &&
			now.Sub(n.Timestamp) < notifyListWindow {
			return false
		}
	}

	q.lastSent[key] = now
	q.items = append([]Client.Notification{{
		ID:        Client.NewNotificationID(),
		UserID:    userID,
		Message:   message,
		Type:      severity,
		Timestamp: now,
	}}, q.items...)
	return true
}

// For returns the notifications addressed to the user, most recent first.
func (q *Queue) For(userID string) []Client.Notification {
	var out []Client.Notification
	for _, n := range q.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// Unread counts the user's unread notifications.
func (q *Queue) Unread(userID string) int {
	count := 0
	for _, n := range q.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count
}

// MarkAllRead marks every notification for the user as read.
func (q *Queue) MarkAllRead(userID string) {
	for i := range q.items {
		if q.items[i].UserID == userID {
			q.items[i].IsRead = true
		}
	}
}
