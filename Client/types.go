package Client

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

// Status is a task lifecycle state. The forward chain is strictly linear;
// Overdue is a side state assigned by the server's deadline checker and is
// never a forward transition target.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusToStart    Status = "To Start"
	StatusInProgress Status = "In Progress"
	StatusFinished   Status = "Finished"
	StatusClosed     Status = "Closed"
	StatusOverdue    Status = "Overdue"
)

// StatusOrder is the forward-advance chain. Closed is terminal.
var StatusOrder = []Status{
	StatusOpen,
	StatusToStart,
	StatusInProgress,
	StatusFinished,
	StatusClosed,
}

// NextStatus returns the status after current in the chain. ok is false
// when current is terminal or outside the chain.
func NextStatus(current Status) (Status, bool) {
	for i, s := range StatusOrder {
		if s == current && i+1 < len(StatusOrder) {
			return StatusOrder[i+1], true
		}
	}
	return "", false
}

// RefState distinguishes tasks minted locally from tasks confirmed by the
// remote store. Provisional ids are never sent upstream for status patches.
type RefState int

const (
	Provisional RefState = iota
	Confirmed
)

const (
	localTaskPrefix    = "T-"
	localCommentPrefix = "C-"
	activityPrefix     = "A-"
)

type Task struct {
	ID            string    `json:"id"`
	Ref           RefState  `json:"-"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartDate     time.Time `json:"startDate"`
	DeadlineValue int       `json:"deadlineValue"`
	DeadlineType  string    `json:"deadlineType"` // days|hours
	DeliveryDate  time.Time `json:"deliveryDate"`
	ResponsibleID string    `json:"responsibleId"`
	Participants  []string  `json:"participants"`
	Status        Status    `json:"status"`
	Comments      []Comment `json:"comments"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	ClosedAt      *time.Time `json:"closedAt,omitempty"`
}

type User struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	Position           string `json:"position,omitempty"`
	Department         string `json:"department,omitempty"`
	Avatar             string `json:"avatar,omitempty"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Type      Severity  `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
}

// ActionKind is the action recorded by an activity entry.
type ActionKind string

const (
	ActionCreated       ActionKind = "created"
	ActionUpdated       ActionKind = "updated"
	ActionDeleted       ActionKind = "deleted"
	ActionStatusChanged ActionKind = "status_changed"
	ActionCommented     ActionKind = "commented"
)

type SystemActivity struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	UserName    string     `json:"userName"`
	Action      ActionKind `json:"action"`
	EntityType  string     `json:"entityType"`
	EntityID    string     `json:"entityId"`
	EntityTitle string     `json:"entityTitle,omitempty"`
	FromStatus  Status     `json:"fromStatus,omitempty"`
	ToStatus    Status     `json:"toStatus,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

func randomID(length int) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if length < len(id) {
		return id[:length]
	}
	return id
}

// NewLocalTaskID mints a provisional task identifier.
func NewLocalTaskID() string {
	return localTaskPrefix + randomID(6)
}

// NewLocalCommentID mints a provisional comment identifier.
func NewLocalCommentID() string {
	return localCommentPrefix + randomID(6)
}

// NewActivityID mints an activity entry identifier.
func NewActivityID() string {
	return activityPrefix + randomID(9)
}

// NewNotificationID mints a notification identifier.
func NewNotificationID() string {
	return randomID(9)
}

// IsLocalID reports whether the identifier was minted locally and therefore
// does not exist in the remote store.
func IsLocalID(id string) bool {
	upper := strings.ToUpper(id)
	return strings.HasPrefix(upper, localTaskPrefix) || strings.HasPrefix(upper, localCommentPrefix)
}

// RefForID derives the ref state from a persisted identifier, so snapshots
// written before the explicit ref state stay readable.
func RefForID(id string) RefState {
	if IsLocalID(id) {
		return Provisional
	}
	return Confirmed
}

// ComputeDeliveryDate derives the delivery timestamp from start date plus
// the deadline amount in the given unit. Delivery dates are always derived,
// never edited directly.
func ComputeDeliveryDate(start time.Time, value int, unit string) time.Time {
	if unit == "hours" {
		return start.Add(time.Duration(value) * time.Hour)
	}
	return start.AddDate(0, 0, value)
}

// IsMember reports whether the user is the responsible party or a listed
// participant.
func (t *Task) IsMember(userID string) bool {
	if t.ResponsibleID == userID {
		return true
	}
	for _, id := range t.Participants {
		if id == userID {
			return true
		}
	}
	return false
}
