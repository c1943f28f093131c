package Models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Task status values. StatusOverdue sits outside the forward chain and is
// only assigned by the deadline checker job.
const (
	StatusOpen       = "Open"
	StatusToStart    = "To Start"
	StatusInProgress = "In Progress"
	StatusFinished   = "Finished"
	StatusClosed     = "Closed"
	StatusOverdue    = "Overdue"
)

const (
	DeadlineDays  = "days"
	DeadlineHours = "hours"
)

// StatusOrder is the strict linear transition chain. Closed is terminal.
var StatusOrder = []string{
	StatusOpen,
	StatusToStart,
	StatusInProgress,
	StatusFinished,
	StatusClosed,
}

type Task struct {
	gorm.Model
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	StartDate        time.Time      `json:"startDate"`
	DeadlineValue    int            `json:"deadlineValue"`
	DeadlineType     string         `json:"deadlineType"`
	DeliveryDate     time.Time      `json:"deliveryDate"`
	Status           string         `json:"status"`
	ResponsibleID    uint           `json:"responsibleId"`
	JSONParticipants datatypes.JSON `json:"participants"`
	Comments         []Comment      `json:"comments"`
	CreatedByID      uint           `json:"createdById"`
	ClosedAt         *time.Time     `json:"closedAt"`
}

type Comment struct {
	gorm.Model
	TaskID   uint   `json:"taskId"`
	UserID   uint   `json:"userId"`
	UserName string `json:"userName"`
	Text     string `json:"text"`
}

// NextStatus returns the status following current in the chain, or "" when
// current is terminal or outside the chain (e.g. Overdue).
func NextStatus(current string) string {
	for i, s := range StatusOrder {
		if s == current && i+1 < len(StatusOrder) {
			return StatusOrder[i+1]
		}
	}
	return ""
}

// ValidStatus reports whether s belongs to the fixed status set.
func ValidStatus(s string) bool {
	if s == StatusOverdue {
		return true
	}
	for _, v := range StatusOrder {
		if v == s {
			return true
		}
	}
	return false
}

// ComputeDeliveryDate derives the delivery timestamp from the start date and
// the deadline amount/unit. The delivery date is never edited directly.
func ComputeDeliveryDate(start time.Time, value int, unit string) time.Time {
	if unit == DeadlineHours {
		return start.Add(time.Duration(value) * time.Hour)
	}
	return start.AddDate(0, 0, value)
}

// Participants decodes the JSON participant id list.
func (t *Task) Participants() []uint {
	var ids []uint
	if len(t.JSONParticipants) == 0 {
		return ids
	}
	if err := json.Unmarshal(t.JSONParticipants, &ids); err != nil {
		return nil
	}
	return ids
}

// SetParticipants encodes the participant id list into the JSON column.
func (t *Task) SetParticipants(ids []uint) error {
	if ids == nil {
		ids = []uint{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	t.JSONParticipants = encoded
	return nil
}

// IsMember reports whether the user is the responsible party or a listed
// participant of the task.
func (t *Task) IsMember(userID uint) bool {
	if t.ResponsibleID == userID {
		return true
	}
	for _, id := range t.Participants() {
		if id == userID {
			return true
		}
	}
	return false
}

// CanAdvance applies the role and membership guards for a forward status
// transition. Employees must be members and may never leave Finished; only
// administrators close tasks.
func (t *Task) CanAdvance(actor *User) bool {
	if NextStatus(t.Status) == "" {
		return false
	}
	if actor.Role == RoleEmployee && !t.IsMember(actor.ID) {
		return false
	}
	if t.Status == StatusFinished && !actor.IsAdmin() {
		return false
	}
	return true
}

// Recompute refreshes the derived delivery date from the current start and
// deadline fields.
func (t *Task) Recompute() {
	t.DeliveryDate = ComputeDeliveryDate(t.StartDate, t.DeadlineValue, t.DeadlineType)
}
