package Client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// The store serves numeric ids and lowerCamel field names while older
// snapshots and some endpoints use variants, so decoding goes through
// untyped maps instead of struct tags.

func stringField(body map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := body[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func intField(body map[string]interface{}, keys ...string) int {
	for _, key := range keys {
		switch v := body[key].(type) {
		case float64:
			return int(v)
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n)
			}
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 0
}

func boolField(body map[string]interface{}, keys ...string) bool {
	for _, key := range keys {
		if v, ok := body[key].(bool); ok {
			return v
		}
	}
	return false
}

func timeField(body map[string]interface{}, keys ...string) time.Time {
	for _, key := range keys {
		raw, ok := body[key].(string)
		if !ok || raw == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func idList(body map[string]interface{}, keys ...string) []string {
	for _, key := range keys {
		raw, ok := body[key].([]interface{})
		if !ok {
			continue
		}
		ids := make([]string, 0, len(raw))
		for _, item := range raw {
			switch v := item.(type) {
			case string:
				ids = append(ids, v)
			case float64:
				ids = append(ids, strconv.FormatInt(int64(v), 10))
			case map[string]interface{}:
				if id := stringField(v, "id", "userId", "ID"); id != "" {
					ids = append(ids, id)
				}
			}
		}
		return ids
	}
	return []string{}
}

// MapTaskFromAPI converts a decoded task object into a Task. Missing fields
// get zero values; the ref state is always Confirmed since the object came
// from the store.
func MapTaskFromAPI(body map[string]interface{}) Task {
	task := Task{
		ID:            stringField(body, "id", "ID"),
		Ref:           Confirmed,
		Title:         stringField(body, "title"),
		Description:   stringField(body, "description"),
		StartDate:     timeField(body, "startDate", "start_date"),
		DeadlineValue: intField(body, "deadlineValue", "deadline_value"),
		DeadlineType:  stringField(body, "deadlineType", "deadline_type"),
		DeliveryDate:  timeField(body, "deliveryDate", "delivery_date"),
		ResponsibleID: stringField(body, "responsibleId", "responsible_id", "responsibleID"),
		Participants:  idList(body, "participants"),
		Status:        Status(stringField(body, "status")),
		CreatedAt:     timeField(body, "createdAt", "created_at", "CreatedAt"),
		UpdatedAt:     timeField(body, "updatedAt", "updated_at", "UpdatedAt"),
	}
	if task.DeadlineType == "" {
		task.DeadlineType = "days"
	}
	if task.Status == "" {
		task.Status = StatusOpen
	}
	if closed := timeField(body, "closedAt", "closed_at"); !closed.IsZero() {
		task.ClosedAt = &closed
	}
	if raw, ok := body["comments"].([]interface{}); ok {
		for _, item := range raw {
			if obj, ok := item.(map[string]interface{}); ok {
				task.Comments = append(task.Comments, MapCommentFromAPI(obj))
			}
		}
	}
	return task
}

// MapUserFromAPI converts a decoded user object into a User.
func MapUserFromAPI(body map[string]interface{}) User {
	if nested, ok := body["user"].(map[string]interface{}); ok {
		body = nested
	}
	user := User{
		ID:                 stringField(body, "id", "ID"),
		Name:               stringField(body, "name"),
		Email:              stringField(body, "email"),
		Role:               stringField(body, "role"),
		Position:           stringField(body, "position"),
		Department:         stringField(body, "department"),
		Avatar:             stringField(body, "avatar"),
		MustChangePassword: boolField(body, "mustChangePassword", "must_change_password"),
	}
	if user.Role == "" {
		user.Role = RoleEmployee
	}
	return user
}

// MapCommentFromAPI converts a decoded comment object into a Comment.
func MapCommentFromAPI(body map[string]interface{}) Comment {
	if nested, ok := body["comment"].(map[string]interface{}); ok {
		body = nested
	}
	comment := Comment{
		ID:        stringField(body, "id", "ID"),
		UserID:    stringField(body, "userId", "user_id", "userID"),
		UserName:  stringField(body, "userName", "user_name"),
		Text:      stringField(body, "text", "content"),
		Timestamp: timeField(body, "timestamp", "createdAt", "created_at", "CreatedAt"),
	}
	return comment
}

// listItems pulls the object list out of a response that is either a bare
// array or an envelope with a well-known key.
func listItems(raw json.RawMessage, envelopeKeys ...string) ([]map[string]interface{}, error) {
	var direct []map[string]interface{}
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected list response: %v", err)
	}
	for _, key := range envelopeKeys {
		inner, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &direct); err == nil {
			return direct, nil
		}
	}
	return nil, fmt.Errorf("no list found in response")
}

func mapTaskList(raw json.RawMessage) ([]Task, error) {
	items, err := listItems(raw, "tasks", "data")
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(items))
	for _, item := range items {
		tasks = append(tasks, MapTaskFromAPI(item))
	}
	return tasks, nil
}

func mapUserList(raw json.RawMessage) ([]User, error) {
	items, err := listItems(raw, "users", "data")
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(items))
	for _, item := range items {
		users = append(users, MapUserFromAPI(item))
	}
	return users, nil
}

func mapSingleTask(raw json.RawMessage) (*Task, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if nested, ok := body["task"].(map[string]interface{}); ok {
		body = nested
	}
	task := MapTaskFromAPI(body)
	return &task, nil
}
