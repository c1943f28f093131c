package Client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// API is the REST client for the remote task store. Any call may fail with
// a network or HTTP error; callers treat every failure the same way and
// fall back to local-only state.
type API struct {
	Session    *Session
	HTTPClient *http.Client
}

// NewAPI creates an API client bound to the given session.
func NewAPI(session *Session) *API {
	return &API{
		Session: session,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// do performs a JSON request and decodes the response body. Non-2xx
// responses become errors carrying the server's message when one exists.
func (a *API) do(method, path string, payload interface{}) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, a.Session.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.Session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Session.Token)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: %s", method, path, errorMessage(raw, resp.Status))
	}

	return raw, nil
}

// errorMessage digs the human-readable message out of an error body,
// falling back to the HTTP status.
func errorMessage(raw []byte, status string) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"message", "error", "detail"} {
			if msg, ok := body[key].(string); ok && msg != "" {
				return msg
			}
		}
	}
	if len(raw) > 0 && len(raw) < 200 {
		return string(raw)
	}
	return status
}

// numericID converts a string id to a number when possible, since the
// store serves numeric identifiers.
func numericID(id string) interface{} {
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}

type taskPayload struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	StartDate     time.Time     `json:"startDate"`
	DeadlineValue int           `json:"deadlineValue"`
	DeadlineType  string        `json:"deadlineType"`
	DeliveryDate  time.Time     `json:"deliveryDate"`
	ResponsibleID interface{}   `json:"responsibleId"`
	Participants  []interface{} `json:"participants"`
	Status        Status        `json:"status"`
}

// payloadFor builds the wire payload for a task, never including a locally
// minted identifier.
func payloadFor(task Task) taskPayload {
	participants := make([]interface{}, 0, len(task.Participants))
	for _, id := range task.Participants {
		participants = append(participants, numericID(id))
	}
	return taskPayload{
		Title:         task.Title,
		Description:   task.Description,
		StartDate:     task.StartDate,
		DeadlineValue: task.DeadlineValue,
		DeadlineType:  task.DeadlineType,
		DeliveryDate:  task.DeliveryDate,
		ResponsibleID: numericID(task.ResponsibleID),
		Participants:  participants,
		Status:        task.Status,
	}
}

// Login authenticates and stores the token and actor on the session.
func (a *API) Login(email, password string) (*User, error) {
	raw, err := a.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}

	token, _ := body["token"].(string)
	if token == "" {
		token, _ = body["jwt"].(string)
	}

	var user *User
	if rawUser, ok := body["user"].(map[string]interface{}); ok {
		mapped := MapUserFromAPI(rawUser)
		user = &mapped
	}

	a.Session.SetUser(token, user)
	return user, nil
}

// CurrentUser fetches the actor for the held token.
func (a *API) CurrentUser() (*User, error) {
	raw, err := a.do(http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	user := MapUserFromAPI(body)
	return &user, nil
}

// Logout clears the session.
func (a *API) Logout() {
	a.Session.Clear()
}

// ListTasks fetches all tasks visible to the actor.
func (a *API) ListTasks() ([]Task, error) {
	raw, err := a.do(http.MethodGet, "/api/tasks", nil)
	if err != nil {
		return nil, err
	}
	return mapTaskList(raw)
}

// CreateTask persists a new task and returns the server's copy.
func (a *API) CreateTask(task Task) (*Task, error) {
	raw, err := a.do(http.MethodPost, "/api/tasks", payloadFor(task))
	if err != nil {
		return nil, err
	}
	return mapSingleTask(raw)
}

// UpdateTask replaces a task's fields and returns the server's copy.
func (a *API) UpdateTask(id string, task Task) (*Task, error) {
	raw, err := a.do(http.MethodPut, "/api/tasks/"+id, payloadFor(task))
	if err != nil {
		return nil, err
	}
	return mapSingleTask(raw)
}

// DeleteTask removes a task from the remote store.
func (a *API) DeleteTask(id string) error {
	_, err := a.do(http.MethodDelete, "/api/tasks/"+id, nil)
	return err
}

// PatchStatus updates only a task's status.
func (a *API) PatchStatus(id string, status Status) error {
	_, err := a.do(http.MethodPatch, "/api/tasks/"+id+"/status", map[string]Status{
		"status": status,
	})
	return err
}

// CreateComment appends a comment and returns the server's copy with its
// authoritative identifier and timestamp.
func (a *API) CreateComment(taskID, text string) (*Comment, error) {
	raw, err := a.do(http.MethodPost, "/api/tasks/"+taskID+"/comments", map[string]string{
		"text": text,
	})
	if err != nil {
		return nil, err
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	comment := MapCommentFromAPI(body)
	return &comment, nil
}

// ListUsers fetches all users. Admin only.
func (a *API) ListUsers() ([]User, error) {
	raw, err := a.do(http.MethodGet, "/api/admin/users", nil)
	if err != nil {
		return nil, err
	}
	return mapUserList(raw)
}

// DeleteUser removes a user account. Admin only.
func (a *API) DeleteUser(id string) error {
	_, err := a.do(http.MethodDelete, "/api/admin/users/"+id, nil)
	return err
}
