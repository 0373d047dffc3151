package restapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"taskmgr/internal/service"
)

// wireID is a server identifier as sent on the wire: a JSON string, a JSON
// number, or a Mongo extended-JSON object {"$oid": "..."}.
type wireID json.RawMessage

func (id *wireID) UnmarshalJSON(data []byte) error {
	*id = append((*id)[:0], data...)
	return nil
}

// String normalizes the id to its canonical string form; "" when absent.
func (id wireID) String() string {
	raw := bytes.TrimSpace([]byte(id))
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return canonicalNumber(n)
	}
	var oid struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(raw, &oid); err == nil {
		return oid.OID
	}
	return ""
}

// canonicalNumber renders integral numbers in plain decimal so that 3, 3.0
// and 3e0 name the same task.
func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// wireTask is a task as served by the API. Some deployments name the
// identifier "_id"; both map to service.Task.ID.
type wireTask struct {
	ID          wireID           `json:"id"`
	MongoID     wireID           `json:"_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Priority    service.Priority `json:"priority"`
	Status      service.Status   `json:"status"`
}

func (w wireTask) id() string {
	if id := w.ID.String(); id != "" {
		return id
	}
	return w.MongoID.String()
}

func (w wireTask) task() service.Task {
	return service.Task{
		ID:          w.id(),
		Title:       w.Title,
		Description: w.Description,
		Priority:    w.Priority,
		Status:      w.Status,
	}
}

// taskResponse accepts a bare task or one wrapped as {"task": {...}}.
type taskResponse struct {
	wireTask
	Wrapped *wireTask `json:"task"`
}

// task returns the decoded task. knownID fills in a missing id on update
// responses; a create response without an id is invalid.
func (r taskResponse) task(knownID string) (service.Task, error) {
	w := r.wireTask
	if r.Wrapped != nil {
		w = *r.Wrapped
	}
	t := w.task()
	if t.ID == "" {
		if knownID == "" {
			return service.Task{}, errors.New("invalid response: task has no id")
		}
		t.ID = knownID
	}
	return t, nil
}

// taskListResponse accepts {"tasks": [...]} or a bare array.
type taskListResponse struct {
	Tasks []wireTask
}

func (r *taskListResponse) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &r.Tasks)
	}
	var env struct {
		Tasks []wireTask `json:"tasks"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	r.Tasks = env.Tasks
	return nil
}

func (r taskListResponse) tasks() ([]service.Task, error) {
	out := make([]service.Task, 0, len(r.Tasks))
	for _, w := range r.Tasks {
		t := w.task()
		if t.ID == "" {
			return nil, errors.New("invalid response: task has no id")
		}
		out = append(out, t)
	}
	return out, nil
}

type loginResponse struct {
	Token string `json:"token"`
}

type wireUser struct {
	ID      wireID `json:"id"`
	MongoID wireID `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// registerResponse accepts a flat user payload or {"user": {...}}, either
// with an optional "message".
type registerResponse struct {
	wireUser
	User    *wireUser `json:"user"`
	Message string    `json:"message"`
}

func (r registerResponse) account() service.Account {
	u := r.wireUser
	if r.User != nil {
		u = *r.User
	}
	id := u.ID.String()
	if id == "" {
		id = u.MongoID.String()
	}
	return service.Account{ID: id, Name: u.Name, Email: u.Email, Message: r.Message}
}

// errorMessage extracts {"message": ...} or {"error": ...} from an error body.
func errorMessage(data []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(body.Message); msg != "" {
		return msg
	}
	var s string
	if err := json.Unmarshal(body.Error, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}
