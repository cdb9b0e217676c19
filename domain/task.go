package domain

import "time"

// DefaultUserID is the placeholder identity every request acts as.
const DefaultUserID = "default-user"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists the accepted status values in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task represents a unit of work owned by a user.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// NewTask is the normalized result of create validation. Defaults are applied
// and strings are trimmed.
type NewTask struct {
	UserID      string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
}

// Build turns validated input into a task ready for its first write.
func (n NewTask) Build(id string, now time.Time) *Task {
	return &Task{
		ID:          id,
		UserID:      n.UserID,
		Title:       n.Title,
		Description: n.Description,
		Status:      n.Status,
		Priority:    n.Priority,
		DueDate:     n.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TaskChanges is the normalized result of update validation. Nil fields were
// not supplied. DueDateSet distinguishes an explicit null from an absent field.
type TaskChanges struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *time.Time
	DueDateSet  bool
}

// IsEmpty reports whether no recognized field was supplied.
func (c TaskChanges) IsEmpty() bool {
	return c.Title == nil &&
		c.Description == nil &&
		c.Status == nil &&
		c.Priority == nil &&
		!c.DueDateSet
}

// Apply copies the supplied fields onto t and refreshes UpdatedAt.
func (c TaskChanges) Apply(t *Task, now time.Time) {
	if t == nil {
		return
	}
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.Status != nil {
		t.Status = *c.Status
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.DueDateSet {
		t.DueDate = c.DueDate
	}
	t.UpdatedAt = now
}

// TaskFilter narrows a per-user listing. Empty fields match everything.
type TaskFilter struct {
	Status   Status   `json:"status,omitempty"`
	Priority Priority `json:"priority,omitempty"`
}

func (f TaskFilter) Match(t *Task) bool {
	if t == nil {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	return true
}
