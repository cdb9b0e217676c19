package repository

import (
	"time"

	"github.com/fastygo/tasks/domain"
)

// Attribute names of the stored item.
const (
	AttrID          = "id"
	AttrUserID      = "userId"
	AttrTitle       = "title"
	AttrDescription = "description"
	AttrStatus      = "status"
	AttrPriority    = "priority"
	AttrDueDate     = "dueDate"
	AttrCreatedAt   = "createdAt"
	AttrUpdatedAt   = "updatedAt"
)

// Item is the storage representation of a task. Every attribute is a string;
// timestamps use domain.TimeLayout so they sort lexically.
type Item struct {
	ID          string  `json:"id" dynamodbav:"id"`
	UserID      string  `json:"userId" dynamodbav:"userId"`
	Title       string  `json:"title" dynamodbav:"title"`
	Description string  `json:"description" dynamodbav:"description"`
	Status      string  `json:"status" dynamodbav:"status"`
	Priority    string  `json:"priority" dynamodbav:"priority"`
	DueDate     *string `json:"dueDate,omitempty" dynamodbav:"dueDate,omitempty"`
	CreatedAt   string  `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   string  `json:"updatedAt" dynamodbav:"updatedAt"`
}

// ToItem converts a task into its storage item.
func ToItem(t *domain.Task) Item {
	item := Item{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   domain.FormatTime(t.CreatedAt),
		UpdatedAt:   domain.FormatTime(t.UpdatedAt),
	}
	if t.DueDate != nil {
		due := domain.FormatTime(*t.DueDate)
		item.DueDate = &due
	}
	return item
}

// FromItem converts a stored item back into a task. Items are only written by
// ToItem, so malformed timestamps are not expected and decode as zero values.
func FromItem(item Item) *domain.Task {
	t := &domain.Task{
		ID:          item.ID,
		UserID:      item.UserID,
		Title:       item.Title,
		Description: item.Description,
		Status:      domain.Status(item.Status),
		Priority:    domain.Priority(item.Priority),
		CreatedAt:   parseTime(item.CreatedAt),
		UpdatedAt:   parseTime(item.UpdatedAt),
	}
	if item.DueDate != nil {
		due := parseTime(*item.DueDate)
		t.DueDate = &due
	}
	return t
}

// Attribute is one named item value written by an update. A nil Value removes it.
type Attribute struct {
	Name  string
	Value *string
}

// UpdateAttributes lists the attributes an update writes, in a stable order,
// always ending with updatedAt.
func UpdateAttributes(changes domain.TaskChanges, updatedAt time.Time) []Attribute {
	attrs := make([]Attribute, 0, 6)
	if changes.Title != nil {
		attrs = append(attrs, Attribute{Name: AttrTitle, Value: changes.Title})
	}
	if changes.Description != nil {
		attrs = append(attrs, Attribute{Name: AttrDescription, Value: changes.Description})
	}
	if changes.Status != nil {
		attrs = append(attrs, Attribute{Name: AttrStatus, Value: strPtr(string(*changes.Status))})
	}
	if changes.Priority != nil {
		attrs = append(attrs, Attribute{Name: AttrPriority, Value: strPtr(string(*changes.Priority))})
	}
	if changes.DueDateSet {
		var due *string
		if changes.DueDate != nil {
			due = strPtr(domain.FormatTime(*changes.DueDate))
		}
		attrs = append(attrs, Attribute{Name: AttrDueDate, Value: due})
	}
	return append(attrs, Attribute{Name: AttrUpdatedAt, Value: strPtr(domain.FormatTime(updatedAt))})
}

// Apply writes attrs onto the item. Unknown names are ignored.
func (i *Item) Apply(attrs []Attribute) {
	for _, attr := range attrs {
		if attr.Name == AttrDueDate {
			i.DueDate = attr.Value
			continue
		}
		if attr.Value == nil {
			continue
		}
		switch attr.Name {
		case AttrTitle:
			i.Title = *attr.Value
		case AttrDescription:
			i.Description = *attr.Value
		case AttrStatus:
			i.Status = *attr.Value
		case AttrPriority:
			i.Priority = *attr.Value
		case AttrUpdatedAt:
			i.UpdatedAt = *attr.Value
		}
	}
}

// IndexKey orders a user's items by insertion; ties are broken by id.
func (i Item) IndexKey() string {
	return i.CreatedAt + "#" + i.ID
}

// FilterItems keeps the tasks matching filter, preserving order.
func FilterItems(items []Item, filter domain.TaskFilter) []domain.Task {
	tasks := make([]domain.Task, 0, len(items))
	for _, item := range items {
		task := FromItem(item)
		if filter.Match(task) {
			tasks = append(tasks, *task)
		}
	}
	return tasks
}

func parseTime(value string) time.Time {
	t, err := time.Parse(domain.TimeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func strPtr(s string) *string {
	return &s
}
