package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasks/domain"
)

func sampleTask() *domain.Task {
	created := time.Date(2025, 4, 1, 8, 30, 0, 125_000_000, time.UTC)
	due := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:          "3f1c",
		UserID:      domain.DefaultUserID,
		Title:       "Buy milk",
		Description: "two litres",
		Status:      domain.StatusInProgress,
		Priority:    domain.PriorityHigh,
		DueDate:     &due,
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Minute),
	}
}

func TestItemRoundTrip(t *testing.T) {
	task := sampleTask()
	assert.Equal(t, task, FromItem(ToItem(task)))

	task.DueDate = nil
	task.Description = ""
	assert.Equal(t, task, FromItem(ToItem(task)))
}

func TestToItemLayout(t *testing.T) {
	item := ToItem(sampleTask())

	assert.Equal(t, "2025-04-01T08:30:00.125Z", item.CreatedAt)
	assert.Equal(t, "2025-04-01T08:31:00.125Z", item.UpdatedAt)
	require.NotNil(t, item.DueDate)
	assert.Equal(t, "2025-04-10T00:00:00.000Z", *item.DueDate)
	assert.Equal(t, "in-progress", item.Status)
	assert.Equal(t, "high", item.Priority)
}

func TestUpdateAttributes(t *testing.T) {
	title := "renamed"
	status := domain.StatusCompleted
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	attrs := UpdateAttributes(domain.TaskChanges{Title: &title, Status: &status, DueDateSet: true}, now)

	names := make([]string, 0, len(attrs))
	for _, a := range attrs {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{AttrTitle, AttrStatus, AttrDueDate, AttrUpdatedAt}, names)
	assert.Nil(t, attrs[2].Value)
	assert.Equal(t, "2025-05-01T00:00:00.000Z", *attrs[3].Value)
}

func TestItemApply(t *testing.T) {
	item := ToItem(sampleTask())
	priority := domain.PriorityLow
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	item.Apply(UpdateAttributes(domain.TaskChanges{Priority: &priority, DueDateSet: true}, now))

	assert.Equal(t, "low", item.Priority)
	assert.Nil(t, item.DueDate)
	assert.Equal(t, "Buy milk", item.Title)
	assert.Equal(t, "2025-04-01T08:30:00.125Z", item.CreatedAt)
	assert.Equal(t, "2025-05-01T00:00:00.000Z", item.UpdatedAt)
}

func TestFilterItems(t *testing.T) {
	a := sampleTask()
	b := sampleTask()
	b.ID = "b"
	b.Status = domain.StatusCompleted
	c := sampleTask()
	c.ID = "c"
	c.Status = domain.StatusCompleted
	c.Priority = domain.PriorityLow

	items := []Item{ToItem(a), ToItem(b), ToItem(c)}

	got := FilterItems(items, domain.TaskFilter{Status: domain.StatusCompleted, Priority: domain.PriorityHigh})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	assert.Len(t, FilterItems(items, domain.TaskFilter{}), 3)
	assert.NotNil(t, FilterItems(nil, domain.TaskFilter{}))
}
