package postgres

import (
	"time"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

var columns = map[string]string{
	repository.AttrTitle:       "title",
	repository.AttrDescription: "description",
	repository.AttrStatus:      "status",
	repository.AttrPriority:    "priority",
	repository.AttrDueDate:     "due_date",
	repository.AttrUpdatedAt:   "updated_at",
}

// columnValue converts an item attribute into the value bound for its column.
func columnValue(attr repository.Attribute) interface{} {
	if attr.Value == nil {
		return nil
	}
	switch attr.Name {
	case repository.AttrDueDate, repository.AttrUpdatedAt:
		t, _ := domain.ParseDate(*attr.Value)
		return t
	}
	return *attr.Value
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
