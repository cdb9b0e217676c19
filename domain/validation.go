package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 1000
)

// RawTask is an unvalidated request body: top-level keys mapped to raw JSON.
// Nothing downstream of the validators accepts it.
type RawTask map[string]json.RawMessage

// ParseRawTask decodes a request body. An empty body is an empty object;
// anything that is not a JSON object is rejected.
func ParseRawTask(body []byte) (RawTask, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return RawTask{}, nil
	}
	var raw RawTask
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, ErrInvalidPayload
	}
	return raw, nil
}

var (
	validate = newValidator()

	titleRules       = fmt.Sprintf("min=1,max=%d", maxTitleLength)
	descriptionRules = fmt.Sprintf("max=%d", maxDescriptionLength)
	statusRules      = "oneof=" + joinEnum(Statuses)
	priorityRules    = "oneof=" + joinEnum(Priorities)
	userIDRules      = "min=1"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, ok := ParseDate(fl.Field().String())
		return ok
	})
	return v
}

// ValidateCreate checks a create payload and applies defaults. All violations
// are collected before returning.
func ValidateCreate(raw RawTask) (NewTask, error) {
	c := collector{raw: raw}
	out := NewTask{
		UserID:   DefaultUserID,
		Status:   StatusPending,
		Priority: PriorityMedium,
	}

	if title := c.str("title", titleRules, true); title != nil {
		out.Title = *title
	}
	if desc := c.str("description", descriptionRules, false); desc != nil {
		out.Description = *desc
	}
	if status := c.str("status", statusRules, false); status != nil {
		out.Status = Status(*status)
	}
	if priority := c.str("priority", priorityRules, false); priority != nil {
		out.Priority = Priority(*priority)
	}
	if due, ok := c.date("dueDate"); ok {
		out.DueDate = due
	}
	if userID := c.str("userId", userIDRules, false); userID != nil {
		out.UserID = *userID
	}

	if err := c.err(); err != nil {
		return NewTask{}, err
	}
	return out, nil
}

// ValidateUpdate checks a partial update. Every field is optional and unknown
// fields are ignored, so a payload with no recognized field yields empty changes.
func ValidateUpdate(raw RawTask) (TaskChanges, error) {
	c := collector{raw: raw}
	var out TaskChanges

	out.Title = c.str("title", titleRules, false)
	out.Description = c.str("description", descriptionRules, false)
	if status := c.str("status", statusRules, false); status != nil {
		s := Status(*status)
		out.Status = &s
	}
	if priority := c.str("priority", priorityRules, false); priority != nil {
		p := Priority(*priority)
		out.Priority = &p
	}
	out.DueDate, out.DueDateSet = c.date("dueDate")

	if err := c.err(); err != nil {
		return TaskChanges{}, err
	}
	return out, nil
}

type collector struct {
	raw        RawTask
	violations []FieldViolation
}

func (c *collector) add(field, message string, value any) {
	c.violations = append(c.violations, FieldViolation{Field: field, Message: message, Value: value})
}

func (c *collector) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return NewValidationError(c.violations...)
}

// str returns the trimmed value of a string field, or nil when it is absent or invalid.
func (c *collector) str(field, rules string, required bool) *string {
	raw, ok := c.raw[field]
	if !ok {
		if required {
			c.add(field, field+" is required", nil)
		}
		return nil
	}

	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		c.add(field, field+" must be a string", decodeAny(raw))
		return nil
	}

	s = strings.TrimSpace(s)
	if err := validate.Var(s, rules); err != nil {
		c.add(field, describe(field, s, err), s)
		return nil
	}
	return &s
}

// date reports the parsed value and whether the field was supplied validly.
// An explicit null is supplied with a nil value.
func (c *collector) date(field string) (*time.Time, bool) {
	raw, ok := c.raw[field]
	if !ok {
		return nil, false
	}
	if isNull(raw) {
		return nil, true
	}

	var s string
	if json.Unmarshal(raw, &s) != nil || validate.Var(s, "isodate") != nil {
		c.add(field, field+" must be in ISO 8601 date format", decodeAny(raw))
		return nil, false
	}

	t, _ := ParseDate(s)
	return &t, true
}

func describe(field, value string, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return field + " is invalid"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "min":
		if value == "" {
			return field + " is not allowed to be empty"
		}
		return fmt.Sprintf("%s length must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s length must be less than or equal to %s characters long", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return field + " is invalid"
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeAny(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, " ")
}
