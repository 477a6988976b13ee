package task

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the on-disk format of Task.DueDate.
const DateLayout = "2006-01-02"

// DefaultCategory is used when a draft does not name one.
const DefaultCategory = "Personal"

var ErrTitleRequired = errors.New("title is required")

type ID int64

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

func (p Priority) IsValid() bool {
	for _, v := range Priorities() {
		if p == v {
			return true
		}
	}
	return false
}

// ParsePriority accepts any case and surrounding whitespace. Empty input
// yields the default priority.
func ParsePriority(v string) (Priority, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return PriorityMedium, nil
	}
	p := Priority(v)
	if !p.IsValid() {
		return "", errors.New("priority must be low, medium or high")
	}
	return p, nil
}

type Task struct {
	ID              ID        `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DueDate         string    `json:"dueDate,omitempty"`
	Category        string    `json:"category"`
	Priority        Priority  `json:"priority"`
	Completed       bool      `json:"completed"`
	ReminderEnabled bool      `json:"reminderEnabled"`
	CreatedAt       time.Time `json:"createdAt"`
}

// HasDueDate reports whether the task carries a due date at all. The value
// is not checked for validity.
func (t Task) HasDueDate() bool {
	return strings.TrimSpace(t.DueDate) != ""
}

// Due parses DueDate as a calendar date in UTC.
func (t Task) Due() (time.Time, bool) {
	if !t.HasDueDate() {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, strings.TrimSpace(t.DueDate))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Draft is the input to Store.Add. ReminderEnabled is a pointer so an
// omitted value can default to true.
type Draft struct {
	Title           string
	Description     string
	DueDate         string
	Category        string
	Priority        Priority
	ReminderEnabled *bool
}

// ValidateDraft is the check the editing surfaces run before Add. The store
// itself does not call it.
func ValidateDraft(d Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if d.Priority != "" && !d.Priority.IsValid() {
		return errors.New("priority must be low, medium or high")
	}
	if strings.TrimSpace(d.DueDate) != "" {
		if _, err := time.Parse(DateLayout, strings.TrimSpace(d.DueDate)); err != nil {
			return errors.New("due date must be YYYY-MM-DD")
		}
	}
	return nil
}

// Patch is a shallow update. nil fields are left alone; there is no field
// for ID or CreatedAt.
type Patch struct {
	Title           *string   `json:"title,omitempty"`
	Description     *string   `json:"description,omitempty"`
	DueDate         *string   `json:"dueDate,omitempty"`
	Category        *string   `json:"category,omitempty"`
	Priority        *Priority `json:"priority,omitempty"`
	Completed       *bool     `json:"completed,omitempty"`
	ReminderEnabled *bool     `json:"reminderEnabled,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Category == nil && p.Priority == nil && p.Completed == nil && p.ReminderEnabled == nil
}

// Apply returns t with the patch merged in.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.ReminderEnabled != nil {
		t.ReminderEnabled = *p.ReminderEnabled
	}
	return t
}

func StringPtr(v string) *string { return &v }

func BoolPtr(v bool) *bool { return &v }

func PriorityPtr(v Priority) *Priority { return &v }
