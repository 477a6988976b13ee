package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mytasks/internal/notify"
	"mytasks/internal/task"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldDue
	fieldCategory
	fieldPriority
	fieldReminder
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldTitle:       "title",
	fieldDescription: "description",
	fieldDue:         "due date (YYYY-MM-DD)",
	fieldCategory:    "category",
	fieldPriority:    "priority (low/medium/high)",
	fieldReminder:    "reminder (y/n)",
}

// editForm holds the in-progress values of the task being edited.
type editForm struct {
	taskID task.ID
	values [fieldCount]string
	field  formField
}

func newEditForm(t task.Task) *editForm {
	return &editForm{
		taskID: t.ID,
		values: [fieldCount]string{
			fieldTitle:       t.Title,
			fieldDescription: t.Description,
			fieldDue:         t.DueDate,
			fieldCategory:    t.Category,
			fieldPriority:    string(t.Priority),
			fieldReminder:    yesNo(t.ReminderEnabled),
		},
	}
}

func (f *editForm) label() string { return fieldLabels[f.field] }

func (f *editForm) value() string { return f.values[f.field] }

func (f *editForm) last() bool { return f.field == fieldCount-1 }

// move shifts the focused field by delta, wrapping at both ends.
func (f *editForm) move(delta int) {
	n := int(fieldCount)
	f.field = formField(((int(f.field)+delta)%n + n) % n)
}

func (f *editForm) render() string {
	var b strings.Builder
	for i, label := range fieldLabels {
		marker := " "
		if formField(i) == f.field {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %-26s : %s\n", marker, label, emptyPlaceholder(f.values[i]))
	}
	return b.String()
}

// patch validates the form and builds a full update for the task.
func (f *editForm) patch() (task.Patch, error) {
	title := strings.TrimSpace(f.values[fieldTitle])
	if title == "" {
		return task.Patch{}, task.ErrTitleRequired
	}
	priority, err := task.ParsePriority(f.values[fieldPriority])
	if err != nil {
		return task.Patch{}, fmt.Errorf("priority invalid: %w", err)
	}
	due := strings.TrimSpace(f.values[fieldDue])
	if due != "" {
		if _, err := time.Parse(task.DateLayout, due); err != nil {
			return task.Patch{}, errors.New("due date invalid: use YYYY-MM-DD")
		}
	}
	category := strings.TrimSpace(f.values[fieldCategory])
	if category == "" {
		category = task.DefaultCategory
	}
	return task.Patch{
		Title:           &title,
		Description:     task.StringPtr(f.values[fieldDescription]),
		DueDate:         &due,
		Category:        &category,
		Priority:        &priority,
		ReminderEnabled: task.BoolPtr(parseYesNo(f.values[fieldReminder])),
	}, nil
}

func (m Model) startEdit(t task.Task) (tea.Model, tea.Cmd) {
	m.form = newEditForm(t)
	m.mode = modeEdit
	m.showField()
	m.input.Focus()
	m.status = "Edit task: tab to move, enter to save/next, esc to cancel"
	return m, nil
}

// showField loads the focused field into the text input.
func (m *Model) showField() {
	m.input.SetValue(m.form.value())
	m.input.Placeholder = m.form.label()
	m.status = fmt.Sprintf("Editing %s (field %d of %d)", m.form.label(), m.form.field+1, fieldCount)
}

func (m Model) updateEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.form = nil
		m.mode = modeList
		m.input.Blur()
		m.status = "Edit cancelled"
		return m, nil
	case "tab", "down", "shift+tab", "up":
		m.form.values[m.form.field] = m.input.Value()
		if key == "tab" || key == "down" {
			m.form.move(1)
		} else {
			m.form.move(-1)
		}
		m.showField()
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.form.values[m.form.field] = m.input.Value()
		if m.form.last() {
			return m.saveEdit()
		}
		m.form.move(1)
		m.showField()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) saveEdit() (tea.Model, tea.Cmd) {
	p, err := m.form.patch()
	if err != nil {
		msg := err.Error()
		if errors.Is(err, task.ErrTitleRequired) {
			msg = "Title cannot be empty"
		}
		m.setStatus(notify.Warn, msg)
		return m, nil
	}
	id := m.form.taskID
	err = m.store.Update(id, p)
	m.form = nil
	m.mode = modeList
	m.input.Blur()
	m.refresh()
	m.selectID(id)
	if err != nil {
		m.setStatus(notify.Error, failure("save", err))
		return m, nil
	}
	m.setStatus(notify.Success, "Task updated successfully")
	return m, nil
}

func parseYesNo(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", "true", "1":
		return true
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
