// Package view derives the named task lists shown by the UI and CLI.
// Every function here is pure and keeps the store's insertion order.
package view

import (
	"strings"
	"time"

	"mytasks/internal/task"
)

type Kind string

const (
	KindAll       Kind = "all"
	KindCompleted Kind = "completed"
	KindPending   Kind = "pending"
	KindTodo      Kind = "todo"
)

// View is the static presentation text for a named list.
type View struct {
	Kind         Kind
	Title        string
	EmptyMessage string
}

var views = []View{
	{Kind: KindAll, Title: "All Tasks", EmptyMessage: "No tasks available. Enjoy your day!"},
	{Kind: KindCompleted, Title: "Completed Tasks", EmptyMessage: "No completed tasks yet. Keep going!"},
	{Kind: KindPending, Title: "Pending Tasks", EmptyMessage: "No pending tasks. Great job!"},
	{Kind: KindTodo, Title: "To Do Tasks", EmptyMessage: "No tasks to do. Time to relax!"},
}

func Views() []View {
	out := make([]View, len(views))
	copy(out, views)
	return out
}

func Lookup(k Kind) (View, bool) {
	for _, v := range views {
		if v.Kind == k {
			return v, true
		}
	}
	return View{}, false
}

// ParseKind maps user input to a view kind, falling back to all.
func ParseKind(v string) Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := Lookup(k); ok {
		return k
	}
	return KindAll
}

const AllCategories = "All"

func Categories() []string {
	return []string{AllCategories, "Work", "Personal", "Urgent", "Shopping"}
}

// Status and due-window filters from the advanced filter panel.
const (
	StatusAll       = "All"
	StatusCompleted = "Completed"
	StatusPending   = "Pending"
	StatusOverdue   = "Overdue"

	DueAll      = "All"
	DueToday    = "Today"
	DueTomorrow = "Tomorrow"
	DueThisWeek = "This Week"
	DueNextWeek = "Next Week"
)

func Statuses() []string {
	return []string{StatusAll, StatusCompleted, StatusPending, StatusOverdue}
}

func DueWindows() []string {
	return []string{DueAll, DueToday, DueTomorrow, DueThisWeek, DueNextWeek}
}

// Criteria composes every filter. Zero values leave a dimension unfiltered.
type Criteria struct {
	Kind     Kind
	Category string
	Search   string
	Status   string
	Due      string
}

func (c Criteria) Matches(t task.Task, today time.Time) bool {
	return matchKind(c.Kind, t) &&
		matchCategory(c.Category, t) &&
		matchSearch(c.Search, t) &&
		matchStatus(c.Status, t, today) &&
		matchDue(c.Due, t, today)
}

// Apply returns the tasks matching c. today only matters for the Overdue
// status and the due windows.
func Apply(tasks []task.Task, c Criteria, today time.Time) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if c.Matches(t, today) {
			out = append(out, t)
		}
	}
	return out
}

// Filter applies only the named view.
func Filter(tasks []task.Task, k Kind) []task.Task {
	return Apply(tasks, Criteria{Kind: k}, time.Time{})
}

// Recent returns up to n of the most recently added tasks, newest first.
func Recent(tasks []task.Task, n int) []task.Task {
	if n <= 0 {
		return []task.Task{}
	}
	start := len(tasks) - n
	if start < 0 {
		start = 0
	}
	out := make([]task.Task, 0, len(tasks)-start)
	for i := len(tasks) - 1; i >= start; i-- {
		out = append(out, tasks[i])
	}
	return out
}

func matchKind(k Kind, t task.Task) bool {
	switch k {
	case KindCompleted:
		return t.Completed
	case KindPending, KindTodo:
		return !t.Completed
	default:
		return true
	}
}

func matchCategory(category string, t task.Task) bool {
	if category == "" || category == AllCategories {
		return true
	}
	return t.Category == category
}

func matchSearch(q string, t task.Task) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

func matchStatus(status string, t task.Task, today time.Time) bool {
	switch status {
	case StatusCompleted:
		return t.Completed
	case StatusPending:
		return !t.Completed
	case StatusOverdue:
		if t.Completed {
			return false
		}
		due, ok := t.Due()
		return ok && due.Before(dayOf(today))
	default:
		return true
	}
}

func matchDue(window string, t task.Task, today time.Time) bool {
	if window == "" || window == DueAll {
		return true
	}
	due, ok := t.Due()
	if !ok {
		return false
	}
	offset := int(due.Sub(dayOf(today)).Hours() / 24)
	switch window {
	case DueToday:
		return offset == 0
	case DueTomorrow:
		return offset == 1
	case DueThisWeek:
		return offset >= 0 && offset <= 6
	case DueNextWeek:
		return offset >= 7 && offset <= 13
	default:
		return true
	}
}

// dayOf truncates t to its civil date expressed as UTC midnight, the same
// representation task.Task.Due uses.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
