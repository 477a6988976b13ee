// Package calendar answers date-indexed questions over a task collection.
//
// All comparisons use civil dates (Day), never instants, so a task due
// "2025-03-10" is due on that day whatever the caller's time zone.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"mytasks/internal/task"
)

// Day is a calendar date without a time of day.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf takes the civil date of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(task.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t), nil
}

func (d Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Day) String() string {
	return d.Time().Format(task.DateLayout)
}

func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

func (d Day) Before(o Day) bool { return d.Time().Before(o.Time()) }

func (d Day) After(o Day) bool { return d.Time().After(o.Time()) }

func (d Day) IsZero() bool { return d == Day{} }

func (d Day) Weekday() time.Weekday { return d.Time().Weekday() }

// Mark summarises a day cell.
type Mark int

const (
	MarkNone Mark = iota
	MarkPending
	MarkComplete
)

func (m Mark) String() string {
	switch m {
	case MarkPending:
		return "pending"
	case MarkComplete:
		return "complete"
	default:
		return "none"
	}
}

type entry struct {
	task task.Task
	due  Day
}

// Aggregator buckets a snapshot of tasks by due date. Tasks without a
// parseable due date are dropped at construction.
type Aggregator struct {
	dated []entry
}

func New(tasks []task.Task) Aggregator {
	a := Aggregator{dated: make([]entry, 0, len(tasks))}
	for _, t := range tasks {
		due, ok := t.Due()
		if !ok {
			continue
		}
		a.dated = append(a.dated, entry{task: t, due: DayOf(due)})
	}
	return a
}

func (a Aggregator) OnDate(d Day) []task.Task {
	out := []task.Task{}
	for _, e := range a.dated {
		if e.due == d {
			out = append(out, e.task)
		}
	}
	return out
}

func (a Aggregator) CountOnDate(d Day) int {
	n := 0
	for _, e := range a.dated {
		if e.due == d {
			n++
		}
	}
	return n
}

func (a Aggregator) CompletedCountOnDate(d Day) int {
	n := 0
	for _, e := range a.dated {
		if e.due == d && e.task.Completed {
			n++
		}
	}
	return n
}

func (a Aggregator) Mark(d Day) Mark {
	total := a.CountOnDate(d)
	if total == 0 {
		return MarkNone
	}
	if a.CompletedCountOnDate(d) == total {
		return MarkComplete
	}
	return MarkPending
}

// Overdue lists pending tasks due strictly before today.
func (a Aggregator) Overdue(today Day) []task.Task {
	out := []task.Task{}
	for _, e := range a.dated {
		if !e.task.Completed && e.due.Before(today) {
			out = append(out, e.task)
		}
	}
	return out
}

// Upcoming lists pending tasks due after today and at most horizonDays
// ahead, soonest first. A limit of zero or less returns them all.
func (a Aggregator) Upcoming(today Day, horizonDays, limit int) []task.Task {
	end := today.AddDays(horizonDays)
	matched := []entry{}
	for _, e := range a.dated {
		if e.task.Completed {
			continue
		}
		if e.due.After(today) && !e.due.After(end) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].due.Before(matched[j].due)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]task.Task, 0, len(matched))
	for _, e := range matched {
		out = append(out, e.task)
	}
	return out
}

// Cell is one slot of a month grid. Blank cells pad the first week.
type Cell struct {
	Blank     bool
	Day       Day
	Count     int
	Completed int
	Mark      Mark
}

// Month lays out a Sunday-first month grid with leading blanks for the
// weekday of the 1st.
func (a Aggregator) Month(year int, month time.Month) []Cell {
	first := Day{Year: year, Month: month, Day: 1}
	lead := int(first.Weekday())
	days := first.Time().AddDate(0, 1, -1).Day()

	cells := make([]Cell, 0, lead+days)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for i := 1; i <= days; i++ {
		d := Day{Year: year, Month: month, Day: i}
		cells = append(cells, Cell{
			Day:       d,
			Count:     a.CountOnDate(d),
			Completed: a.CompletedCountOnDate(d),
			Mark:      a.Mark(d),
		})
	}
	return cells
}
