// Package performance computes the dashboard metrics for a task
// collection. Every function is pure in its inputs; nothing is cached.
//
// The on-time rule compares a task's due date with the moment of
// measurement, not with when the task was completed, so old completed tasks
// drift from on time to delayed as now advances. That is the rule the
// dashboard has always used and it is kept as is.
package performance

import (
	"math"
	"time"

	"mytasks/internal/task"
)

// Report field names are the ones the presentation layer binds to.
type Report struct {
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	Total          int `json:"total"`
	CompletionRate int `json:"completionRate"`
	OnTimeRate     int `json:"onTimeRate"`
	DelayedTasks   int `json:"delayedTasks"`
	LoyaltyScore   int `json:"loyaltyScore"`
	OnTimeTasks    int `json:"onTimeTasks"`
}

func Compute(tasks []task.Task, now time.Time) Report {
	var r Report
	r.Total = len(tasks)
	for _, t := range tasks {
		if !t.Completed {
			r.Pending++
			continue
		}
		r.Completed++
		if OnTime(t, now) {
			r.OnTimeTasks++
		}
	}

	completionRate := percent(r.Completed, r.Total)
	onTimeRate := percent(r.OnTimeTasks, r.Completed)

	r.CompletionRate = round(completionRate)
	r.OnTimeRate = round(onTimeRate)
	r.DelayedTasks = r.Completed - r.OnTimeTasks
	r.LoyaltyScore = min(100, round((completionRate+onTimeRate)/2))
	return r
}

// OnTime classifies a completed task. Undated tasks are always on time; a
// due date counts as its UTC midnight and is on time when it is not before
// now or lies within one day of now. Unparseable due dates are late.
func OnTime(t task.Task, now time.Time) bool {
	if !t.HasDueDate() {
		return true
	}
	due, ok := t.Due()
	if !ok {
		return false
	}
	if !due.Before(now) {
		return true
	}
	return math.Abs(due.Sub(now).Hours()/24) <= 1
}

func percent(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) / float64(of) * 100
}

// round is half-up, matching how the dashboard has always displayed rates.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Labels are the qualitative insight texts for a report.
type Labels struct {
	Productivity string `json:"productivity"`
	Punctuality  string `json:"punctuality"`
	Consistency  string `json:"consistency"`
}

func Insights(r Report) Labels {
	var l Labels
	switch {
	case r.CompletionRate >= 80:
		l.Productivity = "Excellent"
	case r.CompletionRate >= 60:
		l.Productivity = "Good"
	default:
		l.Productivity = "Needs Improvement"
	}
	switch {
	case r.OnTimeRate >= 90:
		l.Punctuality = "Always on time"
	case r.OnTimeRate >= 70:
		l.Punctuality = "Usually on time"
	default:
		l.Punctuality = "Often delayed"
	}
	switch {
	case r.LoyaltyScore >= 85:
		l.Consistency = "Very Consistent"
	case r.LoyaltyScore >= 70:
		l.Consistency = "Consistent"
	default:
		l.Consistency = "Inconsistent"
	}
	return l
}

func Recommendations(r Report) []string {
	out := []string{}
	if r.CompletionRate < 70 {
		out = append(out, "Focus on completing pending tasks to improve completion rate")
	}
	if r.OnTimeRate < 80 {
		out = append(out, "Set realistic deadlines and prioritize time-sensitive tasks")
	}
	if r.DelayedTasks > 3 {
		out = append(out, "Review and adjust your task planning strategy")
	}
	return append(out,
		"Break large tasks into smaller, manageable steps",
		"Use reminders for important deadlines",
		"Review your performance weekly to track improvements",
	)
}
