package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"mytasks/internal/task"
)

const icsProductID = "-//MyTasks//Task Export//EN"

// WriteICS writes every dated task as an all-day event. Reminder-enabled
// tasks carry a display alarm at the start of the day; nothing in this
// module fires it.
func WriteICS(w io.Writer, tasks []task.Task, now time.Time) error {
	cal := ics.NewCalendar()
	cal.SetProductId(icsProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)

	for _, t := range tasks {
		due, ok := t.Due()
		if !ok {
			continue
		}
		title := strings.TrimSpace(t.Title)
		if title == "" {
			title = "Untitled task"
		}

		event := cal.AddEvent(fmt.Sprintf("task-%d@mytasks", t.ID))
		event.SetDtStampTime(now)
		event.SetSummary(title)
		event.SetAllDayStartAt(due)
		event.SetAllDayEndAt(due.AddDate(0, 0, 1))
		if desc := strings.TrimSpace(t.Description); desc != "" {
			event.SetDescription(normalizeNewlines(desc))
		}
		if t.Category != "" {
			event.AddCategory(t.Category)
		}
		event.SetPriority(icsPriority(t.Priority))
		if t.Completed {
			event.SetStatus(ics.ObjectStatusCompleted)
		}
		if t.ReminderEnabled && !t.Completed {
			alarm := event.AddAlarm()
			alarm.SetAction(ics.ActionDisplay)
			alarm.SetProperty(ics.ComponentPropertyDescription, title)
			alarm.SetTrigger("PT0S")
		}
	}
	return cal.SerializeTo(w, ics.WithNewLineWindows)
}

// icsPriority maps to the iCalendar PRIORITY scale (1 highest, 9 lowest).
func icsPriority(p task.Priority) int {
	switch p {
	case task.PriorityHigh:
		return 1
	case task.PriorityLow:
		return 9
	default:
		return 5
	}
}

func normalizeNewlines(s string) string {
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)
}
