package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mytasks/internal/task"
)

func mustDay(t *testing.T, s string) Day {
	t.Helper()
	d, err := ParseDay(s)
	require.NoError(t, err)
	return d
}

func titles(tasks []task.Task) []string {
	out := []string{}
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestDayOfIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2025, 3, 10, 23, 59, 0, 0, time.FixedZone("UTC-8", -8*3600))
	assert.Equal(t, Day{2025, time.March, 10}, DayOf(late))
	assert.Equal(t, "2025-03-10", DayOf(late).String())
	assert.Equal(t, Day{2025, time.March, 1}, Day{2025, time.February, 28}.AddDays(1))
	_, err := ParseDay("03/10/2025")
	assert.Error(t, err)
}

func TestOnDateAndCounts(t *testing.T) {
	tasks := []task.Task{
		{ID: 1, Title: "a", DueDate: "2025-03-10"},
		{ID: 2, Title: "b", DueDate: "2025-03-10", Completed: true},
		{ID: 3, Title: "c", DueDate: "2025-03-11", Completed: true},
		{ID: 4, Title: "undated"},
		{ID: 5, Title: "garbage", DueDate: "soon"},
	}
	a := New(tasks)
	d10 := mustDay(t, "2025-03-10")
	d11 := mustDay(t, "2025-03-11")

	assert.Equal(t, []string{"a", "b"}, titles(a.OnDate(d10)))
	assert.Equal(t, 2, a.CountOnDate(d10))
	assert.Equal(t, 1, a.CompletedCountOnDate(d10))
	assert.Equal(t, MarkPending, a.Mark(d10))
	assert.Equal(t, MarkComplete, a.Mark(d11))
	assert.Equal(t, MarkNone, a.Mark(d11.AddDays(1)))
	assert.Empty(t, a.OnDate(Day{}))
}

func TestOverdue(t *testing.T) {
	today := mustDay(t, "2025-03-10")
	tasks := []task.Task{
		{ID: 1, Title: "two days late", DueDate: "2025-03-08"},
		{ID: 2, Title: "due today", DueDate: "2025-03-10"},
		{ID: 3, Title: "done late", DueDate: "2025-03-01", Completed: true},
		{ID: 4, Title: "undated"},
	}
	assert.Equal(t, []string{"two days late"}, titles(New(tasks).Overdue(today)))

	tasks[0].Completed = true
	assert.Empty(t, New(tasks).Overdue(today))
}

func TestUpcoming(t *testing.T) {
	today := mustDay(t, "2025-03-10")
	tasks := []task.Task{
		{ID: 1, Title: "today", DueDate: "2025-03-10"},
		{ID: 2, Title: "in five", DueDate: "2025-03-15"},
		{ID: 3, Title: "in seven", DueDate: "2025-03-17"},
		{ID: 4, Title: "in eight", DueDate: "2025-03-18"},
		{ID: 5, Title: "tomorrow", DueDate: "2025-03-11"},
		{ID: 6, Title: "done tomorrow", DueDate: "2025-03-11", Completed: true},
		{ID: 7, Title: "also tomorrow", DueDate: "2025-03-11"},
		{ID: 8, Title: "undated"},
	}
	a := New(tasks)

	assert.Equal(t, []string{"tomorrow", "also tomorrow", "in five", "in seven"}, titles(a.Upcoming(today, 7, 0)))
	assert.Equal(t, []string{"tomorrow", "also tomorrow"}, titles(a.Upcoming(today, 7, 2)))
	assert.Empty(t, a.Upcoming(today, 0, 5))
}

func TestMonthGrid(t *testing.T) {
	a := New([]task.Task{
		{ID: 1, DueDate: "2025-03-10"},
		{ID: 2, DueDate: "2025-03-10", Completed: true},
	})

	// March 2025 starts on a Saturday.
	cells := a.Month(2025, time.March)
	require.Len(t, cells, 6+31)
	for i := 0; i < 6; i++ {
		assert.True(t, cells[i].Blank)
	}
	tenth := cells[6+9]
	assert.Equal(t, Day{2025, time.March, 10}, tenth.Day)
	assert.Equal(t, 2, tenth.Count)
	assert.Equal(t, 1, tenth.Completed)
	assert.Equal(t, MarkPending, tenth.Mark)

	feb := a.Month(2024, time.February)
	assert.Len(t, feb, 4+29)
}

func TestWriteICS(t *testing.T) {
	tasks := []task.Task{
		{ID: 1, Title: "Team Meeting, weekly", Description: "line1\nline2", DueDate: "2024-12-25", Category: "Work", Priority: task.PriorityHigh, ReminderEnabled: true},
		{ID: 2, Title: "Done", DueDate: "2024-12-22", Completed: true, ReminderEnabled: true},
		{ID: 3, Title: "Undated"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, tasks, time.Date(2024, 12, 1, 8, 0, 0, 0, time.UTC)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:Team Meeting\\, weekly")
	assert.Contains(t, out, "DESCRIPTION:line1\\nline2")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20241225")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20241226")
	assert.Contains(t, out, "PRIORITY:1")
	assert.Contains(t, out, "STATUS:COMPLETED")
	assert.Contains(t, out, "DTSTAMP:20241201T080000Z")
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VALARM"))
	assert.NotContains(t, out, "Undated")
}

func TestWriteICSFoldsLongLines(t *testing.T) {
	long := strings.Repeat("Long title ", 20)
	tasks := []task.Task{
		{ID: 1, Title: long, Description: strings.Repeat("détails ", 30), DueDate: "2024-12-25", ReminderEnabled: true},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, tasks, time.Date(2024, 12, 1, 8, 0, 0, 0, time.UTC)))
	out := buf.String()

	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 75, line)
		assert.NotContains(t, line, "\n")
	}

	// Unfolding restores the summary.
	unfolded := strings.ReplaceAll(out, "\r\n ", "")
	assert.Contains(t, unfolded, "SUMMARY:"+strings.TrimSpace(long)+"\r\n")
	assert.Contains(t, unfolded, "DESCRIPTION:"+strings.TrimSpace(strings.Repeat("détails ", 30))+"\r\n")
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VALARM"))
}
