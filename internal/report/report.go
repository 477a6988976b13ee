// Package report exports the task collection and its performance metrics as
// an Excel workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"mytasks/internal/performance"
	"mytasks/internal/task"
)

const (
	TasksSheet   = "Tasks"
	MetricsSheet = "Metrics"
)

type column struct {
	header string
	width  float64
	value  func(task.Task) interface{}
}

var taskColumns = []column{
	{"ID", 8, func(t task.Task) interface{} { return int64(t.ID) }},
	{"Title", 32, func(t task.Task) interface{} { return t.Title }},
	{"Description", 40, func(t task.Task) interface{} { return t.Description }},
	{"Due Date", 12, func(t task.Task) interface{} { return t.DueDate }},
	{"Category", 12, func(t task.Task) interface{} { return t.Category }},
	{"Priority", 10, func(t task.Task) interface{} { return string(t.Priority) }},
	{"Status", 12, func(t task.Task) interface{} { return status(t) }},
	{"Reminder", 10, func(t task.Task) interface{} { return yesNo(t.ReminderEnabled) }},
	{"Created", 22, func(t task.Task) interface{} { return t.CreatedAt.UTC().Format(time.RFC3339) }},
}

// WriteWorkbook writes a workbook with one row per task and a metrics sheet
// computed at now.
func WriteWorkbook(w io.Writer, tasks []task.Task, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4F46E5"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", TasksSheet); err != nil {
		return err
	}
	if err := writeTasks(f, header, tasks); err != nil {
		return fmt.Errorf("write tasks sheet: %w", err)
	}
	if _, err := f.NewSheet(MetricsSheet); err != nil {
		return err
	}
	if err := writeMetrics(f, header, tasks, now); err != nil {
		return fmt.Errorf("write metrics sheet: %w", err)
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeTasks(f *excelize.File, header int, tasks []task.Task) error {
	sw, err := f.NewStreamWriter(TasksSheet)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(taskColumns))
	for i, col := range taskColumns {
		if err := sw.SetColWidth(i+1, i+1, col.width); err != nil {
			return err
		}
		row[i] = excelize.Cell{StyleID: header, Value: col.header}
	}
	if err := sw.SetRow("A1", row); err != nil {
		return err
	}
	for r, t := range tasks {
		row := make([]interface{}, len(taskColumns))
		for i, col := range taskColumns {
			row[i] = col.value(t)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeMetrics(f *excelize.File, header int, tasks []task.Task, now time.Time) error {
	r := performance.Compute(tasks, now)
	labels := performance.Insights(r)

	sw, err := f.NewStreamWriter(MetricsSheet)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 1, 20); err != nil {
		return err
	}
	if err := sw.SetColWidth(2, 3, 14); err != nil {
		return err
	}

	rows := [][]interface{}{
		{excelize.Cell{StyleID: header, Value: "Metric"}, excelize.Cell{StyleID: header, Value: "Value"}},
		{"Total", r.Total},
		{"Completed", r.Completed},
		{"Pending", r.Pending},
		{"Completion Rate", r.CompletionRate},
		{"On-time Rate", r.OnTimeRate},
		{"On-time Tasks", r.OnTimeTasks},
		{"Delayed Tasks", r.DelayedTasks},
		{"Loyalty Score", r.LoyaltyScore},
		{"Productivity", labels.Productivity},
		{"Punctuality", labels.Punctuality},
		{"Consistency", labels.Consistency},
		{},
		{
			excelize.Cell{StyleID: header, Value: "Day"},
			excelize.Cell{StyleID: header, Value: "Completed"},
			excelize.Cell{StyleID: header, Value: "Delayed"},
		},
	}
	for _, d := range performance.Weekly(tasks) {
		rows = append(rows, []interface{}{d.Day, d.Completed, d.Delayed})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func status(t task.Task) string {
	if t.Completed {
		return "Completed"
	}
	return "Pending"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
