package performance

import (
	"time"

	"mytasks/internal/task"
)

type DayTrend struct {
	Day       string `json:"day"`
	Completed int    `json:"completed"`
	Delayed   int    `json:"delayed"`
}

var weekdays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Weekly buckets completed, dated tasks by the weekday of their due date,
// Monday first. A task counts as completed on time when it was created no
// later than its due date, otherwise as delayed.
func Weekly(tasks []task.Task) [7]DayTrend {
	var out [7]DayTrend
	for i, name := range weekdays {
		out[i].Day = name
	}
	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		due, ok := t.Due()
		if !ok {
			continue
		}
		i := (int(due.Weekday()) + 6) % 7
		if !t.CreatedAt.After(due) {
			out[i].Completed++
		} else {
			out[i].Delayed++
		}
	}
	return out
}

type MonthTrend struct {
	Month     string `json:"month"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Rate      int    `json:"value"`
}

// Monthly reports, for each month of year, the completion rate of the
// tasks due in that month.
func Monthly(tasks []task.Task, year int) [12]MonthTrend {
	var out [12]MonthTrend
	for i := range out {
		out[i].Month = time.Month(i + 1).String()[:3]
	}
	for _, t := range tasks {
		due, ok := t.Due()
		if !ok || due.Year() != year {
			continue
		}
		m := &out[due.Month()-1]
		m.Total++
		if t.Completed {
			m.Completed++
		}
	}
	for i := range out {
		out[i].Rate = round(percent(out[i].Completed, out[i].Total))
	}
	return out
}

type CategoryShare struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Percent  int    `json:"percent"`
}

// Categories counts tasks per category in first-seen order.
func Categories(tasks []task.Task) []CategoryShare {
	out := []CategoryShare{}
	index := map[string]int{}
	for _, t := range tasks {
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryShare{Category: t.Category})
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Percent = round(percent(out[i].Count, len(tasks)))
	}
	return out
}

// MaxDayTotal is the tallest bar of a weekly chart, never less than one.
func MaxDayTotal(week [7]DayTrend) int {
	best := 1
	for _, d := range week {
		if n := d.Completed + d.Delayed; n > best {
			best = n
		}
	}
	return best
}
