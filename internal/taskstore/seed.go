package taskstore

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"mytasks/internal/task"
)

//go:embed seed.yaml
var seedYAML []byte

type seedTask struct {
	ID              int64  `yaml:"id"`
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	DueDate         string `yaml:"dueDate"`
	Category        string `yaml:"category"`
	Priority        string `yaml:"priority"`
	Completed       bool   `yaml:"completed"`
	ReminderEnabled bool   `yaml:"reminderEnabled"`
}

// ParseSeed decodes a YAML list of example tasks. CreatedAt is left zero;
// the store stamps it when seeding.
func ParseSeed(data []byte) ([]task.Task, error) {
	var raw []seedTask
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	tasks := make([]task.Task, 0, len(raw))
	for i, r := range raw {
		p, err := task.ParsePriority(r.Priority)
		if err != nil {
			return nil, fmt.Errorf("seed task %d: %w", i, err)
		}
		tasks = append(tasks, task.Task{
			ID:              task.ID(r.ID),
			Title:           r.Title,
			Description:     r.Description,
			DueDate:         r.DueDate,
			Category:        r.Category,
			Priority:        p,
			Completed:       r.Completed,
			ReminderEnabled: r.ReminderEnabled,
		})
	}
	return tasks, nil
}

// DefaultSeed returns the built-in example tasks.
func DefaultSeed() []task.Task {
	tasks, err := ParseSeed(seedYAML)
	if err != nil {
		panic(err)
	}
	return tasks
}

func stampSeed(seed []task.Task, now time.Time) []task.Task {
	out := make([]task.Task, len(seed))
	for i, t := range seed {
		t.CreatedAt = now
		out[i] = t
	}
	return out
}
