package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mytasks/internal/notify"
	"mytasks/internal/task"
	"mytasks/internal/ui"
	"mytasks/internal/view"
)

// todo add
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

var (
	addDescription string
	addDue         string
	addCategory    string
	addPriority    string
	addNoReminder  bool
)

// todo list
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var (
	listView     string
	listCategory string
	listSearch   string
	listStatus   string
	listDue      string
	listRecent   int
	listJSON     bool
)

// todo edit
var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var (
	editTitle       string
	editDescription string
	editDue         string
	editCategory    string
	editPriority    string
	editReminder    bool
)

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle a task between completed and pending",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

var remindCmd = &cobra.Command{
	Use:   "remind <id>",
	Short: "Toggle the reminder flag of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemind,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task with its description rendered as markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

func init() {
	rootCmd.AddCommand(addCmd, listCmd, showCmd, editCmd, doneCmd, remindCmd, rmCmd)

	addCmd.Flags().StringVar(&addDescription, "desc", "", "Task description")
	addCmd.Flags().StringVar(&addDue, "due", "", "Due date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addCategory, "category", task.DefaultCategory, "Category")
	addCmd.Flags().StringVar(&addPriority, "priority", string(task.PriorityMedium), "Priority (low, medium, high)")
	addCmd.Flags().BoolVar(&addNoReminder, "no-reminder", false, "Disable the reminder")

	listCmd.Flags().StringVar(&listView, "view", "", "View (all, completed, pending, todo); defaults to the configured view")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only tasks in this category")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Case-insensitive match on title or description")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Status (all, completed, pending, overdue)")
	listCmd.Flags().StringVar(&listDue, "due", "", "Due window (all, today, tomorrow, this week, next week)")
	listCmd.Flags().IntVar(&listRecent, "recent", 0, "Only the N most recently added matches, newest first")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")

	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVar(&editDescription, "desc", "", "New description")
	editCmd.Flags().StringVar(&editDue, "due", "", "New due date (YYYY-MM-DD, empty to clear)")
	editCmd.Flags().StringVar(&editCategory, "category", "", "New category")
	editCmd.Flags().StringVar(&editPriority, "priority", "", "New priority (low, medium, high)")
	editCmd.Flags().BoolVar(&editReminder, "reminder", true, "Reminder enabled")
}

func runAdd(cmd *cobra.Command, args []string) error {
	priority, err := task.ParsePriority(addPriority)
	if err != nil {
		return err
	}
	reminder := !addNoReminder
	d := task.Draft{
		Title:           strings.TrimSpace(args[0]),
		Description:     addDescription,
		DueDate:         strings.TrimSpace(addDue),
		Category:        addCategory,
		Priority:        priority,
		ReminderEnabled: &reminder,
	}
	if err := task.ValidateDraft(d); err != nil {
		return err
	}

	a, err := openApp(cmd, notify.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.tasks.Add(d)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s\n", created.ID, created.Title)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	status, err := matchOption(view.Statuses(), listStatus, "status")
	if err != nil {
		return err
	}
	due, err := matchOption(view.DueWindows(), listDue, "due window")
	if err != nil {
		return err
	}

	a, err := openApp(cmd, notify.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	kind := listView
	if kind == "" {
		kind = a.cfg.DefaultView
	}
	crit := view.Criteria{
		Kind:     view.ParseKind(kind),
		Category: listCategory,
		Search:   listSearch,
		Status:   status,
		Due:      due,
	}
	tasks := view.Apply(a.tasks.Tasks(), crit, now())
	if listRecent > 0 {
		tasks = view.Recent(tasks, listRecent)
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}
	if len(tasks) == 0 {
		v, _ := view.Lookup(crit.Kind)
		fmt.Fprintln(out, v.EmptyMessage)
		return nil
	}
	printTasks(out, tasks)
	return nil
}

func printTasks(out io.Writer, tasks []task.Task) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRI\tCATEGORY\tDUE\tSTATUS\tCREATED\tTITLE")
	for _, t := range tasks {
		title := shortTitle(t.Title)
		due := t.DueDate
		if due == "" {
			due = "-"
		}
		status := "pending"
		if t.Completed {
			status = "done"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Priority, t.Category, due, status, humanize.RelTime(t.CreatedAt, now(), "ago", "from now"), title)
	}
	w.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp(cmd, notify.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.existing(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	status := "pending"
	if t.Completed {
		status = "done"
	}
	due := t.DueDate
	if due == "" {
		due = "-"
	}
	reminder := "off"
	if t.ReminderEnabled {
		reminder = "on"
	}
	fmt.Fprintf(out, "#%d %s\n", t.ID, t.Title)
	fmt.Fprintf(out, "Status:   %s\n", status)
	fmt.Fprintf(out, "Due:      %s\n", due)
	fmt.Fprintf(out, "Category: %s\n", t.Category)
	fmt.Fprintf(out, "Priority: %s\n", t.Priority)
	fmt.Fprintf(out, "Reminder: %s\n", reminder)
	fmt.Fprintf(out, "Created:  %s\n", humanize.RelTime(t.CreatedAt, now(), "ago", "from now"))
	if body := ui.RenderMarkdown(outputWidth(), t.Description); body != "" {
		fmt.Fprintf(out, "\n%s\n", body)
	}
	return nil
}

// outputWidth is the terminal width, or 80 when stdout is not a terminal.
func outputWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

const titleWidth = 50

// shortTitle clips a title to titleWidth cells without splitting a rune.
func shortTitle(title string) string {
	if ansi.PrintableRuneWidth(title) <= titleWidth {
		return title
	}
	return truncate.StringWithTail(title, titleWidth, "...")
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	var p task.Patch
	flags := cmd.Flags()
	if flags.Changed("title") {
		if strings.TrimSpace(editTitle) == "" {
			return task.ErrTitleRequired
		}
		p.Title = &editTitle
	}
	if flags.Changed("desc") {
		p.Description = &editDescription
	}
	if flags.Changed("due") {
		due := strings.TrimSpace(editDue)
		if due != "" {
			if _, err := time.Parse(task.DateLayout, due); err != nil {
				return errors.New("due date must be YYYY-MM-DD")
			}
		}
		p.DueDate = &due
	}
	if flags.Changed("category") {
		p.Category = &editCategory
	}
	if flags.Changed("priority") {
		priority, err := task.ParsePriority(editPriority)
		if err != nil {
			return err
		}
		p.Priority = &priority
	}
	if flags.Changed("reminder") {
		p.ReminderEnabled = &editReminder
	}
	if p.IsEmpty() {
		return errors.New("nothing to update: pass at least one of --title, --desc, --due, --category, --priority, --reminder")
	}

	a, err := openApp(cmd, notify.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.existing(id); err != nil {
		return err
	}
	if err := a.tasks.Update(id, p); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Task updated successfully")
	return nil
}

func runDone(cmd *cobra.Command, args []string) error {
	return withTask(cmd, args[0], func(a *app, t task.Task) (string, error) {
		if err := a.tasks.ToggleCompletion(t.ID); err != nil {
			return "", err
		}
		if t.Completed {
			return "Task marked as pending", nil
		}
		return "Task completed!", nil
	})
}

func runRemind(cmd *cobra.Command, args []string) error {
	return withTask(cmd, args[0], func(a *app, t task.Task) (string, error) {
		if err := a.tasks.ToggleReminder(t.ID); err != nil {
			return "", err
		}
		if t.ReminderEnabled {
			return "Reminder disabled", nil
		}
		return "Reminder enabled", nil
	})
}

func runRm(cmd *cobra.Command, args []string) error {
	return withTask(cmd, args[0], func(a *app, t task.Task) (string, error) {
		if err := a.tasks.Delete(t.ID); err != nil {
			return "", err
		}
		return "Task deleted successfully", nil
	})
}

// withTask runs a single-task action and prints its message.
func withTask(cmd *cobra.Command, arg string, fn func(*app, task.Task) (string, error)) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	a, err := openApp(cmd, notify.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.existing(id)
	if err != nil {
		return err
	}
	msg, err := fn(a, t)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

// matchOption maps user input onto one of values, ignoring case. Empty input
// means no filter.
func matchOption(values []string, v, what string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	for _, opt := range values {
		if strings.EqualFold(opt, v) {
			return opt, nil
		}
	}
	return "", fmt.Errorf("unknown %s %q (want one of: %s)", what, v, strings.Join(values, ", "))
}
