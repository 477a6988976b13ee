package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"mytasks/internal/calendar"
	"mytasks/internal/config"
	"mytasks/internal/notify"
	"mytasks/internal/performance"
	"mytasks/internal/session"
	"mytasks/internal/task"
	"mytasks/internal/taskstore"
	"mytasks/internal/view"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeSearch
)

type panel int

const (
	panelNone panel = iota
	panelStats
	panelCalendar
)

// Options carries the collaborators the TUI reads besides the store.
type Options struct {
	User session.Provider
	Sink notify.Sink
	Now  func() time.Time
}

type Model struct {
	store      *taskstore.Store
	cfg        config.Config
	user       session.Provider
	sink       notify.Sink
	now        func() time.Time
	tasks      []task.Task
	crit       view.Criteria
	categories []string
	cursor     int
	mode       mode
	panel      panel
	input      textinput.Model
	status     string
	failed     bool
	confirmDel bool
	pendingDel *task.Task
	form       *editForm
	width      int
}

func New(store *taskstore.Store, cfg config.Config, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		store:      store,
		cfg:        cfg,
		user:       opts.User,
		sink:       opts.Sink,
		now:        opts.Now,
		crit:       view.Criteria{Kind: view.ParseKind(cfg.DefaultView)},
		categories: append([]string{view.AllCategories}, cfg.Categories...),
		input:      ti,
		mode:       modeList,
	}
	if m.sink == nil {
		m.sink = notify.Discard
	}
	if m.now == nil {
		m.now = time.Now
	}
	if len(cfg.Categories) == 0 {
		m.categories = view.Categories()
	}
	m.refresh()
	m.status = fmt.Sprintf("Press '%s' to add, space to toggle, '%s' to delete.", cfg.Keys.Add, cfg.Keys.Delete)
	return m
}

func Run(store *taskstore.Store, cfg config.Config, opts Options) error {
	program := tea.NewProgram(New(store, cfg, opts))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.failed = false
		if m.form != nil {
			return m.updateEditMode(msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeAdd:
		return m.updateAddMode(key, msg)
	case modeSearch:
		return m.updateSearchMode(key, msg)
	}
	return m.updateListMode(key)
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.setStatus(notify.Info, "Cancelled")
		return m, nil
	case m.cfg.Keys.Confirm:
		d := task.Draft{Title: strings.TrimSpace(m.input.Value())}
		if err := task.ValidateDraft(d); err != nil {
			m.setStatus(notify.Warn, "Title cannot be empty")
			return m, nil
		}
		created, err := m.store.Add(d)
		m.refresh()
		if err != nil {
			m.setStatus(notify.Error, failure("save", err))
		} else {
			m.setStatus(notify.Success, "Task added successfully")
			m.selectID(created.ID)
		}
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// updateSearchMode filters live as the query is typed. Cancel clears it.
func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.crit.Search = ""
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		m.refresh()
		m.status = "Search cleared"
		return m, nil
	case m.cfg.Keys.Confirm:
		m.input.Blur()
		m.input.SetValue("")
		m.mode = modeList
		m.status = fmt.Sprintf("%d matching %q", len(m.tasks), m.crit.Search)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.crit.Search = m.input.Value()
		m.refresh()
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(m.tasks) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.tasks))
		}
	case m.cfg.Keys.Add:
		m.mode = modeAdd
		m.input.Placeholder = "Task title"
		m.input.SetValue("")
		m.input.Focus()
		m.status = "Add mode: type a title and press Enter"
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.input.Placeholder = "Search tasks"
		m.input.SetValue(m.crit.Search)
		m.input.Focus()
		m.status = "Search: type to filter, Enter to keep, Esc to clear"
	case m.cfg.Keys.View:
		m.crit.Kind = nextKind(m.crit.Kind)
		m.refresh()
		m.cursor = 0
		v, _ := view.Lookup(m.crit.Kind)
		m.status = v.Title
	case m.cfg.Keys.Category:
		m.crit.Category = nextString(m.categories, m.crit.Category)
		m.refresh()
		m.cursor = 0
		m.status = "Category: " + m.categoryLabel()
	case m.cfg.Keys.Stats:
		m.panel = togglePanel(m.panel, panelStats)
	case m.cfg.Keys.Calendar:
		m.panel = togglePanel(m.panel, panelCalendar)
	case m.cfg.Keys.Toggle:
		if len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.cursor]
		err := m.store.ToggleCompletion(t.ID)
		m.refresh()
		if err != nil {
			m.setStatus(notify.Error, failure("toggle", err))
			return m, nil
		}
		if t.Completed {
			m.setStatus(notify.Info, "Task marked as pending")
		} else {
			m.setStatus(notify.Success, "Task completed!")
		}
	case m.cfg.Keys.Reminder:
		if len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.cursor]
		err := m.store.ToggleReminder(t.ID)
		m.refresh()
		if err != nil {
			m.setStatus(notify.Error, failure("reminder", err))
			return m, nil
		}
		if t.ReminderEnabled {
			m.setStatus(notify.Info, "Reminder disabled")
		} else {
			m.setStatus(notify.Info, "Reminder enabled")
		}
	case m.cfg.Keys.Delete:
		if len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.cursor]
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case m.cfg.Keys.Detail:
		if len(m.tasks) == 0 {
			m.status = "No tasks"
			return m, nil
		}
		t := m.tasks[m.cursor]
		info := fmt.Sprintf("Task #%d • %s • %s • %s • %s", t.ID, t.Title, humanDone(t.Completed), t.Category, t.Priority)
		if t.HasDueDate() {
			info += " • due:" + t.DueDate
		}
		if t.ReminderEnabled {
			info += " • reminder"
		}
		m.status = info
	case m.cfg.Keys.Edit:
		if len(m.tasks) == 0 {
			m.status = "No tasks to edit"
			return m, nil
		}
		return m.startEdit(m.tasks[m.cursor])
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("MyTasks"))
	if m.user != nil {
		if u, ok := m.user.CurrentUser(); ok {
			b.WriteString(mutedStyle.Render("  " + u.Name))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.renderFilterLine())
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		v, _ := view.Lookup(m.crit.Kind)
		b.WriteString(mutedStyle.Render(v.EmptyMessage))
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n---\n")

	switch {
	case m.form != nil:
		b.WriteString(headerStyle.Render("Edit task"))
		b.WriteString("\n\n")
		b.WriteString(m.form.render())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case m.mode == modeAdd || m.mode == modeSearch:
		b.WriteString(m.input.View())
	case m.panel == panelStats:
		b.WriteString(panelStyle.Render(m.renderStats()))
	case m.panel == panelCalendar:
		b.WriteString(panelStyle.Render(m.renderCalendar()))
	default:
		b.WriteString(m.renderDetails())
	}

	b.WriteString("\n\n")
	if m.failed {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		err := m.store.Delete(m.pendingDel.ID)
		m.refresh()
		if err != nil {
			m.setStatus(notify.Error, failure("delete", err))
		} else {
			m.setStatus(notify.Success, "Task deleted successfully")
		}
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s detail • space toggle • %s reminder • %s delete • %s edit • %s view • %s category • %s search • %s stats • %s calendar • %s quit",
		k.Up, k.Down, k.Add, k.Detail, k.Reminder, k.Delete, k.Edit, k.View, k.Category, k.Search, k.Stats, k.Calendar, k.Quit)
}

func (m Model) renderFilterLine() string {
	v, _ := view.Lookup(m.crit.Kind)
	line := headerStyle.Render(v.Title) + mutedStyle.Render(" • category: "+m.categoryLabel())
	if q := strings.TrimSpace(m.crit.Search); q != "" {
		line += mutedStyle.Render(fmt.Sprintf(" • search: %q", q))
	}
	return line
}

func (m Model) renderTaskList() string {
	today := calendar.DayOf(m.now())
	var b strings.Builder
	for i, t := range m.tasks {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}

		checkbox := "[ ]"
		if t.Completed {
			checkbox = "[x]"
		}

		title := t.Title
		switch {
		case t.Completed:
			title = doneStyle.Render(title)
		case m.cursor == i:
			title = selectedStyle.Render(title)
		}

		body := fmt.Sprintf("%s %s %s", cursor, checkbox, title)
		if style, ok := priorityStyles[string(t.Priority)]; ok {
			body += " " + style.Render(string(t.Priority))
		}
		if t.HasDueDate() {
			due := t.DueDate
			if d, err := calendar.ParseDay(t.DueDate); err == nil && !t.Completed && d.Before(today) {
				due = overdueStyle.Render(due + " overdue")
			}
			body += " " + mutedStyle.Render("due ") + due
		}

		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStats() string {
	all := m.store.Tasks()
	r := performance.Compute(all, m.now())
	labels := performance.Insights(r)

	var b strings.Builder
	b.WriteString(headerStyle.Render("Performance"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Completed %d • Pending %d • Total %d\n", r.Completed, r.Pending, r.Total))
	b.WriteString(fmt.Sprintf("Completion %d%% (%s)\n", r.CompletionRate, labels.Productivity))
	b.WriteString(fmt.Sprintf("On time    %d%% (%s) • delayed %d\n", r.OnTimeRate, labels.Punctuality, r.DelayedTasks))
	b.WriteString(fmt.Sprintf("Loyalty    %d (%s)\n", r.LoyaltyScore, labels.Consistency))

	week := performance.Weekly(all)
	peak := performance.MaxDayTotal(week)
	b.WriteString("\n")
	for _, d := range week {
		width := (d.Completed + d.Delayed) * 20 / peak
		done := 0
		if d.Completed+d.Delayed > 0 {
			done = width * d.Completed / (d.Completed + d.Delayed)
		}
		b.WriteString(fmt.Sprintf("%s %s%s\n", d.Day,
			successStyle.Render(strings.Repeat("█", done)),
			overdueStyle.Render(strings.Repeat("█", width-done))))
	}

	b.WriteString("\n")
	for _, rec := range performance.Recommendations(r) {
		b.WriteString("• " + rec + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderCalendar() string {
	all := m.store.Tasks()
	agg := calendar.New(all)
	today := calendar.DayOf(m.now())

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s %d", today.Month, today.Year)))
	b.WriteString("\nSu Mo Tu We Th Fr Sa\n")
	for i, c := range agg.Month(today.Year, today.Month) {
		switch {
		case c.Blank:
			b.WriteString("  ")
		case c.Mark == calendar.MarkPending:
			b.WriteString(overdueStyle.Render(fmt.Sprintf("%2d", c.Day.Day)))
		case c.Mark == calendar.MarkComplete:
			b.WriteString(successStyle.Render(fmt.Sprintf("%2d", c.Day.Day)))
		default:
			b.WriteString(fmt.Sprintf("%2d", c.Day.Day))
		}
		if i%7 == 6 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	b.WriteString("\n")

	writeSection := func(title string, tasks []task.Task) {
		b.WriteString("\n" + headerStyle.Render(title) + "\n")
		if len(tasks) == 0 {
			b.WriteString(mutedStyle.Render("none") + "\n")
		}
		for _, t := range tasks {
			b.WriteString(fmt.Sprintf("%s %s\n", mutedStyle.Render(t.DueDate), t.Title))
		}
	}
	writeSection("Today", agg.OnDate(today))
	writeSection("Overdue", agg.Overdue(today))
	writeSection("Upcoming", agg.Upcoming(today, m.cfg.UpcomingDays, m.cfg.UpcomingLimit))
	return strings.TrimRight(b.String(), "\n")
}

// refresh recomputes the visible list from the store.
func (m *Model) refresh() {
	m.tasks = view.Apply(m.store.Tasks(), m.crit, m.now())
	m.cursor = clampCursor(m.cursor, len(m.tasks))
}

func (m *Model) selectID(id task.ID) {
	for i, t := range m.tasks {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *Model) setStatus(level notify.Level, msg string) {
	m.status = msg
	m.failed = level == notify.Error || level == notify.Warn
	m.sink.Notify(level, msg)
}

func (m Model) categoryLabel() string {
	if m.crit.Category == "" {
		return view.AllCategories
	}
	return m.crit.Category
}

func nextKind(k view.Kind) view.Kind {
	views := view.Views()
	for i, v := range views {
		if v.Kind == k {
			return views[(i+1)%len(views)].Kind
		}
	}
	return view.KindAll
}

func nextString(values []string, cur string) string {
	if len(values) == 0 {
		return ""
	}
	if cur == "" {
		cur = values[0]
	}
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func togglePanel(cur, p panel) panel {
	if cur == p {
		return panelNone
	}
	return p
}

func (m Model) renderDetails() string {
	if len(m.tasks) == 0 {
		return "No task selected"
	}
	t := m.tasks[clampCursor(m.cursor, len(m.tasks))]
	var b strings.Builder
	b.WriteString("Details\n")
	b.WriteString(fmt.Sprintf("Title       : %s\n", t.Title))
	b.WriteString(fmt.Sprintf("Description : %s\n", m.wrapDetail(emptyPlaceholder(t.Description))))
	b.WriteString(fmt.Sprintf("Status      : %s\n", humanDone(t.Completed)))
	b.WriteString(fmt.Sprintf("Category    : %s\n", emptyPlaceholder(t.Category)))
	b.WriteString(fmt.Sprintf("Priority    : %s\n", t.Priority))
	b.WriteString(fmt.Sprintf("Due         : %s\n", emptyPlaceholder(t.DueDate)))
	b.WriteString(fmt.Sprintf("Reminder    : %s\n", yesNo(t.ReminderEnabled)))
	b.WriteString(fmt.Sprintf("Created     : %s\n", humanize.RelTime(t.CreatedAt, m.now(), "ago", "from now")))
	return b.String()
}

// wrapDetail wraps a value to the window and aligns continuation lines under
// the first.
func (m Model) wrapDetail(v string) string {
	const labelWidth = 14
	width := m.width - labelWidth
	if m.width == 0 {
		width = 60
	}
	if width < 20 {
		width = 20
	}
	return strings.ReplaceAll(Wrap(v, width), "\n", "\n"+strings.Repeat(" ", labelWidth))
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func humanDone(done bool) string {
	if done {
		return "completed"
	}
	return "pending"
}

// failure words a store error. A persistence failure keeps the change in
// memory, so the message says so.
func failure(action string, err error) string {
	if errors.Is(err, taskstore.ErrPersist) {
		return fmt.Sprintf("%s kept for this session but not saved: %v", action, err)
	}
	return fmt.Sprintf("%s failed: %v", action, err)
}
