package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mytasks/internal/calendar"
	"mytasks/internal/notify"
	"mytasks/internal/performance"
	"mytasks/internal/report"
	"mytasks/internal/storage"
	"mytasks/internal/task"
)

// todo calendar
var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show tasks by due date",
	Args:  cobra.NoArgs,
	RunE:  runCalendar,
}

var (
	calendarDate     string
	calendarOverdue  bool
	calendarUpcoming bool
	calendarMonth    bool
	calendarDays     int
	calendarLimit    int
)

// todo stats
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion and punctuality metrics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var statsJSON bool

// todo export
var exportCmd = &cobra.Command{
	Use:   "export <ics|xlsx> <file>",
	Short: "Export tasks as an iCalendar feed or an Excel workbook (file - for stdout)",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(calendarCmd, statsCmd, exportCmd)

	calendarCmd.Flags().StringVar(&calendarDate, "date", "", "Day to show (YYYY-MM-DD, default today)")
	calendarCmd.Flags().BoolVar(&calendarOverdue, "overdue", false, "List pending tasks due before the day")
	calendarCmd.Flags().BoolVar(&calendarUpcoming, "upcoming", false, "List pending tasks due after the day")
	calendarCmd.Flags().BoolVar(&calendarMonth, "month", false, "Print the month grid")
	calendarCmd.Flags().IntVar(&calendarDays, "days", 0, "Upcoming horizon in days (default from config)")
	calendarCmd.Flags().IntVar(&calendarLimit, "limit", -1, "Maximum upcoming tasks, 0 for all (default from config)")

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
}

func runCalendar(cmd *cobra.Command, args []string) error {
	day := calendar.DayOf(now())
	if calendarDate != "" {
		d, err := calendar.ParseDay(calendarDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		day = d
	}

	a, err := openApp(cmd, notify.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	agg := calendar.New(a.tasks.Tasks())
	out := cmd.OutOrStdout()

	if calendarMonth {
		printMonth(out, agg, day)
		fmt.Fprintln(out)
	}

	onDay := agg.OnDate(day)
	fmt.Fprintf(out, "%s: %d task(s), %d completed\n", day, len(onDay), agg.CompletedCountOnDate(day))
	printDated(out, onDay)

	if calendarOverdue {
		fmt.Fprintln(out, "\nOverdue")
		printDated(out, agg.Overdue(day))
	}
	if calendarUpcoming {
		days := calendarDays
		if days <= 0 {
			days = a.cfg.UpcomingDays
		}
		limit := calendarLimit
		if limit < 0 {
			limit = a.cfg.UpcomingLimit
		}
		fmt.Fprintf(out, "\nUpcoming (next %d days)\n", days)
		printDated(out, agg.Upcoming(day, days, limit))
	}
	return nil
}

func printDated(out io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "  none")
		return
	}
	for _, t := range tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		fmt.Fprintf(out, "  %s %s #%d %s (%s, %s)\n", check, t.DueDate, t.ID, t.Title, t.Category, t.Priority)
	}
}

// printMonth draws a Sunday-first grid. Days with pending tasks get a *,
// days whose tasks are all done get a +.
func printMonth(out io.Writer, agg calendar.Aggregator, day calendar.Day) {
	fmt.Fprintf(out, "%s %d\n", day.Month, day.Year)
	fmt.Fprintln(out, " Su  Mo  Tu  We  Th  Fr  Sa")
	var b strings.Builder
	for i, c := range agg.Month(day.Year, day.Month) {
		switch {
		case c.Blank:
			b.WriteString("    ")
		case c.Mark == calendar.MarkPending:
			fmt.Fprintf(&b, " %2d*", c.Day.Day)
		case c.Mark == calendar.MarkComplete:
			fmt.Fprintf(&b, " %2d+", c.Day.Day)
		default:
			fmt.Fprintf(&b, " %2d ", c.Day.Day)
		}
		if i%7 == 6 {
			fmt.Fprintln(out, strings.TrimRight(b.String(), " "))
			b.Reset()
		}
	}
	if b.Len() > 0 {
		fmt.Fprintln(out, strings.TrimRight(b.String(), " "))
	}
}

type statsOutput struct {
	performance.Report
	Insights        performance.Labels          `json:"insights"`
	Weekly          [7]performance.DayTrend     `json:"weekly"`
	Monthly         [12]performance.MonthTrend  `json:"monthly"`
	Categories      []performance.CategoryShare `json:"categories"`
	Recommendations []string                    `json:"recommendations"`
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, notify.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks := a.tasks.Tasks()
	at := now()
	r := performance.Compute(tasks, at)
	s := statsOutput{
		Report:          r,
		Insights:        performance.Insights(r),
		Weekly:          performance.Weekly(tasks),
		Monthly:         performance.Monthly(tasks, at.Year()),
		Categories:      performance.Categories(tasks),
		Recommendations: performance.Recommendations(r),
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Fprintf(out, "Tasks        %d total, %d completed, %d pending\n", r.Total, r.Completed, r.Pending)
	fmt.Fprintf(out, "Completion   %d%%  %s\n", r.CompletionRate, s.Insights.Productivity)
	fmt.Fprintf(out, "On time      %d%%  %s (%d on time, %d delayed)\n", r.OnTimeRate, s.Insights.Punctuality, r.OnTimeTasks, r.DelayedTasks)
	fmt.Fprintf(out, "Loyalty      %d    %s\n", r.LoyaltyScore, s.Insights.Consistency)
	if saved, ok, err := a.db.UpdatedAt(storage.SlotTasks); err == nil && ok {
		fmt.Fprintf(out, "Last saved   %s\n", humanize.RelTime(saved, now(), "ago", "from now"))
	}

	fmt.Fprintln(out, "\nWeekly")
	for _, d := range s.Weekly {
		fmt.Fprintf(out, "  %s  %d completed, %d delayed\n", d.Day, d.Completed, d.Delayed)
	}
	if len(s.Categories) > 0 {
		fmt.Fprintln(out, "\nCategories")
		for _, c := range s.Categories {
			fmt.Fprintf(out, "  %-10s %d (%d%%)\n", c.Category, c.Count, c.Percent)
		}
	}
	fmt.Fprintln(out, "\nRecommendations")
	for _, rec := range s.Recommendations {
		fmt.Fprintf(out, "  - %s\n", rec)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	format, path := strings.ToLower(args[0]), args[1]
	if format != "ics" && format != "xlsx" {
		return fmt.Errorf("unknown export format %q (want ics or xlsx)", args[0])
	}

	a, err := openApp(cmd, notify.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	var w io.Writer = cmd.OutOrStdout()
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	tasks := a.tasks.Tasks()
	switch format {
	case "ics":
		err = calendar.WriteICS(w, tasks, now())
	case "xlsx":
		err = report.WriteWorkbook(w, tasks, now())
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	a.log.Info().Str("format", format).Str("path", path).Int("count", len(tasks)).Msg("exported tasks")
	if path != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d task(s) to %s\n", len(tasks), path)
	}
	return nil
}
