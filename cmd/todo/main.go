// Package main implements the todo CLI and launches the TUI.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mytasks/internal/config"
	"mytasks/internal/logging"
	"mytasks/internal/notify"
	"mytasks/internal/session"
	"mytasks/internal/storage"
	"mytasks/internal/task"
	"mytasks/internal/taskstore"
	"mytasks/internal/ui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// now is the clock every command reads.
var now = time.Now

var rootCmd = &cobra.Command{
	Use:           "todo",
	Short:         "MyTasks - a personal task tracker",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runRoot,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive task list",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $MYTASKS_CONFIG or ~/.config/mytasks/config.toml)")
	rootCmd.AddCommand(tuiCmd)
}

// app holds everything a command needs, opened from the config.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	logFile *os.File
	db      *storage.Store
	tasks   *taskstore.Store
	session *session.Manager
}

func openApp(cmd *cobra.Command, sink notify.Sink) (*app, error) {
	if err := config.LoadEnv(".env"); err != nil {
		return nil, err
	}
	path := configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logPath := cfg.LogFile
	if logPath == "" {
		logPath = logging.PathFor(cfg.DBPath)
	}
	log, logFile, err := logging.Open(logPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log = log.With().Str("cmd", cmd.Name()).Logger()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	tasks := taskstore.New(db, taskstore.WithClock(now), taskstore.WithLogger(log))
	if err := tasks.LoadInitial(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	a := &app{cfg: cfg, log: log, logFile: logFile, db: db, tasks: tasks}
	a.session = session.Open(db, session.Options{
		Tasks:  tasks,
		Sink:   notify.Tee{notify.LogSink{Log: log}, sink},
		Logger: &a.log,
		Clock:  now,
	})
	return a, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close database")
	}
	a.logFile.Close()
}

// runRoot opens the TUI on a terminal and prints the list otherwise.
func runRoot(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return runList(cmd, args)
	}
	return runTUI(cmd, args)
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, notify.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := ui.Run(a.tasks, a.cfg, ui.Options{
		User: a.session,
		Sink: notify.LogSink{Log: a.log},
		Now:  now,
	}); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func parseID(s string) (task.ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return task.ID(n), nil
}

var errNotFound = errors.New("task not found")

// existing returns the task or errNotFound. The store treats unknown ids as
// a no-op, so the CLI checks first to report them.
func (a *app) existing(id task.ID) (task.Task, error) {
	t, ok := a.tasks.Get(id)
	if !ok {
		return task.Task{}, fmt.Errorf("%w: %d", errNotFound, id)
	}
	return t, nil
}
