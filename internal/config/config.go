package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "todo.db"

	EnvConfig   = "MYTASKS_CONFIG"
	EnvDBPath   = "MYTASKS_DB_PATH"
	EnvLogLevel = "MYTASKS_LOG_LEVEL"
	EnvLogFile  = "MYTASKS_LOG_FILE"
)

type Keymap struct {
	Quit     string `toml:"quit"`
	Add      string `toml:"add"`
	Up       string `toml:"up"`
	Down     string `toml:"down"`
	Toggle   string `toml:"toggle"`
	Reminder string `toml:"reminder"`
	Delete   string `toml:"delete"`
	Detail   string `toml:"detail"`
	Confirm  string `toml:"confirm"`
	Cancel   string `toml:"cancel"`
	Edit     string `toml:"edit"`
	View     string `toml:"view"`
	Category string `toml:"category"`
	Search   string `toml:"search"`
	Stats    string `toml:"stats"`
	Calendar string `toml:"calendar"`
}

type Config struct {
	DBPath        string   `toml:"db_path"`
	DefaultView   string   `toml:"default_view"`
	LogFile       string   `toml:"log_file"`
	LogLevel      string   `toml:"log_level"`
	UpcomingDays  int      `toml:"upcoming_days"`
	UpcomingLimit int      `toml:"upcoming_limit"`
	Categories    []string `toml:"categories"`
	Keys          Keymap   `toml:"keys"`
}

// ResolveConfigPath returns $MYTASKS_CONFIG when set, otherwise
// ~/.config/mytasks/config.toml. Without a home directory it falls back to
// the working directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(home, ".config", "mytasks", DefaultConfigFileName)
}

// LoadOrCreate reads the TOML file at path, writing the defaults there on
// first launch. A relative db_path is resolved against the config directory.
// Environment overrides are applied last.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return finish(path, cfg), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return finish(path, cfg), nil
}

func finish(path string, cfg Config) Config {
	def := defaultConfig()
	if cfg.DBPath == "" {
		cfg.DBPath = def.DBPath
	}
	if cfg.DefaultView == "" {
		cfg.DefaultView = def.DefaultView
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.UpcomingDays <= 0 {
		cfg.UpcomingDays = def.UpcomingDays
	}
	if cfg.UpcomingLimit < 0 {
		cfg.UpcomingLimit = def.UpcomingLimit
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = def.Categories
	}
	cfg.Keys = fillKeys(cfg.Keys, def.Keys)

	applyEnv(&cfg)

	dir := filepath.Dir(path)
	if !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(dir, cfg.DBPath)
	}
	if cfg.LogFile != "" && !filepath.IsAbs(cfg.LogFile) {
		cfg.LogFile = filepath.Join(dir, cfg.LogFile)
	}
	return cfg
}

// LoadEnv reads KEY=value pairs from the given dotenv files into the process
// environment. Missing files are skipped; variables already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDBPath)); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.LogFile = v
	}
	if v := getEnvInt("MYTASKS_UPCOMING_DAYS"); v > 0 {
		cfg.UpcomingDays = v
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

func fillKeys(k, def Keymap) Keymap {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Keymap{
		Quit:     pick(k.Quit, def.Quit),
		Add:      pick(k.Add, def.Add),
		Up:       pick(k.Up, def.Up),
		Down:     pick(k.Down, def.Down),
		Toggle:   pick(k.Toggle, def.Toggle),
		Reminder: pick(k.Reminder, def.Reminder),
		Delete:   pick(k.Delete, def.Delete),
		Detail:   pick(k.Detail, def.Detail),
		Confirm:  pick(k.Confirm, def.Confirm),
		Cancel:   pick(k.Cancel, def.Cancel),
		Edit:     pick(k.Edit, def.Edit),
		View:     pick(k.View, def.View),
		Category: pick(k.Category, def.Category),
		Search:   pick(k.Search, def.Search),
		Stats:    pick(k.Stats, def.Stats),
		Calendar: pick(k.Calendar, def.Calendar),
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		DBPath:        DefaultDBName,
		DefaultView:   "all",
		LogLevel:      "info",
		UpcomingDays:  7,
		UpcomingLimit: 5,
		Categories:    []string{"Work", "Personal", "Urgent", "Shopping"},
		Keys: Keymap{
			Quit:     "q",
			Add:      "a",
			Up:       "k",
			Down:     "j",
			Toggle:   " ",
			Reminder: "r",
			Delete:   "d",
			Detail:   "enter",
			Confirm:  "enter",
			Cancel:   "esc",
			Edit:     "e",
			View:     "v",
			Category: "c",
			Search:   "/",
			Stats:    "s",
			Calendar: "C",
		},
	}
}
