package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nixlim/good-console/internal/console"
	"github.com/nixlim/good-console/internal/ingest"
	"github.com/nixlim/good-console/internal/reporter"
	"github.com/nixlim/good-console/internal/timefmt"
)

// Color modes for ConsoleConfig.Color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	Console ConsoleConfig
	Theme   ThemeConfig
	Events  map[string][]string
	Input   InputConfig
}

type ConsoleConfig struct {
	Format   string `toml:"format"`
	Color    string `toml:"color"`
	Timezone string `toml:"timezone"`
}

type ThemeConfig struct {
	Timestamp     string            `toml:"timestamp"`
	Path          string            `toml:"path"`
	Label         string            `toml:"label"`
	DefaultMethod string            `toml:"default_method"`
	Status5xx     string            `toml:"status_5xx"`
	Status4xx     string            `toml:"status_4xx"`
	Status3xx     string            `toml:"status_3xx"`
	StatusOK      string            `toml:"status_ok"`
	Methods       map[string]string `toml:"methods"`
}

type InputConfig struct {
	MaxLineBytes int `toml:"max_line_bytes"`
}

type LoadResult struct {
	Config   Config
	Warnings []string
}

var knownTopLevel = map[string]bool{
	"console": true,
	"theme":   true,
	"events":  true,
	"input":   true,
}

var knownSectionKeys = map[string]map[string]bool{
	"console": {"format": true, "color": true, "timezone": true},
	"theme": {
		"timestamp": true, "path": true, "label": true, "default_method": true,
		"status_5xx": true, "status_4xx": true, "status_3xx": true, "status_ok": true,
		"methods": true,
	},
	"input": {"max_line_bytes": true},
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	th := console.DefaultTheme()
	methods := make(map[string]string, len(th.Methods))
	for m, c := range th.Methods {
		methods[m] = string(c)
	}
	return Config{
		Console: ConsoleConfig{
			Format: timefmt.DefaultPattern,
			Color:  ColorAuto,
		},
		Theme: ThemeConfig{
			Timestamp:     string(th.Timestamp),
			Path:          string(th.Path),
			Label:         string(th.Label),
			DefaultMethod: string(th.DefaultMethod),
			Status5xx:     string(th.Status5xx),
			Status4xx:     string(th.Status4xx),
			Status3xx:     string(th.Status3xx),
			StatusOK:      string(th.StatusOK),
			Methods:       methods,
		},
		Events: map[string][]string{reporter.Wildcard: nil},
		Input: InputConfig{
			MaxLineBytes: ingest.DefaultMaxLineBytes,
		},
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "good-console", "config.toml")
}

func Load() (*LoadResult, error) {
	return LoadFrom(defaultConfigPath())
}

// LoadFrom reads the TOML file at path. A missing file yields the defaults.
func LoadFrom(path string) (*LoadResult, error) {
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	result, err := parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return result, nil
}

func LoadFromString(data string) (*LoadResult, error) {
	return parse(data)
}

type tomlFile struct {
	Console *ConsoleConfig `toml:"console"`
	Theme   *ThemeConfig   `toml:"theme"`
	Events  map[string]any `toml:"events"`
	Input   *InputConfig   `toml:"input"`
}

func parse(data string) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}
	if strings.TrimSpace(data) == "" {
		return result, nil
	}

	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	result.Warnings = unknownKeys(raw)

	var tf tomlFile
	if _, err := toml.Decode(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	mergeFromRaw(&result.Config, &tf, raw)
	if err := mergeEvents(&result.Config, raw); err != nil {
		return nil, err
	}

	if err := validate(&result.Config); err != nil {
		return nil, err
	}
	return result, nil
}

func unknownKeys(raw map[string]any) []string {
	var warnings []string
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !knownTopLevel[key] {
			warnings = append(warnings, fmt.Sprintf("unknown config key: %q", key))
			continue
		}
		known, checked := knownSectionKeys[key]
		section, ok := rawSection(raw, key)
		if !checked || !ok {
			continue
		}
		sub := make([]string, 0, len(section))
		for k := range section {
			sub = append(sub, k)
		}
		sort.Strings(sub)
		for _, k := range sub {
			if !known[k] {
				warnings = append(warnings, fmt.Sprintf("unknown config key: %q", key+"."+k))
			}
		}
	}
	return warnings
}

// mergeFromRaw copies only the keys present in the file so that omitted keys
// keep their defaults.
func mergeFromRaw(cfg *Config, tf *tomlFile, raw map[string]any) {
	if tf.Console != nil {
		if section, ok := rawSection(raw, "console"); ok {
			if _, exists := section["format"]; exists {
				cfg.Console.Format = tf.Console.Format
			}
			if _, exists := section["color"]; exists {
				cfg.Console.Color = tf.Console.Color
			}
			if _, exists := section["timezone"]; exists {
				cfg.Console.Timezone = tf.Console.Timezone
			}
		}
	}
	if tf.Theme != nil {
		if section, ok := rawSection(raw, "theme"); ok {
			set := func(key string, dst *string, val string) {
				if _, exists := section[key]; exists {
					*dst = val
				}
			}
			set("timestamp", &cfg.Theme.Timestamp, tf.Theme.Timestamp)
			set("path", &cfg.Theme.Path, tf.Theme.Path)
			set("label", &cfg.Theme.Label, tf.Theme.Label)
			set("default_method", &cfg.Theme.DefaultMethod, tf.Theme.DefaultMethod)
			set("status_5xx", &cfg.Theme.Status5xx, tf.Theme.Status5xx)
			set("status_4xx", &cfg.Theme.Status4xx, tf.Theme.Status4xx)
			set("status_3xx", &cfg.Theme.Status3xx, tf.Theme.Status3xx)
			set("status_ok", &cfg.Theme.StatusOK, tf.Theme.StatusOK)
			for m, c := range tf.Theme.Methods {
				cfg.Theme.Methods[strings.ToLower(m)] = c
			}
		}
	}
	if tf.Input != nil {
		if section, ok := rawSection(raw, "input"); ok {
			if _, exists := section["max_line_bytes"]; exists {
				cfg.Input.MaxLineBytes = tf.Input.MaxLineBytes
			}
		}
	}
}

// mergeEvents replaces the default subscription when an [events] table is
// present. Each value is "*", a single tag, or an array of tags.
func mergeEvents(cfg *Config, raw map[string]any) error {
	section, ok := rawSection(raw, "events")
	if !ok {
		if _, present := raw["events"]; present {
			return fmt.Errorf("parsing config: events must be a table")
		}
		return nil
	}

	events := make(map[string][]string, len(section))
	for kind, val := range section {
		switch v := val.(type) {
		case string:
			if v == reporter.Wildcard {
				events[kind] = nil
			} else {
				events[kind] = []string{v}
			}
		case []any:
			tags := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("parsing config: events.%s: tags must be strings, got %T", kind, item)
				}
				tags = append(tags, s)
			}
			if len(tags) == 0 {
				tags = nil
			}
			events[kind] = tags
		default:
			return fmt.Errorf("parsing config: events.%s: expected \"*\", a tag or a list of tags, got %T", kind, val)
		}
	}
	cfg.Events = events
	return nil
}

func rawSection(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Validate checks c after command-line overrides have been applied.
func (c *Config) Validate() error {
	return validate(c)
}

func validate(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Console.Format) == "" {
		errs = append(errs, "console format must not be empty")
	}
	switch cfg.Console.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, fmt.Sprintf("console color must be auto, always or never, got %q", cfg.Console.Color))
	}
	if cfg.Console.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Console.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("console timezone %q: %v", cfg.Console.Timezone, err))
		}
	}

	if err := cfg.ConsoleTheme().Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			errs = append(errs, line)
		}
	}

	if len(cfg.Events) == 0 {
		errs = append(errs, "events must subscribe to at least one kind")
	}
	for kind := range cfg.Events {
		if strings.TrimSpace(kind) == "" {
			errs = append(errs, "events contains an empty kind")
		}
	}

	if cfg.Input.MaxLineBytes < 1 {
		errs = append(errs, fmt.Sprintf("input max_line_bytes must be positive, got %d", cfg.Input.MaxLineBytes))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation error: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ConsoleTheme converts the theme section into a console.Theme.
func (c Config) ConsoleTheme() console.Theme {
	methods := make(map[string]console.Color, len(c.Theme.Methods))
	for m, col := range c.Theme.Methods {
		methods[m] = console.Color(col)
	}
	return console.Theme{
		Timestamp:     console.Color(c.Theme.Timestamp),
		Path:          console.Color(c.Theme.Path),
		Label:         console.Color(c.Theme.Label),
		Methods:       methods,
		DefaultMethod: console.Color(c.Theme.DefaultMethod),
		Status5xx:     console.Color(c.Theme.Status5xx),
		Status4xx:     console.Color(c.Theme.Status4xx),
		Status3xx:     console.Color(c.Theme.Status3xx),
		StatusOK:      console.Color(c.Theme.StatusOK),
	}
}

// Subscription converts the events section into a reporter.Subscription.
func (c Config) Subscription() reporter.Subscription {
	sub := make(reporter.Subscription, len(c.Events))
	for kind, tags := range c.Events {
		sub[kind] = append([]string(nil), tags...)
	}
	return sub
}

// Location resolves the configured timezone; empty means time.Local.
func (c Config) Location() (*time.Location, error) {
	if c.Console.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Console.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Console.Timezone, err)
	}
	return loc, nil
}
