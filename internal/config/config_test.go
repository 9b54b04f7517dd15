package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nixlim/good-console/internal/console"
	"github.com/nixlim/good-console/internal/ingest"
	"github.com/nixlim/good-console/internal/reporter"
	"github.com/nixlim/good-console/internal/timefmt"
)

func TestConfigParser_Defaults(t *testing.T) {
	result, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("expected no error for missing config file, got: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}

	cfg := result.Config

	if cfg.Console.Format != timefmt.DefaultPattern {
		t.Errorf("default format: want %q, got %q", timefmt.DefaultPattern, cfg.Console.Format)
	}
	if cfg.Console.Color != ColorAuto {
		t.Errorf("default color: want auto, got %q", cfg.Console.Color)
	}
	if cfg.Console.Timezone != "" {
		t.Errorf("default timezone: want empty, got %q", cfg.Console.Timezone)
	}
	if cfg.Input.MaxLineBytes != ingest.DefaultMaxLineBytes {
		t.Errorf("default max_line_bytes: want %d, got %d", ingest.DefaultMaxLineBytes, cfg.Input.MaxLineBytes)
	}
	if got := cfg.Subscription().String(); got != reporter.All().String() {
		t.Errorf("default events: want %q, got %q", reporter.All().String(), got)
	}

	th := cfg.ConsoleTheme()
	def := console.DefaultTheme()
	if th.Timestamp != def.Timestamp || th.Path != def.Path || th.StatusOK != def.StatusOK {
		t.Errorf("default theme mismatch: %+v", th)
	}
	if th.MethodColor("GET") != console.LightGreen {
		t.Errorf("default get color: want lightGreen, got %q", th.MethodColor("GET"))
	}

	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("unexpected location error: %v", err)
	}
	if loc != time.Local {
		t.Errorf("default location: want time.Local, got %v", loc)
	}
}

func TestConfigParser_PartialConfig(t *testing.T) {
	tomlData := `
[console]
color = "never"

[theme]
path = "purple"
`
	result, err := LoadFromString(tomlData)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := result.Config

	if cfg.Console.Color != ColorNever {
		t.Errorf("color: want never, got %q", cfg.Console.Color)
	}
	if cfg.Console.Format != timefmt.DefaultPattern {
		t.Errorf("format should keep default, got %q", cfg.Console.Format)
	}
	if cfg.Theme.Path != "purple" {
		t.Errorf("theme path: want purple, got %q", cfg.Theme.Path)
	}
	if cfg.Theme.Timestamp != string(console.DarkGray) {
		t.Errorf("theme timestamp should keep default, got %q", cfg.Theme.Timestamp)
	}
	if len(cfg.Theme.Methods) != 4 {
		t.Errorf("theme methods should keep defaults, got %v", cfg.Theme.Methods)
	}
}

func TestConfigParser_FullConfig(t *testing.T) {
	tomlData := `
[console]
format = "YYYY-MM-DD HH:mm:ss"
color = "always"
timezone = "UTC"

[theme]
timestamp = "lightGray"
status_5xx = "lightRed"

[theme.methods]
PATCH = "purple"
get = "white"

[events]
response = "*"
log = ["db", "cache"]
error = "fatal"

[input]
max_line_bytes = 4096
`
	result, err := LoadFromString(tomlData)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
	cfg := result.Config

	if cfg.Console.Format != "YYYY-MM-DD HH:mm:ss" {
		t.Errorf("format: got %q", cfg.Console.Format)
	}
	if cfg.Console.Color != ColorAlways {
		t.Errorf("color: want always, got %q", cfg.Console.Color)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("unexpected location error: %v", err)
	}
	if loc.String() != "UTC" {
		t.Errorf("location: want UTC, got %s", loc)
	}

	th := cfg.ConsoleTheme()
	if th.Timestamp != console.LightGray {
		t.Errorf("timestamp color: want lightGray, got %q", th.Timestamp)
	}
	if th.Status5xx != console.LightRed {
		t.Errorf("5xx color: want lightRed, got %q", th.Status5xx)
	}
	if th.MethodColor("patch") != console.Purple {
		t.Errorf("patch color: want purple, got %q", th.MethodColor("patch"))
	}
	if th.MethodColor("GET") != console.White {
		t.Errorf("get color: want white, got %q", th.MethodColor("GET"))
	}
	if th.MethodColor("post") != console.Yellow {
		t.Errorf("post color should keep default yellow, got %q", th.MethodColor("post"))
	}

	want := "error=fatal log=db,cache response"
	if got := cfg.Subscription().String(); got != want {
		t.Errorf("events: want %q, got %q", want, got)
	}
	if cfg.Input.MaxLineBytes != 4096 {
		t.Errorf("max_line_bytes: want 4096, got %d", cfg.Input.MaxLineBytes)
	}
}

func TestConfigParser_InvalidValue(t *testing.T) {
	tests := []struct {
		name     string
		toml     string
		contains string
	}{
		{
			name:     "empty format",
			toml:     "[console]\nformat = \"  \"\n",
			contains: "console format must not be empty",
		},
		{
			name:     "bad color mode",
			toml:     "[console]\ncolor = \"sometimes\"\n",
			contains: "console color must be auto, always or never",
		},
		{
			name:     "bad timezone",
			toml:     "[console]\ntimezone = \"Mars/Olympus_Mons\"\n",
			contains: "console timezone",
		},
		{
			name:     "unknown theme color",
			toml:     "[theme]\npath = \"mauve\"\n",
			contains: "theme path",
		},
		{
			name:     "unknown method color",
			toml:     "[theme.methods]\npatch = \"mauve\"\n",
			contains: "theme methods.patch",
		},
		{
			name:     "zero max_line_bytes",
			toml:     "[input]\nmax_line_bytes = 0\n",
			contains: "input max_line_bytes must be positive",
		},
		{
			name:     "empty events",
			toml:     "[events]\n",
			contains: "events must subscribe to at least one kind",
		},
		{
			name:     "non-string tag",
			toml:     "[events]\nlog = [1, 2]\n",
			contains: "events.log: tags must be strings",
		},
		{
			name:     "wrong events value type",
			toml:     "[events]\nlog = 3\n",
			contains: "events.log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromString(tt.toml)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("expected error containing %q, got %q", tt.contains, err.Error())
			}
		})
	}
}

func TestConfigParser_MultipleValidationErrors(t *testing.T) {
	_, err := LoadFromString("[console]\ncolor = \"x\"\n[input]\nmax_line_bytes = -1\n")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "config validation error: ") {
		t.Errorf("unexpected prefix: %q", msg)
	}
	if !strings.Contains(msg, "console color") || !strings.Contains(msg, "max_line_bytes") {
		t.Errorf("expected both problems reported, got %q", msg)
	}
}

func TestConfigParser_UnknownKey(t *testing.T) {
	tomlData := `
colour = "never"

[console]
format = "HH:mm"
width = 80

[input]
max_line_bytes = 100
`
	result, err := LoadFromString(tomlData)
	if err != nil {
		t.Fatalf("unknown keys should not cause error, got: %v", err)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(result.Warnings), result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], `"colour"`) {
		t.Errorf("expected warning for colour, got %q", result.Warnings[0])
	}
	if !strings.Contains(result.Warnings[1], `"console.width"`) {
		t.Errorf("expected warning for console.width, got %q", result.Warnings[1])
	}
	if result.Config.Console.Format != "HH:mm" {
		t.Errorf("known keys should still apply, got format %q", result.Config.Console.Format)
	}
}

func TestConfigParser_EventsReplaceDefault(t *testing.T) {
	result, err := LoadFromString("[events]\nops = \"*\"\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub := result.Config.Subscription()
	if _, ok := sub[reporter.Wildcard]; ok {
		t.Errorf("wildcard should be replaced, got %v", sub)
	}
	if tags, ok := sub["ops"]; !ok || tags != nil {
		t.Errorf("expected ops to accept everything, got %v (present=%v)", tags, ok)
	}
}

func TestConfigParser_EmptyTagListAcceptsAll(t *testing.T) {
	result, err := LoadFromString("[events]\nlog = []\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Config.Subscription().String(); got != "log" {
		t.Errorf("want %q, got %q", "log", got)
	}
}

func TestConfigParser_SubscriptionIsCopy(t *testing.T) {
	result, err := LoadFromString("[events]\nlog = [\"db\"]\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub := result.Config.Subscription()
	sub["log"][0] = "mutated"
	if result.Config.Events["log"][0] != "db" {
		t.Errorf("subscription should not alias config, got %v", result.Config.Events)
	}
}

func TestConfigParser_FileLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := "[console]\nformat = \"HH:mm:ss\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.Console.Format != "HH:mm:ss" {
		t.Errorf("format: want HH:mm:ss, got %q", result.Config.Console.Format)
	}
}

func TestConfigParser_FileLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[console\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("expected path in error, got %q", err.Error())
	}
}

func TestConfigParser_EmptyString(t *testing.T) {
	result, err := LoadFromString("")
	if err != nil {
		t.Fatalf("empty config should not error, got: %v", err)
	}
	if result.Config.Console.Format != timefmt.DefaultPattern {
		t.Errorf("empty config should produce defaults, got format %q", result.Config.Console.Format)
	}
}

func TestDefaultConfig_ThemeIsIndependent(t *testing.T) {
	a := DefaultConfig()
	a.Theme.Methods["get"] = "black"
	b := DefaultConfig()
	if b.Theme.Methods["get"] != string(console.LightGreen) {
		t.Errorf("DefaultConfig should return fresh maps, got %q", b.Theme.Methods["get"])
	}
}
