package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"pkt.systems/pslog"

	"github.com/nixlim/good-console/internal/config"
	"github.com/nixlim/good-console/internal/console"
	"github.com/nixlim/good-console/internal/ingest"
	"github.com/nixlim/good-console/internal/reporter"
)

type runOptions struct {
	configPath   string
	format       string
	color        string
	timezone     string
	events       []string
	debugPath    string
	maxLineBytes int
}

func (o *runOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.configPath, "config", "c", "", "path to config file (default ~/.config/good-console/config.toml)")
	flags.StringVar(&o.format, "format", "", "timestamp pattern, e.g. YYMMDD/HHmmss.SSS")
	flags.StringVar(&o.color, "color", "", "color mode: auto, always or never")
	flags.StringVar(&o.timezone, "timezone", "", "IANA timezone for timestamps (default local)")
	flags.StringArrayVarP(&o.events, "event", "e", nil, "subscribe to kind[=tag1,tag2] (repeatable, replaces config events)")
	flags.StringVar(&o.debugPath, "debug", "", "append a JSONL record of every decoded event to this file")
	flags.IntVar(&o.maxLineBytes, "max-line-bytes", 0, "maximum size of one input line")
}

// applyOverrides copies the flags the user actually set onto cfg.
func (o *runOptions) applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Console.Format = o.format
	}
	if flags.Changed("color") {
		cfg.Console.Color = strings.ToLower(strings.TrimSpace(o.color))
	}
	if flags.Changed("timezone") {
		cfg.Console.Timezone = o.timezone
	}
	if flags.Changed("max-line-bytes") {
		cfg.Input.MaxLineBytes = o.maxLineBytes
	}
	if len(o.events) > 0 {
		sub, err := parseEventSpecs(o.events)
		if err != nil {
			return err
		}
		cfg.Events = sub
	}
	return cfg.Validate()
}

func parseEventSpecs(specs []string) (reporter.Subscription, error) {
	sub := reporter.Subscription{}
	for _, spec := range specs {
		if err := sub.ParseSpec(spec); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.Load()
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return config.LoadFrom(path)
}

// colorEnabled resolves a color mode. auto means color only when stdout is a
// terminal and NO_COLOR is unset.
func colorEnabled(mode string, terminal func() bool) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return terminal()
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func runConsole(cmd *cobra.Command, opts *runOptions, args []string) error {
	ctx := cmd.Context()
	logger := pslog.Ctx(ctx)

	loaded, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	for _, w := range loaded.Warnings {
		logger.Warn("config warning", "warning", w)
	}
	cfg := loaded.Config
	if err := opts.applyOverrides(cmd, &cfg); err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	sink := console.New(console.Settings{Format: cfg.Console.Format},
		console.WithWriter(cmd.OutOrStdout()),
		console.WithLocation(loc),
		console.WithColor(colorEnabled(cfg.Console.Color, stdoutIsTerminal)),
		console.WithTheme(cfg.ConsoleTheme()),
	)
	sub := cfg.Subscription()
	logger.Debug("console configured", "format", cfg.Console.Format, "timezone", loc.String(), "events", sub.String())

	readerOpts := []ingest.ReaderOption{ingest.WithMaxLineBytes(cfg.Input.MaxLineBytes)}
	if opts.debugPath != "" {
		debugFile, err := os.OpenFile(opts.debugPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening debug log %q: %w", opts.debugPath, err)
		}
		defer debugFile.Close()
		readerOpts = append(readerOpts, ingest.WithLogger(ingest.NewFileLogger(debugFile)))
	}
	reader := ingest.NewReader(reporter.NewDispatcher(sub, sink), readerOpts...)

	if len(args) == 0 {
		args = []string{"-"}
	}
	var total ingest.Stats
	for _, name := range args {
		stats, err := readSource(cmd, reader, name)
		total.Lines += stats.Lines
		total.Delivered += stats.Delivered
		total.Filtered += stats.Filtered
		total.Malformed += stats.Malformed
		if err != nil {
			return err
		}
	}
	logger.Debug("all sources finished", "sources", len(args), "lines", total.Lines,
		"delivered", total.Delivered, "filtered", total.Filtered, "malformed", total.Malformed)
	return nil
}

func readSource(cmd *cobra.Command, reader *ingest.Reader, name string) (ingest.Stats, error) {
	var src io.Reader = cmd.InOrStdin()
	label := "stdin"
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return ingest.Stats{}, fmt.Errorf("opening events: %w", err)
		}
		defer f.Close()
		src = f
		label = name
	}
	stats, err := reader.Run(cmd.Context(), src)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", label, err)
	}
	return stats, nil
}
