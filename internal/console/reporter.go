// Package console renders monitoring events as colorized, human-readable
// terminal lines.
//
// Every line has the shape
//
//	<timestamp> [<kind>,<tag>,...] <data>
//
// with the timestamp formatted in local time using a moment-style pattern.
// Response events produce three lines (summary, request payload, response
// payload); ops, error, request and log events produce one. Events of any
// other kind produce a single uncolored "Unknown event" notice.
package console

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/nixlim/good-console/internal/events"
	"github.com/nixlim/good-console/internal/safejson"
	"github.com/nixlim/good-console/internal/timefmt"
)

const mebibyte = 1024 * 1024

// Settings is the reporter configuration. Empty fields take defaults.
type Settings struct {
	// Format is a moment-style date pattern, timefmt.DefaultPattern if empty.
	Format string
}

// Reporter writes one or more formatted lines per event. It holds no state
// between calls besides its configuration.
type Reporter struct {
	out    io.Writer
	layout timefmt.Layout
	loc    *time.Location
	now    func() time.Time
	color  bool
	theme  Theme
}

// Option customises a Reporter.
type Option func(*Reporter)

// WithWriter sets the output destination. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(r *Reporter) { r.out = w }
}

// WithLocation sets the zone used for line timestamps. Defaults to
// time.Local. The unknown-event notice always uses UTC.
func WithLocation(loc *time.Location) Option {
	return func(r *Reporter) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithClock sets the source of "now" for events without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		if now != nil {
			r.now = now
		}
	}
}

// WithColor toggles ANSI colors. When disabled, escape sequences are
// stripped from the rendered lines before they are written.
func WithColor(enabled bool) Option {
	return func(r *Reporter) { r.color = enabled }
}

// WithTheme replaces the default color assignments. Unknown color names are
// reported by Report, not here.
func WithTheme(t Theme) Option {
	return func(r *Reporter) { r.theme = t }
}

// New creates a Reporter.
func New(settings Settings, opts ...Option) *Reporter {
	format := settings.Format
	if format == "" {
		format = timefmt.DefaultPattern
	}
	r := &Reporter{
		out:    os.Stdout,
		layout: timefmt.Compile(format),
		loc:    time.Local,
		now:    time.Now,
		color:  true,
		theme:  DefaultTheme(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// line is one printable record. It only lives for the duration of a Report
// call.
type line struct {
	timestamp int64
	tags      []string
	data      string
}

// Report formats e and writes the result. Nothing is written if formatting
// fails: serialization errors and unknown theme colors are returned as is.
func (r *Reporter) Report(e events.Event) error {
	meta := e.Metadata()
	kind := e.Kind()

	tags := make([]string, 0, len(meta.Tags)+1)
	tags = append(tags, kind)
	tags = append(tags, meta.Tags...)

	var (
		lines []line
		err   error
	)
	switch ev := e.(type) {
	case *events.Response:
		lines, err = r.formatResponse(ev, tags)
	case *events.Ops:
		lines = []line{{meta.Timestamp, tags, formatOps(ev)}}
	case *events.Error:
		data := "message: " + ev.Err.Message + " stack: " + ev.Err.Stack
		lines = []line{{meta.Timestamp, tags, data}}
	case *events.Log:
		if kind != events.KindLog && kind != events.KindRequest {
			return r.reportUnknown(kind, meta.Timestamp)
		}
		var data string
		data, err = formatData(ev.Data)
		lines = []line{{meta.Timestamp, tags, "data: " + data}}
	default:
		return r.reportUnknown(kind, meta.Timestamp)
	}
	if err != nil {
		return fmt.Errorf("formatting %s event: %w", kind, err)
	}

	var buf bytes.Buffer
	for _, l := range lines {
		s, err := r.render(l)
		if err != nil {
			return fmt.Errorf("formatting %s event: %w", kind, err)
		}
		buf.WriteString(s)
		buf.WriteByte('\n')
	}
	return r.write(kind, buf.Bytes())
}

// render produces "<timestamp> [<tags>] <data>".
func (r *Reporter) render(l line) (string, error) {
	ts, err := Colorize(r.theme.Timestamp, r.layout.Format(r.timeOf(l.timestamp).In(r.loc)))
	if err != nil {
		return "", err
	}
	return ts + " [" + strings.Join(l.tags, ",") + "] " + l.data, nil
}

func (r *Reporter) reportUnknown(kind string, timestamp int64) error {
	ts := r.layout.Format(r.timeOf(timestamp).UTC())
	msg := fmt.Sprintf("Unknown event \"%s\" occurred with timestamp %s.\n", kind, ts)
	return r.write(kind, []byte(msg))
}

func (r *Reporter) write(kind string, p []byte) error {
	if !r.color {
		p = []byte(ansi.Strip(string(p)))
	}
	if _, err := r.out.Write(p); err != nil {
		return fmt.Errorf("writing %s event: %w", kind, err)
	}
	return nil
}

func (r *Reporter) timeOf(ms int64) time.Time {
	if ms == 0 {
		return r.now()
	}
	return time.UnixMilli(ms)
}

func (r *Reporter) formatResponse(ev *events.Response, tags []string) ([]line, error) {
	p := painter{}
	query := ev.Query.Encode()

	requestPayload, err := r.formatPayload(&p, "request  ", ev.RequestPayload)
	if err != nil {
		return nil, err
	}
	responsePayload, err := r.formatPayload(&p, "response ", ev.ResponsePayload)
	if err != nil {
		return nil, err
	}

	target := ev.Path
	if query != "" {
		target += "?" + query
	}
	status := ""
	if ev.StatusCode != nil && *ev.StatusCode != 0 {
		status = strconv.Itoa(*ev.StatusCode)
	}

	method := p.paint(r.theme.MethodColor(ev.Method), strings.ToUpper(ev.Method))
	path := p.paint(r.theme.Path, target)
	statusCode := p.paint(r.theme.StatusColor(ev.StatusCode), status)
	if p.err != nil {
		return nil, p.err
	}

	elapsed := "undefined"
	if ev.ResponseTime != nil {
		elapsed = safejson.Number(*ev.ResponseTime)
	}
	summary := fmt.Sprintf("%s %s %s (%sms)", method, path, statusCode, elapsed)
	ts := ev.Timestamp
	return []line{
		{ts, tags, summary},
		{ts, tags, requestPayload},
		{ts, tags, responsePayload},
	}, nil
}

// formatPayload renders structured payloads behind a dimmed label. Scalars
// and missing payloads render as "".
func (r *Reporter) formatPayload(p *painter, label string, v any) (string, error) {
	if !safejson.IsStructured(v) {
		return "", nil
	}
	body, err := safejson.Stringify(v)
	if err != nil {
		return "", err
	}
	prefix := p.paint(r.theme.Label, label)
	if p.err != nil {
		return "", p.err
	}
	return prefix + body, nil
}

func formatOps(ev *events.Ops) string {
	rss := math.Floor(ev.Proc.Mem.RSS/mebibyte + 0.5)
	return "memory: " + safejson.Number(rss) +
		"Mb, uptime (seconds): " + safejson.Number(ev.Proc.Uptime) +
		", load: " + safejson.ToString(ev.OS.Load)
}

func formatData(v any) (string, error) {
	if safejson.IsStructured(v) {
		return safejson.Stringify(v)
	}
	return safejson.ToString(v), nil
}

// painter colorizes a sequence of fragments, remembering the first failure.
type painter struct {
	err error
}

func (p *painter) paint(c Color, text string) string {
	if p.err != nil {
		return ""
	}
	s, err := Colorize(c, text)
	if err != nil {
		p.err = err
		return ""
	}
	return s
}
