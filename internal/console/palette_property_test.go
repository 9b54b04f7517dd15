package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"pgregory.net/rapid"

	"github.com/nixlim/good-console/internal/events"
)

// TestProperty_ColorizeStripRoundTrip verifies that colorizing any printable
// text with any palette color ends with a reset and strips back to the input.
func TestProperty_ColorizeStripRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		color := rapid.SampledFrom(Colors()).Draw(t, "color")
		text := rapid.StringMatching(`[ -~]{0,40}`).Draw(t, "text")

		got, err := Colorize(color, text)
		if err != nil {
			t.Fatalf("Colorize(%q) failed: %v", color, err)
		}
		if !strings.HasSuffix(got, "\x1b[0m") {
			t.Fatalf("missing reset suffix in %q", got)
		}
		if stripped := ansi.Strip(got); stripped != text {
			t.Fatalf("strip round trip: expected %q, got %q", text, stripped)
		}
	})
}

// TestProperty_ResponseAlwaysThreeLines verifies that any response event
// renders to exactly three lines that share timestamp and tag prefix.
func TestProperty_ResponseAlwaysThreeLines(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		method := rapid.SampledFrom([]string{"get", "post", "put", "delete", "patch", "options"}).Draw(t, "method")
		path := rapid.StringMatching(`/[a-z0-9/]{0,20}`).Draw(t, "path")
		status := rapid.IntRange(100, 599).Draw(t, "status")
		tags := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 0, 4).Draw(t, "tags")
		ts := rapid.Int64Range(1, 4102444800000).Draw(t, "timestamp")

		var buf bytes.Buffer
		r := New(Settings{}, WithWriter(&buf), WithLocation(time.UTC), WithColor(false))
		err := r.Report(&events.Response{
			Meta:       events.Meta{Timestamp: ts, Tags: tags},
			Method:     method,
			Path:       path,
			StatusCode: &status,
		})
		if err != nil {
			t.Fatalf("Report failed: %v", err)
		}

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
		}
		prefix := time.UnixMilli(ts).UTC().Format("060102/150405.000") + " [" + strings.Join(append([]string{"response"}, tags...), ",") + "] "
		for i, l := range lines {
			if !strings.HasPrefix(l, prefix) {
				t.Fatalf("line %d: expected prefix %q, got %q", i, prefix, l)
			}
		}
	})
}
