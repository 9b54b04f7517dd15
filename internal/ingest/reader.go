// Package ingest reads newline-delimited JSON events from a stream and hands
// them to a dispatcher.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"pkt.systems/pslog"

	"github.com/nixlim/good-console/internal/events"
)

// DefaultMaxLineBytes bounds a single input line.
const DefaultMaxLineBytes = 1 << 20

// Handler receives decoded events. It matches reporter.Dispatcher.Handle.
type Handler interface {
	Handle(e events.Event) (delivered bool, err error)
}

// Stats counts what happened to the lines of one stream.
type Stats struct {
	Lines     int // non-blank lines read
	Delivered int // events accepted by the handler
	Filtered  int // events rejected by the subscription
	Malformed int // lines that failed to decode
}

// Reader decodes NDJSON events and passes them to a Handler.
type Reader struct {
	handler      Handler
	logger       Logger
	maxLineBytes int
}

// ReaderOption configures optional Reader behavior.
type ReaderOption func(*Reader)

// WithLogger attaches a debug logger that sees every decoded event.
func WithLogger(l Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMaxLineBytes overrides DefaultMaxLineBytes.
func WithMaxLineBytes(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxLineBytes = n
		}
	}
}

// NewReader creates a Reader that delivers to h.
func NewReader(h Handler, opts ...ReaderOption) *Reader {
	r := &Reader{
		handler:      h,
		logger:       NopLogger{},
		maxLineBytes: DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run consumes src until EOF, a handler error, or ctx cancellation. Lines
// that do not decode, or that exceed the line limit, are logged and skipped;
// a handler error stops the run and is returned with the offending line
// number.
func (r *Reader) Run(ctx context.Context, src io.Reader) (Stats, error) {
	logger := pslog.Ctx(ctx)
	var stats Stats

	br := bufio.NewReaderSize(src, min(64*1024, r.maxLineBytes))
	lineNo := 0
	for {
		raw, tooLong, readErr := r.readLine(br)
		eof := errors.Is(readErr, io.EOF)
		if readErr != nil && !eof {
			return stats, fmt.Errorf("reading events after line %d: %w", lineNo, readErr)
		}
		if eof && len(raw) == 0 && !tooLong {
			break
		}
		lineNo++
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := r.handleLine(logger, lineNo, raw, tooLong, &stats); err != nil {
			return stats, err
		}
		if eof {
			break
		}
	}
	logger.Debug("event stream finished", "lines", stats.Lines, "delivered", stats.Delivered,
		"filtered", stats.Filtered, "malformed", stats.Malformed)
	return stats, nil
}

func (r *Reader) handleLine(logger pslog.Logger, lineNo int, raw []byte, tooLong bool, stats *Stats) error {
	if tooLong {
		stats.Lines++
		stats.Malformed++
		logger.Warn("skipping oversized event", "line", lineNo, "max_line_bytes", r.maxLineBytes)
		return nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	stats.Lines++

	ev, err := events.Decode(raw)
	if err != nil {
		stats.Malformed++
		logger.Warn("skipping malformed event", "line", lineNo, "err", err)
		return nil
	}
	r.logger.LogEvent(lineNo, ev)

	delivered, err := r.handler.Handle(ev)
	if err != nil {
		return fmt.Errorf("line %d: %w", lineNo, err)
	}
	if delivered {
		stats.Delivered++
	} else {
		stats.Filtered++
	}
	return nil
}

// readLine returns the next line without its newline. A line longer than
// maxLineBytes is consumed to its end but not kept; tooLong reports that.
// err is io.EOF when the stream ended, possibly after a final unterminated
// line.
func (r *Reader) readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	size := 0
	for {
		var chunk []byte
		chunk, err = br.ReadSlice('\n')
		n := len(chunk)
		if err == nil {
			n--
		}
		size += n
		switch {
		case size > r.maxLineBytes:
			tooLong, line = true, nil
		case !tooLong:
			line = append(line, chunk[:n]...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}
