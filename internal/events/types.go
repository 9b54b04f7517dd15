package events

import (
	"bytes"
	"encoding/json"
)

// Kinds understood by the console reporter. Any other kind is carried as an
// Unknown event.
const (
	KindResponse = "response"
	KindOps      = "ops"
	KindError    = "error"
	KindRequest  = "request"
	KindLog      = "log"
)

// Event is one monitoring record. The concrete type is selected by Kind.
type Event interface {
	// Kind returns the event discriminator, e.g. "response" or "ops".
	Kind() string
	// Metadata returns the fields shared by every event kind.
	Metadata() Meta
}

// Meta holds the fields common to all events.
type Meta struct {
	Timestamp int64    `json:"timestamp,omitempty"` // milliseconds since epoch, 0 if absent
	Tags      []string `json:"tags,omitempty"`
}

// Metadata implements part of Event for every type that embeds Meta.
func (m Meta) Metadata() Meta { return m }

// Response describes a completed HTTP request.
type Response struct {
	Meta
	Method          string   `json:"method"`
	Path            string   `json:"path"`
	Query           Query    `json:"query,omitempty"`
	StatusCode      *int     `json:"statusCode,omitempty"`
	ResponseTime    *float64 `json:"responseTime,omitempty"` // milliseconds, nil if absent
	RequestPayload  any      `json:"requestPayload,omitempty"`
	ResponsePayload any      `json:"responsePayload,omitempty"`
}

func (*Response) Kind() string { return KindResponse }

// Ops is a periodic process/OS snapshot.
type Ops struct {
	Meta
	Proc ProcStats `json:"proc"`
	OS   OSStats   `json:"os"`
}

func (*Ops) Kind() string { return KindOps }

type ProcStats struct {
	Mem    MemStats `json:"mem"`
	Uptime float64  `json:"uptime"` // seconds
}

type MemStats struct {
	RSS float64 `json:"rss"` // bytes
}

type OSStats struct {
	Load any `json:"load"` // usually a [1m, 5m, 15m] array
}

// Error carries an error raised inside the monitored process.
type Error struct {
	Meta
	Err ErrorDetail `json:"error"`
}

func (*Error) Kind() string { return KindError }

type ErrorDetail struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// Log is a free-form "log" or "request" event. Data is a string or any
// structured value.
type Log struct {
	Meta
	EventKind string `json:"-"`
	Data      any    `json:"data,omitempty"`
}

// Null marks an explicit JSON null in Log.Data, which a nil interface cannot
// tell apart from an absent field. It serializes back to null.
var Null = json.RawMessage("null")

// UnmarshalJSON decodes a log event, keeping "data": null as Null.
func (l *Log) UnmarshalJSON(data []byte) error {
	type plain Log
	aux := struct {
		*plain
		Data json.RawMessage `json:"data"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	l.Data = nil
	switch {
	case len(aux.Data) == 0:
	case bytes.Equal(aux.Data, Null):
		l.Data = Null
	default:
		var v any
		if err := json.Unmarshal(aux.Data, &v); err != nil {
			return err
		}
		l.Data = v
	}
	return nil
}

// Kind returns KindLog unless the event was created as a request event.
func (l *Log) Kind() string {
	if l.EventKind == "" {
		return KindLog
	}
	return l.EventKind
}

// Unknown is any event whose kind has no dedicated type.
type Unknown struct {
	Meta
	Name string `json:"-"`
}

func (u *Unknown) Kind() string { return u.Name }
