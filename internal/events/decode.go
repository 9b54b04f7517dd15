// Package events defines the monitoring event model consumed by the console
// reporter and decodes it from the JSON objects emitted by the upstream
// monitor.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingKind is returned when an event object has no "event" field.
var ErrMissingKind = errors.New("event kind missing")

type envelope struct {
	Event string `json:"event"`
}

// Decode parses one JSON event object. The "event" field selects the
// concrete type; unrecognised kinds decode to *Unknown.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	if strings.TrimSpace(env.Event) == "" {
		return nil, ErrMissingKind
	}
	kind := env.Event

	var ev Event
	switch kind {
	case KindResponse:
		ev = &Response{}
	case KindOps:
		ev = &Ops{}
	case KindError:
		ev = &Error{}
	case KindRequest, KindLog:
		ev = &Log{EventKind: kind}
	default:
		ev = &Unknown{Name: kind}
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decoding %s event: %w", kind, err)
	}
	return ev, nil
}
