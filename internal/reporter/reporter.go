// Package reporter routes events to a sink according to a subscription: which
// event kinds to accept and, per kind, which tags must be present.
package reporter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nixlim/good-console/internal/events"
)

// Wildcard matches any event kind when used as a Subscription key and any
// tag set when used as a tag filter.
const Wildcard = "*"

// Sink formats and outputs a single event.
type Sink interface {
	Report(e events.Event) error
}

// Subscription maps an event kind (or Wildcard) to a tag filter. An empty
// filter accepts every event of that kind; otherwise the event must carry at
// least one of the listed tags.
type Subscription map[string][]string

// All subscribes to every event.
func All() Subscription {
	return Subscription{Wildcard: nil}
}

// Accepts reports whether e passes the subscription. An exact kind entry
// takes precedence over the Wildcard entry.
func (s Subscription) Accepts(e events.Event) bool {
	filter, ok := s[e.Kind()]
	if !ok {
		filter, ok = s[Wildcard]
		if !ok {
			return false
		}
	}
	if len(filter) == 0 {
		return true
	}
	for _, want := range filter {
		if want == Wildcard {
			return true
		}
		for _, tag := range e.Metadata().Tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

// String renders the subscription as "kind=tag1,tag2 kind2" with kinds sorted.
func (s Subscription) String() string {
	kinds := make([]string, 0, len(s))
	for k := range s {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if len(s[k]) == 0 {
			parts = append(parts, k)
			continue
		}
		parts = append(parts, k+"="+strings.Join(s[k], ","))
	}
	return strings.Join(parts, " ")
}

// ParseSpec adds one "kind" or "kind=tag1,tag2" entry to s. A repeated kind
// merges its tags; a kind given without tags accepts everything.
func (s Subscription) ParseSpec(spec string) error {
	kind, tagList, hasTags := strings.Cut(strings.TrimSpace(spec), "=")
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return fmt.Errorf("invalid event spec %q: empty kind", spec)
	}
	if !hasTags {
		s[kind] = nil
		return nil
	}

	var tags []string
	for _, t := range strings.Split(tagList, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return fmt.Errorf("invalid event spec %q: empty tag list", spec)
	}
	if existing, ok := s[kind]; ok {
		if len(existing) == 0 {
			return nil
		}
		tags = append(existing, tags...)
	}
	s[kind] = tags
	return nil
}

// Dispatcher applies a Subscription in front of a Sink.
type Dispatcher struct {
	sub  Subscription
	sink Sink
}

// NewDispatcher creates a Dispatcher. A nil subscription accepts everything.
func NewDispatcher(sub Subscription, sink Sink) *Dispatcher {
	if sub == nil {
		sub = All()
	}
	return &Dispatcher{sub: sub, sink: sink}
}

// Handle delivers e to the sink if the subscription accepts it. delivered is
// false for filtered events. Sink errors are returned unchanged.
func (d *Dispatcher) Handle(e events.Event) (delivered bool, err error) {
	if !d.sub.Accepts(e) {
		return false, nil
	}
	if err := d.sink.Report(e); err != nil {
		return true, err
	}
	return true, nil
}
