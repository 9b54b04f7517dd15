package events

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Query holds request query parameters. A key maps to several values when
// the parameter was repeated.
type Query map[string][]string

// UnmarshalJSON accepts scalar values or arrays of scalars per key, the way
// hapi exposes request.query.
func (q *Query) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding query: %w", err)
	}
	out := make(Query, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case []any:
			vals := make([]string, 0, len(val))
			for _, item := range val {
				vals = append(vals, queryScalar(item))
			}
			out[k] = vals
		default:
			out[k] = []string{queryScalar(val)}
		}
	}
	*q = out
	return nil
}

// Encode renders the query in "a=1&b=x%20y" form with keys sorted. Spaces
// are escaped as %20 rather than "+". An empty query encodes to "".
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		ek := escape(k)
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(ek)
			b.WriteByte('=')
			b.WriteString(escape(v))
		}
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// queryScalar stringifies a decoded JSON scalar. Objects and null encode as
// empty, matching how query strings drop values they cannot represent.
func queryScalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
