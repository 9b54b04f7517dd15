package console

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Theme assigns palette colors to the parts of a rendered line.
type Theme struct {
	Timestamp     Color
	Path          Color
	Label         Color            // "request"/"response" payload labels
	Methods       map[string]Color // keyed by lower-case HTTP method
	DefaultMethod Color
	Status5xx     Color
	Status4xx     Color
	Status3xx     Color
	StatusOK      Color // below 300, or no status code
}

// DefaultTheme returns a fresh copy of the stock color assignments.
func DefaultTheme() Theme {
	return Theme{
		Timestamp: DarkGray,
		Path:      Blue,
		Label:     DarkGray,
		Methods: map[string]Color{
			"get":    LightGreen,
			"delete": LightRed,
			"put":    LightCyan,
			"post":   Yellow,
		},
		DefaultMethod: LightBlue,
		Status5xx:     Red,
		Status4xx:     Brown,
		Status3xx:     Cyan,
		StatusOK:      Green,
	}
}

// Validate reports every color in t that is missing from the palette.
func (t Theme) Validate() error {
	var errs []error
	check := func(role string, c Color) {
		if _, err := Code(c); err != nil {
			errs = append(errs, fmt.Errorf("theme %s: %w", role, err))
		}
	}
	check("timestamp", t.Timestamp)
	check("path", t.Path)
	check("label", t.Label)
	check("default_method", t.DefaultMethod)
	check("status_5xx", t.Status5xx)
	check("status_4xx", t.Status4xx)
	check("status_3xx", t.Status3xx)
	check("status_ok", t.StatusOK)

	methods := make([]string, 0, len(t.Methods))
	for m := range t.Methods {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	for _, m := range methods {
		check("methods."+m, t.Methods[m])
	}
	return errors.Join(errs...)
}

// MethodColor picks the color for an HTTP method, case-insensitively.
func (t Theme) MethodColor(method string) Color {
	if c, ok := t.Methods[strings.ToLower(method)]; ok {
		return c
	}
	return t.DefaultMethod
}

// StatusColor picks the color for a status code. A nil code uses StatusOK.
func (t Theme) StatusColor(code *int) Color {
	if code == nil {
		return t.StatusOK
	}
	switch {
	case *code >= 500:
		return t.Status5xx
	case *code >= 400:
		return t.Status4xx
	case *code >= 300:
		return t.Status3xx
	default:
		return t.StatusOK
	}
}
