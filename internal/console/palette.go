package console

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownColor is returned when a color name is not in the palette.
var ErrUnknownColor = errors.New("unknown color")

// Color is a palette color name such as "lightGreen".
type Color string

const (
	Black       Color = "black"
	Blue        Color = "blue"
	Brown       Color = "brown"
	Cyan        Color = "cyan"
	DarkGray    Color = "darkGray"
	Green       Color = "green"
	LightBlue   Color = "lightBlue"
	LightCyan   Color = "lightCyan"
	LightGray   Color = "lightGray"
	LightGreen  Color = "lightGreen"
	LightPurple Color = "lightPurple"
	LightRed    Color = "lightRed"
	Purple      Color = "purple"
	Red         Color = "red"
	White       Color = "white"
	Yellow      Color = "yellow"
)

// palette maps color names to ANSI SGR parameters.
var palette = map[Color]string{
	Black:       "0;30",
	Blue:        "0;34",
	Brown:       "0;33",
	Cyan:        "0;36",
	DarkGray:    "1;30",
	Green:       "0;32",
	LightBlue:   "1;34",
	LightCyan:   "1;36",
	LightGray:   "0;37",
	LightGreen:  "1;32",
	LightPurple: "1;35",
	LightRed:    "1;31",
	Purple:      "0;35",
	Red:         "0;31",
	White:       "1;37",
	Yellow:      "1;33",
}

const reset = "\x1b[0m"

// Code returns the SGR parameters for c.
func Code(c Color) (string, error) {
	code, ok := palette[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColor, string(c))
	}
	return code, nil
}

// Colorize wraps text in the escape sequence for c followed by a reset.
func Colorize(c Color, text string) (string, error) {
	code, err := Code(c)
	if err != nil {
		return "", err
	}
	return "\x1b[" + code + "m" + text + reset, nil
}

// Colors returns every palette name in alphabetical order.
func Colors() []Color {
	out := make([]Color, 0, len(palette))
	for c := range palette {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
