// Package timefmt renders timestamps with moment.js style patterns such as
// "YYMMDD/HHmmss.SSS".
package timefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultPattern is the pattern used when none is configured.
const DefaultPattern = "YYMMDD/HHmmss.SSS"

type token struct {
	literal string
	verb    string // empty for literal text
}

// Layout is a compiled pattern. The zero value formats to "".
type Layout struct {
	pattern string
	tokens  []token
}

// verbs is ordered longest first so that "MMMM" wins over "MM".
var verbs = []string{
	"YYYY", "MMMM", "DDDD", "dddd",
	"SSS", "MMM", "DDD", "ddd",
	"YY", "MM", "DD", "Do", "dd", "HH", "hh", "kk", "mm", "ss", "SS", "ZZ",
	"M", "D", "d", "H", "h", "k", "m", "s", "S", "A", "a", "Z", "X", "x",
}

// Compile tokenizes pattern. Text inside square brackets is copied verbatim;
// an unterminated bracket is treated as literal text.
func Compile(pattern string) Layout {
	l := Layout{pattern: pattern}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			l.tokens = append(l.tokens, token{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); {
		if pattern[i] == '[' {
			if end := strings.IndexByte(pattern[i+1:], ']'); end >= 0 {
				lit.WriteString(pattern[i+1 : i+1+end])
				i += end + 2
				continue
			}
		}
		matched := ""
		for _, v := range verbs {
			if strings.HasPrefix(pattern[i:], v) {
				matched = v
				break
			}
		}
		if matched == "" {
			lit.WriteByte(pattern[i])
			i++
			continue
		}
		flush()
		l.tokens = append(l.tokens, token{verb: matched})
		i += len(matched)
	}
	flush()
	return l
}

// Pattern returns the source pattern.
func (l Layout) Pattern() string { return l.pattern }

// Format renders t in t's own location.
func (l Layout) Format(t time.Time) string {
	var b strings.Builder
	for _, tok := range l.tokens {
		if tok.verb == "" {
			b.WriteString(tok.literal)
			continue
		}
		b.WriteString(render(tok.verb, t))
	}
	return b.String()
}

// Format compiles pattern and renders t in one step.
func Format(pattern string, t time.Time) string {
	return Compile(pattern).Format(t)
}

func render(verb string, t time.Time) string {
	switch verb {
	case "YYYY":
		return pad(t.Year(), 4)
	case "YY":
		return pad(t.Year()%100, 2)
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "MM":
		return pad(int(t.Month()), 2)
	case "MMM":
		return t.Month().String()[:3]
	case "MMMM":
		return t.Month().String()
	case "D":
		return strconv.Itoa(t.Day())
	case "DD":
		return pad(t.Day(), 2)
	case "Do":
		return ordinal(t.Day())
	case "DDD":
		return strconv.Itoa(t.YearDay())
	case "DDDD":
		return pad(t.YearDay(), 3)
	case "d":
		return strconv.Itoa(int(t.Weekday()))
	case "dd":
		return t.Weekday().String()[:2]
	case "ddd":
		return t.Weekday().String()[:3]
	case "dddd":
		return t.Weekday().String()
	case "H":
		return strconv.Itoa(t.Hour())
	case "HH":
		return pad(t.Hour(), 2)
	case "h":
		return strconv.Itoa(hour12(t))
	case "hh":
		return pad(hour12(t), 2)
	case "k":
		return strconv.Itoa(hour24(t))
	case "kk":
		return pad(hour24(t), 2)
	case "m":
		return strconv.Itoa(t.Minute())
	case "mm":
		return pad(t.Minute(), 2)
	case "s":
		return strconv.Itoa(t.Second())
	case "ss":
		return pad(t.Second(), 2)
	case "S":
		return strconv.Itoa(t.Nanosecond() / 1e8)
	case "SS":
		return pad(t.Nanosecond()/1e7, 2)
	case "SSS":
		return pad(t.Nanosecond()/1e6, 3)
	case "A":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "a":
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	case "Z":
		return t.Format("-07:00")
	case "ZZ":
		return t.Format("-0700")
	case "X":
		return strconv.FormatInt(t.Unix(), 10)
	case "x":
		return strconv.FormatInt(t.UnixMilli(), 10)
	}
	return verb
}

func pad(n, width int) string {
	if n < 0 {
		return "-" + fmt.Sprintf("%0*d", width, -n)
	}
	return fmt.Sprintf("%0*d", width, n)
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		return 12
	}
	return h
}

// hour24 is the 1-24 clock used by the "k" tokens.
func hour24(t time.Time) int {
	if t.Hour() == 0 {
		return 24
	}
	return t.Hour()
}

func ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
