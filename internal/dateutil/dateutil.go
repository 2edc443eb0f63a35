// Package dateutil resolves the date shown in header and footer templates.
//
// A date value is either literal text, passed through unchanged, or one of
// "today" and "today:LAYOUT", which format the current date. LAYOUT uses
// spreadsheet-style tokens (YYYY, YY, MMMM, MMM, MM, M, DD, D) or a preset
// name; text inside square brackets is copied literally.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidLayout reports an unusable date layout.
var ErrInvalidLayout = errors.New("invalid date layout")

// MaxLayoutLength bounds user-supplied layouts.
const MaxLayoutLength = 50

// DefaultLayout formats "today" without an explicit layout.
const DefaultLayout = "YYYY-MM-DD"

const todayKeyword = "today"

// Presets name common layouts. Lookup is case-insensitive.
var Presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
}

// tokens are tried longest first at each position.
var tokens = []struct{ token, layout string }{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// GoLayout translates a token layout into a time.Format layout.
func GoLayout(layout string) (string, error) {
	switch {
	case layout == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidLayout)
	case len(layout) > MaxLayoutLength:
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidLayout, MaxLayoutLength)
	}

	var b strings.Builder
	rest := layout
	for rest != "" {
		if rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed bracket in %q", ErrInvalidLayout, layout)
			}
			b.WriteString(rest[1:end])
			rest = rest[end+1:]
			continue
		}
		n := writeToken(&b, rest)
		rest = rest[n:]
	}
	return b.String(), nil
}

// writeToken writes the translation of the token at the start of s, or its
// first byte, and returns how many bytes it consumed.
func writeToken(b *strings.Builder, s string) int {
	for _, t := range tokens {
		if strings.HasPrefix(s, t.token) {
			b.WriteString(t.layout)
			return len(t.token)
		}
	}
	b.WriteByte(s[0])
	return 1
}

// Resolve returns value unchanged unless it starts with "today", in which
// case now is formatted with the requested layout.
func Resolve(value string, now time.Time) (string, error) {
	keyword, layout, hasLayout := strings.Cut(value, ":")
	if !strings.EqualFold(keyword, todayKeyword) {
		return value, nil
	}

	switch {
	case !hasLayout:
		layout = DefaultLayout
	case layout == "":
		return "", fmt.Errorf("%w: nothing after \"today:\"", ErrInvalidLayout)
	}
	if preset, ok := Presets[strings.ToLower(layout)]; ok {
		layout = preset
	}

	goLayout, err := GoLayout(layout)
	if err != nil {
		return "", err
	}
	return now.Format(goLayout), nil
}
