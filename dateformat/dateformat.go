// Package dateformat renders publication timestamps as "dd Mon yyyy" with
// month names taken from a fixed locale.
package dateformat

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"
)

// Layout is the display layout. Only the month name is localized.
const Layout = "02 Jan 2006"

// DefaultLocale is used when no locale is configured.
const DefaultLocale = monday.LocaleEnUS

var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02",
}

// InvalidDateError reports a timestamp that could not be parsed.
type InvalidDateError struct {
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("dateformat: invalid date %q", e.Value)
}

func (e *InvalidDateError) Unwrap() error {
	return e.Err
}

// Formatter formats timestamps for one locale. It holds no mutable state.
type Formatter struct {
	locale   monday.Locale
	location *time.Location
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithLocation renders dates in loc instead of UTC.
func WithLocation(loc *time.Location) Option {
	return func(f *Formatter) {
		if loc != nil {
			f.location = loc
		}
	}
}

// New returns a Formatter for locale (for example "en_US" or "pt_BR").
func New(locale string, opts ...Option) (*Formatter, error) {
	l := monday.Locale(locale)
	if locale == "" {
		l = DefaultLocale
	}
	if !supported(l) {
		return nil, fmt.Errorf("dateformat: unsupported locale %q", locale)
	}
	f := &Formatter{locale: l, location: time.UTC}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func supported(l monday.Locale) bool {
	for _, known := range monday.ListLocales() {
		if known == l {
			return true
		}
	}
	return false
}

// Locale returns the formatter's locale name.
func (f *Formatter) Locale() string {
	return string(f.locale)
}

// Format parses ts and renders it with Layout. Unparseable input always
// fails with *InvalidDateError.
func (f *Formatter) Format(ts string) (string, error) {
	t, err := Parse(ts)
	if err != nil {
		return "", err
	}
	return monday.Format(t.In(f.location), Layout, f.locale), nil
}

// Parse reads an ISO-8601 timestamp in any of the forms the CMS emits.
func Parse(ts string) (time.Time, error) {
	val := strings.TrimSpace(ts)
	if val == "" {
		return time.Time{}, &InvalidDateError{Value: ts, Err: fmt.Errorf("empty timestamp")}
	}
	var lastErr error
	for _, layout := range inputLayouts {
		t, err := time.Parse(layout, val)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &InvalidDateError{Value: ts, Err: lastErr}
}
