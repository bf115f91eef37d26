// Package format renders numbers, dates and labels the way the tracker pages
// display them.
package format

import (
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DateLayout matches the short "Mon Jan 02 2006" labels used on chart axes.
const DateLayout = "Mon Jan 02 2006"

// Formatter formats values for one locale. The zero value is not usable; use
// New or Default.
type Formatter struct {
	printer *message.Printer
}

// New returns a Formatter for tag.
func New(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// NewFromString parses a BCP 47 tag, falling back to English.
func NewFromString(locale string) (*Formatter, error) {
	if locale == "" {
		return Default(), nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Default(), err
	}
	return New(tag), nil
}

// Default formats with English grouping ("1,234,567").
func Default() *Formatter {
	return New(language.English)
}

// Number groups thousands, e.g. 13034431 -> "13,034,431".
func (f *Formatter) Number(n int64) string {
	return f.printer.Sprintf("%d", n)
}

// Change is a signed value prepared for display.
type Change struct {
	Value    int64  `json:"value"`
	Text     string `json:"text"`
	Positive bool   `json:"positive"`
}

// Change formats n with an explicit sign. Zero counts as positive ("+0").
func (f *Formatter) Change(n int64) Change {
	if n >= 0 {
		return Change{Value: n, Text: "+" + f.Number(n), Positive: true}
	}
	return Change{Value: n, Text: f.Number(n), Positive: false}
}

// Installs renders an install-count badge label.
func (f *Formatter) Installs(count int64) string {
	if count > 1 {
		return f.Number(count) + " active installs"
	}
	return f.Number(count) + " active install"
}

// Capitalize upper-cases the first letter only.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// DateLabel renders t as a chart axis label.
func DateLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
