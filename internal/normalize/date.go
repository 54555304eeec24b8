package normalize

import (
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
)

// ISODateLayout is the stored form of Event.Date.
const ISODateLayout = "2006-01-02"

// dateLayouts are tried in order before falling back to natural-language parsing.
var dateLayouts = []string{
	ISODateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	time.RFC1123,
	time.RFC1123Z,
}

// DateParser parses free-form date strings. The zero value is not usable; use NewDateParser.
type DateParser struct {
	when *when.Parser
	now  func() time.Time
}

// NewDateParser returns a DateParser whose relative expressions ("tomorrow", "next friday")
// resolve against now. A nil now uses time.Now.
func NewDateParser(now func() time.Time) *DateParser {
	if now == nil {
		now = time.Now
	}
	w := when.New(nil)
	w.Add(en.All...)
	return &DateParser{when: w, now: now}
}

// Parse returns the instant described by raw. ok is false when raw is not a date.
func (p *DateParser) Parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Numeric strings that failed every layout are not dates; the
	// natural-language rules would otherwise read "2024-02-30" as a clock time.
	if !strings.ContainsFunc(s, unicode.IsLetter) {
		return time.Time{}, false
	}
	r, err := p.when.Parse(s, p.now())
	if err != nil || r == nil {
		return time.Time{}, false
	}
	// The phrase must be the whole input, not a date buried in other text.
	if r.Index != 0 || len(r.Text) != len(s) {
		return time.Time{}, false
	}
	return r.Time, true
}

// Normalize converts raw into the ISO calendar date (YYYY-MM-DD) of the parsed instant in UTC.
func (p *DateParser) Normalize(raw string) (string, bool) {
	t, ok := p.Parse(raw)
	if !ok {
		return "", false
	}
	return t.UTC().Format(ISODateLayout), true
}

var defaultDateParser = NewDateParser(nil)

// Date normalizes raw with a parser anchored at the current time.
func Date(raw string) (string, bool) {
	return defaultDateParser.Normalize(raw)
}
