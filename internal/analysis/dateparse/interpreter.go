package dateparse

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Source tells which rule produced a resolved date.
type Source string

const (
	SourceWeekday  Source = "weekday"
	SourceTomorrow Source = "tomorrow"
	SourceParsed   Source = "parsed"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Result is a resolved calendar date and how it was obtained.
type Result struct {
	Date   time.Time
	Source Source
}

// IsFallback reports whether no rule understood the utterance.
func (r Result) IsFallback() bool {
	return r.Source == SourceFallback
}

// weekdays is scanned in this order; the first name contained in the utterance wins.
var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

var parser = newParser()

// numericDates are tried before the fuzzy parser. Slash dates are month-first.
var numericDates = []struct {
	pattern *regexp.Regexp
	layout  string
}{
	{regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`), "2006-1-2"},
	{regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`), "1/2/2006"},
}

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Resolve turns a free-text utterance into a date relative to now. It never fails:
// named weekdays, then "tomorrow", then numeric dates, then a fuzzy parse, then
// tomorrow as fallback.
func Resolve(utterance string, now time.Time) Result {
	lower := strings.ToLower(utterance)

	for _, wd := range weekdays {
		if strings.Contains(lower, wd.name) {
			return Result{Date: NextWeekday(now, wd.day), Source: SourceWeekday}
		}
	}

	if strings.Contains(lower, "tomorrow") {
		return Result{Date: Tomorrow(now), Source: SourceTomorrow}
	}

	if parsed, ok := numericDate(utterance, now); ok {
		return Result{Date: parsed, Source: SourceParsed}
	}

	if parsed, ok := fuzzyParse(utterance, now); ok {
		return Result{Date: parsed, Source: SourceParsed}
	}

	return Fallback(now)
}

// Fallback is the result used when nothing in the utterance names a date.
func Fallback(now time.Time) Result {
	return Result{Date: Tomorrow(now), Source: SourceFallback}
}

// Tomorrow returns now plus one calendar day.
func Tomorrow(now time.Time) time.Time {
	return now.AddDate(0, 0, 1)
}

// NextWeekday returns the next occurrence of day strictly after now, keeping the time of day.
func NextWeekday(now time.Time, day time.Weekday) time.Time {
	delta := (int(day) - int(now.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return now.AddDate(0, 0, delta)
}

// numericDate reads the first YYYY-MM-DD or M/D/YYYY date in utterance, keeping now's
// clock time. Impossible dates such as 2025-02-30 do not match.
func numericDate(utterance string, now time.Time) (time.Time, bool) {
	for _, nd := range numericDates {
		match := nd.pattern.FindString(utterance)
		if match == "" {
			continue
		}
		day, err := time.ParseInLocation(nd.layout, match, now.Location())
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(),
			now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location()), true
	}
	return time.Time{}, false
}

func fuzzyParse(utterance string, now time.Time) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	res, err := parser.Parse(utterance, now)
	if err != nil || res == nil {
		return time.Time{}, false
	}
	return res.Time, true
}
