// Package datemath holds the pure date arithmetic the rest of the system is
// built on. Every date string anywhere in notecal is produced by
// ToDateString and parsed by FromDateString, both of which work on local
// calendar days; nothing here goes through UTC conversion, so a date string
// round-trips identically on any host timezone.
package datemath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical YYYY-MM-DD layout of every date string.
const DateLayout = "2006-01-02"

var dateStrRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ToDateString formats t as a local YYYY-MM-DD string. It is built from the
// year/month/day components directly, never via UTC conversion.
func ToDateString(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// FromDateString parses a YYYY-MM-DD string into local midnight of that day,
// so the same calendar day is recovered regardless of host timezone offset.
// Malformed input yields an error; callers must check before use.
func FromDateString(s string) (time.Time, error) {
	if !dateStrRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: malformed %q", ErrInvalidDate, s)
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// formatTokens lists the substitution tokens longest/most-specific first.
// The scanner below tries them in this order at every position, so "MMMM"
// can never be corrupted by a partial "MM" or "M" match, and a substituted
// month name ("March") is never re-scanned.
var formatTokens = []string{
	"YYYY", "dddd", "MMMM", "MMM", "ddd", "YY", "MM", "DD", "M", "D",
}

// FormatDate renders t according to a token template. Supported tokens:
// YYYY, YY, MMMM, MMM, MM, M, dddd, ddd, DD, D. Any other text is copied
// through verbatim. Month and weekday names come from loc.
func FormatDate(t time.Time, format string, loc *Locale) string {
	if loc == nil {
		loc = English
	}

	var b strings.Builder
	i := 0
	for i < len(format) {
		matched := false
		for _, tok := range formatTokens {
			if strings.HasPrefix(format[i:], tok) {
				b.WriteString(tokenValue(t, tok, loc))
				i += len(tok)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String()
}

func tokenValue(t time.Time, tok string, loc *Locale) string {
	switch tok {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MMMM":
		return loc.MonthName(t.Month(), false)
	case "MMM":
		return loc.MonthName(t.Month(), true)
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "dddd":
		return loc.DayName(t.Weekday(), false)
	case "ddd":
		return loc.DayName(t.Weekday(), true)
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	}
	return tok
}

// WeekNumber returns the week number of t. weekStartsOn selects the
// algorithm: 1 (Monday) uses ISO 8601 numbering with its Thursday-anchored
// year boundary rule; 0 (Sunday) uses ceil(day-of-year / 7). The two can
// disagree around year boundaries; the asymmetry is intentional.
func WeekNumber(t time.Time, weekStartsOn int) int {
	if weekStartsOn == 1 {
		_, wk := t.ISOWeek()
		return wk
	}
	return (t.YearDay() + 6) / 7
}

// Midnight truncates t to local midnight of its calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DatesBetween enumerates every calendar day from start through end,
// inclusive on both ends. Returns nil when end is before start.
func DatesBetween(start, end time.Time) []time.Time {
	cur := Midnight(start)
	last := Midnight(end)
	if last.Before(cur) {
		return nil
	}

	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}

var timeOfDayRe = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])?\s*$`)

// ParseTimeOfDay parses "H:MM", "H:MM:SS", optionally suffixed with AM/PM,
// into minutes since midnight. Invalid input yields ok=false, not an error.
func ParseTimeOfDay(s string) (minutes int, ok bool) {
	m := timeOfDayRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if minute > 59 {
		return 0, false
	}
	if m[3] != "" {
		if sec, _ := strconv.Atoi(m[3]); sec > 59 {
			return 0, false
		}
	}

	switch meridiem := strings.ToUpper(m[4]); meridiem {
	case "":
		if hour > 23 {
			return 0, false
		}
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour != 12 {
			hour += 12
		}
	}

	return hour*60 + minute, true
}

// referenceSunday is a fixed known Sunday used to enumerate weekday names
// deterministically, independent of the current date.
var referenceSunday = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// WeekdayNames returns the seven weekday header names in display order,
// starting from weekStartsOn (0=Sunday, 1=Monday).
func WeekdayNames(loc *Locale, weekStartsOn int, short bool) []string {
	if loc == nil {
		loc = English
	}
	names := make([]string, 7)
	for i := range names {
		d := referenceSunday.AddDate(0, 0, weekStartsOn+i)
		names[i] = loc.DayName(d.Weekday(), short)
	}
	return names
}

// ErrInvalidDate is the sentinel wrapped by FromDateString for bad input.
var ErrInvalidDate = errors.New("datemath: invalid date")

// BackUpToWeekStart returns the most recent day at-or-before t whose weekday
// matches weekStartsOn. Grids use this to find their top-left cell.
func BackUpToWeekStart(t time.Time, weekStartsOn int) time.Time {
	t = Midnight(t)
	offset := (int(t.Weekday()) - weekStartsOn + 7) % 7
	return t.AddDate(0, 0, -offset)
}
