// Package expand materializes event drafts into dated occurrences.
package expand

import (
	"time"

	"github.com/teambition/rrule-go"

	"notecal/internal/datemath"
	appLog "notecal/internal/log"
	"notecal/internal/model"
)

// maxIterations caps every expansion loop so termination never depends on
// the window size or the input.
const maxIterations = 730

// DefaultWindow is the expansion window used when the caller gives none:
// one month before now through twelve months after now.
func DefaultWindow(now time.Time) (time.Time, time.Time) {
	now = datemath.Midnight(now)
	return now.AddDate(0, -1, 0), now.AddDate(0, 12, 0)
}

// Draft routes one draft to the matching expansion strategy. RRULE strings
// take precedence over the simple pattern; drafts with neither a
// recurrence nor an end date produce a single occurrence at the anchor.
func Draft(d model.EventDraft, windowStart, windowEnd time.Time) []model.Occurrence {
	switch {
	case d.RRule != "":
		return RRule(d, windowStart, windowEnd)
	case d.Recurrence != model.RecurrenceNone:
		return Recurrence(d, windowStart, windowEnd)
	default:
		return Range(d)
	}
}

// Recurrence expands a recurring draft into concrete occurrences inside
// [windowStart, windowEnd]. The anchor advances by the pattern's step
// using calendar-aware arithmetic; when the anchor day does not exist in a
// target month the date rolls over into the following month (Jan 31 + 1
// month lands in March). That rollover is preserved behavior.
func Recurrence(d model.EventDraft, windowStart, windowEnd time.Time) []model.Occurrence {
	anchor, err := datemath.FromDateString(d.DateStr)
	if err != nil {
		return nil
	}
	windowStart = datemath.Midnight(windowStart)
	windowEnd = datemath.Midnight(windowEnd)

	restricted := d.Recurrence == model.RecurrenceDaily && len(d.RecurrenceDays) > 0
	allowed := [7]bool{}
	for _, wd := range d.RecurrenceDays {
		if wd >= 0 && wd <= 6 {
			allowed[wd] = true
		}
	}

	var out []model.Occurrence
	current := anchor
	for iterations := 0; !current.After(windowEnd) && iterations < maxIterations; iterations++ {
		if !current.Before(windowStart) && (!restricted || allowed[current.Weekday()]) {
			out = append(out, occurrence(d, current, true))
		}

		var next time.Time
		switch d.Recurrence {
		case model.RecurrenceDaily:
			next = current.AddDate(0, 0, 1)
		case model.RecurrenceWeekly:
			next = current.AddDate(0, 0, 7)
		case model.RecurrenceMonthly:
			next = current.AddDate(0, 1, 0)
		case model.RecurrenceYearly:
			next = current.AddDate(1, 0, 0)
		default:
			// No step for this pattern: halt after the first check.
			return out
		}
		current = next
	}
	return out
}

// Range expands a start/end draft into one occurrence per covered day,
// inclusive on both ends. Without an end date the result is the single
// anchor occurrence. None of the results are marked recurring.
func Range(d model.EventDraft) []model.Occurrence {
	anchor, err := datemath.FromDateString(d.DateStr)
	if err != nil {
		return nil
	}
	if d.EndDateStr == "" {
		return []model.Occurrence{occurrence(d, anchor, false)}
	}

	end, err := datemath.FromDateString(d.EndDateStr)
	if err != nil {
		return []model.Occurrence{occurrence(d, anchor, false)}
	}

	days := datemath.DatesBetween(anchor, end)
	out := make([]model.Occurrence, 0, len(days))
	for _, day := range days {
		out = append(out, occurrence(d, day, false))
	}
	return out
}

// RRule expands a draft carrying a raw iCalendar RRULE string, with
// DTSTART at the anchor's local midnight. A malformed rule yields no
// occurrences; hitting the cap truncates, it does not fail.
func RRule(d model.EventDraft, windowStart, windowEnd time.Time) []model.Occurrence {
	anchor, err := datemath.FromDateString(d.DateStr)
	if err != nil {
		return nil
	}

	r, err := rrule.StrToRRule(d.RRule)
	if err != nil {
		appLog.Error("rrule parse failed", err, "source", d.SourceID, "rrule", d.RRule)
		return nil
	}
	r.DTStart(anchor)

	var set rrule.Set
	set.RRule(r)

	times := set.Between(datemath.Midnight(windowStart), datemath.Midnight(windowEnd), true)
	if len(times) > maxIterations {
		times = times[:maxIterations]
		appLog.Warn("rrule expansion truncated", "source", d.SourceID, "cap", maxIterations)
	}

	out := make([]model.Occurrence, 0, len(times))
	for _, t := range times {
		out = append(out, occurrence(d, t, true))
	}
	return out
}

// occurrence builds one occurrence from its parent draft. Only the date
// and the recurrence markers vary; everything else is inherited.
func occurrence(d model.EventDraft, day time.Time, recurring bool) model.Occurrence {
	return model.Occurrence{
		SourceID:        d.SourceID,
		Title:           d.Title,
		DateStr:         datemath.ToDateString(day),
		IsRecurring:     recurring,
		OriginalDateStr: d.DateStr,
		TimeStr:         d.TimeStr,
		Color:           d.Color,
	}
}
