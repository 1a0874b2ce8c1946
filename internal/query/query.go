// Package query builds the calendar views served to renderers: month and
// week grids, per-day sorted lists, and text-filtered indexes. Everything
// here works on an EventIndex snapshot and allocates fresh result
// structures per call.
package query

import (
	"sort"
	"strings"
	"time"

	"notecal/internal/datemath"
	"notecal/internal/model"
)

// gridDays is the uniform month-grid size: six full weeks, so every month
// renders with the same row count.
const gridDays = 6 * 7

// Engine answers calendar queries against an occurrence index.
type Engine struct {
	// now is the clock used for IsToday marking; replaceable in tests.
	now func() time.Time
}

func New() *Engine {
	return &Engine{now: time.Now}
}

// MonthGrid returns exactly 42 days covering the month of ref: the grid
// starts at the week-start on or before the 1st and always spans six
// weeks. IsCurrentMonth marks days belonging to ref's month.
func (e *Engine) MonthGrid(ref time.Time, index model.EventIndex, weekStartsOn int) []model.CalendarDay {
	firstOfMonth := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	start := datemath.BackUpToWeekStart(firstOfMonth, weekStartsOn)

	days := make([]model.CalendarDay, 0, gridDays)
	for i := 0; i < gridDays; i++ {
		d := start.AddDate(0, 0, i)
		days = append(days, e.day(d, index, weekStartsOn, d.Month() == ref.Month()))
	}
	return days
}

// MonthWeeks wraps MonthGrid into six CalendarWeek rows.
func (e *Engine) MonthWeeks(ref time.Time, index model.EventIndex, weekStartsOn int) []model.CalendarWeek {
	days := e.MonthGrid(ref, index, weekStartsOn)
	weeks := make([]model.CalendarWeek, 0, len(days)/7)
	for i := 0; i < len(days); i += 7 {
		row := days[i : i+7]
		weeks = append(weeks, model.CalendarWeek{
			Number: row[0].WeekNumber,
			Days:   row,
		})
	}
	return weeks
}

// WeekGrid returns the 7 days of the week containing ref, starting at the
// configured week-start weekday.
func (e *Engine) WeekGrid(ref time.Time, index model.EventIndex, weekStartsOn int) []model.CalendarDay {
	start := datemath.BackUpToWeekStart(ref, weekStartsOn)

	days := make([]model.CalendarDay, 0, 7)
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		days = append(days, e.day(d, index, weekStartsOn, d.Month() == ref.Month()))
	}
	return days
}

func (e *Engine) day(d time.Time, index model.EventIndex, weekStartsOn int, currentMonth bool) model.CalendarDay {
	dateStr := datemath.ToDateString(d)
	wd := d.Weekday()
	return model.CalendarDay{
		DateStr:        dateStr,
		IsCurrentMonth: currentMonth,
		IsToday:        dateStr == datemath.ToDateString(e.now()),
		IsWeekend:      wd == time.Saturday || wd == time.Sunday,
		WeekNumber:     datemath.WeekNumber(d, weekStartsOn),
		Occurrences:    DayOccurrences(dateStr, index),
	}
}

// DayOccurrences returns the occurrences at one date, sorted ascending by
// time-of-day. Occurrences without a parseable time sort after all timed
// ones; ties and untimed entries keep their original index order.
func DayOccurrences(dateStr string, index model.EventIndex) []model.Occurrence {
	occs := index[dateStr]
	out := append([]model.Occurrence(nil), occs...)

	sort.SliceStable(out, func(i, j int) bool {
		mi, iOK := datemath.ParseTimeOfDay(out[i].TimeStr)
		mj, jOK := datemath.ParseTimeOfDay(out[j].TimeStr)
		if iOK != jOK {
			return iOK
		}
		if !iOK {
			return false
		}
		return mi < mj
	})
	return out
}

// FilterByText returns a copy of the index keeping only occurrences whose
// title contains query, case-insensitively. Dates left with no matches are
// dropped. An empty or whitespace query returns the index unchanged.
func FilterByText(index model.EventIndex, query string) model.EventIndex {
	query = strings.TrimSpace(query)
	if query == "" {
		return index
	}
	needle := strings.ToLower(query)

	out := make(model.EventIndex)
	for dateStr, occs := range index {
		var kept []model.Occurrence
		for _, occ := range occs {
			if strings.Contains(strings.ToLower(occ.Title), needle) {
				kept = append(kept, occ)
			}
		}
		if len(kept) > 0 {
			out[dateStr] = kept
		}
	}
	return out
}

// SortedDates returns the index's date keys in ascending order. Lexical
// order is chronological for the fixed-width date format.
func SortedDates(index model.EventIndex) []string {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
