// Package ics renders an occurrence index as an iCalendar feed, so any
// calendar client can subscribe to the vault's events.
package ics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"notecal/internal/datemath"
	"notecal/internal/model"
)

const prodID = "-//notecal//calendar feed//EN"

// Export serializes every occurrence in the index as a VEVENT. Untimed
// occurrences become all-day events; timed ones get a one-hour slot
// starting at their time-of-day. Events are emitted in date order so the
// feed is stable across rebuilds.
func Export(index model.EventIndex) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	stamp := time.Now().UTC()

	dates := make([]string, 0, len(index))
	for d := range index {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, dateStr := range dates {
		day, err := datemath.FromDateString(dateStr)
		if err != nil {
			continue
		}
		for i, occ := range index[dateStr] {
			ev := cal.AddEvent(eventUID(occ, i))
			ev.SetDtStampTime(stamp)
			ev.SetSummary(occ.Title)

			if minutes, ok := datemath.ParseTimeOfDay(occ.TimeStr); ok {
				start := day.Add(time.Duration(minutes) * time.Minute)
				ev.SetStartAt(start)
				ev.SetEndAt(start.Add(time.Hour))
			} else {
				ev.SetAllDayStartAt(day)
				ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
			}

			if occ.Color != "" {
				ev.SetProperty(ical.ComponentProperty("COLOR"), occ.Color)
			}
			if occ.IsRecurring {
				// Point back at the source note's anchor for clients that
				// group recurring instances.
				ev.SetProperty(ical.ComponentProperty("X-NOTECAL-ANCHOR"), occ.OriginalDateStr)
			}
			ev.SetProperty(ical.ComponentProperty("X-NOTECAL-SOURCE"), occ.SourceID)
		}
	}

	return cal.Serialize()
}

// eventUID builds a stable per-occurrence UID from the source note, the
// occurrence date, and its position among same-day occurrences of that
// note.
func eventUID(occ model.Occurrence, i int) string {
	src := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '.' || r == '/':
			return r
		default:
			return '-'
		}
	}, occ.SourceID)
	return fmt.Sprintf("%s-%s-%d@notecal", src, occ.DateStr, i)
}
