package datemath

import (
	"time"

	"golang.org/x/text/language"
)

// Locale provides the month and weekday display names used by FormatDate
// and WeekdayNames. Locales are immutable values threaded explicitly into
// every formatting call; there is no process-wide current locale.
type Locale struct {
	Tag string

	months      [12]string
	monthsShort [12]string
	days        [7]string // Sunday first
	daysShort   [7]string
}

func (l *Locale) MonthName(m time.Month, short bool) string {
	if short {
		return l.monthsShort[m-1]
	}
	return l.months[m-1]
}

func (l *Locale) DayName(d time.Weekday, short bool) string {
	if short {
		return l.daysShort[d]
	}
	return l.days[d]
}

var English = &Locale{
	Tag: "en",
	months: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	monthsShort: [12]string{
		"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
	},
	days: [7]string{
		"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
	},
	daysShort: [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
}

var Korean = &Locale{
	Tag: "ko",
	months: [12]string{
		"1월", "2월", "3월", "4월", "5월", "6월",
		"7월", "8월", "9월", "10월", "11월", "12월",
	},
	monthsShort: [12]string{
		"1월", "2월", "3월", "4월", "5월", "6월",
		"7월", "8월", "9월", "10월", "11월", "12월",
	},
	days: [7]string{
		"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일",
	},
	daysShort: [7]string{"일", "월", "화", "수", "목", "금", "토"},
}

// LocaleFor resolves a BCP 47 tag (e.g. "en-US", "ko") to a bundled locale.
// Unknown or malformed tags fall back to English.
func LocaleFor(tag string) *Locale {
	t, err := language.Parse(tag)
	if err != nil {
		return English
	}
	base, _ := t.Base()
	if base.String() == "ko" {
		return Korean
	}
	return English
}
