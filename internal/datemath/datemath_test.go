package datemath

import (
	"testing"
	"time"
)

func TestDateStringRoundTrip(t *testing.T) {
	cases := []string{
		"2025-01-01",
		"2025-01-31",
		"2024-02-29", // leap day
		"1999-12-31",
		"2025-07-15",
	}
	for _, s := range cases {
		d, err := FromDateString(s)
		if err != nil {
			t.Fatalf("FromDateString(%q): %v", s, err)
		}
		if got := ToDateString(d); got != s {
			t.Errorf("round trip %q: got %q", s, got)
		}
	}
}

func TestFromDateStringRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"2025-1-5",
		"2025/01/05",
		"2025-13-01",
		"2025-02-30",
		"not a date",
		"2025-01-05T09:00",
	}
	for _, s := range bad {
		if _, err := FromDateString(s); err == nil {
			t.Errorf("FromDateString(%q): expected error", s)
		}
	}
}

func TestFormatDateTokens(t *testing.T) {
	d, err := FromDateString("2025-03-05")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		format string
		want   string
	}{
		{"YYYY-MM-DD", "2025-03-05"},
		{"D/M/YY", "5/3/25"},
		{"MMMM D, YYYY", "March 5, 2025"},
		{"ddd, MMM D", "Wed, Mar 5"},
		{"dddd", "Wednesday"},
		// "March" contains an M; the scanner must not re-substitute it.
		{"M MMMM", "3 March"},
		{"plain text", "plain text"},
	}
	for _, c := range cases {
		if got := FormatDate(d, c.format, English); got != c.want {
			t.Errorf("FormatDate(%q) = %q, want %q", c.format, got, c.want)
		}
	}
}

func TestFormatDateKoreanLocale(t *testing.T) {
	d, _ := FromDateString("2025-03-05")
	if got := FormatDate(d, "MMMM ddd", Korean); got != "3월 수" {
		t.Errorf("korean format = %q", got)
	}
}

func TestWeekNumberAlgorithms(t *testing.T) {
	// 2024-01-01 is a Monday: ISO week 1 and day-of-year week 1.
	d, _ := FromDateString("2024-01-01")
	if got := WeekNumber(d, 1); got != 1 {
		t.Errorf("ISO week of 2024-01-01 = %d, want 1", got)
	}
	if got := WeekNumber(d, 0); got != 1 {
		t.Errorf("Sunday week of 2024-01-01 = %d, want 1", got)
	}

	// 2023-12-31 is a Sunday: the two algorithms disagree.
	d, _ = FromDateString("2023-12-31")
	if got := WeekNumber(d, 1); got != 52 {
		t.Errorf("ISO week of 2023-12-31 = %d, want 52", got)
	}
	if got := WeekNumber(d, 0); got != 53 {
		t.Errorf("Sunday week of 2023-12-31 = %d, want 53", got)
	}
}

func TestDatesBetween(t *testing.T) {
	start, _ := FromDateString("2025-01-15")
	end, _ := FromDateString("2025-01-17")

	days := DatesBetween(start, end)
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	want := []string{"2025-01-15", "2025-01-16", "2025-01-17"}
	for i, d := range days {
		if ToDateString(d) != want[i] {
			t.Errorf("day %d = %s, want %s", i, ToDateString(d), want[i])
		}
	}

	if got := DatesBetween(end, start); len(got) != 0 {
		t.Errorf("reversed range: got %d days, want 0", len(got))
	}
	if got := DatesBetween(start, start); len(got) != 1 {
		t.Errorf("single-day range: got %d days, want 1", len(got))
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantOK  bool
	}{
		{"9:30", 570, true},
		{"09:05", 545, true},
		{"14:45:10", 885, true},
		{"0:00", 0, true},
		{"12:00 AM", 0, true},
		{"12:00 PM", 720, true},
		{"1:15pm", 795, true},
		{"11:59 PM", 1439, true},
		{"25:00", 0, false},
		{"9:75", 0, false},
		{"13:00 PM", 0, false},
		{"0:30 AM", 0, false},
		{"9.30", 0, false},
		{"", 0, false},
		{"lunchtime", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseTimeOfDay(c.in)
		if ok != c.wantOK {
			t.Errorf("ParseTimeOfDay(%q) ok = %v, want %v", c.in, ok, c.wantOK)
			continue
		}
		if ok && got != c.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestWeekdayNames(t *testing.T) {
	got := WeekdayNames(English, 1, true)
	want := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("monday-start headers = %v, want %v", got, want)
		}
	}

	got = WeekdayNames(Korean, 0, true)
	if got[0] != "일" || got[6] != "토" {
		t.Errorf("sunday-start korean headers = %v", got)
	}
}

func TestBackUpToWeekStart(t *testing.T) {
	// 2025-03-05 is a Wednesday.
	d, _ := FromDateString("2025-03-05")
	if got := ToDateString(BackUpToWeekStart(d, 1)); got != "2025-03-03" {
		t.Errorf("back up to Monday = %s", got)
	}
	if got := ToDateString(BackUpToWeekStart(d, 0)); got != "2025-03-02" {
		t.Errorf("back up to Sunday = %s", got)
	}
	// Already at week start: no movement.
	mon, _ := FromDateString("2025-03-03")
	if got := ToDateString(BackUpToWeekStart(mon, 1)); got != "2025-03-03" {
		t.Errorf("monday backs up to %s", got)
	}
}

func TestLocaleFor(t *testing.T) {
	if LocaleFor("ko-KR") != Korean {
		t.Error("ko-KR should resolve to the Korean locale")
	}
	if LocaleFor("en-US") != English {
		t.Error("en-US should resolve to the English locale")
	}
	if LocaleFor("not a tag!!") != English {
		t.Error("malformed tags should fall back to English")
	}
}

func TestMidnightKeepsCalendarDay(t *testing.T) {
	loc := time.FixedZone("TEST", -7*3600)
	late := time.Date(2025, time.June, 30, 23, 45, 0, 0, loc)
	if got := ToDateString(Midnight(late)); got != "2025-06-30" {
		t.Errorf("Midnight changed the calendar day: %s", got)
	}
}
