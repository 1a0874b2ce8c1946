package model

// Document is an immutable snapshot of one note as read from the store.
// Frontmatter values keep the shapes yaml gives them (scalars, slices,
// timestamps); normalization happens at the extraction boundary.
type Document struct {
	// ID is the store-relative path of the note, unique within the vault.
	ID string

	// Title is the display name, typically the filename without extension.
	Title string

	Frontmatter map[string]any

	// InlineTags are tags found in the note body, without the leading '#'.
	InlineTags []string
}

// RecurrencePattern is the closed set of simple recurrence steps.
type RecurrencePattern string

const (
	RecurrenceNone    RecurrencePattern = ""
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceYearly  RecurrencePattern = "yearly"
)

// EventDraft is an unexpanded event extracted from one document. Drafts are
// ephemeral: produced and consumed within a single cache rebuild.
type EventDraft struct {
	SourceID string
	Title    string

	// DateStr is the normalized anchor date (YYYY-MM-DD, local calendar day).
	DateStr string

	// EndDateStr, if set, turns the draft into a date range.
	EndDateStr string

	// TimeStr is the raw time-of-day string; parsed lazily when sorting.
	TimeStr string

	// Color is a resolved hex color ("#rrggbb") or empty.
	Color string

	Recurrence RecurrencePattern

	// RecurrenceDays restricts daily recurrence to these weekdays
	// (0=Sunday..6=Saturday). Ignored for other patterns.
	RecurrenceDays []int

	// RRule is a raw iCalendar RRULE string; when present it takes
	// precedence over the simple Recurrence pattern.
	RRule string
}

// Occurrence is one concrete calendar-dated materialization of a draft.
// Every field except DateStr, IsRecurring and OriginalDateStr is inherited
// from the parent draft unchanged.
type Occurrence struct {
	SourceID string `json:"sourceId"`
	Title    string `json:"title"`

	// DateStr is the normalized occurrence date (YYYY-MM-DD).
	DateStr string `json:"date"`

	IsRecurring bool `json:"isRecurring"`

	// OriginalDateStr is the anchor date the occurrence was expanded from.
	OriginalDateStr string `json:"originalDate"`

	TimeStr string `json:"time,omitempty"`
	Color   string `json:"color,omitempty"`
}

// EventIndex maps normalized date strings to occurrences. Slice order per
// key follows corpus iteration order, not chronological creation order.
type EventIndex map[string][]Occurrence

// Add appends an occurrence under its date key.
func (idx EventIndex) Add(occ Occurrence) {
	idx[occ.DateStr] = append(idx[occ.DateStr], occ)
}

// Len returns the total occurrence count across all dates.
func (idx EventIndex) Len() int {
	n := 0
	for _, occs := range idx {
		n += len(occs)
	}
	return n
}

// CalendarDay is one cell of a month or week grid. Built fresh per query,
// never cached.
type CalendarDay struct {
	DateStr        string       `json:"date"`
	IsCurrentMonth bool         `json:"isCurrentMonth"`
	IsToday        bool         `json:"isToday"`
	IsWeekend      bool         `json:"isWeekend"`
	WeekNumber     int          `json:"weekNumber"`
	Occurrences    []Occurrence `json:"occurrences"`
}

// CalendarWeek is a week number plus exactly seven days.
type CalendarWeek struct {
	Number int           `json:"number"`
	Days   []CalendarDay `json:"days"`
}
