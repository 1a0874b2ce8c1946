// Package extract turns documents into event drafts. All frontmatter
// duck-typing is resolved here: tags and dates may arrive as scalars or
// arrays, weekday restrictions as numbers, names, or a CSV string. Nothing
// downstream of this package ever sees a raw frontmatter value.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"notecal/internal/config"
	"notecal/internal/datemath"
	appLog "notecal/internal/log"
	"notecal/internal/model"
)

// SplitTagConfig splits a configured tag list on commas and whitespace,
// dropping empties and leading '#'.
func SplitTagConfig(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimPrefix(f, "#")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// MatchTags reports whether docTags satisfies the configured tag list.
// An empty config always matches. Mode "all" requires every configured tag
// to be present; any other mode requires at least one. Matching is by
// exact tag identity, never prefix or substring.
func MatchTags(docTags []string, requiredConfig, mode string) bool {
	required := SplitTagConfig(requiredConfig)
	if len(required) == 0 {
		return true
	}

	have := make(map[string]bool, len(docTags))
	for _, t := range docTags {
		have[strings.TrimPrefix(t, "#")] = true
	}

	if mode == "all" {
		for _, r := range required {
			if !have[r] {
				return false
			}
		}
		return true
	}
	for _, r := range required {
		if have[r] {
			return true
		}
	}
	return false
}

// DocumentTags returns the union of a document's inline tags and its
// frontmatter "tags" value (scalar or array, coerced to strings).
func DocumentTags(doc model.Document) []string {
	tags := make([]string, 0, len(doc.InlineTags))
	for _, t := range doc.InlineTags {
		tags = append(tags, strings.TrimPrefix(t, "#"))
	}
	for _, v := range asList(doc.Frontmatter["tags"]) {
		if s := coerceString(v); s != "" {
			tags = append(tags, strings.TrimPrefix(s, "#"))
		}
	}
	return tags
}

// Extractor converts documents into event drafts under one settings
// snapshot.
type Extractor struct {
	settings config.Settings
}

func New(settings config.Settings) *Extractor {
	return &Extractor{settings: settings}
}

// Extract produces zero or more drafts from one document. Documents that
// fail the tag filter or lack the date property yield nothing. A date
// value that is an array produces one draft per parseable element, all
// sharing the remaining properties. Unparseable dates are skipped softly.
func (e *Extractor) Extract(doc model.Document) []model.EventDraft {
	s := e.settings

	if !MatchTags(DocumentTags(doc), s.TagFilter, s.TagFilterMode) {
		return nil
	}

	rawDate, ok := doc.Frontmatter[s.DateProperty]
	if !ok || rawDate == nil {
		return nil
	}

	endDate := ""
	if raw, ok := doc.Frontmatter[s.EndDateProperty]; ok {
		if normalized, ok := normalizeDate(raw); ok {
			endDate = normalized
		} else {
			appLog.Debug("unparseable end date dropped", "doc", doc.ID)
		}
	}

	timeStr := coerceString(doc.Frontmatter[s.TimeProperty])
	color := ResolveColor(coerceString(doc.Frontmatter[s.ColorProperty]))
	recurrence := parsePattern(coerceString(doc.Frontmatter[s.RecurrenceProperty]))
	days := ParseWeekdays(doc.Frontmatter[s.RecurrenceDaysProperty])
	rrule := strings.TrimSpace(coerceString(doc.Frontmatter[s.RRuleProperty]))

	var drafts []model.EventDraft
	for _, candidate := range asList(rawDate) {
		dateStr, ok := normalizeDate(candidate)
		if !ok {
			appLog.Debug("unparseable date dropped", "doc", doc.ID, "value", fmt.Sprint(candidate))
			continue
		}
		drafts = append(drafts, model.EventDraft{
			SourceID:       doc.ID,
			Title:          doc.Title,
			DateStr:        dateStr,
			EndDateStr:     endDate,
			TimeStr:        timeStr,
			Color:          color,
			Recurrence:     recurrence,
			RecurrenceDays: days,
			RRule:          rrule,
		})
	}
	return drafts
}

// asList normalizes a scalar-or-array frontmatter value into a slice.
func asList(v any) []any {
	switch vv := v.(type) {
	case nil:
		return nil
	case []any:
		return vv
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

func coerceString(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case int:
		return strconv.Itoa(vv)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(vv)
	case time.Time:
		return datemath.ToDateString(vv)
	default:
		return fmt.Sprint(v)
	}
}

// normalizeDate canonicalizes a frontmatter date value to YYYY-MM-DD.
// yaml.v3 decodes unquoted dates as time.Time; strings are run through the
// canonical parse→format round trip so malformed input is rejected.
func normalizeDate(v any) (string, bool) {
	switch vv := v.(type) {
	case time.Time:
		return datemath.ToDateString(vv), true
	case string:
		t, err := datemath.FromDateString(strings.TrimSpace(vv))
		if err != nil {
			return "", false
		}
		return datemath.ToDateString(t), true
	default:
		return "", false
	}
}

func parsePattern(s string) model.RecurrencePattern {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return model.RecurrenceDaily
	case "weekly":
		return model.RecurrenceWeekly
	case "monthly":
		return model.RecurrenceMonthly
	case "yearly":
		return model.RecurrenceYearly
	default:
		// Includes "none", empty, and anything outside the closed enum.
		return model.RecurrenceNone
	}
}

var weekdayByName = map[string]int{
	"sunday": 0, "sun": 0,
	"monday": 1, "mon": 1,
	"tuesday": 2, "tue": 2, "tues": 2,
	"wednesday": 3, "wed": 3,
	"thursday": 4, "thu": 4, "thur": 4, "thurs": 4,
	"friday": 5, "fri": 5,
	"saturday": 6, "sat": 6,
}

// ParseWeekdays normalizes a weekday restriction value. Accepted shapes:
// an array of numbers (0=Sunday..6=Saturday), an array of weekday names,
// or a single comma/space separated string of names. Unrecognized entries
// are dropped silently.
func ParseWeekdays(v any) []int {
	var out []int
	seen := [7]bool{}

	add := func(d int) {
		if d >= 0 && d <= 6 && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}

	addToken := func(tok string) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			return
		}
		if d, ok := weekdayByName[tok]; ok {
			add(d)
			return
		}
		if n, err := strconv.Atoi(tok); err == nil {
			add(n)
		}
	}

	switch vv := v.(type) {
	case nil:
		return nil
	case string:
		for _, tok := range strings.FieldsFunc(vv, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		}) {
			addToken(tok)
		}
	default:
		for _, item := range asList(v) {
			switch it := item.(type) {
			case int:
				add(it)
			case float64:
				add(int(it))
			case string:
				addToken(it)
			}
		}
	}
	return out
}

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var colorByName = map[string]string{
	"red":    "#e74c3c",
	"orange": "#e67e22",
	"yellow": "#f1c40f",
	"green":  "#2ecc71",
	"teal":   "#1abc9c",
	"blue":   "#3498db",
	"purple": "#9b59b6",
	"pink":   "#fd79a8",
	"gray":   "#95a5a6",
	"grey":   "#95a5a6",
	"brown":  "#8d6e63",
	"black":  "#2d3436",
	"white":  "#ffffff",
}

// ResolveColor maps a color name to its hex value, passes valid raw hex
// through unchanged, and yields empty for anything else.
func ResolveColor(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if hex, ok := colorByName[strings.ToLower(s)]; ok {
		return hex
	}
	if hexColorRe.MatchString(s) {
		return s
	}
	return ""
}
