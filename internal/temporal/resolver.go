// Package temporal converts relative and natural date/time phrases into
// absolute calendar dates and clock times.
package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// daypart names and their canonical clock times.
var dayparts = map[string]string{
	"morning":   "09:00",
	"afternoon": "14:00",
	"evening":   "18:00",
	"night":     "20:00",
	"noon":      "12:00",
	"midnight":  "00:00",
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var (
	offsetRe   = regexp.MustCompile(`^in (\d+) (day|days|week|weeks)$`)
	durationRe = regexp.MustCompile(`^in (\d+) (minute|minutes|min|mins|hour|hours|hr|hrs)$`)
	clockRe    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// date-literal layouts tried as a last resort.
var literalLayouts = []string{
	DateLayout,
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
}

// Resolution is the outcome of resolving a combined phrase. Either field
// may be empty when the phrase only carried the other half.
type Resolution struct {
	Date string
	Time string
}

func normalize(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(phrase))), " ")
}

func formatDate(t time.Time) string { return t.Format(DateLayout) }

// next returns the next occurrence of target after ref, never ref itself:
// (target - current + 7) mod 7, substituting 7 for a zero result.
func next(ref time.Time, target time.Weekday) time.Time {
	days := (int(target) - int(ref.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return ref.AddDate(0, 0, days)
}

// upcoming is like next but allows a same-day match ("this Friday" on a
// Friday is today).
func upcoming(ref time.Time, target time.Weekday) time.Time {
	days := (int(target) - int(ref.Weekday()) + 7) % 7
	return ref.AddDate(0, 0, days)
}

// NextBusinessDay returns tomorrow, unless tomorrow falls on a weekend, in
// which case it skips ahead to Monday.
func NextBusinessDay(ref time.Time) time.Time {
	d := ref.AddDate(0, 0, 1)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// ResolveDate resolves a date phrase against the reference instant. ok is
// false for phrases it does not recognize; callers treat that as "not
// specified", never as an error.
func ResolveDate(phrase string, ref time.Time) (string, bool) {
	p := normalize(phrase)
	if p == "" {
		return "", false
	}

	switch p {
	case "today":
		return formatDate(ref), true
	case "tomorrow":
		return formatDate(ref.AddDate(0, 0, 1)), true
	case "yesterday":
		return formatDate(ref.AddDate(0, 0, -1)), true
	case "this weekend":
		return formatDate(upcoming(ref, time.Saturday)), true
	case "next weekend":
		return formatDate(upcoming(ref, time.Saturday).AddDate(0, 0, 7)), true
	case "end of week", "end of the week":
		return formatDate(upcoming(ref, time.Friday)), true
	case "end of month", "end of the month":
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return formatDate(first.AddDate(0, 1, -1)), true
	case "beginning of week", "beginning of the week":
		return formatDate(upcoming(ref, time.Monday)), true
	case "beginning of month", "beginning of the month":
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return formatDate(first.AddDate(0, 1, 0)), true
	}

	// "next friday" always skips to a future occurrence; "this friday"
	// allows a same-day match.
	if rest, found := strings.CutPrefix(p, "next "); found {
		if wd, ok := weekdays[rest]; ok {
			return formatDate(next(ref, wd)), true
		}
	}
	if rest, found := strings.CutPrefix(p, "this "); found {
		if wd, ok := weekdays[rest]; ok {
			return formatDate(upcoming(ref, wd)), true
		}
	}
	if wd, ok := weekdays[p]; ok {
		return formatDate(upcoming(ref, wd)), true
	}

	if m := offsetRe.FindStringSubmatch(p); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return "", false
		}
		if strings.HasPrefix(m[2], "week") {
			n *= 7
		}
		return formatDate(ref.AddDate(0, 0, n)), true
	}

	// Last resort: the phrase may already be a date literal.
	for _, layout := range literalLayouts {
		if t, err := time.ParseInLocation(layout, phrase, ref.Location()); err == nil {
			return formatDate(t), true
		}
	}

	return "", false
}

// ResolveTime resolves a clock-time phrase ("3pm", "14:30", "noon") into a
// 24-hour HH:MM string. Out-of-range hour or minute values are not
// recognized, never clamped.
func ResolveTime(phrase string) (string, bool) {
	p := normalize(phrase)
	if p == "" {
		return "", false
	}

	if t, ok := dayparts[p]; ok {
		return t, true
	}

	m := clockRe.FindStringSubmatch(p)
	if m == nil {
		return "", false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return "", false
		}
	}
	if minute > 59 {
		return "", false
	}

	switch m[3] {
	case "am":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return "", false
		}
	}

	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format(TimeLayout), true
}

// ResolveRelative resolves phrases that carry both halves at once: exact
// durations ("in 10 minutes", "in 2 hours") computed as ref plus the offset
// with no rounding to a clock boundary, and date-plus-daypart compounds
// ("friday afternoon", "tomorrow morning").
func ResolveRelative(phrase string, ref time.Time) (Resolution, bool) {
	p := normalize(phrase)
	if p == "" {
		return Resolution{}, false
	}

	if m := durationRe.FindStringSubmatch(p); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Resolution{}, false
		}
		unit := time.Minute
		if strings.HasPrefix(m[2], "h") {
			unit = time.Hour
		}
		at := ref.Add(time.Duration(n) * unit)
		return Resolution{Date: formatDate(at), Time: at.Format(TimeLayout)}, true
	}

	// Compound: everything before a trailing daypart is a date phrase.
	if idx := strings.LastIndex(p, " "); idx > 0 {
		if daypart, ok := dayparts[p[idx+1:]]; ok {
			if d, ok := ResolveDate(p[:idx], ref); ok {
				return Resolution{Date: d, Time: daypart}, true
			}
		}
	}

	if d, ok := ResolveDate(p, ref); ok {
		return Resolution{Date: d}, true
	}
	if t, ok := ResolveTime(p); ok {
		return Resolution{Time: t}, true
	}

	return Resolution{}, false
}
