// Package defaults backfills a due date and time for tasks that were
// created without either, driven by the user's default timing policy.
package defaults

import (
	"fmt"
	"strings"
	"time"

	"taskpilot/internal/model"
	"taskpilot/internal/temporal"
)

// Suggestion is a proposed date/time pair. Reason explains the choice and
// is always populated for non-manual policies.
type Suggestion struct {
	Date   *string
	Time   *string
	Reason string
}

// ShouldApply reports whether defaults should be applied at all: true iff
// BOTH fields are absent. Presence of either one is explicit user intent
// and defaults are skipped entirely.
func ShouldApply(dueDate, dueTime *string) bool {
	return dueDate == nil && dueTime == nil
}

// Rule is one smart-mode keyword rule. Rules are evaluated in slice order;
// the first rule with a keyword hit wins.
type Rule struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	When     Timing   `yaml:"when" json:"when"`
	Reason   string   `yaml:"reason" json:"reason"`
}

// Timing says how a rule computes its suggestion from the reference
// instant.
type Timing struct {
	// Kind: "offset_hours" | "today_at" | "tomorrow_at" |
	// "next_saturday_at" | "next_business_day_at" | "communication"
	Kind        string `yaml:"kind" json:"kind"`
	At          string `yaml:"at,omitempty" json:"at,omitempty"`
	OffsetHours int    `yaml:"offset_hours,omitempty" json:"offset_hours,omitempty"`
}

// SmartRules is the built-in rule table, in priority order. It is exposed
// so config can replace or extend it without touching control flow.
func SmartRules() []Rule {
	return []Rule{
		{
			Name:     "urgent",
			Keywords: []string{"urgent", "asap", "immediately", "now", "quick"},
			When:     Timing{Kind: "offset_hours", OffsetHours: 1},
			Reason:   "urgent task, scheduled within the hour",
		},
		{
			Name:     "today",
			Keywords: []string{"today", "tonight", "this evening"},
			When:     Timing{Kind: "today_at", At: "17:00"},
			Reason:   "mentioned today, scheduled for late afternoon",
		},
		{
			Name:     "shopping",
			Keywords: []string{"buy", "shop", "grocery", "store", "purchase", "errand"},
			When:     Timing{Kind: "next_saturday_at", At: "10:00"},
			Reason:   "shopping errand, scheduled for Saturday morning",
		},
		{
			Name:     "meeting",
			Keywords: []string{"meeting", "call", "conference", "sync", "standup"},
			When:     Timing{Kind: "next_business_day_at", At: "14:00"},
			Reason:   "meeting, scheduled for the next business day afternoon",
		},
		{
			Name:     "communication",
			Keywords: []string{"email", "send", "reply", "message", "contact"},
			When:     Timing{Kind: "communication"},
			Reason:   "communication task, scheduled for the next sensible hour",
		},
		{
			Name:     "work_product",
			Keywords: []string{"report", "document", "presentation", "proposal", "deadline", "project"},
			When:     Timing{Kind: "next_business_day_at", At: "17:00"},
			Reason:   "deliverable, due end of next business day",
		},
		{
			Name:     "appointment",
			Keywords: []string{"doctor", "dentist", "appointment", "checkup"},
			When:     Timing{Kind: "next_business_day_at", At: "10:00"},
			Reason:   "appointment, scheduled for the next business day morning",
		},
		{
			Name:     "exercise",
			Keywords: []string{"gym", "workout", "exercise", "run", "yoga"},
			When:     Timing{Kind: "tomorrow_at", At: "07:00"},
			Reason:   "exercise, scheduled for early tomorrow",
		},
	}
}

// Selector computes default due dates/times. Rules may be swapped out via
// configuration; a zero rules slice falls back to SmartRules.
type Selector struct {
	rules []Rule
}

func NewSelector(rules []Rule) *Selector {
	if len(rules) == 0 {
		rules = SmartRules()
	}
	return &Selector{rules: rules}
}

// Defaults returns the suggestion for taskText under policy, relative to
// ref. The manual policy always returns an empty suggestion; an
// unrecognized policy falls back to tomorrow_morning.
func (s *Selector) Defaults(taskText string, policy model.TimingPolicy, ref time.Time) Suggestion {
	switch policy {
	case model.PolicyManual:
		return Suggestion{Reason: "defaults disabled"}
	case model.PolicyEndOfToday:
		return at(ref, "23:59", "end of today")
	case model.PolicyTomorrowMorning:
		return at(ref.AddDate(0, 0, 1), "09:00", "tomorrow morning")
	case model.PolicyNextBusinessDay:
		return at(temporal.NextBusinessDay(ref), "09:00", "next business day morning")
	case model.PolicySmart:
		return s.smart(taskText, ref)
	default:
		return at(ref.AddDate(0, 0, 1), "09:00", "tomorrow morning (unknown policy)")
	}
}

func (s *Selector) smart(taskText string, ref time.Time) Suggestion {
	text := strings.ToLower(taskText)
	for _, r := range s.rules {
		if !matches(text, r.Keywords) {
			continue
		}
		switch r.When.Kind {
		case "offset_hours":
			when := ref.Add(time.Duration(r.When.OffsetHours) * time.Hour)
			d := when.Format(temporal.DateLayout)
			t := when.Format(temporal.TimeLayout)
			return Suggestion{Date: &d, Time: &t, Reason: r.Reason}
		case "today_at":
			return at(ref, r.When.At, r.Reason)
		case "tomorrow_at":
			return at(ref.AddDate(0, 0, 1), r.When.At, r.Reason)
		case "next_saturday_at":
			sat := ref.AddDate(0, 0, daysUntilSaturday(ref))
			return at(sat, r.When.At, r.Reason)
		case "next_business_day_at":
			return at(temporal.NextBusinessDay(ref), r.When.At, r.Reason)
		case "communication":
			// After 17:00 the workday is over; push to tomorrow morning.
			if ref.Hour() >= 17 {
				return at(ref.AddDate(0, 0, 1), "09:00", r.Reason+" (tomorrow morning)")
			}
			return at(ref, "18:00", r.Reason+" (today)")
		}
	}
	return at(ref.AddDate(0, 0, 1), "09:00", "no keyword match, defaulting to tomorrow morning")
}

func at(day time.Time, clock, reason string) Suggestion {
	d := day.Format(temporal.DateLayout)
	t := clock
	return Suggestion{Date: &d, Time: &t, Reason: reason}
}

func matches(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func daysUntilSaturday(ref time.Time) int {
	days := (int(time.Saturday) - int(ref.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return days
}

// Describe renders a one-line summary, used by the settings endpoint.
func (s *Selector) Describe(policy model.TimingPolicy) string {
	return fmt.Sprintf("policy=%s rules=%d", policy, len(s.rules))
}
