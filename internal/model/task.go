package model

import (
	"regexp"
	"time"
)

type TaskID string

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task is the in-pipeline shape. DueDate and DueTime are independently
// optional and never combined into one field; each carries its own format
// (dates are "2006-01-02", times are 24h "15:04").
type Task struct {
	ID        TaskID   `json:"id"`
	Text      string   `json:"text"`
	Folder    string   `json:"folder"`
	DueDate   *string  `json:"dueDate,omitempty"`
	DueTime   *string  `json:"dueTime,omitempty"`
	Priority  Priority `json:"priority"`
	Completed bool     `json:"completed"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// ValidDate reports whether s is a pure YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidTime reports whether s is a pure 24-hour HH:MM clock time.
func ValidTime(s string) bool {
	return timeRe.MatchString(s)
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// HasSchedule reports whether the task carries both a due date and a due
// time, the precondition for scheduling a reminder.
func (t *Task) HasSchedule() bool {
	return t.DueDate != nil && t.DueTime != nil
}

// DueAt combines DueDate and DueTime into an instant in loc. ok is false
// when either field is absent or malformed.
func (t *Task) DueAt(loc *time.Location) (time.Time, bool) {
	if !t.HasSchedule() {
		return time.Time{}, false
	}
	at, err := time.ParseInLocation("2006-01-02 15:04", *t.DueDate+" "+*t.DueTime, loc)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}
