// Package telemetry records extraction and action events in memory and
// aggregates them into usage stats.
package telemetry

import "time"

type EventType string

const (
	EventExtractionStarted   EventType = "extraction_started"
	EventExtractionSucceeded EventType = "extraction_succeeded"
	EventExtractionFailed    EventType = "extraction_failed"
	EventActionApplied       EventType = "action_applied"
	EventActionFailed        EventType = "action_failed"
	EventReminderScheduled   EventType = "reminder_scheduled"
	EventFolderCreated       EventType = "folder_created"
	EventFolderDeleted       EventType = "folder_deleted"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
