package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period            string            `json:"period"`
	EventCounts       map[EventType]int `json:"event_counts"`
	Extractions       int               `json:"extractions"`
	ExtractionErrors  map[string]int    `json:"extraction_errors"`
	SuccessRate       float64           `json:"success_rate"`
	ActionsByType     map[string]int    `json:"actions_by_type"`
	ActionFailures    map[string]int    `json:"action_failures"`
	AvgDurationMillis float64           `json:"avg_duration_ms"`
}

// CalculateStats aggregates events recorded at or after since.
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:           since.Format("2006-01-02"),
		EventCounts:      make(map[EventType]int),
		ExtractionErrors: make(map[string]int),
		ActionsByType:    make(map[string]int),
		ActionFailures:   make(map[string]int),
	}

	var succeeded int
	var totalDuration float64
	var timedExtractions int

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventExtractionStarted:
			stats.Extractions++
		case EventExtractionSucceeded:
			succeeded++
			if ms, ok := metadata["duration_ms"].(float64); ok {
				totalDuration += ms
				timedExtractions++
			}
		case EventExtractionFailed:
			if kind, ok := metadata["error"].(string); ok {
				stats.ExtractionErrors[kind]++
			}
		case EventActionApplied:
			if at, ok := metadata["action"].(string); ok {
				stats.ActionsByType[at]++
			}
		case EventActionFailed:
			if at, ok := metadata["action"].(string); ok {
				stats.ActionFailures[at]++
			}
		}
	}

	if stats.Extractions > 0 {
		stats.SuccessRate = float64(succeeded) / float64(stats.Extractions)
	}
	if timedExtractions > 0 {
		stats.AvgDurationMillis = totalDuration / float64(timedExtractions)
	}

	return stats, nil
}
