package extract

import (
	"encoding/json"
	"strings"

	"taskpilot/internal/model"
)

// rawAction is the loose shape the engine may emit. Entries with an
// explicit action tag pass through; the legacy bare-create shape
// ({task, dueDate, dueTime, folder} with no action) is upgraded for
// backward compatibility. Anything else is dropped.
type rawAction struct {
	Action  string  `json:"action"`
	Task    *string `json:"task"`
	DueDate *string `json:"dueDate"`
	DueTime *string `json:"dueTime"`
	Folder  *string `json:"folder"`

	TaskID  *string            `json:"taskId"`
	Changes *model.TaskChanges `json:"changes"`

	FolderName  *string `json:"folderName"`
	MatchedTask *string `json:"matchedTask"`
}

// firstJSONArray locates the first well-formed JSON array substring in
// text; the engine's raw output may contain commentary before and after
// the array.
func firstJSONArray(text string) (string, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '[' {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			ch := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case '[', '{':
				depth++
			case ']', '}':
				depth--
				if depth == 0 {
					candidate := text[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					i = len(text) // malformed; try the next '['
				}
			}
		}
	}
	return "", false
}

// parseActions turns the engine's raw output into normalized actions.
func parseActions(raw string) ([]rawAction, error) {
	arr, ok := firstJSONArray(raw)
	if !ok {
		return nil, ErrMalformedResponse
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(arr), &entries); err != nil {
		return nil, ErrMalformedResponse
	}

	out := make([]rawAction, 0, len(entries))
	for _, e := range entries {
		var ra rawAction
		if err := json.Unmarshal(e, &ra); err != nil {
			continue // not an object; drop
		}
		ra.scrubNullStrings()

		if ra.Action == "" {
			// Legacy shape: bare create with no action tag.
			if ra.Task == nil {
				continue
			}
			ra.Action = string(model.ActionCreate)
		}
		if !model.ActionType(ra.Action).Valid() {
			continue
		}
		out = append(out, ra)
	}
	return out, nil
}

// scrubNullStrings replaces the literal string "null" with an actual
// absent value; some engines emit it instead of a JSON null.
func (ra *rawAction) scrubNullStrings() {
	for _, p := range []**string{&ra.Task, &ra.DueDate, &ra.DueTime, &ra.Folder, &ra.TaskID, &ra.FolderName, &ra.MatchedTask} {
		if *p != nil && strings.EqualFold(strings.TrimSpace(**p), "null") {
			*p = nil
		}
	}
	if ra.Changes != nil {
		for _, p := range []**string{&ra.Changes.Text, &ra.Changes.Folder, &ra.Changes.DueDate, &ra.Changes.DueTime} {
			if *p != nil && strings.EqualFold(strings.TrimSpace(**p), "null") {
				*p = nil
			}
		}
	}
}
