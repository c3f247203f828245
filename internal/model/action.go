package model

type ActionType string

const (
	ActionCreate       ActionType = "create"
	ActionModify       ActionType = "modify"
	ActionDelete       ActionType = "delete"
	ActionCreateFolder ActionType = "create_folder"
	ActionDeleteFolder ActionType = "delete_folder"
)

// TaskChanges is a partial update; nil pointer => "no change". An empty
// string for DueDate/DueTime clears the field (same convention the store
// patch uses).
type TaskChanges struct {
	Text      *string   `json:"task,omitempty"`
	Folder    *string   `json:"folder,omitempty"`
	DueDate   *string   `json:"dueDate,omitempty"`
	DueTime   *string   `json:"dueTime,omitempty"`
	Priority  *Priority `json:"priority,omitempty"`
	Completed *bool     `json:"completed,omitempty"`
}

func (c *TaskChanges) Empty() bool {
	return c == nil || (c.Text == nil && c.Folder == nil && c.DueDate == nil &&
		c.DueTime == nil && c.Priority == nil && c.Completed == nil)
}

// TouchesSchedule reports whether the change set modifies the reminder
// schedule (due date or due time).
func (c *TaskChanges) TouchesSchedule() bool {
	return c != nil && (c.DueDate != nil || c.DueTime != nil)
}

// Action is one proposed task operation, the extraction pipeline's output
// unit. Which fields are meaningful depends on Type:
//
//	create:        Task, DueDate, DueTime, Folder
//	modify:        TaskID, Changes
//	delete:        TaskID
//	create_folder: FolderName
//	delete_folder: FolderName
type Action struct {
	Type ActionType `json:"action"`

	Task    string  `json:"task,omitempty"`
	DueDate *string `json:"dueDate,omitempty"`
	DueTime *string `json:"dueTime,omitempty"`
	Folder  string  `json:"folder,omitempty"`

	TaskID  string       `json:"taskId,omitempty"`
	Changes *TaskChanges `json:"changes,omitempty"`

	FolderName string `json:"folderName,omitempty"`

	// MatchedTask echoes the task text the engine believed it was acting
	// on. Informational only; id lookups are authoritative.
	MatchedTask string `json:"matchedTask,omitempty"`
}

func (a ActionType) Valid() bool {
	switch a {
	case ActionCreate, ActionModify, ActionDelete, ActionCreateFolder, ActionDeleteFolder:
		return true
	}
	return false
}
