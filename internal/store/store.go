// Package store persists tasks, folders and per-user settings. Records
// are keyed by an opaque user identifier; callers bind a user with
// ForUser and work against the returned Store.
package store

import (
	"context"
	"errors"
	"strings"

	"taskpilot/internal/model"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrFolderNotFound  = errors.New("folder not found")
	ErrDuplicateFolder = errors.New("folder already exists")
)

type Store interface {
	CreateTask(ctx context.Context, t model.Task) (model.Task, error)
	GetTask(ctx context.Context, id model.TaskID) (model.Task, error)
	// ListTasks returns tasks newest-created-first.
	ListTasks(ctx context.Context) ([]model.Task, error)
	UpdateTask(ctx context.Context, id model.TaskID, changes model.TaskChanges) (model.Task, error)
	DeleteTask(ctx context.Context, id model.TaskID) error

	ListFolders(ctx context.Context) ([]model.Folder, error)
	CreateFolder(ctx context.Context, name string) (model.Folder, error)
	DeleteFolder(ctx context.Context, name string) error
	// ReassignFolder moves every task in folder from to folder to and
	// reports how many moved.
	ReassignFolder(ctx context.Context, from, to string) (int, error)

	Settings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, s model.Settings) error
}

// applyChanges mutates t according to the change set. An empty string for
// DueDate/DueTime clears the field; nil pointers leave it alone.
func applyChanges(t *model.Task, c model.TaskChanges) {
	if c.Text != nil && strings.TrimSpace(*c.Text) != "" {
		t.Text = strings.TrimSpace(*c.Text)
	}
	if c.Folder != nil && strings.TrimSpace(*c.Folder) != "" {
		t.Folder = strings.TrimSpace(*c.Folder)
	}
	if c.DueDate != nil {
		if *c.DueDate == "" {
			t.DueDate = nil
		} else {
			v := *c.DueDate
			t.DueDate = &v
		}
	}
	if c.DueTime != nil {
		if *c.DueTime == "" {
			t.DueTime = nil
		} else {
			v := *c.DueTime
			t.DueTime = &v
		}
	}
	if c.Priority != nil && c.Priority.Valid() {
		t.Priority = *c.Priority
	}
	if c.Completed != nil {
		t.Completed = *c.Completed
	}
}

// normalizeTask fills the fields creation leaves open.
func normalizeTask(t *model.Task) {
	t.Text = strings.TrimSpace(t.Text)
	if t.Folder == "" {
		t.Folder = model.FolderPersonal
	}
	if !t.Priority.Valid() {
		t.Priority = model.PriorityMedium
	}
}
