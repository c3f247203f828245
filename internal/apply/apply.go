// Package apply executes a validated action list against the store,
// enforcing protection invariants and scheduling reminder side effects.
package apply

import (
	"context"
	"errors"
	"fmt"

	"taskpilot/internal/clock"
	"taskpilot/internal/defaults"
	"taskpilot/internal/model"
	"taskpilot/internal/store"
)

var (
	// ErrTaskNotFound: a modify/delete referenced an id that does not
	// exist. Reported per-action, never fatal to the batch.
	ErrTaskNotFound = errors.New("referenced task not found")

	// ErrDuplicateFolder: create_folder with a name that already exists.
	ErrDuplicateFolder = errors.New("folder already exists")

	// ErrProtectedFolder: delete_folder targeting one of the reserved
	// folders.
	ErrProtectedFolder = errors.New("folder is protected and cannot be deleted")
)

// Notifier is the reminder collaborator. Calls are fire-and-forget; the
// applier never waits on or inspects their results.
type Notifier interface {
	Schedule(task model.Task) bool
	Cancel(id model.TaskID)
}

// Result is the per-action outcome. One action's failure does not abort
// its siblings.
type Result struct {
	Action model.Action `json:"action"`
	Task   *model.Task  `json:"task,omitempty"`
	Folder string       `json:"folder,omitempty"`
	Err    error        `json:"-"`
	Error  string       `json:"error,omitempty"`
}

func (r Result) OK() bool { return r.Err == nil }

type Applier struct {
	store    store.Store
	notifier Notifier
	selector *defaults.Selector
	clock    clock.Clock
}

func New(st store.Store, notifier Notifier, selector *defaults.Selector, clk clock.Clock) *Applier {
	if clk == nil {
		clk = clock.Real{}
	}
	if selector == nil {
		selector = defaults.NewSelector(nil)
	}
	return &Applier{store: st, notifier: notifier, selector: selector, clock: clk}
}

// Apply processes actions strictly in list order, so a create_folder is
// applied before any later action referencing the new folder name. Each
// action is applied independently; preconditions are confirmed before
// any mutation.
func (a *Applier) Apply(ctx context.Context, actions []model.Action) []Result {
	set, err := a.store.Settings(ctx)
	if err != nil {
		set = model.DefaultSettings()
	}

	results := make([]Result, 0, len(actions))
	for _, act := range actions {
		var res Result
		switch act.Type {
		case model.ActionCreate:
			res = a.create(ctx, act, set)
		case model.ActionModify:
			res = a.modify(ctx, act, set)
		case model.ActionDelete:
			res = a.delete(ctx, act)
		case model.ActionCreateFolder:
			res = a.createFolder(ctx, act)
		case model.ActionDeleteFolder:
			res = a.deleteFolder(ctx, act)
		default:
			res = Result{Action: act, Err: fmt.Errorf("unknown action type %q", act.Type)}
		}
		if res.Err != nil {
			res.Error = res.Err.Error()
		}
		results = append(results, res)
	}
	return results
}

func (a *Applier) create(ctx context.Context, act model.Action, set model.Settings) Result {
	dueDate, dueTime := act.DueDate, act.DueTime
	if defaults.ShouldApply(dueDate, dueTime) {
		sug := a.selector.Defaults(act.Task, set.DefaultTiming, a.clock.Now())
		dueDate, dueTime = sug.Date, sug.Time
	}

	task, err := a.store.CreateTask(ctx, model.Task{
		Text:    act.Task,
		Folder:  act.Folder,
		DueDate: dueDate,
		DueTime: dueTime,
	})
	if err != nil {
		return Result{Action: act, Err: err}
	}

	if set.NotificationsEnabled && task.HasSchedule() && a.notifier != nil {
		a.notifier.Schedule(task)
	}
	return Result{Action: act, Task: &task}
}

func (a *Applier) modify(ctx context.Context, act model.Action, set model.Settings) Result {
	if _, err := a.store.GetTask(ctx, model.TaskID(act.TaskID)); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return Result{Action: act, Err: fmt.Errorf("%w: %s", ErrTaskNotFound, act.TaskID)}
		}
		return Result{Action: act, Err: err}
	}

	changes := model.TaskChanges{}
	if act.Changes != nil {
		changes = *act.Changes
	}

	task, err := a.store.UpdateTask(ctx, model.TaskID(act.TaskID), changes)
	if err != nil {
		return Result{Action: act, Err: err}
	}

	// A schedule change invalidates any armed reminder; re-arm only when
	// both fields end up populated.
	if changes.TouchesSchedule() && a.notifier != nil {
		a.notifier.Cancel(task.ID)
		if set.NotificationsEnabled && task.HasSchedule() {
			a.notifier.Schedule(task)
		}
	}
	return Result{Action: act, Task: &task}
}

func (a *Applier) delete(ctx context.Context, act model.Action) Result {
	err := a.store.DeleteTask(ctx, model.TaskID(act.TaskID))
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return Result{Action: act, Err: fmt.Errorf("%w: %s", ErrTaskNotFound, act.TaskID)}
		}
		return Result{Action: act, Err: err}
	}
	if a.notifier != nil {
		a.notifier.Cancel(model.TaskID(act.TaskID))
	}
	return Result{Action: act}
}

func (a *Applier) createFolder(ctx context.Context, act model.Action) Result {
	f, err := a.store.CreateFolder(ctx, act.FolderName)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateFolder) {
			return Result{Action: act, Err: fmt.Errorf("%w: %s", ErrDuplicateFolder, act.FolderName)}
		}
		return Result{Action: act, Err: err}
	}
	return Result{Action: act, Folder: f.Name}
}

func (a *Applier) deleteFolder(ctx context.Context, act model.Action) Result {
	if model.ProtectedFolder(act.FolderName) {
		return Result{Action: act, Err: fmt.Errorf("%w: %s", ErrProtectedFolder, act.FolderName)}
	}
	if err := a.store.DeleteFolder(ctx, act.FolderName); err != nil {
		return Result{Action: act, Err: err}
	}
	if _, err := a.store.ReassignFolder(ctx, act.FolderName, model.FolderPersonal); err != nil {
		return Result{Action: act, Err: err}
	}
	return Result{Action: act, Folder: act.FolderName}
}
