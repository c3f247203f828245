package apply

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/clock"
	"taskpilot/internal/model"
	"taskpilot/internal/store"
)

// fakeNotifier records schedule/cancel calls.
type fakeNotifier struct {
	scheduled []model.TaskID
	canceled  []model.TaskID
}

func (f *fakeNotifier) Schedule(task model.Task) bool {
	f.scheduled = append(f.scheduled, task.ID)
	return true
}

func (f *fakeNotifier) Cancel(id model.TaskID) {
	f.canceled = append(f.canceled, id)
}

func strp(s string) *string { return &s }

// Friday, December 5th 2025, 10:00 local.
var ref = time.Date(2025, 12, 5, 10, 0, 0, 0, time.Local)

func newApplier(t *testing.T) (*Applier, store.Store, *fakeNotifier) {
	t.Helper()
	st := store.NewMemory().ForUser("u-test")
	n := &fakeNotifier{}
	return New(st, n, nil, clock.NewFake(ref)), st, n
}

func TestApply_CreateWithExplicitSchedule(t *testing.T) {
	a, st, n := newApplier(t)

	results := a.Apply(context.Background(), []model.Action{{
		Type:    model.ActionCreate,
		Task:    "Dentist",
		DueDate: strp("2025-12-10"),
		DueTime: strp("09:00"),
		Folder:  model.FolderPersonal,
	}})
	require.Len(t, results, 1)
	require.True(t, results[0].OK())
	require.NotNil(t, results[0].Task)

	got, err := st.GetTask(context.Background(), results[0].Task.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-10", *got.DueDate)
	assert.Equal(t, "09:00", *got.DueTime)
	assert.Len(t, n.scheduled, 1)
}

func TestApply_CreateBackfillsDefaults(t *testing.T) {
	// Scenario: "Buy milk" with policy tomorrow_morning, reference
	// 2025-12-05T10:00 -> Shopping, 2025-12-06, 09:00.
	a, st, _ := newApplier(t)

	results := a.Apply(context.Background(), []model.Action{{
		Type:   model.ActionCreate,
		Task:   "Buy milk",
		Folder: model.FolderShopping,
	}})
	require.True(t, results[0].OK())

	got, err := st.GetTask(context.Background(), results[0].Task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FolderShopping, got.Folder)
	require.NotNil(t, got.DueDate)
	require.NotNil(t, got.DueTime)
	assert.Equal(t, "2025-12-06", *got.DueDate)
	assert.Equal(t, "09:00", *got.DueTime)
}

func TestApply_CreateBothOrNeither(t *testing.T) {
	// With a non-manual policy every persisted create ends up with both
	// fields present, never exactly one.
	a, st, _ := newApplier(t)

	a.Apply(context.Background(), []model.Action{
		{Type: model.ActionCreate, Task: "no schedule at all"},
		{Type: model.ActionCreate, Task: "date only", DueDate: strp("2025-12-20")},
	})

	tasks, err := st.ListTasks(context.Background())
	require.NoError(t, err)
	for _, task := range tasks {
		both := task.DueDate != nil && task.DueTime != nil
		neither := task.DueDate == nil && task.DueTime == nil
		if task.Text == "date only" {
			// Explicit partial intent is preserved untouched.
			assert.NotNil(t, task.DueDate)
			assert.Nil(t, task.DueTime)
			continue
		}
		assert.True(t, both || neither, "task %q has exactly one schedule field", task.Text)
	}
}

func TestApply_CreateManualPolicySkipsDefaults(t *testing.T) {
	a, st, n := newApplier(t)
	require.NoError(t, st.SaveSettings(context.Background(), model.Settings{
		DefaultTiming:        model.PolicyManual,
		NotificationsEnabled: true,
	}))

	results := a.Apply(context.Background(), []model.Action{{
		Type: model.ActionCreate, Task: "free floating",
	}})
	require.True(t, results[0].OK())
	assert.Nil(t, results[0].Task.DueDate)
	assert.Nil(t, results[0].Task.DueTime)
	assert.Empty(t, n.scheduled)
}

func TestApply_NotificationsDisabled(t *testing.T) {
	a, st, n := newApplier(t)
	require.NoError(t, st.SaveSettings(context.Background(), model.Settings{
		DefaultTiming:        model.PolicyTomorrowMorning,
		NotificationsEnabled: false,
	}))

	results := a.Apply(context.Background(), []model.Action{{
		Type: model.ActionCreate, Task: "quiet task",
		DueDate: strp("2025-12-10"), DueTime: strp("09:00"),
	}})
	require.True(t, results[0].OK())
	assert.Empty(t, n.scheduled)
}

func TestApply_ModifyRescheduleAndCancel(t *testing.T) {
	a, st, n := newApplier(t)
	created, err := st.CreateTask(context.Background(), model.Task{
		Text: "Standup", DueDate: strp("2025-12-08"), DueTime: strp("09:30"),
	})
	require.NoError(t, err)

	// Moving the date cancels the old reminder and re-arms.
	results := a.Apply(context.Background(), []model.Action{{
		Type:    model.ActionModify,
		TaskID:  string(created.ID),
		Changes: &model.TaskChanges{DueDate: strp("2025-12-09")},
	}})
	require.True(t, results[0].OK())
	assert.Equal(t, []model.TaskID{created.ID}, n.canceled)
	assert.Equal(t, []model.TaskID{created.ID}, n.scheduled)

	// Clearing the time cancels without rescheduling.
	n.scheduled, n.canceled = nil, nil
	results = a.Apply(context.Background(), []model.Action{{
		Type:    model.ActionModify,
		TaskID:  string(created.ID),
		Changes: &model.TaskChanges{DueTime: strp("")},
	}})
	require.True(t, results[0].OK())
	assert.Equal(t, []model.TaskID{created.ID}, n.canceled)
	assert.Empty(t, n.scheduled)
}

func TestApply_ModifyNonScheduleFieldLeavesReminder(t *testing.T) {
	a, st, n := newApplier(t)
	created, err := st.CreateTask(context.Background(), model.Task{Text: "Rename me"})
	require.NoError(t, err)

	results := a.Apply(context.Background(), []model.Action{{
		Type:    model.ActionModify,
		TaskID:  string(created.ID),
		Changes: &model.TaskChanges{Text: strp("Renamed")},
	}})
	require.True(t, results[0].OK())
	assert.Empty(t, n.canceled)
	assert.Equal(t, "Renamed", results[0].Task.Text)
}

func TestApply_DeleteCancelsReminder(t *testing.T) {
	a, st, n := newApplier(t)
	created, err := st.CreateTask(context.Background(), model.Task{
		Text: "Buy milk", DueDate: strp("2025-12-10"), DueTime: strp("09:00"),
	})
	require.NoError(t, err)

	results := a.Apply(context.Background(), []model.Action{{
		Type: model.ActionDelete, TaskID: string(created.ID), MatchedTask: "Buy milk",
	}})
	require.True(t, results[0].OK())
	assert.Equal(t, []model.TaskID{created.ID}, n.canceled)

	_, err = st.GetTask(context.Background(), created.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestApply_BatchIsolation(t *testing.T) {
	// Action #2 references a nonexistent id; #1 and #3 still apply.
	a, st, _ := newApplier(t)

	results := a.Apply(context.Background(), []model.Action{
		{Type: model.ActionCreate, Task: "first"},
		{Type: model.ActionModify, TaskID: "task_missing", Changes: &model.TaskChanges{Text: strp("x")}},
		{Type: model.ActionCreate, Task: "third"},
	})
	require.Len(t, results, 3)

	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.ErrorIs(t, results[1].Err, ErrTaskNotFound)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].OK())

	tasks, err := st.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestApply_FolderOrderHonored(t *testing.T) {
	// create_folder before a create targeting the new folder.
	a, st, _ := newApplier(t)

	results := a.Apply(context.Background(), []model.Action{
		{Type: model.ActionCreateFolder, FolderName: "Fitness"},
		{Type: model.ActionCreate, Task: "Morning run", Folder: "Fitness"},
	})
	require.True(t, results[0].OK())
	require.True(t, results[1].OK())

	folders, err := st.ListFolders(context.Background())
	require.NoError(t, err)
	assert.Contains(t, folderNames(folders), "Fitness")
	assert.Equal(t, "Fitness", results[1].Task.Folder)
}

func TestApply_DuplicateFolder(t *testing.T) {
	a, _, _ := newApplier(t)

	results := a.Apply(context.Background(), []model.Action{
		{Type: model.ActionCreateFolder, FolderName: "Twice"},
		{Type: model.ActionCreateFolder, FolderName: "Twice"},
	})
	assert.True(t, results[0].OK())
	assert.ErrorIs(t, results[1].Err, ErrDuplicateFolder)
}

func TestApply_ProtectedFolderUnchangedStore(t *testing.T) {
	a, st, _ := newApplier(t)

	results := a.Apply(context.Background(), []model.Action{{
		Type: model.ActionDeleteFolder, FolderName: model.FolderWork,
	}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrProtectedFolder)

	folders, err := st.ListFolders(context.Background())
	require.NoError(t, err)
	assert.Contains(t, folderNames(folders), model.FolderWork)
}

func TestApply_DeleteFolderReassignsTasks(t *testing.T) {
	a, st, _ := newApplier(t)
	ctx := context.Background()

	_, err := st.CreateFolder(ctx, "Garage")
	require.NoError(t, err)
	task, err := st.CreateTask(ctx, model.Task{Text: "sweep floor", Folder: "Garage"})
	require.NoError(t, err)

	results := a.Apply(ctx, []model.Action{{
		Type: model.ActionDeleteFolder, FolderName: "Garage",
	}})
	require.True(t, results[0].OK())

	got, err := st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FolderPersonal, got.Folder)
}

func folderNames(folders []model.Folder) []string {
	out := make([]string, 0, len(folders))
	for _, f := range folders {
		out = append(out, f.Name)
	}
	return out
}
