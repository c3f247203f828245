package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/clock"
	"taskpilot/internal/model"
)

type captureSender struct {
	mu   sync.Mutex
	sent []model.TaskID
	ch   chan model.TaskID
}

func newCaptureSender() *captureSender {
	return &captureSender{ch: make(chan model.TaskID, 8)}
}

func (c *captureSender) Send(task model.Task) {
	c.mu.Lock()
	c.sent = append(c.sent, task.ID)
	c.mu.Unlock()
	c.ch <- task.ID
}

func strp(s string) *string { return &s }

func dueSoon(id string, d time.Duration) model.Task {
	at := time.Now().Add(d)
	return model.Task{
		ID:      model.TaskID(id),
		Text:    "reminder target",
		DueDate: strp(at.Format("2006-01-02")),
		DueTime: strp(at.Format("15:04")),
	}
}

func TestSchedule_RequiresBothFields(t *testing.T) {
	s := NewScheduler(newCaptureSender(), nil)

	assert.False(t, s.Schedule(model.Task{ID: "a", DueDate: strp("2030-01-01")}))
	assert.False(t, s.Schedule(model.Task{ID: "b", DueTime: strp("09:00")}))
	assert.False(t, s.Schedule(model.Task{ID: "c"}))
	assert.Zero(t, s.Pending())
}

func TestSchedule_PastDueSkipped(t *testing.T) {
	s := NewScheduler(newCaptureSender(), nil)
	assert.False(t, s.Schedule(model.Task{
		ID:      "old",
		DueDate: strp("2020-01-01"),
		DueTime: strp("09:00"),
	}))
	assert.Zero(t, s.Pending())
}

func TestScheduleAndCancel(t *testing.T) {
	sender := newCaptureSender()
	s := NewScheduler(sender, nil)

	require.True(t, s.Schedule(dueSoon("t1", 2*time.Minute)))
	assert.Equal(t, 1, s.Pending())

	// Rescheduling the same id replaces, not duplicates.
	require.True(t, s.Schedule(dueSoon("t1", 3*time.Minute)))
	assert.Equal(t, 1, s.Pending())

	s.Cancel("t1")
	assert.Zero(t, s.Pending())

	s.Cancel("never-scheduled") // no-op
}

func TestClearAll(t *testing.T) {
	s := NewScheduler(newCaptureSender(), nil)
	require.True(t, s.Schedule(dueSoon("t1", time.Minute)))
	require.True(t, s.Schedule(dueSoon("t2", time.Minute)))
	assert.Equal(t, 2, s.Pending())

	s.ClearAll()
	assert.Zero(t, s.Pending())
}

func TestFire(t *testing.T) {
	sender := newCaptureSender()

	// Due instants have minute granularity; a fake clock sitting just
	// before the due instant keeps the real timer delay tiny.
	due := time.Date(2025, 12, 5, 9, 0, 0, 0, time.Local)
	s := NewScheduler(sender, clock.NewFake(due.Add(-20*time.Millisecond)))

	task := model.Task{
		ID:      "fire",
		Text:    "goes off",
		DueDate: strp("2025-12-05"),
		DueTime: strp("09:00"),
	}
	require.True(t, s.Schedule(task))

	select {
	case id := <-sender.ch:
		assert.Equal(t, model.TaskID("fire"), id)
	case <-time.After(time.Second):
		t.Fatal("reminder never fired")
	}
	assert.Zero(t, s.Pending())
}
