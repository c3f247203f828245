// Package notify schedules task reminders. The scheduler owns the
// task-id to timer map explicitly; it is injected into the applier
// rather than living in package-level state.
package notify

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"taskpilot/internal/clock"
	"taskpilot/internal/model"
)

// Sender delivers one reminder. Delivery is fire-and-forget; the
// scheduler never inspects the outcome.
type Sender interface {
	Send(task model.Task)
}

type Scheduler struct {
	mu     sync.Mutex
	timers map[model.TaskID]*time.Timer

	sender Sender
	clock  clock.Clock
	loc    *time.Location
}

func NewScheduler(sender Sender, clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Scheduler{
		timers: map[model.TaskID]*time.Timer{},
		sender: sender,
		clock:  clk,
		loc:    time.Local,
	}
}

// Schedule arms a reminder for the task's due instant, replacing any
// previous reminder for the same id. Tasks without both a date and a
// time, or whose due instant already passed, are skipped.
func (s *Scheduler) Schedule(t model.Task) bool {
	due, ok := t.DueAt(s.loc)
	if !ok {
		return false
	}
	delay := due.Sub(s.clock.Now())
	if delay <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[t.ID]; ok {
		old.Stop()
	}
	id := t.ID
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		s.sender.Send(t)
	})
	return true
}

// Cancel stops any pending reminder for the id. Unknown ids are a no-op.
func (s *Scheduler) Cancel(id model.TaskID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tm, ok := s.timers[id]; ok {
		tm.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, tm := range s.timers {
		tm.Stop()
		delete(s.timers, id)
	}
}

// Pending reports how many reminders are armed.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// LogSender writes reminders as JSON log lines; the real desktop/email
// channels live outside this service.
type LogSender struct {
	Logger *log.Logger
}

func (l LogSender) Send(task model.Task) {
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	b, _ := json.Marshal(map[string]any{
		"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		"level":  "info",
		"msg":    "task_reminder",
		"taskId": task.ID,
		"text":   task.Text,
	})
	logger.Print(string(b))
}
