// Package extract turns free-text user input into a validated, ordered
// list of task actions by way of an external text-completion engine.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskpilot/internal/clock"
	"taskpilot/internal/model"
	"taskpilot/internal/temporal"
)

// Engine is the external text-completion collaborator: one prompt in, one
// free-text response out.
type Engine interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// FolderKeywords drives folder inference for create actions the engine
// left unassigned. Configurable table, not inline conditionals.
type FolderKeywords struct {
	Work     []string `yaml:"work" json:"work"`
	Shopping []string `yaml:"shopping" json:"shopping"`
}

func DefaultFolderKeywords() FolderKeywords {
	return FolderKeywords{
		Work:     []string{"meeting", "report", "project", "client", "office", "presentation", "deadline", "email", "standup"},
		Shopping: []string{"buy", "shop", "grocery", "groceries", "store", "purchase", "errand", "milk", "pick up"},
	}
}

// Pipeline orchestrates one extraction: prompt build, engine call, parse,
// normalize. It proposes actions and never mutates tasks itself.
type Pipeline struct {
	engine  Engine
	clock   clock.Clock
	timeout time.Duration
	folders FolderKeywords
}

func NewPipeline(engine Engine, clk clock.Clock, timeout time.Duration, folders FolderKeywords) *Pipeline {
	if clk == nil {
		clk = clock.Real{}
	}
	if len(folders.Work) == 0 && len(folders.Shopping) == 0 {
		folders = DefaultFolderKeywords()
	}
	return &Pipeline{engine: engine, clock: clk, timeout: timeout, folders: folders}
}

// Extract runs one call against the engine and returns the normalized
// action list. The reference instant is computed once so every relative
// resolution within the call is internally consistent. Extraction errors
// abort the whole call; no partial list is ever returned.
func (p *Pipeline) Extract(ctx context.Context, text string, existingTasks []model.Task, existingFolders []string) ([]model.Action, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	ref := p.clock.Now()
	prompt := buildPrompt(ref, text, existingTasks, existingFolders)

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	raw, err := p.engine.Complete(callCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrExtractionTimeout, p.timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	parsed, err := parseActions(raw)
	if err != nil {
		return nil, err
	}

	actions := make([]model.Action, 0, len(parsed))
	for _, ra := range parsed {
		if a, ok := p.normalize(ra, ref, existingFolders); ok {
			actions = append(actions, a)
		}
	}
	if len(actions) == 0 {
		return nil, ErrNoActions
	}
	return actions, nil
}

// normalize back-fills one raw entry: task-text trim, folder inference,
// date/time split and phrase resolution. ok is false for entries that
// fail their shape's minimum requirements.
func (p *Pipeline) normalize(ra rawAction, ref time.Time, existingFolders []string) (model.Action, bool) {
	a := model.Action{Type: model.ActionType(ra.Action)}

	switch a.Type {
	case model.ActionCreate:
		if ra.Task == nil || strings.TrimSpace(*ra.Task) == "" {
			return model.Action{}, false
		}
		a.Task = strings.TrimSpace(*ra.Task)
		a.DueDate, a.DueTime = p.normalizeSchedule(ra.DueDate, ra.DueTime, ref)
		a.Folder = p.inferFolder(ra.Folder, a.Task, existingFolders)

	case model.ActionModify:
		if ra.TaskID == nil || ra.Changes.Empty() {
			return model.Action{}, false
		}
		a.TaskID = *ra.TaskID
		changes := *ra.Changes
		if changes.TouchesSchedule() {
			changes.DueDate, changes.DueTime = p.normalizeChangeSchedule(changes.DueDate, changes.DueTime, ref)
		}
		if changes.Text != nil {
			trimmed := strings.TrimSpace(*changes.Text)
			changes.Text = &trimmed
		}
		a.Changes = &changes

	case model.ActionDelete:
		if ra.TaskID == nil {
			return model.Action{}, false
		}
		a.TaskID = *ra.TaskID
		if ra.MatchedTask != nil {
			a.MatchedTask = *ra.MatchedTask
		}

	case model.ActionCreateFolder, model.ActionDeleteFolder:
		if ra.FolderName == nil || strings.TrimSpace(*ra.FolderName) == "" {
			return model.Action{}, false
		}
		a.FolderName = strings.TrimSpace(*ra.FolderName)

	default:
		return model.Action{}, false
	}

	return a, true
}

// normalizeSchedule enforces the field invariant: dueDate pure
// YYYY-MM-DD, dueTime pure HH:MM. Combined datetime strings are split;
// relative phrases are resolved against ref; anything else becomes
// "not specified".
func (p *Pipeline) normalizeSchedule(date, tm *string, ref time.Time) (*string, *string) {
	date, tm = splitCombined(date, tm)

	if date != nil && !model.ValidDate(*date) {
		if resolved, ok := temporal.ResolveDate(*date, ref); ok {
			date = &resolved
		} else {
			date = nil
		}
	}
	if tm != nil && !model.ValidTime(*tm) {
		if resolved, ok := temporal.ResolveTime(*tm); ok {
			tm = &resolved
		} else {
			tm = nil
		}
	}
	return date, tm
}

// normalizeChangeSchedule is the same, except an explicit empty string
// survives: in a change set it means "clear this field".
func (p *Pipeline) normalizeChangeSchedule(date, tm *string, ref time.Time) (*string, *string) {
	empty := ""
	clearDate := date != nil && strings.TrimSpace(*date) == ""
	clearTime := tm != nil && strings.TrimSpace(*tm) == ""

	date, tm = p.normalizeSchedule(date, tm, ref)
	if clearDate {
		date = &empty
	}
	if clearTime {
		tm = &empty
	}
	return date, tm
}

// splitCombined repairs a combined datetime that slipped into either
// field despite the prompt rules ("2025-12-10T09:00", "2025-12-10 09:00").
func splitCombined(date, tm *string) (*string, *string) {
	if date != nil {
		if d, t, ok := cutDateTime(*date); ok {
			date = &d
			if tm == nil && t != "" {
				tm = &t
			}
		}
	}
	if tm != nil {
		if d, t, ok := cutDateTime(*tm); ok {
			if t == "" {
				tm = nil
			} else {
				tm = &t
			}
			if date == nil && d != "" {
				date = &d
			}
		}
	}
	return date, tm
}

func cutDateTime(s string) (date, hhmm string, ok bool) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, "T ")
	if sep < 0 {
		return "", "", false
	}
	d, rest := s[:sep], strings.TrimSpace(s[sep+1:])
	if !model.ValidDate(d) {
		return "", "", false
	}
	if len(rest) > 5 {
		rest = rest[:5] // drop seconds/zone
	}
	if rest != "" && !model.ValidTime(rest) {
		rest = ""
	}
	return d, rest, true
}

// inferFolder applies the assignment priority: explicit mention in the
// task text of an existing folder, then keyword inference, then
// "Personal".
func (p *Pipeline) inferFolder(assigned *string, taskText string, existingFolders []string) string {
	if assigned != nil && strings.TrimSpace(*assigned) != "" {
		return strings.TrimSpace(*assigned)
	}

	lower := strings.ToLower(taskText)
	for _, f := range visibleFolders(existingFolders) {
		if strings.Contains(lower, strings.ToLower(f)) {
			return f
		}
	}
	for _, kw := range p.folders.Shopping {
		if strings.Contains(lower, kw) {
			return model.FolderShopping
		}
	}
	for _, kw := range p.folders.Work {
		if strings.Contains(lower, kw) {
			return model.FolderWork
		}
	}
	return model.FolderPersonal
}
