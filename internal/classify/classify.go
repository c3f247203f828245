// Package classify guesses which task operation free-text input intends
// and bounds the existing-task context handed to the extraction prompt.
package classify

import (
	"sort"
	"strings"

	"taskpilot/internal/model"
)

type Operation string

const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

const (
	deleteContextLimit = 10
	modifyContextLimit = 20
)

// Keywords drive classification. The sets are a configurable table so they
// can be extended or localized without touching control flow.
type Keywords struct {
	Delete     []string `yaml:"delete" json:"delete"`
	Modify     []string `yaml:"modify" json:"modify"`
	References []string `yaml:"references" json:"references"`
	Create     []string `yaml:"create" json:"create"`
}

func DefaultKeywords() Keywords {
	return Keywords{
		Delete:     []string{"delete", "cancel", "remove", "clear"},
		Modify:     []string{"move", "change", "update", "reschedule", "modify", "edit"},
		References: []string{"my task", "that reminder", "this one", "that task", "the reminder"},
		Create:     []string{"add", "create", "new", "remind", "schedule"},
	}
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"this": true, "that": true, "task": true, "move": true, "change": true,
	"update": true, "reschedule": true, "modify": true, "edit": true,
	"please": true, "reminder": true, "all": true, "tasks": true,
}

type Classifier struct {
	kw Keywords
}

func New(kw Keywords) *Classifier {
	def := DefaultKeywords()
	if len(kw.Delete) == 0 {
		kw.Delete = def.Delete
	}
	if len(kw.Modify) == 0 {
		kw.Modify = def.Modify
	}
	if len(kw.References) == 0 {
		kw.References = def.References
	}
	if len(kw.Create) == 0 {
		kw.Create = def.Create
	}
	return &Classifier{kw: kw}
}

// Classify is a pure function of the input text. Ambiguous input is always
// treated as a create, never as a destructive operation.
func (c *Classifier) Classify(input string) Operation {
	text := strings.ToLower(input)

	if containsAny(text, c.kw.Delete) {
		return OpDelete
	}
	if containsAny(text, c.kw.Modify) {
		return OpModify
	}
	if containsAny(text, c.kw.References) {
		return OpModify
	}
	if containsAny(text, c.kw.Create) {
		return OpCreate
	}
	return OpCreate
}

// FilterContext bounds how many existing tasks are exposed to the
// extraction prompt. This is a prompt-size optimization, not a security
// boundary: create needs no context, delete gets the most recent tasks,
// modify gets keyword-matched tasks with a most-recent fallback.
func (c *Classifier) FilterContext(op Operation, tasks []model.Task, input string) []model.Task {
	switch op {
	case OpCreate:
		return nil
	case OpDelete:
		return mostRecent(tasks, deleteContextLimit)
	case OpModify:
		matched := keywordMatch(tasks, input)
		if len(matched) == 0 {
			return mostRecent(tasks, modifyContextLimit)
		}
		if len(matched) > modifyContextLimit {
			matched = matched[:modifyContextLimit]
		}
		return matched
	}
	return nil
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// inputKeywords extracts candidate match words: stopword-filtered, longer
// than two characters.
func inputKeywords(input string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(input)) {
		f = strings.Trim(f, ".,!?;:'\"")
		if len(f) <= 2 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func keywordMatch(tasks []model.Task, input string) []model.Task {
	kws := inputKeywords(input)
	if len(kws) == 0 {
		return nil
	}
	var out []model.Task
	for _, t := range tasks {
		text := strings.ToLower(t.Text)
		for _, kw := range kws {
			if strings.Contains(text, kw) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func mostRecent(tasks []model.Task, n int) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
