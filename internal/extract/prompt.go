package extract

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"taskpilot/internal/model"
)

// buildPrompt serializes the reference instant, bounded task context and
// folder list together with the extraction rules and worked examples into
// a single instruction block.
func buildPrompt(ref time.Time, input string, tasks []model.Task, folders []string) string {
	var b strings.Builder

	b.WriteString("You are a to-do list assistant. Convert the user's request into task actions.\n\n")

	fmt.Fprintf(&b, "CURRENT DATE: %s (%s)\n", ref.Format("2006-01-02"), ref.Weekday())
	fmt.Fprintf(&b, "CURRENT TIME: %s\n\n", ref.Format("15:04"))

	b.WriteString("EXISTING FOLDERS: ")
	b.WriteString(strings.Join(visibleFolders(folders), ", "))
	b.WriteString("\n\n")

	if len(tasks) > 0 {
		b.WriteString("EXISTING TASKS (newest first; 'last added' means the first entry):\n")
		for i, t := range sortNewestFirst(tasks) {
			due := ""
			if t.DueDate != nil {
				due = " due " + *t.DueDate
				if t.DueTime != nil {
					due += " " + *t.DueTime
				}
			}
			fmt.Fprintf(&b, "%d. id=%s folder=%s%s: %s\n", i+1, t.ID, t.Folder, due, t.Text)
		}
		b.WriteString("\n")
	}

	b.WriteString(`RULES:
1. Respond with ONLY a JSON array of action objects. No other text.
2. Each object carries an "action" field: "create", "modify", "delete", "create_folder" or "delete_folder".
3. create: {"action":"create","task":"...","dueDate":"YYYY-MM-DD" or null,"dueTime":"HH:MM" or null,"folder":"..."}
4. modify: {"action":"modify","taskId":"<id from the list above>","changes":{...partial fields...}}
5. delete: {"action":"delete","taskId":"<id from the list above>","matchedTask":"<its text>"}
6. dueDate is ALWAYS a pure calendar date and dueTime a pure 24-hour clock time. NEVER combine them into one field. Omit or use null for anything the user did not specify.
7. Clean up task text: drop filler like "remind me to" or "I need to"; keep it short and imperative.
8. Folder: use a folder the user named if it exists; otherwise infer Work for job-related tasks and Shopping for purchases; otherwise use "Personal".
9. Resolve relative dates ("tomorrow", "next friday") against the current date above.
10. For bulk requests ("delete everything on monday"), emit one action per matching task.

EXAMPLES:
Input: "remind me to buy milk tomorrow at 9am"
Output: [{"action":"create","task":"Buy milk","dueDate":"` + ref.AddDate(0, 0, 1).Format("2006-01-02") + `","dueTime":"09:00","folder":"Shopping"}]

Input: "delete the milk task"
Output: [{"action":"delete","taskId":"<matching id>","matchedTask":"Buy milk"}]

Input: "new folder called Fitness, then add morning run to it"
Output: [{"action":"create_folder","folderName":"Fitness"},{"action":"create","task":"Morning run","dueDate":null,"dueTime":null,"folder":"Fitness"}]

USER REQUEST: `)
	b.WriteString(input)

	return b.String()
}

// visibleFolders drops the virtual "All Tasks" entry and guarantees the
// default folders are present.
func visibleFolders(folders []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, f := range folders {
		if f == model.FolderAllTasks || f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	for _, f := range model.DefaultFolders() {
		if !seen[f.Name] {
			out = append(out, f.Name)
		}
	}
	return out
}

func sortNewestFirst(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
