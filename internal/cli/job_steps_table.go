package cli

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"

	"planhub/internal/model"
)

// renderStepsTable renders the plan's steps against the job's recorded
// results. Callers skip it entirely for plans without steps.
func renderStepsTable(plan *model.Plan, job *model.Job, width int) string {
	results := make(map[string]model.StepResult, len(job.Results))
	for _, res := range job.Results {
		results[res.StepName] = res
	}

	nameW := clampInt(width/3, 12, 34)
	resultW := 10
	notesW := maxInt(width-nameW-resultW-8, 16)

	rows := make([]table.Row, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		state := "pending"
		notes := ""
		if res, ok := results[step.Name]; ok {
			if res.Succeeded {
				state = "ok"
			} else {
				state = "failed"
				notes = strings.Join(res.Errors, "; ")
			}
		} else if model.IsTerminalStatus(job.Status) || job.Status == model.StatusFailed {
			state = "skipped"
		}
		rows = append(rows, table.Row{
			truncateRunes(step.Name, nameW),
			state,
			truncateRunes(notes, notesW),
		})
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Step", Width: nameW},
			{Title: "Result", Width: resultW},
			{Title: "Notes", Width: notesW},
		}),
		table.WithRows(rows),
		table.WithHeight(len(rows)),
	)
	styles := table.DefaultStyles()
	styles.Selected = styles.Cell
	t.SetStyles(styles)
	return t.View()
}
