package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"pawpal/internal/domain/care"
	"pawpal/internal/domain/planner"
)

type taskView struct {
	ID        string `json:"id"`
	Pet       string `json:"pet"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Priority  int    `json:"priority"`
	Score     int    `json:"score"`
	Duration  int    `json:"duration_minutes"`
	Frequency string `json:"frequency"`
	Preferred string `json:"preferred,omitempty"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	Completed bool   `json:"completed"`
}

type planView struct {
	Date         string     `json:"date"`
	Availability []string   `json:"availability"`
	Scheduled    []taskView `json:"scheduled"`
	Unscheduled  []taskView `json:"unscheduled"`
	Conflicts    []string   `json:"conflicts"`
	Issues       []string   `json:"issues"`
	Reasoning    []string   `json:"reasoning"`
	TotalMinutes int        `json:"total_minutes"`
}

func toTaskView(t care.CareTask) taskView {
	out := taskView{
		ID:        t.ID,
		Pet:       t.PetName,
		Name:      t.Name,
		Kind:      string(t.Kind),
		Priority:  t.Priority,
		Score:     t.PriorityScore(),
		Duration:  t.DurationMinutes,
		Frequency: string(t.Frequency),
		Preferred: joinWindows(t.PreferredWindows),
		Completed: t.Completed,
	}
	if iv, ok := t.Interval(); ok {
		out.Start = care.FormatClock(iv.Start)
		out.End = care.FormatClock(iv.End)
	}
	return out
}

func toTaskViews(tasks []care.CareTask) []taskView {
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskView(t))
	}
	return out
}

func toPlanView(p planner.DailyPlan, f planner.Filter) planView {
	out := planView{
		Date:         p.Date.Format("2006-01-02"),
		Availability: make([]string, 0, len(p.Availability)),
		Scheduled:    toTaskViews(planner.SortByTime(planner.FilterTasks(p.Scheduled, f))),
		Unscheduled:  toTaskViews(planner.FilterTasks(p.Unscheduled, f)),
		Conflicts:    make([]string, 0, len(p.Conflicts)),
		Issues:       make([]string, 0, len(p.Issues)),
		Reasoning:    append([]string{}, p.Reasoning...),
		TotalMinutes: p.TotalMinutes(),
	}
	for _, w := range p.Availability {
		out.Availability = append(out.Availability, w.String())
	}
	for _, c := range p.Conflicts {
		out.Conflicts = append(out.Conflicts, c.String())
	}
	for _, i := range p.Issues {
		out.Issues = append(out.Issues, i.Error())
	}
	return out
}

func renderPlan(w io.Writer, p planner.DailyPlan, f planner.Filter) {
	v := toPlanView(p, f)

	fmt.Fprintf(w, "Plan for %s (availability %s)\n", p.Date.Format("Monday, January 2, 2006"), strings.Join(v.Availability, ", "))

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Time", "Pet", "Task", "Kind", "Score", "Status", "Min"})
	for _, t := range v.Scheduled {
		status := "pending"
		if t.Completed {
			status = "done"
		}
		tw.AppendRow(table.Row{t.Start + "-" + t.End, t.Pet, t.Name, t.Kind, t.Score, status, t.Duration})
	}
	tw.AppendFooter(table.Row{"", "", "", "", "", "Total", v.TotalMinutes})
	tw.Render()

	if len(v.Unscheduled) > 0 {
		fmt.Fprintln(w, "\nUnscheduled")
		tw := newTable(w)
		tw.AppendHeader(table.Row{"Pet", "Task", "Score", "Min", "Preferred"})
		for _, t := range v.Unscheduled {
			tw.AppendRow(table.Row{t.Pet, t.Name, t.Score, t.Duration, t.Preferred})
		}
		tw.Render()
	}

	if len(p.Conflicts) > 0 {
		fmt.Fprintln(w, "\nConflicts")
		tw := newTable(w)
		tw.AppendHeader(table.Row{"Kind", "First", "Second", "Overlap"})
		for _, c := range p.Conflicts {
			tw.AppendRow(table.Row{
				c.Kind,
				c.First.TaskName + " (" + c.First.PetName + ")",
				c.Second.TaskName + " (" + c.Second.PetName + ")",
				c.Overlap.String(),
			})
		}
		tw.Render()
	}

	if len(p.Issues) > 0 {
		fmt.Fprintln(w, "\nIssues")
		tw := newTable(w)
		tw.AppendHeader(table.Row{"Pet", "Task", "Problem"})
		for _, i := range p.Issues {
			tw.AppendRow(table.Row{i.Task.PetName, i.Task.TaskName, i.Err.Error()})
		}
		tw.Render()
	}

	if len(v.Reasoning) > 0 {
		fmt.Fprintln(w, "\nWhy")
		for _, line := range v.Reasoning {
			fmt.Fprintln(w, "- "+line)
		}
	}
}

func renderTasks(w io.Writer, tasks []care.CareTask) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"ID", "Pet", "Task", "Kind", "Frequency", "Preferred", "Score", "Min", "Done"})
	for _, t := range toTaskViews(tasks) {
		done := ""
		if t.Completed {
			done = "yes"
		}
		tw.AppendRow(table.Row{t.ID, t.Pet, t.Name, t.Kind, t.Frequency, t.Preferred, t.Score, t.Duration, done})
	}
	tw.Render()
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	return tw
}

func joinWindows(ws []care.Window) string {
	parts := make([]string, 0, len(ws))
	for _, w := range ws {
		parts = append(parts, w.String())
	}
	return strings.Join(parts, ", ")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
