package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/alfredjeanlab/taskgrid/internal/client"
	"github.com/alfredjeanlab/taskgrid/internal/model"
	"github.com/alfredjeanlab/taskgrid/internal/tree"
	"github.com/alfredjeanlab/taskgrid/internal/ui"
)

const dateLayout = "2006-01-02"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printTask(w io.Writer, task *model.Task) error {
	if jsonOutput {
		return printJSON(w, task)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", ui.RenderAccent(task.ID))
	fmt.Fprintf(tw, "Title:\t%s\n", task.Title)
	fmt.Fprintf(tw, "Project:\t%s\n", task.ProjectID)
	if task.ParentID != nil {
		fmt.Fprintf(tw, "Parent:\t%s\n", *task.ParentID)
	}
	fmt.Fprintf(tw, "Type:\t%s\n", task.Type)
	fmt.Fprintf(tw, "Status:\t%s\n", ui.RenderStatus(task.Status))
	fmt.Fprintf(tw, "Priority:\t%d\n", task.Priority)
	if task.Assignee != "" {
		fmt.Fprintf(tw, "Assignee:\t%s\n", task.Assignee)
	}
	if task.StoryPoints != nil {
		fmt.Fprintf(tw, "Points:\t%d\n", *task.StoryPoints)
	}
	fmt.Fprintf(tw, "Progress:\t%s\n", ui.ProgressBar(task.Progress, 20))
	if task.StartDate != nil {
		fmt.Fprintf(tw, "Start:\t%s\n", task.StartDate.Format(dateLayout))
	}
	if task.DueDate != nil {
		fmt.Fprintf(tw, "Due:\t%s\n", task.DueDate.Format(dateLayout))
	}
	fmt.Fprintf(tw, "Position:\t%d\n", task.Position)
	if task.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", task.Description)
	}
	if len(task.Fields) > 0 {
		fmt.Fprintf(tw, "Fields:\t%s\n", task.Fields)
	}
	if task.CreatedBy != "" {
		fmt.Fprintf(tw, "Created By:\t%s\n", task.CreatedBy)
	}
	if !task.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "Created At:\t%s\n", task.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if !task.UpdatedAt.IsZero() {
		fmt.Fprintf(tw, "Updated At:\t%s\n", task.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(task.Comments) > 0 {
		fmt.Fprintln(w)
		printComments(w, task.Comments)
	}
	return nil
}

func printTaskList(w io.Writer, tasks []*model.Task, total int) error {
	if jsonOutput {
		return printJSON(w, tasks)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTYPE\tPRIORITY\tTITLE\tASSIGNEE\tPROGRESS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%d%%\n",
			t.ID,
			ui.RenderStatus(t.Status),
			t.Type,
			t.Priority,
			ui.Truncate(t.Title, 50),
			t.Assignee,
			t.Progress,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d tasks (%d total)\n", len(tasks), total)
	return err
}

func printComments(w io.Writer, comments []*model.Comment) {
	for _, c := range comments {
		fmt.Fprintf(w, "%s %s\n", ui.RenderMuted(c.CreatedAt.Format("2006-01-02 15:04")), ui.RenderAccent(c.Author))
		fmt.Fprintf(w, "  %s\n", c.Text)
	}
}

// printGrid renders flattened rows as an indented tree. Only visible rows are
// printed. A row is shown as expanded when the next visible row is one of
// its descendants.
func printGrid(w io.Writer, resp *client.TreeResponse) error {
	if jsonOutput {
		return printJSON(w, resp)
	}

	var rows []tree.Row
	for _, r := range resp.Rows {
		if r.Visible {
			rows = append(rows, r)
		}
	}

	titleWidth := max(20, ui.TerminalWidth(120)-70)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tID\tSTATUS\tASSIGNEE\tDUE\tPROGRESS")
	for i, r := range rows {
		expanded := r.HasChildren && i+1 < len(rows) && rows[i+1].Depth > r.Depth
		prefix := ui.TreePrefix(r.Depth, r.HasChildren, expanded)

		due := ""
		if r.Task.DueDate != nil {
			due = r.Task.DueDate.Format(dateLayout)
		}
		progress := strconv.Itoa(r.Task.Progress) + "%"
		if p, ok := resp.Rollup[r.Task.ID]; ok && r.HasChildren {
			progress = fmt.Sprintf("%d/%d done", p.Done, p.Total)
		}

		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\t%s\n",
			prefix,
			ui.Truncate(r.Task.Title, titleWidth),
			ui.RenderMuted(r.Task.ID),
			ui.RenderStatus(r.Task.Status),
			r.Task.Assignee,
			due,
			progress,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d of %d rows visible\n", resp.Visible, resp.Total)
	return err
}
