package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskgrid/internal/client"
	"github.com/alfredjeanlab/taskgrid/internal/model"
)

var createCmd = &cobra.Command{
	Use:     "create <title>",
	Short:   "Create a new task",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		parent, _ := cmd.Flags().GetString("parent")
		description, _ := cmd.Flags().GetString("description")
		taskType, _ := cmd.Flags().GetString("type")
		status, _ := cmd.Flags().GetString("status")
		priority, _ := cmd.Flags().GetInt("priority")
		assignee, _ := cmd.Flags().GetString("assignee")
		fieldPairs, _ := cmd.Flags().GetStringArray("field")

		req := &client.CreateTaskRequest{
			ProjectID:   project,
			ParentID:    parent,
			Title:       args[0],
			Description: description,
			Type:        taskType,
			Status:      status,
			Priority:    priority,
			Assignee:    assignee,
			CreatedBy:   actor,
		}
		if req.ProjectID == "" && req.ParentID == "" {
			req.ProjectID = activeRemoteProject()
		}
		if cmd.Flags().Changed("points") {
			points, _ := cmd.Flags().GetInt("points")
			req.StoryPoints = &points
		}
		if cmd.Flags().Changed("position") {
			pos, _ := cmd.Flags().GetInt("position")
			req.Position = &pos
		}

		var err error
		if req.StartDate, err = dateFlag(cmd, "start"); err != nil {
			return err
		}
		if req.DueDate, err = dateFlag(cmd, "due"); err != nil {
			return err
		}
		if req.Fields, err = parseFields(fieldPairs); err != nil {
			return err
		}

		task, err := gridClient.CreateTask(context.Background(), req)
		if err != nil {
			return err
		}
		return printTask(cmd.OutOrStdout(), task)
	},
}

// dateFlag parses an optional YYYY-MM-DD flag.
func dateFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return nil, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func init() {
	createCmd.Flags().String("project", "", "project ID (inherited from --parent when omitted)")
	createCmd.Flags().String("parent", "", "parent task ID")
	createCmd.Flags().StringP("description", "d", "", "task description")
	createCmd.Flags().StringP("type", "t", "", "task type (epic, story, task, subtask, bug)")
	createCmd.Flags().StringP("status", "s", "", "initial status")
	createCmd.Flags().IntP("priority", "p", 2, "priority (0 = highest)")
	createCmd.Flags().StringP("assignee", "a", "", "assignee")
	createCmd.Flags().Int("points", 0, "story points")
	createCmd.Flags().Int("position", 0, "position among siblings (default: last)")
	createCmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	createCmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	createCmd.Flags().StringArrayP("field", "f", nil, "custom field key=value (repeatable)")
}
