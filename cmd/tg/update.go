package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alfredjeanlab/taskgrid/internal/client"
)

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Update task attributes",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.UpdateTaskRequest{Actor: actor}
		flags := cmd.Flags()
		changed := false
		cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
			changed = changed || f.Changed
		})
		if !changed {
			return fmt.Errorf("nothing to update")
		}

		strFlag := func(name string) *string {
			if !flags.Changed(name) {
				return nil
			}
			v, _ := flags.GetString(name)
			return &v
		}
		intFlag := func(name string) *int {
			if !flags.Changed(name) {
				return nil
			}
			v, _ := flags.GetInt(name)
			return &v
		}

		req.Title = strFlag("title")
		req.Description = strFlag("description")
		req.Type = strFlag("type")
		req.Status = strFlag("status")
		req.Assignee = strFlag("assignee")
		req.Priority = intFlag("priority")
		req.StoryPoints = intFlag("points")
		req.Progress = intFlag("progress")

		var err error
		if req.StartDate, err = dateFlag(cmd, "start"); err != nil {
			return err
		}
		if req.DueDate, err = dateFlag(cmd, "due"); err != nil {
			return err
		}
		fieldPairs, _ := flags.GetStringArray("field")
		if req.Fields, err = parseFields(fieldPairs); err != nil {
			return err
		}

		task, err := gridClient.UpdateTask(context.Background(), args[0], req)
		if err != nil {
			return err
		}
		return printTask(cmd.OutOrStdout(), task)
	},
}

func init() {
	updateCmd.Flags().String("title", "", "new title")
	updateCmd.Flags().StringP("description", "d", "", "new description")
	updateCmd.Flags().StringP("type", "t", "", "new type")
	updateCmd.Flags().StringP("status", "s", "", "new status")
	updateCmd.Flags().StringP("assignee", "a", "", "new assignee")
	updateCmd.Flags().IntP("priority", "p", 0, "new priority")
	updateCmd.Flags().Int("points", 0, "new story points")
	updateCmd.Flags().Int("progress", 0, "new progress (0-100)")
	updateCmd.Flags().String("start", "", "new start date (YYYY-MM-DD)")
	updateCmd.Flags().String("due", "", "new due date (YYYY-MM-DD)")
	updateCmd.Flags().StringArrayP("field", "f", nil, "custom field key=value (repeatable)")
}
