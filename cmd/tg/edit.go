package main

import (
	"context"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <id> <field> <value>",
	Short: "Edit one grid cell",
	Long: `Edit a single field of a task, as an inline grid edit would.

Fields: title, status, assignee, priority, story_points, progress,
start_date, due_date. Pass "null" to clear an optional field.`,
	GroupID: "tasks",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := cellValue(args[2])
		if err != nil {
			return err
		}
		task, err := gridClient.EditField(context.Background(), args[0], args[1], value, actor)
		if err != nil {
			return err
		}
		return printTask(cmd.OutOrStdout(), task)
	},
}
