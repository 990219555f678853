package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskgrid/internal/client"
)

var moveCmd = &cobra.Command{
	Use:   "move <id>",
	Short: "Re-parent or reorder a task",
	Long: `Move a task under a new parent, to the root level, or to a new
position among its siblings. Moves that would make a task its own
ancestor are rejected.`,
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.MoveTaskRequest{Actor: actor}

		toRoot, _ := cmd.Flags().GetBool("root")
		switch {
		case toRoot && cmd.Flags().Changed("parent"):
			return fmt.Errorf("--root and --parent are mutually exclusive")
		case toRoot:
			req.ParentID = new(string)
		case cmd.Flags().Changed("parent"):
			parent, _ := cmd.Flags().GetString("parent")
			req.ParentID = &parent
		}
		if cmd.Flags().Changed("position") {
			pos, _ := cmd.Flags().GetInt("position")
			req.Position = &pos
		}
		if req.ParentID == nil && req.Position == nil {
			return fmt.Errorf("one of --parent, --root or --position is required")
		}

		task, err := gridClient.MoveTask(context.Background(), args[0], req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), task)
		}
		parent := task.Parent()
		if parent == "" {
			parent = "(root)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "moved %s under %s at position %d\n", task.ID, parent, task.Position)
		return nil
	},
}

func init() {
	moveCmd.Flags().String("parent", "", "new parent task ID")
	moveCmd.Flags().Bool("root", false, "move to the root level")
	moveCmd.Flags().Int("position", 0, "position among the new siblings (default: last)")
}
