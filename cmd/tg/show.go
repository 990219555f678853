package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show task details",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		task, err := gridClient.GetTask(ctx, args[0])
		if err != nil {
			return err
		}
		if err := printTask(cmd.OutOrStdout(), task); err != nil {
			return err
		}

		withEvents, _ := cmd.Flags().GetBool("events")
		if !withEvents || jsonOutput {
			return nil
		}
		evts, err := gridClient.GetEvents(ctx, task.ID)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "\nHistory:\n")
		for _, e := range evts {
			fmt.Fprintf(w, "  %s  %-24s %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Topic, e.Actor)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("events", false, "include the task's event history")
}
