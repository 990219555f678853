package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskgrid/internal/ui"
)

var whoCmd = &cobra.Command{
	Use:     "who",
	Short:   "Show who is editing the grid",
	GroupID: "grid",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		if project == "" {
			project = activeRemoteProject()
		}
		since, _ := cmd.Flags().GetDuration("since")

		editors, err := gridClient.Editors(context.Background(), project, since)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), editors)
		}
		if len(editors) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMuted("nobody is editing"))
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ACTOR\tPROJECT\tEDITS\tLAST\tTASK\tIDLE")
		for _, e := range editors {
			idle := (time.Duration(e.IdleSecs) * time.Second).String()
			if e.Away {
				idle += " (away)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
				e.Actor, e.ProjectID, e.Edits, e.LastTopic, e.LastTask, idle)
		}
		return tw.Flush()
	},
}

func init() {
	whoCmd.Flags().String("project", "", "limit to one project")
	whoCmd.Flags().Duration("since", 30*time.Minute, "hide editors idle for longer than this")
}
