package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskgrid/internal/model"
	"github.com/alfredjeanlab/taskgrid/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show task counts by status",
	GroupID: "grid",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		if project == "" {
			project = activeRemoteProject()
		}
		resp, err := gridClient.Stats(context.Background(), project)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, row := range []struct {
			status model.Status
			n      int
		}{
			{model.StatusTodo, resp.Stats.TotalTodo},
			{model.StatusInProgress, resp.Stats.TotalInProgress},
			{model.StatusReview, resp.Stats.TotalReview},
			{model.StatusBlocked, resp.Stats.TotalBlocked},
			{model.StatusDone, resp.Stats.TotalDone},
		} {
			fmt.Fprintf(tw, "%s\t%d\n", ui.RenderStatus(row.status), row.n)
		}
		fmt.Fprintf(tw, "total\t%d\n", resp.Total)
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", ui.ProgressBar(resp.PercentDone, 30))
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check server health",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := gridClient.Health(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status)
		return nil
	},
}

func init() {
	statsCmd.Flags().String("project", "", "limit to one project")
}
