package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskgrid/internal/client"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tasks",
	GroupID: "tasks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		status, _ := cmd.Flags().GetString("status")
		taskType, _ := cmd.Flags().GetString("type")
		assignee, _ := cmd.Flags().GetString("assignee")
		search, _ := cmd.Flags().GetString("search")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		if project == "" {
			project = activeRemoteProject()
		}
		req := &client.ListTasksRequest{
			ProjectID: project,
			Status:    splitList(status),
			Type:      splitList(taskType),
			Assignee:  assignee,
			Search:    search,
			Sort:      sort,
			Limit:     limit,
			Offset:    offset,
		}
		if cmd.Flags().Changed("parent") {
			parent, _ := cmd.Flags().GetString("parent")
			req.ParentID = &parent
		} else if roots, _ := cmd.Flags().GetBool("roots"); roots {
			req.ParentID = new(string)
		}

		resp, err := gridClient.ListTasks(context.Background(), req)
		if err != nil {
			return err
		}
		return printTaskList(cmd.OutOrStdout(), resp.Tasks, resp.Total)
	},
}

func init() {
	listCmd.Flags().String("project", "", "filter by project")
	listCmd.Flags().StringP("status", "s", "", "filter by status (comma-separated)")
	listCmd.Flags().StringP("type", "t", "", "filter by type (comma-separated)")
	listCmd.Flags().StringP("assignee", "a", "", "filter by assignee")
	listCmd.Flags().String("parent", "", "list the children of a task")
	listCmd.Flags().Bool("roots", false, "list root tasks only")
	listCmd.Flags().StringP("search", "q", "", "search title and description")
	listCmd.Flags().String("sort", "", "sort column, prefix with - for descending")
	listCmd.Flags().Int("limit", 50, "maximum number of tasks")
	listCmd.Flags().Int("offset", 0, "number of tasks to skip")
}
