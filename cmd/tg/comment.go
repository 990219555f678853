package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskgrid/internal/model"
)

var commentCmd = &cobra.Command{
	Use:     "comment",
	Short:   "Add or list task comments",
	GroupID: "tasks",
}

var commentAddCmd = &cobra.Command{
	Use:   "add <id> <text>...",
	Short: "Add a comment to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		comment, err := gridClient.AddComment(context.Background(), args[0], actor, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), comment)
		}
		printComments(cmd.OutOrStdout(), []*model.Comment{comment})
		return nil
	},
}

var commentListCmd = &cobra.Command{
	Use:   "list <id>",
	Short: "List comments on a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comments, err := gridClient.GetComments(context.Background(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), comments)
		}
		printComments(cmd.OutOrStdout(), comments)
		return nil
	},
}

func init() {
	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentListCmd)
}
