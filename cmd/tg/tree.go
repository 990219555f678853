package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskgrid/internal/client"
	"github.com/alfredjeanlab/taskgrid/internal/model"
)

// treeReader is the read side shared by the HTTP and gRPC clients.
type treeReader interface {
	Tree(ctx context.Context, req *client.TreeRequest) (*client.TreeResponse, error)
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show a project's task grid",
	Long: `Show a project's tasks as an indented grid. Collapsed rows hide their
descendants; expand rows with --expand, load a saved view with --view,
or show everything with --all.`,
	GroupID: "grid",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := treeRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		reader, closeFn, err := treeSource(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := context.Background()
		resp, err := reader.Tree(ctx, req)
		if err != nil {
			return err
		}
		if err := printGrid(cmd.OutOrStdout(), resp); err != nil {
			return err
		}

		if name, _ := cmd.Flags().GetString("save-view"); name != "" {
			return saveView(ctx, cmd.OutOrStdout(), name, req, resp)
		}
		return nil
	},
}

func treeRequestFromFlags(cmd *cobra.Command) (*client.TreeRequest, error) {
	project, _ := cmd.Flags().GetString("project")
	expanded, _ := cmd.Flags().GetStringSlice("expand")
	view, _ := cmd.Flags().GetString("view")
	all, _ := cmd.Flags().GetBool("all")
	rollup, _ := cmd.Flags().GetBool("rollup")

	if project == "" && view == "" {
		project = activeRemoteProject()
	}
	if project == "" && view == "" {
		return nil, fmt.Errorf("--project or --view is required")
	}
	return &client.TreeRequest{
		ProjectID:   project,
		Expanded:    expanded,
		View:        viewName(view),
		ExpandAll:   all,
		VisibleOnly: !jsonOutput,
		Rollup:      rollup,
	}, nil
}

// viewName accepts both "mine" and "grid:mine".
func viewName(name string) string {
	return strings.TrimPrefix(name, "grid:")
}

// treeSource picks the gRPC client when --grpc (or the active remote's gRPC
// address) is set, and the shared HTTP client otherwise.
func treeSource(cmd *cobra.Command) (treeReader, func(), error) {
	addr, _ := cmd.Flags().GetString("grpc")
	if addr == "" {
		return gridClient, func() {}, nil
	}
	gc, err := client.NewGRPCClient(addr, authToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return gc, func() { gc.Close() }, nil
}

// saveView stores the expansion state that produced resp as a named view.
// With --all every parent row is saved as expanded.
func saveView(ctx context.Context, w io.Writer, name string, req *client.TreeRequest, resp *client.TreeResponse) error {
	view := model.GridView{ProjectID: req.ProjectID, Expanded: []string{}}
	if req.ExpandAll {
		for _, r := range resp.Rows {
			if r.HasChildren {
				view.Expanded = append(view.Expanded, r.Task.ID)
			}
		}
	} else {
		view.Expanded = append(view.Expanded, req.Expanded...)
	}
	if view.ProjectID == "" && len(resp.Rows) > 0 {
		view.ProjectID = resp.Rows[0].Task.ProjectID
	}

	value, err := json.Marshal(view)
	if err != nil {
		return err
	}
	key := model.GridViewKey(viewName(name))
	if _, err := gridClient.SetConfig(ctx, key, value); err != nil {
		return err
	}
	if !jsonOutput {
		fmt.Fprintf(w, "saved view %s (%d expanded)\n", key, len(view.Expanded))
	}
	return nil
}

func addTreeFlags(cmd *cobra.Command) {
	cmd.Flags().String("project", "", "project ID")
	cmd.Flags().StringSlice("expand", nil, "task IDs to expand (comma-separated)")
	cmd.Flags().String("view", "", "saved grid view to load")
	cmd.Flags().Bool("all", false, "expand every task")
	cmd.Flags().Bool("rollup", false, "show completion rolled up from descendants")
}

func init() {
	addTreeFlags(treeCmd)
	treeCmd.Flags().String("save-view", "", "save the expansion state as a named view")
	treeCmd.Flags().String("grpc", activeRemote().GRPCAddr, "read the grid over gRPC from this address")
}
