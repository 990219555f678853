package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskgrid/internal/config"
	"github.com/alfredjeanlab/taskgrid/internal/store"
	gridsync "github.com/alfredjeanlab/taskgrid/internal/sync"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export and restore JSONL backups",
	Long: `Export and restore JSONL backups. These commands talk to the database
directly and read the same TASKGRID_* environment as "tg serve".`,
	GroupID:           "system",
	PersistentPreRunE: skipClient,
}

// withStore loads the server config and opens its store for fn.
func withStore(fn func(ctx context.Context, cfg *config.Config, st store.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.InMemory() {
		return fmt.Errorf("backups need a database; TASKGRID_DATABASE_URL is %s", config.MemoryDatabaseURL)
	}
	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, cfg, st)
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSONL export to stdout or a file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		return withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
			if output == "" || output == "-" {
				return gridsync.ExportJSONL(ctx, st, cmd.OutOrStdout())
			}
			// Same atomic replace as the scheduled file backup.
			return gridsync.RunOnce(ctx, st, []gridsync.Destination{gridsync.NewFileDestination(output)}, cfg.NewLogger())
		})
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a JSONL export (use - for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		return withStore(func(ctx context.Context, _ *config.Config, st store.Store) error {
			res, err := gridsync.ImportJSONL(ctx, st, r)
			if err != nil {
				return err
			}
			return printImportResult(cmd.OutOrStdout(), res)
		})
	},
}

var backupNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Run one sync to the configured destinations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
			logger := cfg.NewLogger()
			dests := syncDestinations(ctx, cfg, logger)
			if len(dests) == 0 {
				return fmt.Errorf("no sync destinations configured (set TASKGRID_SYNC_S3_BUCKET or TASKGRID_SYNC_FILE)")
			}
			return gridsync.RunOnce(ctx, st, dests, logger)
		})
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the latest backup from the first configured destination",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
			dests := syncDestinations(ctx, cfg, cfg.NewLogger())
			if len(dests) == 0 {
				return fmt.Errorf("no sync destinations configured (set TASKGRID_SYNC_S3_BUCKET or TASKGRID_SYNC_FILE)")
			}
			rc, err := dests[0].Open(ctx)
			if err != nil {
				return fmt.Errorf("opening %s: %w", dests[0].Name(), err)
			}
			defer rc.Close()

			res, err := gridsync.ImportJSONL(ctx, st, rc)
			if err != nil {
				return err
			}
			return printImportResult(cmd.OutOrStdout(), res)
		})
	},
}

func printImportResult(w io.Writer, res *gridsync.ImportResult) error {
	if jsonOutput {
		return printJSON(w, res)
	}
	fmt.Fprintf(w, "created %d, updated %d tasks; %d comments; %d configs\n",
		res.Created, res.Updated, res.Comments, res.Configs)
	for _, id := range res.Detached {
		fmt.Fprintf(w, "  %s: parent missing, restored at root level\n", id)
	}
	return nil
}

func init() {
	backupExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
	backupCmd.AddCommand(backupNowCmd)
	backupCmd.AddCommand(backupRestoreCmd)
}
