package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configs (saved grid views and other settings)",
	GroupID: "grid",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <json-value>",
	Short: "Create or update a config",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := json.RawMessage(args[1])
		if !json.Valid(value) {
			return fmt.Errorf("value must be valid JSON")
		}
		config, err := gridClient.SetConfig(context.Background(), args[0], value)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), config)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a config by key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := gridClient.GetConfig(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), config)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list [namespace]",
	Short: "List configs in a namespace (default: grid)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace := "grid"
		if len(args) > 0 {
			namespace = args[0]
		}
		configs, err := gridClient.ListConfigs(context.Background(), namespace)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), configs)
		}
		if len(configs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No configs found.")
			return nil
		}
		for _, c := range configs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.Key, c.Value)
		}
		return nil
	},
}

var configDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a config by key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := gridClient.DeleteConfig(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted config %q\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configDeleteCmd)
}
