package main

import (
	"fmt"

	"github.com/harunnryd/deskflow/cmd/deskflow/runtime"
	"github.com/harunnryd/deskflow/internal/actions"
	"github.com/harunnryd/deskflow/internal/store"

	"github.com/spf13/cobra"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Inspect staged actions",
	Long:  `List and sweep the actions recorded in the data directory snapshot.`,
}

var actionsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List actions from the snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		paths, err := store.ResolvePaths(loadedCfg.Store.DataDir)
		if err != nil {
			return fmt.Errorf("failed to resolve data dir: %w", err)
		}
		list, err := actions.LoadSnapshot(store.Or(loadedCfg.Actions.SnapshotPath, paths.Snapshot))
		if err != nil {
			return err
		}

		if status, _ := cmd.Flags().GetString("status"); status != "" {
			list = filterByStatus(list, actions.Status(status))
		}

		f, err := outputFormatter(cmd)
		if err != nil {
			return err
		}
		out, err := f.FormatActions(list)
		if err != nil {
			return fmt.Errorf("failed to format actions: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var actionsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire overdue actions and purge old ones now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			res := r.Sweeper.RunOnce(r.Ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Expired: %d, purged: %d\n", res.ExpiredActions, res.PurgedActions)
			return nil
		})
	},
}

func filterByStatus(list []*actions.PendingAction, status actions.Status) []*actions.PendingAction {
	out := list[:0]
	for _, a := range list {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

func init() {
	actionsLsCmd.Flags().String("status", "", "only show actions with this status (PENDING, EXECUTED, ...)")
	actionsCmd.AddCommand(actionsLsCmd)
	actionsCmd.AddCommand(actionsSweepCmd)
	rootCmd.AddCommand(actionsCmd)
}
