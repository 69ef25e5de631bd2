package cli

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/ganttline/internal/planning/application/commands"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/security"
	"github.com/spf13/cobra"
)

var rollbackLogFile string

var rollbackCmd = &cobra.Command{
	Use:   "rollback [undo-token]",
	Short: "Restore the records a reschedule moved",
	Long: `Write back the original dates of every record a reschedule moved.

Pass the undo token printed by 'ganttline reschedule', or a JSON undo log
with --log. A token can only be used once.

Examples:
  ganttline rollback 3c9f...
  ganttline rollback --log undo.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp("rollback")
		if err != nil {
			return err
		}

		rollback := commands.RollbackCommand{
			CorrelationID: CorrelationID(cmd.Context()),
			Actor:         app.Actor,
		}
		if len(args) == 1 {
			rollback.Token = args[0]
		}
		if rollbackLogFile != "" {
			data, err := security.SafeReadFile(rollbackLogFile)
			if err != nil {
				return fmt.Errorf("failed to read undo log: %w", err)
			}
			var log domain.UndoLog
			if err := json.Unmarshal(data, &log); err != nil {
				return fmt.Errorf("invalid undo log: %w", err)
			}
			rollback.UndoLog = log
		}

		result, err := app.RollbackHandler.Handle(cmd.Context(), rollback)
		if err != nil {
			return fmt.Errorf("failed to roll back: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Restored %d record(s)\n", len(result.Restored))
		for _, id := range result.Restored {
			fmt.Fprintf(out, "  %s\n", id)
		}
		if len(result.Skipped) > 0 {
			fmt.Fprintf(out, "Skipped %d missing record(s)\n", len(result.Skipped))
		}
		return nil
	},
}

func init() {
	rollbackCmd.Flags().StringVar(&rollbackLogFile, "log", "", "JSON undo log file")
	rootCmd.AddCommand(rollbackCmd)
}
