package cli

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/ganttline/internal/planning/application/queries"
	"github.com/spf13/cobra"
)

var (
	attemptsModel string
	attemptsLimit int
)

var attemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "List recent reschedule attempts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp("attempts")
		if err != nil {
			return err
		}

		attempts, err := app.ListRescheduleAttemptsHandler.Handle(cmd.Context(), queries.ListRescheduleAttemptsQuery{
			Model: attemptsModel,
			Limit: attemptsLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to list attempts: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(attempts) == 0 {
			fmt.Fprintln(out, "No reschedule attempts found.")
			return nil
		}

		fmt.Fprintf(out, "Reschedule attempts (%d):\n", len(attempts))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, a := range attempts {
			fmt.Fprintf(out, "%s  %-8s %-8s %s\n", a.AttemptedAt.UTC().Format("2006-01-02 15:04:05"), a.ResultType, a.Direction, a.Model)
			fmt.Fprintf(out, "   %s (moved %d)\n", a.Message, a.MovedCount)
			if Verbose() {
				fmt.Fprintf(out, "   master %s  slave %s  trigger %s  mode %s\n", a.MasterID, a.SlaveID, a.TriggerID, a.Mode)
			}
		}
		return nil
	},
}

func init() {
	attemptsCmd.Flags().StringVar(&attemptsModel, "model", "", "only attempts on this model")
	attemptsCmd.Flags().IntVarP(&attemptsLimit, "limit", "n", queries.DefaultAttemptsLimit, "maximum number of attempts")
	rootCmd.AddCommand(attemptsCmd)
}
