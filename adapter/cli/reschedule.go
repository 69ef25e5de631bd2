package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/felixgeelhaar/ganttline/internal/planning/application/commands"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/spf13/cobra"
)

var rescheduleFields *FieldFlags

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule <forward|backward> <master-id> <slave-id>",
	Short: "Reschedule records after a dependency change",
	Long: `Shift the records around a dependency so that the slave no longer
starts before the master has finished.

When the two records overlap:
  forward  pushes the slave after the master; its successors follow.
  backward pulls the master before the slave; its predecessors follow.

When they do not overlap:
  forward  moves the master, and the records between the two, up against
           the slave.
  backward moves the records between the two, then the slave, back
           against the master.

On success the undo token can be passed to 'ganttline rollback'.

Examples:
  ganttline reschedule forward 5f0c... 9b1e...
  ganttline reschedule backward 5f0c... 9b1e... --start-field date_start`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp("reschedule")
		if err != nil {
			return err
		}

		master, err := ParseID(args[1])
		if err != nil {
			return err
		}
		slave, err := ParseID(args[2])
		if err != nil {
			return err
		}
		fields, err := rescheduleFields.FieldSet()
		if err != nil {
			return err
		}

		result, err := app.RescheduleHandler.Handle(cmd.Context(), commands.RescheduleCommand{
			Direction:     args[0],
			MasterID:      master,
			SlaveID:       slave,
			Fields:        fields,
			CorrelationID: CorrelationID(cmd.Context()),
			Actor:         app.Actor,
		})
		if err != nil {
			return fmt.Errorf("failed to reschedule: %w", err)
		}

		PrintResult(cmd.OutOrStdout(), result)
		return nil
	},
}

// PrintResult writes a rescheduling outcome.
func PrintResult(out io.Writer, result *domain.RescheduleResult) {
	fmt.Fprintf(out, "[%s] %s\n", result.Type, result.Message)
	if result.Kind != "" {
		fmt.Fprintf(out, "  Kind: %s\n", result.Kind)
	}
	if result.Mode != "" {
		fmt.Fprintf(out, "  Mode: %s\n", result.Mode)
	}
	if len(result.Moved) > 0 {
		fmt.Fprintf(out, "  Moved: %d record(s)\n", len(result.Moved))
		for _, id := range result.Moved {
			entry := result.UndoLog[id]
			var was []string
			for _, name := range slices.Sorted(maps.Keys(entry)) {
				was = append(was, name+"="+FormatTime(entry[name]))
			}
			fmt.Fprintf(out, "    %s  was %s\n", id, strings.Join(was, " "))
		}
	}
	if result.UndoToken != "" {
		fmt.Fprintf(out, "  Undo token: %s\n", result.UndoToken)
	}
}

func init() {
	rescheduleFields = AddFieldFlags(rescheduleCmd)
	rootCmd.AddCommand(rescheduleCmd)
}
