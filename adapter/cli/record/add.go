package record

import (
	"fmt"

	"github.com/felixgeelhaar/ganttline/adapter/cli"
	"github.com/felixgeelhaar/ganttline/internal/planning/application/commands"
	"github.com/spf13/cobra"
)

var (
	addModel  string
	addStart  string
	addStop   string
	addFields *cli.FieldFlags
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a record",
	Long: `Create a record with optional start and stop dates.

Dates are UTC, in RFC 3339 or "YYYY-MM-DD HH:MM".

Examples:
  ganttline record add "Design" --start "2025-03-03 09:00" --stop "2025-03-03 17:00"
  ganttline record add "Pour foundation" --model mrp.workorder`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp("record add")
		if err != nil {
			return err
		}

		start, err := cli.ParseTime(addStart)
		if err != nil {
			return err
		}
		stop, err := cli.ParseTime(addStop)
		if err != nil {
			return err
		}
		fields, err := addFields.FieldSet()
		if err != nil {
			return err
		}

		result, err := app.CreateRecordHandler.Handle(cmd.Context(), commands.CreateRecordCommand{
			Model:  addModel,
			Name:   args[0],
			Start:  start,
			Stop:   stop,
			Fields: fields,
		})
		if err != nil {
			return fmt.Errorf("failed to create record: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Record created!")
		fmt.Fprintf(out, "  Name: %s\n", args[0])
		fmt.Fprintf(out, "  ID: %s\n", result.RecordID)
		fmt.Fprintf(out, "  Dates: %s - %s\n", cli.FormatTime(start), cli.FormatTime(stop))
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addModel, "model", "project.task", "record model")
	addCmd.Flags().StringVar(&addStart, "start", "", "start date")
	addCmd.Flags().StringVar(&addStop, "stop", "", "stop date")
	addFields = cli.AddFieldFlags(addCmd)
}
