package record

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/ganttline/adapter/cli"
	"github.com/felixgeelhaar/ganttline/internal/planning/application/queries"
	"github.com/spf13/cobra"
)

var (
	listModel  string
	listFields *cli.FieldFlags
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the records of a model",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp("record list")
		if err != nil {
			return err
		}
		fields, err := listFields.FieldSet()
		if err != nil {
			return err
		}

		records, err := app.ListRecordsHandler.Handle(cmd.Context(), queries.ListRecordsQuery{
			Model:  listModel,
			Fields: fields,
		})
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No records found.")
			return nil
		}

		fmt.Fprintf(out, "Records (%d):\n", len(records))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, r := range records {
			fmt.Fprintf(out, "%s  %s - %s\n", r.Name, cli.FormatTime(r.Start), cli.FormatTime(r.Stop))
			fmt.Fprintf(out, "   ID: %s\n", r.ID)
			if len(r.Predecessors) > 0 {
				fmt.Fprintf(out, "   Depends on: %d record(s)\n", len(r.Predecessors))
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listModel, "model", "project.task", "record model")
	listFields = cli.AddFieldFlags(listCmd)
}
