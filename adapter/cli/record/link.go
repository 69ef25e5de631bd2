package record

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/ganttline/adapter/cli"
	"github.com/felixgeelhaar/ganttline/internal/planning/application/commands"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/spf13/cobra"
)

var linkFields *cli.FieldFlags

var linkCmd = &cobra.Command{
	Use:   "link <record-id> <depends-on-id>",
	Short: "Make a record depend on another",
	Long: `Record that the first record cannot start before the second has finished.

Links that would close a dependency cycle are rejected.

Examples:
  ganttline record link 9b1e... 5f0c...`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp("record link")
		if err != nil {
			return err
		}

		recordID, err := cli.ParseID(args[0])
		if err != nil {
			return err
		}
		dependsOnID, err := cli.ParseID(args[1])
		if err != nil {
			return err
		}
		fields, err := linkFields.FieldSet()
		if err != nil {
			return err
		}

		err = app.LinkRecordsHandler.Handle(cmd.Context(), commands.LinkRecordsCommand{
			RecordID:    recordID,
			DependsOnID: dependsOnID,
			Fields:      fields,
		})
		if errors.Is(err, domain.ErrDependencyCycle) {
			return fmt.Errorf("link rejected: %w", err)
		}
		if err != nil {
			return fmt.Errorf("failed to link records: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Linked: %s now depends on %s\n", recordID, dependsOnID)
		return nil
	},
}

func init() {
	linkFields = cli.AddFieldFlags(linkCmd)
}
