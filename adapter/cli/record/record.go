package record

import (
	"github.com/spf13/cobra"
)

// Cmd is the record command group
var Cmd = &cobra.Command{
	Use:   "record",
	Short: "Manage records",
	Long:  `Create, link, and list the records of a Gantt chart.`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(linkCmd)
	Cmd.AddCommand(listCmd)
}
