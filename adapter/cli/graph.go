package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/ganttline/internal/planning/application/queries"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/spf13/cobra"
)

var (
	graphModel  string
	graphFields *FieldFlags
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect dependency graphs",
}

var graphValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a model's dependency graph for cycles",
	Long: `Load every record of a model and sort it so each record follows its
predecessors. Fails when the dependencies form a cycle.

Examples:
  ganttline graph validate --model project.task`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp("graph validate")
		if err != nil {
			return err
		}
		fields, err := graphFields.FieldSet()
		if err != nil {
			return err
		}

		graph, err := app.ValidateGraphHandler.Handle(cmd.Context(), queries.ValidateGraphQuery{
			Model:  graphModel,
			Fields: fields,
		})
		if errors.Is(err, domain.ErrDependencyCycle) {
			return fmt.Errorf("%s: %w", graphModel, err)
		}
		if err != nil {
			return fmt.Errorf("failed to validate graph: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d record(s), %d dependency link(s), no cycle\n", graph.Model, len(graph.Order), graph.Edges)
		for i, r := range graph.Order {
			name := r.Name
			if name == "" {
				name = "(outside " + graph.Model + ")"
			}
			fmt.Fprintf(out, "%3d. %s  %s\n", i+1, r.ID, name)
		}
		return nil
	},
}

func init() {
	graphValidateCmd.Flags().StringVar(&graphModel, "model", "project.task", "record model")
	graphFields = AddFieldFlags(graphValidateCmd)
	graphCmd.AddCommand(graphValidateCmd)
	rootCmd.AddCommand(graphCmd)
}
