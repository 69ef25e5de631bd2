package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/ganttline/adapter/cli"
	"github.com/felixgeelhaar/ganttline/internal/planning/application/commands"
	"github.com/felixgeelhaar/ganttline/internal/planning/application/queries"
	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/pkg/observability"
	"github.com/felixgeelhaar/mcp-go"
)

type rescheduleInput struct {
	Direction               string `json:"direction" jsonschema:"required"`
	MasterID                string `json:"master_id" jsonschema:"required"`
	SlaveID                 string `json:"slave_id" jsonschema:"required"`
	DependencyField         string `json:"dependency_field,omitempty"`
	DependencyInvertedField string `json:"dependency_inverted_field,omitempty"`
	StartField              string `json:"start_field,omitempty"`
	StopField               string `json:"stop_field,omitempty"`
}

type rollbackInput struct {
	UndoToken string `json:"undo_token" jsonschema:"required"`
}

type rollbackOutput struct {
	Restored []string `json:"restored"`
	Skipped  []string `json:"skipped,omitempty"`
}

type recordsInput struct {
	Model                   string `json:"model,omitempty"`
	DependencyField         string `json:"dependency_field,omitempty"`
	DependencyInvertedField string `json:"dependency_inverted_field,omitempty"`
	StartField              string `json:"start_field,omitempty"`
	StopField               string `json:"stop_field,omitempty"`
}

type attemptsInput struct {
	Model string `json:"model,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

func registerGanttTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("gantt.reschedule").
		Description("Shift the records around a dependency so the slave starts after the master ends. Returns an undo token on success.").
		Handler(rescheduleTool(app))

	srv.Tool("gantt.rollback").
		Description("Restore the records moved by a reschedule, using its undo token").
		Handler(rollbackTool(app))

	srv.Tool("gantt.records").
		Description("List the records of a model with their dates and dependencies").
		Handler(recordsTool(app))

	srv.Tool("gantt.validate").
		Description("Check a model's dependency graph for cycles and return it in schedulable order").
		Handler(validateTool(app))

	srv.Tool("gantt.attempts").
		Description("List recent reschedule attempts, newest first").
		Handler(attemptsTool(app))

	return nil
}

func rescheduleTool(app *cli.App) func(context.Context, rescheduleInput) (*domain.RescheduleResult, error) {
	return func(ctx context.Context, input rescheduleInput) (*domain.RescheduleResult, error) {
		if app == nil || app.RescheduleHandler == nil {
			return nil, errors.New("reschedule requires database connection")
		}
		master, err := parseUUID(input.MasterID)
		if err != nil {
			return nil, err
		}
		slave, err := parseUUID(input.SlaveID)
		if err != nil {
			return nil, err
		}
		fields, err := fieldSet(input.DependencyField, input.DependencyInvertedField, input.StartField, input.StopField)
		if err != nil {
			return nil, err
		}

		return app.RescheduleHandler.Handle(ctx, commands.RescheduleCommand{
			Direction:     input.Direction,
			MasterID:      master,
			SlaveID:       slave,
			Fields:        fields,
			CorrelationID: observability.CorrelationUUID(ctx),
			Actor:         "mcp",
		})
	}
}

func rollbackTool(app *cli.App) func(context.Context, rollbackInput) (*rollbackOutput, error) {
	return func(ctx context.Context, input rollbackInput) (*rollbackOutput, error) {
		if app == nil || app.RollbackHandler == nil {
			return nil, errors.New("rollback requires database connection")
		}
		if input.UndoToken == "" {
			return nil, domain.ErrUndoLogUnspecified
		}

		result, err := app.RollbackHandler.Handle(ctx, commands.RollbackCommand{
			Token:         input.UndoToken,
			CorrelationID: observability.CorrelationUUID(ctx),
			Actor:         "mcp",
		})
		if err != nil {
			return nil, err
		}

		out := &rollbackOutput{Restored: make([]string, 0, len(result.Restored))}
		for _, id := range result.Restored {
			out.Restored = append(out.Restored, id.String())
		}
		for _, id := range result.Skipped {
			out.Skipped = append(out.Skipped, id.String())
		}
		return out, nil
	}
}

func recordsTool(app *cli.App) func(context.Context, recordsInput) ([]queries.RecordDTO, error) {
	return func(ctx context.Context, input recordsInput) ([]queries.RecordDTO, error) {
		if app == nil || app.ListRecordsHandler == nil {
			return nil, errors.New("record listing requires database connection")
		}
		fields, err := fieldSet(input.DependencyField, input.DependencyInvertedField, input.StartField, input.StopField)
		if err != nil {
			return nil, err
		}
		return app.ListRecordsHandler.Handle(ctx, queries.ListRecordsQuery{
			Model:  modelOrDefault(input.Model),
			Fields: fields,
		})
	}
}

func validateTool(app *cli.App) func(context.Context, recordsInput) (*queries.GraphDTO, error) {
	return func(ctx context.Context, input recordsInput) (*queries.GraphDTO, error) {
		if app == nil || app.ValidateGraphHandler == nil {
			return nil, errors.New("graph validation requires database connection")
		}
		fields, err := fieldSet(input.DependencyField, input.DependencyInvertedField, input.StartField, input.StopField)
		if err != nil {
			return nil, err
		}
		return app.ValidateGraphHandler.Handle(ctx, queries.ValidateGraphQuery{
			Model:  modelOrDefault(input.Model),
			Fields: fields,
		})
	}
}

func attemptsTool(app *cli.App) func(context.Context, attemptsInput) ([]queries.AttemptDTO, error) {
	return func(ctx context.Context, input attemptsInput) ([]queries.AttemptDTO, error) {
		if app == nil || app.ListRescheduleAttemptsHandler == nil {
			return nil, errors.New("attempt listing requires database connection")
		}
		return app.ListRescheduleAttemptsHandler.Handle(ctx, queries.ListRescheduleAttemptsQuery{
			Model: input.Model,
			Limit: input.Limit,
		})
	}
}
