package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/ganttline/internal/planning/application/queries"
	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers MCP resources that expose planning data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("gantt://records").
		Name("Records").
		Description("Records of the default model with their dates and dependencies").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListRecordsHandler == nil {
				return nil, fmt.Errorf("record listing requires database connection")
			}
			records, err := app.ListRecordsHandler.Handle(ctx, queries.ListRecordsQuery{Model: defaultModel})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, records)
		})

	srv.Resource("gantt://attempts").
		Name("Reschedule Attempts").
		Description("Latest reschedule attempts on every model").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListRescheduleAttemptsHandler == nil {
				return nil, fmt.Errorf("attempt listing requires database connection")
			}
			attempts, err := app.ListRescheduleAttemptsHandler.Handle(ctx, queries.ListRescheduleAttemptsQuery{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, attempts)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
