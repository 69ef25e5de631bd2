package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
)

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("cli.health").
		Description("Check CLI wiring health").
		Handler(func(ctx context.Context, input struct{}) (map[string]string, error) {
			if app == nil {
				return nil, errors.New("app not initialized")
			}
			return map[string]string{"status": "ok"}, nil
		})

	return nil
}
