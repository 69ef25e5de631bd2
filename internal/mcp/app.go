package mcp

import (
	"github.com/felixgeelhaar/ganttline/adapter/cli"
	"github.com/felixgeelhaar/ganttline/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	return cli.NewApp(
		container.CreateRecordHandler,
		container.LinkRecordsHandler,
		container.RescheduleHandler,
		container.RollbackHandler,
		container.ListRecordsHandler,
		container.ValidateGraphHandler,
		container.ListRescheduleAttemptsHandler,
	)
}
