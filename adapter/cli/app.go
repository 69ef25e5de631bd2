package cli

import (
	"github.com/felixgeelhaar/ganttline/internal/planning/application/commands"
	"github.com/felixgeelhaar/ganttline/internal/planning/application/queries"
)

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	CreateRecordHandler *commands.CreateRecordHandler
	LinkRecordsHandler  *commands.LinkRecordsHandler
	RescheduleHandler   *commands.RescheduleHandler
	RollbackHandler     *commands.RollbackHandler

	// Query Handlers
	ListRecordsHandler            *queries.ListRecordsHandler
	ValidateGraphHandler          *queries.ValidateGraphHandler
	ListRescheduleAttemptsHandler *queries.ListRescheduleAttemptsHandler

	// Actor is recorded on emitted events.
	Actor string
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	createRecordHandler *commands.CreateRecordHandler,
	linkRecordsHandler *commands.LinkRecordsHandler,
	rescheduleHandler *commands.RescheduleHandler,
	rollbackHandler *commands.RollbackHandler,
	listRecordsHandler *queries.ListRecordsHandler,
	validateGraphHandler *queries.ValidateGraphHandler,
	listRescheduleAttemptsHandler *queries.ListRescheduleAttemptsHandler,
) *App {
	return &App{
		CreateRecordHandler:           createRecordHandler,
		LinkRecordsHandler:            linkRecordsHandler,
		RescheduleHandler:             rescheduleHandler,
		RollbackHandler:               rollbackHandler,
		ListRecordsHandler:            listRecordsHandler,
		ValidateGraphHandler:          validateGraphHandler,
		ListRescheduleAttemptsHandler: listRescheduleAttemptsHandler,
		Actor:                         "cli",
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
