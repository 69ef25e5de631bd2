package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common rescheduling workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("resolve_conflict").
		Description("Walk through moving a record and fixing the records that depend on it.").
		Argument("record", "Name or id of the record that moved", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Resolve a dependency conflict",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`The record %q has moved. Please:

1. Read the gantt://records resource and find the record and its dependencies
2. Pick the dependency whose dates now overlap
3. Call gantt.reschedule with direction "forward" to push successors later,
   or "backward" to pull predecessors earlier
4. Report the result type and message, and keep the undo token

If the result is a warning or an error, explain it and do not retry blindly.
If I ask to undo, call gantt.rollback with the undo token.`, args["record"]),
						},
					},
				},
			}, nil
		})

	srv.Prompt("graph_health").
		Description("Check a model's dependency graph and summarize recent reschedules.").
		Argument("model", "Record model (default: project.task)", false).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Dependency graph health check",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Check the dependency graph of %q:

1. Call gantt.validate and report whether it has a cycle
2. Call gantt.attempts for the same model
3. Summarize how many reschedules succeeded, warned, or failed, and the most
   common warning message`, modelOrDefault(args["model"])),
						},
					},
				},
			}, nil
		})

	return nil
}
