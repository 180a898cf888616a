package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/quickgen/pkg/mcplog"
)

// loggingMiddleware records every tool call in the call log. Only installed
// when a call log is configured.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)
			if logErr := s.calls.Record(req.Params.Name, req.GetArguments(), start, result, err); logErr != nil {
				s.log.Warn("Failed to record tool call", "tool", req.Params.Name, "error", logErr)
			}
			return result, err
		}
	}
}
