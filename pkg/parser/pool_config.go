package parser

import (
	"github.com/gnana997/quickgen/pkg/util"
)

// getPoolSize resolves the per-grammar pool size. Scans are sequential, so
// the pool mostly matters for the MCP server, where tool calls can overlap.
func getPoolSize(override int) int {
	return util.GetOptimalPoolSizeWithOverride(override)
}
