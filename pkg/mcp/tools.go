package mcp

import "github.com/mark3labs/mcp-go/mcp"

func queryFileTool() mcp.Tool {
	return mcp.NewTool("query_file",
		mcp.WithDescription("Symbols, imports, exports, references and calls recorded for one file of the knowledge base."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path relative to the project root, e.g. src/App.jsx")),
	)
}

func traceSymbolTool() mcp.Tool {
	return mcp.NewTool("trace_symbol",
		mcp.WithDescription("Where a symbol is defined, which files call it and which files import it."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Symbol name, e.g. formatDate")),
		mcp.WithBoolean("detailed", mcp.Description("Include the source text of each definition")),
	)
}

func listComponentsTool() mcp.Tool {
	return mcp.NewTool("list_components",
		mcp.WithDescription("React components found in a file with their inferred props, plus the ones left undocumented and why (annotated, no-props, nested, missing-location). Does not modify the file."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path relative to the project root")),
	)
}

func previewDocsTool() mcp.Tool {
	return mcp.NewTool("preview_docs",
		mcp.WithDescription("Unified diff of the JSDoc blocks the documentation pass would insert into a file. Does not modify the file."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path relative to the project root")),
	)
}
