package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/quickgen/pkg/extractor"
	"github.com/gnana997/quickgen/pkg/knowledge"
	"github.com/gnana997/quickgen/pkg/mcplog"
	"github.com/gnana997/quickgen/pkg/parser"
	"github.com/gnana997/quickgen/pkg/parser/queries"
	"github.com/gnana997/quickgen/pkg/scanner"
	"github.com/gnana997/quickgen/pkg/util"
)

const buttonSource = `import { format } from "./format";

export const Button = ({ label, size }) => <button>{format(label)}</button>;
`

const formatSource = `export function format(value) {
  return String(value);
}
`

type fixture struct {
	root string
	pm   *parser.ParserManager
	qm   *queries.QueryManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "src/Button.jsx", buttonSource)
	writeFile(t, root, "src/format.js", formatSource)
	writeFile(t, root, "src/broken.js", "const x = ;\n")

	pm := parser.NewParserManager(util.NopLogger())
	qm := queries.NewQueryManager(pm, util.NopLogger())
	t.Cleanup(func() {
		qm.Close()
		pm.Close()
	})
	return &fixture{root: root, pm: pm, qm: qm}
}

func (f *fixture) generate(t *testing.T) {
	t.Helper()
	gen := knowledge.NewGenerator(extractor.NewExtractor(f.pm, f.qm, util.NopLogger()), util.NopLogger())
	cfg := knowledge.DefaultConfig()
	cfg.Dir = f.root
	_, err := gen.Generate(context.Background(), cfg)
	require.NoError(t, err)
}

func (f *fixture) server(t *testing.T, calls *mcplog.Logger) *Server {
	t.Helper()
	s := NewServer(Config{
		Root:         f.root,
		KnowledgeDir: filepath.Join(f.root, knowledge.DefaultDir),
	}, scanner.NewScanner(f.pm, util.NopLogger()), calls, util.NopLogger())
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

	switch req.Params.Name {
	case "query_file":
		handler = s.handleQueryFile
	case "trace_symbol":
		handler = s.handleTraceSymbol
	case "list_components":
		handler = s.handleListComponents
	case "preview_docs":
		handler = s.handlePreviewDocs
	default:
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

// --- query_file ---

func TestHandleQueryFile(t *testing.T) {
	f := newFixture(t)
	f.generate(t)
	s := f.server(t, nil)

	result := callTool(t, s, makeRequest("query_file", map[string]any{"file": "src/Button.jsx"}))
	require.False(t, result.IsError, resultJSON(t, result))

	var view knowledge.FileView
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &view))
	assert.Equal(t, "src/Button.jsx", view.File)
	require.Len(t, view.Imports, 1)
	assert.Equal(t, "./format", view.Imports[0].Source)
	require.Len(t, view.Exports, 1)
	assert.Equal(t, "Button", view.Exports[0].Name)
	require.Len(t, view.Calls, 1)
	assert.Equal(t, "format", view.Calls[0].Name)
	assert.Equal(t, "Button", view.Calls[0].Context)
}

func TestHandleQueryFile_Errors(t *testing.T) {
	f := newFixture(t)
	s := f.server(t, nil)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing argument", nil, "file"},
		{"not generated", map[string]any{"file": "src/Button.jsx"}, "knowledge generate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := callTool(t, s, makeRequest("query_file", tc.args))
			assert.True(t, result.IsError)
			assert.Contains(t, resultJSON(t, result), tc.want)
		})
	}

	// generating after start makes the store available without a restart
	f.generate(t)
	result := callTool(t, s, makeRequest("query_file", map[string]any{"file": "src/missing.js"}))
	assert.True(t, result.IsError)
	assert.Contains(t, resultJSON(t, result), "not in the knowledge base")
}

// --- trace_symbol ---

func TestHandleTraceSymbol(t *testing.T) {
	f := newFixture(t)
	f.generate(t)
	s := f.server(t, nil)

	result := callTool(t, s, makeRequest("trace_symbol", map[string]any{"symbol": "format", "detailed": true}))
	require.False(t, result.IsError, resultJSON(t, result))

	var trace knowledge.TraceResult
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &trace))
	assert.Equal(t, "format", trace.Symbol)
	require.Len(t, trace.Definitions, 1)
	assert.Equal(t, "src/format.js", trace.Definitions[0].File)
	assert.Equal(t, formatSource[:len(formatSource)-1], trace.Definitions[0].Snippet)
	require.Len(t, trace.Calls, 1)
	assert.Equal(t, "src/Button.jsx", trace.Calls[0].File)
	require.Len(t, trace.Imports, 1)
	assert.Equal(t, "src/Button.jsx", trace.Imports[0].File)
}

func TestHandleTraceSymbol_NotFound(t *testing.T) {
	f := newFixture(t)
	f.generate(t)
	s := f.server(t, nil)

	result := callTool(t, s, makeRequest("trace_symbol", map[string]any{"symbol": "nothing"}))
	assert.True(t, result.IsError)
	assert.Contains(t, resultJSON(t, result), `"nothing"`)
}

func TestReloadKnowledge(t *testing.T) {
	f := newFixture(t)
	f.generate(t)
	s := f.server(t, nil)

	// reload before first use is a no-op
	require.NoError(t, s.ReloadKnowledge())

	result := callTool(t, s, makeRequest("trace_symbol", map[string]any{"symbol": "parse"}))
	assert.True(t, result.IsError)

	writeFile(t, f.root, "src/parse.js", "export function parse(s) { return s; }\n")
	f.generate(t)
	require.NoError(t, s.ReloadKnowledge())

	result = callTool(t, s, makeRequest("trace_symbol", map[string]any{"symbol": "parse"}))
	assert.False(t, result.IsError, resultJSON(t, result))
}

// --- list_components ---

func TestHandleListComponents(t *testing.T) {
	f := newFixture(t)
	s := f.server(t, nil)

	result := callTool(t, s, makeRequest("list_components", map[string]any{"file": "src/Button.jsx"}))
	require.False(t, result.IsError, resultJSON(t, result))

	var out struct {
		File       string `json:"file"`
		Components []struct {
			Name      string   `json:"name"`
			Kind      string   `json:"kind"`
			ParamName string   `json:"paramName"`
			Props     []string `json:"props"`
			Line      int      `json:"line"`
		} `json:"components"`
		Skipped []scanner.SkippedCandidate `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	assert.Equal(t, "src/Button.jsx", out.File)
	require.Len(t, out.Components, 1)
	assert.Equal(t, "Button", out.Components[0].Name)
	assert.Equal(t, "arrow", out.Components[0].Kind)
	assert.Equal(t, []string{"label", "size"}, out.Components[0].Props)
	assert.Empty(t, out.Skipped)

	// the file on disk is untouched
	data, err := os.ReadFile(filepath.Join(f.root, "src", "Button.jsx"))
	require.NoError(t, err)
	assert.Equal(t, buttonSource, string(data))
}

func TestHandleListComponents_NoComponents(t *testing.T) {
	f := newFixture(t)
	s := f.server(t, nil)

	result := callTool(t, s, makeRequest("list_components", map[string]any{"file": "src/format.js"}))
	require.False(t, result.IsError)
	assert.Contains(t, resultJSON(t, result), `"components": []`)
}

func TestHandleListComponents_ReportsNested(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "src/Table.jsx", `export function Table({ rows }) {
  const Row = ({ r }) => <tr>{r}</tr>;
  return <table>{rows.map((r) => <Row r={r} />)}</table>;
}
`)
	s := f.server(t, nil)

	result := callTool(t, s, makeRequest("list_components", map[string]any{"file": "src/Table.jsx"}))
	require.False(t, result.IsError, resultJSON(t, result))

	var out struct {
		Components []struct {
			Name string `json:"name"`
		} `json:"components"`
		Skipped []scanner.SkippedCandidate `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &out))
	require.Len(t, out.Components, 1)
	assert.Equal(t, "Table", out.Components[0].Name)
	assert.Equal(t, []scanner.SkippedCandidate{{Name: "Row", Line: 2, Reason: scanner.SkipNested}}, out.Skipped)
}

func TestHandleFileArgument_Errors(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "README.md", "# readme\n")
	s := f.server(t, nil)

	tests := []struct {
		name string
		file string
		want string
	}{
		{"syntax error", "src/broken.js", "syntax error at line 1"},
		{"unsupported extension", "README.md", "unsupported file type"},
		{"outside root", "../elsewhere.js", "outside the project root"},
		{"missing file", "src/gone.jsx", "read src/gone.jsx"},
	}
	for _, tc := range tests {
		for _, tool := range []string{"list_components", "preview_docs"} {
			t.Run(tc.name+"/"+tool, func(t *testing.T) {
				result := callTool(t, s, makeRequest(tool, map[string]any{"file": tc.file}))
				assert.True(t, result.IsError)
				assert.Contains(t, resultJSON(t, result), tc.want)
			})
		}
	}
}

// --- preview_docs ---

func TestHandlePreviewDocs(t *testing.T) {
	f := newFixture(t)
	s := f.server(t, nil)

	result := callTool(t, s, makeRequest("preview_docs", map[string]any{"file": "src/Button.jsx"}))
	require.False(t, result.IsError, resultJSON(t, result))

	d := resultJSON(t, result)
	assert.Contains(t, d, "--- a/src/Button.jsx")
	assert.Contains(t, d, "+ * @component Button")
	assert.Contains(t, d, "+ * @param {*} props.size - [auto generate]")

	result = callTool(t, s, makeRequest("preview_docs", map[string]any{"file": "src/format.js"}))
	require.False(t, result.IsError)
	assert.Equal(t, "no documentation changes for src/format.js", resultJSON(t, result))
}

// --- logging middleware ---

func TestLoggingMiddleware(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "calls.jsonl")
	calls, err := mcplog.Open(path)
	require.NoError(t, err)
	s := f.server(t, calls)

	handler := s.loggingMiddleware()(s.handleListComponents)
	result, err := handler(context.Background(), makeRequest("list_components", map[string]any{"file": "src/Button.jsx"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.NoError(t, calls.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	sc := bufio.NewScanner(file)
	require.True(t, sc.Scan())
	var entry mcplog.Entry
	require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
	assert.Equal(t, "list_components", entry.Tool)
	assert.Equal(t, "src/Button.jsx", entry.Params["file"])
	assert.Positive(t, entry.ResponseBytes)
	assert.False(t, sc.Scan())
}
