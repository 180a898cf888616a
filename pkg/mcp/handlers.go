package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/quickgen/pkg/knowledge"
	"github.com/gnana997/quickgen/pkg/parser"
	"github.com/gnana997/quickgen/pkg/rewrite"
	"github.com/gnana997/quickgen/pkg/scanner"
)

// componentList is the list_components payload.
type componentList struct {
	File       string                     `json:"file"`
	Components []*scanner.ComponentInfo   `json:"components"`
	Skipped    []scanner.SkippedCandidate `json:"skipped"`
}

func (s *Server) handleQueryFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	store, err := s.knowledgeStore()
	if err != nil {
		return knowledgeError(err), nil
	}
	view, ok := store.QueryFile(file)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%s is not in the knowledge base", file)), nil
	}
	return jsonResult(view)
}

func (s *Server) handleTraceSymbol(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, err := req.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detailed := req.GetBool("detailed", false)

	store, err := s.knowledgeStore()
	if err != nil {
		return knowledgeError(err), nil
	}
	trace, err := store.Trace(symbol, detailed)
	if errors.Is(err, knowledge.ErrSymbolNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no definition of %q in the knowledge base", symbol)), nil
	}
	if err != nil {
		return nil, err
	}
	return jsonResult(trace)
}

func (s *Server) handleListComponents(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, rel, errResult := s.readSource(req)
	if errResult != nil {
		return errResult, nil
	}

	collected, _, err := s.scanner.Annotate(src, rel, s.cfg.Collect)
	if err != nil {
		return annotateError(rel, err), nil
	}

	out := componentList{File: rel, Components: collected.Components, Skipped: collected.Skipped}
	if out.Components == nil {
		out.Components = []*scanner.ComponentInfo{}
	}
	if out.Skipped == nil {
		out.Skipped = []scanner.SkippedCandidate{}
	}
	return jsonResult(out)
}

func (s *Server) handlePreviewDocs(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, rel, errResult := s.readSource(req)
	if errResult != nil {
		return errResult, nil
	}

	_, edited, err := s.scanner.Annotate(src, rel, s.cfg.Collect)
	if err != nil {
		return annotateError(rel, err), nil
	}
	d, err := rewrite.Diff(rel, src, edited)
	if err != nil {
		return nil, err
	}
	if len(d) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no documentation changes for %s", rel)), nil
	}
	return mcp.NewToolResultText(string(d)), nil
}

// readSource loads the "file" argument. Paths are taken relative to the
// project root and must stay inside it.
func (s *Server) readSource(req mcp.CallToolRequest) ([]byte, string, *mcp.CallToolResult) {
	file, err := req.RequireString("file")
	if err != nil {
		return nil, "", mcp.NewToolResultError(err.Error())
	}
	if !parser.IsSupportedFile(file) {
		return nil, "", mcp.NewToolResultError(fmt.Sprintf("%s: unsupported file type (want one of %s)",
			file, strings.Join(parser.SupportedExtensions(), ", ")))
	}

	path := filepath.FromSlash(file)
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.cfg.Root, path)
	}
	rel, err := filepath.Rel(s.cfg.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, "", mcp.NewToolResultError(fmt.Sprintf("%s is outside the project root", file))
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, "", mcp.NewToolResultError(fmt.Sprintf("read %s: %v", file, err))
	}
	return src, filepath.ToSlash(rel), nil
}

func knowledgeError(err error) *mcp.CallToolResult {
	if errors.Is(err, knowledge.ErrNotGenerated) {
		return mcp.NewToolResultError("knowledge base not generated; run `quickgen knowledge generate` first")
	}
	return mcp.NewToolResultError(fmt.Sprintf("open knowledge base: %v", err))
}

func annotateError(rel string, err error) *mcp.CallToolResult {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		return mcp.NewToolResultError(fmt.Sprintf("%s: syntax error at line %d: %s", rel, perr.Line, perr.Message))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", rel, err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
