package extractor

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/quickgen/pkg/parser"
	"github.com/gnana997/quickgen/pkg/parser/queries"
)

// Extractor parses a file once and runs the symbol, import and call queries
// over the same tree.
//
// Usage:
//
//	ext := NewExtractor(parserManager, queryManager, logger)
//	fk, err := ext.ExtractFile(absPath, "src/App.jsx", source)
type Extractor struct {
	parserManager *parser.ParserManager
	queryManager  *queries.QueryManager
	logger        *slog.Logger
}

// NewExtractor creates an extractor. Both managers stay owned by the caller.
func NewExtractor(pm *parser.ParserManager, qm *queries.QueryManager, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{
		parserManager: pm,
		queryManager:  qm,
		logger:        logger,
	}
}

// ExtractFile extracts the knowledge of one file. path selects the grammar;
// relPath is what gets recorded. A file with syntax errors yields a
// *parser.ParseError and no knowledge.
func (e *Extractor) ExtractFile(path, relPath string, source []byte) (*FileKnowledge, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LanguageUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", path)
	}
	isTSX := parser.IsTSXFile(path)

	tree, err := e.parserManager.Parse(source, lang, isTSX)
	if tree != nil {
		defer tree.Close()
	}
	if err != nil {
		var perr *parser.ParseError
		if errors.As(err, &perr) {
			perr.Path = relPath
			return nil, perr
		}
		return nil, fmt.Errorf("failed to parse %s: %w", relPath, err)
	}

	run := func(qtype queries.QueryType) ([]queries.QueryMatch, error) {
		query, err := e.queryManager.GetQuery(lang, qtype, isTSX)
		if err != nil {
			return nil, err
		}
		return e.queryManager.ExecuteQuery(tree, query, source)
	}

	symbolMatches, err := run(queries.QueryTypeSymbols)
	if err != nil {
		return nil, fmt.Errorf("symbol query on %s: %w", relPath, err)
	}
	moduleMatches, err := run(queries.QueryTypeImports)
	if err != nil {
		return nil, fmt.Errorf("import query on %s: %w", relPath, err)
	}
	callMatches, err := run(queries.QueryTypeCalls)
	if err != nil {
		return nil, fmt.Errorf("call query on %s: %w", relPath, err)
	}

	fk := &FileKnowledge{
		Path:     filepath.ToSlash(relPath),
		Language: lang.String(),
		Symbols:  extractSymbols(symbolMatches, source),
		Imports:  extractImports(moduleMatches, source),
		Exports:  extractExports(moduleMatches, source),
		Calls:    extractCalls(callMatches, source),
	}
	markExported(fk)

	e.logger.Debug("extracted file",
		"file", fk.Path,
		"language", fk.Language,
		"symbols", len(fk.Symbols),
		"imports", len(fk.Imports),
		"exports", len(fk.Exports),
		"calls", len(fk.Calls))

	return fk, nil
}

// markExported flags symbols exported through a clause or a default export
// of a bare identifier (`export { a }`, `export default a`).
func markExported(fk *FileKnowledge) {
	local := make(map[string]bool)
	for _, exp := range fk.Exports {
		if exp.Source == "" && exp.Local != "" {
			local[exp.Local] = true
		}
	}
	for i := range fk.Symbols {
		if local[fk.Symbols[i].Name] {
			fk.Symbols[i].Exported = true
		}
	}
}

// positioned pairs an extracted record with its start byte so that matches
// from different patterns can be put back into document order.
type positioned[T any] struct {
	start uint
	value T
}

func inDocumentOrder[T any](items []positioned[T]) []T {
	sort.SliceStable(items, func(i, j int) bool { return items[i].start < items[j].start })
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.value
	}
	return out
}

func line(n *ts.Node) int {
	return int(n.StartPosition().Row) + 1
}

func endLine(n *ts.Node) int {
	return int(n.EndPosition().Row) + 1
}

// namedChildren returns n's named children without comments.
func namedChildren(n *ts.Node) []*ts.Node {
	if n == nil {
		return nil
	}
	out := make([]*ts.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// hasToken reports whether n has an anonymous child with the given text,
// such as "async" or "default".
func hasToken(n *ts.Node, token string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == token {
			return true
		}
	}
	return false
}

// unquote strips the delimiters of a string literal node's text.
func unquote(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}
