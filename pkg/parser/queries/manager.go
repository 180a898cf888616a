// Package queries compiles, caches and runs the tree-sitter queries used by
// the knowledge extractor.
package queries

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/quickgen/pkg/parser"
	"github.com/gnana997/quickgen/pkg/parser/queries/calls"
	"github.com/gnana997/quickgen/pkg/parser/queries/imports"
	"github.com/gnana997/quickgen/pkg/parser/queries/symbols"
)

// QueryType identifies which query to run.
type QueryType int

const (
	// QueryTypeSymbols matches class, function and variable declarations
	// (plus interface, type alias and enum declarations in TypeScript).
	QueryTypeSymbols QueryType = iota
	// QueryTypeImports matches import and export statements.
	QueryTypeImports
	// QueryTypeCalls matches call expressions with a plain or member callee.
	QueryTypeCalls
)

// String returns the string representation of a QueryType.
func (qt QueryType) String() string {
	switch qt {
	case QueryTypeSymbols:
		return "symbols"
	case QueryTypeImports:
		return "imports"
	case QueryTypeCalls:
		return "calls"
	default:
		return "unknown"
	}
}

// queryKey identifies a compiled query. TSX and plain TypeScript are
// different grammars, so a query compiled for one cannot run on the other's
// trees.
type queryKey struct {
	lang  parser.Language
	tsx   bool
	qtype QueryType
}

// QueryManager compiles queries lazily and caches them per grammar.
//
// Usage:
//
//	qm := NewQueryManager(parserManager, logger)
//	defer qm.Close()
//
//	query, err := qm.GetQuery(parser.LanguageTypeScript, QueryTypeSymbols, isTSX)
//	if err != nil {
//	    return err
//	}
//	matches, err := qm.ExecuteQuery(tree, query, source)
type QueryManager struct {
	parserManager *parser.ParserManager
	cache         map[queryKey]*ts.Query
	mutex         sync.RWMutex
	logger        *slog.Logger
}

// NewQueryManager creates a new query manager. Logger can be nil.
func NewQueryManager(pm *parser.ParserManager, logger *slog.Logger) *QueryManager {
	if logger == nil {
		logger = slog.Default()
	}

	return &QueryManager{
		parserManager: pm,
		cache:         make(map[queryKey]*ts.Query),
		logger:        logger,
	}
}

// GetQuery returns the compiled query for a language, grammar variant and
// query type. isTSX is ignored for JavaScript. Safe for concurrent use.
func (qm *QueryManager) GetQuery(lang parser.Language, qtype QueryType, isTSX bool) (*ts.Query, error) {
	if lang != parser.LanguageTypeScript {
		isTSX = false
	}
	key := queryKey{lang: lang, tsx: isTSX, qtype: qtype}

	qm.mutex.RLock()
	query, exists := qm.cache[key]
	qm.mutex.RUnlock()
	if exists {
		return query, nil
	}

	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	// another goroutine may have compiled it meanwhile
	if query, exists = qm.cache[key]; exists {
		return query, nil
	}

	queryString, err := queryString(lang, qtype)
	if err != nil {
		return nil, err
	}

	langPtr, err := qm.parserManager.GetLanguagePointer(lang, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to get language pointer for %s: %w", lang, err)
	}

	query, qerr := ts.NewQuery(ts.NewLanguage(langPtr), queryString)
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile %s query for %s: %s", qtype, lang, qerr.Message)
	}
	qm.cache[key] = query

	qm.logger.Debug("compiled query",
		"language", lang.String(),
		"tsx", isTSX,
		"type", qtype.String())

	return query, nil
}

func queryString(lang parser.Language, qtype QueryType) (string, error) {
	switch lang {
	case parser.LanguageJavaScript, parser.LanguageTypeScript:
	default:
		return "", fmt.Errorf("unsupported language for %s queries: %s", qtype, lang)
	}
	isTS := lang == parser.LanguageTypeScript

	switch qtype {
	case QueryTypeSymbols:
		if isTS {
			return symbols.TSQueries, nil
		}
		return symbols.JSQueries, nil
	case QueryTypeImports:
		return imports.Queries, nil
	case QueryTypeCalls:
		return calls.Queries, nil
	default:
		return "", fmt.Errorf("unknown query type: %d", qtype)
	}
}

// ExecuteQuery runs a compiled query over the whole tree. Matches come back
// in document order.
func (qm *QueryManager) ExecuteQuery(tree *ts.Tree, query *ts.Query, source []byte) ([]QueryMatch, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is nil")
	}
	if query == nil {
		return nil, fmt.Errorf("query is nil")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	iter := cursor.Matches(query, tree.RootNode(), source)
	captureNames := query.CaptureNames()

	var matches []QueryMatch
	for {
		match := iter.Next()
		if match == nil {
			break
		}

		var captures []QueryCapture
		for _, capture := range match.Captures {
			var captureName string
			if int(capture.Index) < len(captureNames) {
				captureName = captureNames[capture.Index]
			}
			// predicate helpers like @_require are not results
			if strings.HasPrefix(captureName, "_") {
				continue
			}

			category, field := parseCaptureName(captureName)
			node := capture.Node
			captures = append(captures, QueryCapture{
				Name:     captureName,
				Category: category,
				Field:    field,
				Node:     &node,
				Text:     node.Utf8Text(source),
				Location: nodeLocation(&node),
			})
		}

		matches = append(matches, QueryMatch{
			PatternIndex: uint32(match.PatternIndex),
			Captures:     captures,
		})
	}

	return matches, nil
}

// Close releases all compiled queries. The manager cannot be used after.
func (qm *QueryManager) Close() error {
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	qm.logger.Debug("closing QueryManager", "queries_compiled", len(qm.cache))

	for key, query := range qm.cache {
		if query != nil {
			query.Close()
		}
		delete(qm.cache, key)
	}
	return nil
}

// QueryMatch is a single pattern match.
type QueryMatch struct {
	// PatternIndex identifies which query pattern matched
	PatternIndex uint32
	Captures     []QueryCapture
}

// Capture returns the first capture with the given full name.
func (m QueryMatch) Capture(name string) *QueryCapture {
	for i := range m.Captures {
		if m.Captures[i].Name == name {
			return &m.Captures[i]
		}
	}
	return nil
}

// QueryCapture is one captured node of a match.
type QueryCapture struct {
	// Name is the full capture name, e.g. "function.name"
	Name string
	// Category is the part before the first dot ("function")
	Category string
	// Field is the rest ("name"), or "" when the name has no dot
	Field string

	Node     *ts.Node
	Text     string
	Location Location
}

// Location is a position in source code. Lines and columns are 1-based,
// byte offsets 0-based.
type Location struct {
	StartLine   uint32
	StartColumn uint32
	EndLine     uint32
	EndColumn   uint32
	StartByte   uint32
	EndByte     uint32
}

// parseCaptureName splits "function.name" into ("function", "name").
func parseCaptureName(name string) (category, field string) {
	category, field, _ = strings.Cut(name, ".")
	return category, field
}

func nodeLocation(node *ts.Node) Location {
	start := node.StartPosition()
	end := node.EndPosition()

	return Location{
		StartLine:   uint32(start.Row + 1),
		StartColumn: uint32(start.Column + 1),
		EndLine:     uint32(end.Row + 1),
		EndColumn:   uint32(end.Column + 1),
		StartByte:   uint32(node.StartByte()),
		EndByte:     uint32(node.EndByte()),
	}
}
