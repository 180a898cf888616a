// Package knowledge aggregates per-file extraction results into the
// project knowledge base, persists it as JSON documents and answers file
// and symbol queries against it.
package knowledge

import (
	"time"

	"github.com/gnana997/quickgen/pkg/extractor"
)

// ReferenceType distinguishes the relationships recorded per file.
type ReferenceType string

const (
	// ReferenceImport is a name bound by an import specifier
	ReferenceImport ReferenceType = "import"
	// ReferenceExtends is the superclass of a class declared in the file
	ReferenceExtends ReferenceType = "extends"
)

// Reference is one outgoing relationship of a file. Import references carry
// Source/Local/Imported; extends references carry Name.
type Reference struct {
	Type     ReferenceType `json:"type"`
	Source   string        `json:"source,omitempty"`
	Local    string        `json:"local,omitempty"`
	Imported string        `json:"imported,omitempty"`
	Name     string        `json:"name,omitempty"`
	Line     int           `json:"line"`
}

// SymbolRef is a symbol index entry, keyed by "file:name".
type SymbolRef struct {
	extractor.Symbol
	DefinedIn string `json:"definedIn"`
}

// Knowledge is the aggregate of one run. All per-file maps are keyed by the
// slash-separated path relative to the scan root. Nothing is resolved
// across files.
type Knowledge struct {
	SymbolIndex      map[string]SymbolRef          `json:"symbolIndex"`
	FileSymbols      map[string][]extractor.Symbol `json:"fileSymbols"`
	FileImports      map[string][]extractor.Import `json:"fileImports"`
	FileExports      map[string][]extractor.Export `json:"fileExports"`
	SymbolReferences map[string][]Reference        `json:"symbolReferences"`
	FunctionCalls    map[string][]extractor.Call   `json:"functionCalls"`
}

// NewKnowledge returns an empty knowledge base.
func NewKnowledge() *Knowledge {
	return &Knowledge{
		SymbolIndex:      make(map[string]SymbolRef),
		FileSymbols:      make(map[string][]extractor.Symbol),
		FileImports:      make(map[string][]extractor.Import),
		FileExports:      make(map[string][]extractor.Export),
		SymbolReferences: make(map[string][]Reference),
		FunctionCalls:    make(map[string][]extractor.Call),
	}
}

// Manifest describes the run that produced a knowledge directory.
type Manifest struct {
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	// Root is the absolute scan root; snippets are read relative to it
	Root  string   `json:"root"`
	Files []string `json:"files"`
}

// SymbolKey builds the SymbolIndex key for a symbol declared in file.
func SymbolKey(file, name string) string {
	return file + ":" + name
}
