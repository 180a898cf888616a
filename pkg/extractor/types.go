// Package extractor collects the per-file facts of the knowledge base:
// declared symbols, imports, exports and call sites.
package extractor

// FileKnowledge is everything recorded for one source file. It is written
// once per scan and replaced wholesale on the next.
type FileKnowledge struct {
	// Path is relative to the scan root, slash-separated
	Path     string   `json:"path"`
	Language string   `json:"language"`
	Symbols  []Symbol `json:"symbols"`
	Imports  []Import `json:"imports"`
	Exports  []Export `json:"exports"`
	Calls    []Call   `json:"calls"`
}

// SymbolKind identifies the kind of declaration.
type SymbolKind string

const (
	SymbolKindClass     SymbolKind = "class"
	SymbolKindFunction  SymbolKind = "function"
	SymbolKindVariable  SymbolKind = "variable"
	SymbolKindInterface SymbolKind = "interface"
	SymbolKindType      SymbolKind = "type"
	SymbolKindEnum      SymbolKind = "enum"
)

// Symbol is a declaration. Lines are 1-based and inclusive.
type Symbol struct {
	Kind      SymbolKind `json:"kind"`
	Name      string     `json:"name"`
	StartLine int        `json:"startLine"`
	EndLine   int        `json:"endLine"`
	Exported  bool       `json:"exported"`

	// Declaration is const, let or var for variables
	Declaration string   `json:"declaration,omitempty"`
	Params      []string `json:"params,omitempty"`
	Async       bool     `json:"async,omitempty"`
	Generator   bool     `json:"generator,omitempty"`
	SuperClass  string   `json:"superClass,omitempty"`
	Methods     []string `json:"methods,omitempty"`
	Properties  []string `json:"properties,omitempty"`
}

// SpecifierType names an import binding form.
type SpecifierType string

const (
	ImportSpecifier          SpecifierType = "ImportSpecifier"
	ImportDefaultSpecifier   SpecifierType = "ImportDefaultSpecifier"
	ImportNamespaceSpecifier SpecifierType = "ImportNamespaceSpecifier"
)

// Import is one import statement.
type Import struct {
	Source     string      `json:"source"`
	Specifiers []Specifier `json:"specifiers"`
	StartLine  int         `json:"startLine"`
	EndLine    int         `json:"endLine"`
}

// Specifier binds Local to Imported. Default and namespace imports have no
// imported name of their own, so Imported repeats Local.
type Specifier struct {
	Type     SpecifierType `json:"type"`
	Local    string        `json:"local"`
	Imported string        `json:"imported"`
}

// Export is one exported name.
//
//	export const a = 1            {Name: a, Local: a}
//	export { a as b }             {Name: b, Local: a}
//	export { x } from "m"         {Name: x, Local: x, Source: m}
//	export * from "m"             {Name: *, Source: m}
//	export default function F()   {Name: default, Local: F, Default: true}
//	export default () => {}       {Name: default, Default: true}
type Export struct {
	Name    string `json:"name"`
	Local   string `json:"local,omitempty"`
	Default bool   `json:"default,omitempty"`
	Source  string `json:"source,omitempty"`
	Line    int    `json:"line"`
}

// GlobalContext is the Call.Context of calls outside any named function.
const GlobalContext = "global"

// Call is a call site.
type Call struct {
	// Name is the callee identifier, or the property of a member callee
	Name string `json:"name"`
	// Arguments holds the identifier name of each argument, or its
	// expression type (StringLiteral, ArrowFunctionExpression, ...)
	Arguments []string `json:"arguments"`
	// Context is the nearest enclosing named function, or GlobalContext
	Context string `json:"context"`
	Line    int    `json:"line"`
	EndLine int    `json:"endLine"`
}
