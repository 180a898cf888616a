package knowledge

import (
	"sort"

	"github.com/gnana997/quickgen/pkg/extractor"
)

// Builder accumulates per-file results for one run. It is owned by a single
// loop and is not safe for concurrent use.
type Builder struct {
	files map[string]*extractor.FileKnowledge
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{files: make(map[string]*extractor.FileKnowledge)}
}

// Add records fk, replacing anything previously added for the same path.
func (b *Builder) Add(fk *extractor.FileKnowledge) {
	if fk == nil {
		return
	}
	b.files[fk.Path] = fk
}

// Len returns the number of files added.
func (b *Builder) Len() int {
	return len(b.files)
}

// Files returns the recorded paths, sorted.
func (b *Builder) Files() []string {
	paths := make([]string, 0, len(b.files))
	for p := range b.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Build merges everything added so far. Every recorded file gets an entry in
// each per-file map, empty lists included.
func (b *Builder) Build() *Knowledge {
	k := NewKnowledge()

	for _, path := range b.Files() {
		fk := b.files[path]

		k.FileSymbols[path] = orEmpty(fk.Symbols)
		k.FileImports[path] = orEmpty(fk.Imports)
		k.FileExports[path] = orEmpty(fk.Exports)
		k.FunctionCalls[path] = orEmpty(fk.Calls)
		k.SymbolReferences[path] = references(fk)

		for _, sym := range fk.Symbols {
			k.SymbolIndex[SymbolKey(path, sym.Name)] = SymbolRef{Symbol: sym, DefinedIn: path}
		}
	}

	return k
}

// references lists import bindings followed by class inheritance, each in
// document order.
func references(fk *extractor.FileKnowledge) []Reference {
	refs := []Reference{}
	for _, imp := range fk.Imports {
		for _, spec := range imp.Specifiers {
			refs = append(refs, Reference{
				Type:     ReferenceImport,
				Source:   imp.Source,
				Local:    spec.Local,
				Imported: spec.Imported,
				Line:     imp.StartLine,
			})
		}
	}
	for _, sym := range fk.Symbols {
		if sym.Kind == extractor.SymbolKindClass && sym.SuperClass != "" {
			refs = append(refs, Reference{Type: ReferenceExtends, Name: sym.SuperClass, Line: sym.StartLine})
		}
	}
	return refs
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
