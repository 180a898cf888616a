package extractor

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/quickgen/pkg/parser/queries"
)

// extractSymbols turns symbol query matches into Symbols, in document order.
// Declarations are recorded at any depth, as the declaration visitor of a
// full traversal would see them.
func extractSymbols(matches []queries.QueryMatch, source []byte) []Symbol {
	items := make([]positioned[Symbol], 0, len(matches))

	for _, match := range matches {
		name := findNameCapture(match.Captures)
		if name == nil {
			continue
		}
		decl := match.Capture(name.Category + ".declaration")
		if decl == nil {
			continue
		}

		sym := buildSymbol(SymbolKind(name.Category), name.Text, decl.Node, source)
		items = append(items, positioned[Symbol]{start: decl.Node.StartByte(), value: sym})
	}

	return inDocumentOrder(items)
}

func findNameCapture(captures []queries.QueryCapture) *queries.QueryCapture {
	for i := range captures {
		if captures[i].Field == "name" {
			return &captures[i]
		}
	}
	return nil
}

func buildSymbol(kind SymbolKind, name string, decl *ts.Node, source []byte) Symbol {
	sym := Symbol{
		Kind:      kind,
		Name:      name,
		StartLine: line(decl),
		EndLine:   endLine(decl),
		Exported:  isExported(decl),
	}

	switch kind {
	case SymbolKindFunction:
		sym.Params = parameterNames(decl.ChildByFieldName("parameters"), source)
		sym.Async = hasToken(decl, "async")
		sym.Generator = decl.Kind() == "generator_function_declaration"

	case SymbolKindVariable:
		// the declarator's parent carries the keyword
		if parent := decl.Parent(); parent != nil {
			switch parent.Kind() {
			case "lexical_declaration":
				if kw := parent.ChildByFieldName("kind"); kw != nil {
					sym.Declaration = kw.Utf8Text(source)
				}
			case "variable_declaration":
				sym.Declaration = "var"
			}
		}

	case SymbolKindClass:
		sym.SuperClass = superClass(decl, source)
		sym.Methods, sym.Properties = classMembers(decl.ChildByFieldName("body"), source)
	}

	return sym
}

// isExported reports whether the declaration sits directly in an export
// statement (`export function f`, `export const a = 1`).
func isExported(decl *ts.Node) bool {
	parent := decl.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "export_statement" {
		return true
	}
	if parent.Kind() == "lexical_declaration" || parent.Kind() == "variable_declaration" {
		grandparent := parent.Parent()
		return grandparent != nil && grandparent.Kind() == "export_statement"
	}
	return false
}

// parameterNames renders each parameter as its binding name; destructuring
// patterns are kept as written.
func parameterNames(params *ts.Node, source []byte) []string {
	var names []string
	for _, p := range namedChildren(params) {
		for {
			switch p.Kind() {
			case "required_parameter", "optional_parameter":
				if pattern := p.ChildByFieldName("pattern"); pattern != nil {
					p = pattern
					continue
				}
			case "assignment_pattern":
				if left := p.ChildByFieldName("left"); left != nil {
					p = left
					continue
				}
			}
			break
		}
		names = append(names, p.Utf8Text(source))
	}
	return names
}

// superClass returns the extended class expression of a class declaration.
// JavaScript puts the expression directly under class_heritage; TypeScript
// wraps it in an extends_clause.
func superClass(decl *ts.Node, source []byte) string {
	for _, child := range namedChildren(decl) {
		if child.Kind() != "class_heritage" {
			continue
		}
		for _, h := range namedChildren(child) {
			switch h.Kind() {
			case "extends_clause":
				if value := h.ChildByFieldName("value"); value != nil {
					return value.Utf8Text(source)
				}
			case "implements_clause":
			default:
				return h.Utf8Text(source)
			}
		}
	}
	return ""
}

func classMembers(body *ts.Node, source []byte) (methods, properties []string) {
	for _, member := range namedChildren(body) {
		switch member.Kind() {
		case "method_definition":
			if name := member.ChildByFieldName("name"); name != nil {
				methods = append(methods, name.Utf8Text(source))
			}
		case "field_definition":
			if prop := member.ChildByFieldName("property"); prop != nil {
				properties = append(properties, prop.Utf8Text(source))
			}
		case "public_field_definition":
			if name := member.ChildByFieldName("name"); name != nil {
				properties = append(properties, name.Utf8Text(source))
			}
		}
	}
	return methods, properties
}
