package extractor

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/quickgen/pkg/parser/queries"
)

// extractImports reads each matched import statement. Imports are recorded
// syntactically; nothing is resolved against other files.
func extractImports(matches []queries.QueryMatch, source []byte) []Import {
	items := make([]positioned[Import], 0)

	for _, match := range matches {
		stmt := match.Capture("import.statement")
		src := match.Capture("import.source")
		if stmt == nil || src == nil {
			continue
		}

		imp := Import{
			Source:     unquote(src.Text),
			Specifiers: []Specifier{},
			StartLine:  line(stmt.Node),
			EndLine:    endLine(stmt.Node),
		}
		for _, child := range namedChildren(stmt.Node) {
			if child.Kind() == "import_clause" {
				imp.Specifiers = append(imp.Specifiers, importSpecifiers(child, source)...)
			}
		}
		items = append(items, positioned[Import]{start: stmt.Node.StartByte(), value: imp})
	}

	return inDocumentOrder(items)
}

func importSpecifiers(clause *ts.Node, source []byte) []Specifier {
	var specs []Specifier
	for _, part := range namedChildren(clause) {
		switch part.Kind() {
		case "identifier":
			// import React from "react"
			name := part.Utf8Text(source)
			specs = append(specs, Specifier{Type: ImportDefaultSpecifier, Local: name, Imported: name})

		case "namespace_import":
			// import * as utils from "./utils"
			for _, id := range namedChildren(part) {
				if id.Kind() == "identifier" {
					name := id.Utf8Text(source)
					specs = append(specs, Specifier{Type: ImportNamespaceSpecifier, Local: name, Imported: name})
				}
			}

		case "named_imports":
			// import { a, b as c } from "m"
			for _, spec := range namedChildren(part) {
				if spec.Kind() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				if name == nil {
					continue
				}
				imported := unquote(name.Utf8Text(source))
				local := imported
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = alias.Utf8Text(source)
				}
				specs = append(specs, Specifier{Type: ImportSpecifier, Local: local, Imported: imported})
			}
		}
	}
	return specs
}

// extractExports reads each matched export statement into one Export per
// exported name.
func extractExports(matches []queries.QueryMatch, source []byte) []Export {
	items := make([]positioned[Export], 0)

	for _, match := range matches {
		stmt := match.Capture("export.statement")
		if stmt == nil {
			continue
		}
		for _, exp := range exportsOf(stmt.Node, source) {
			items = append(items, positioned[Export]{start: stmt.Node.StartByte(), value: exp})
		}
	}

	return inDocumentOrder(items)
}

func exportsOf(stmt *ts.Node, source []byte) []Export {
	at := line(stmt)
	isDefault := hasToken(stmt, "default")

	from := ""
	if src := stmt.ChildByFieldName("source"); src != nil {
		from = unquote(src.Utf8Text(source))
	}

	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		names := declaredNames(decl, source)
		if isDefault {
			local := ""
			if len(names) > 0 {
				local = names[0]
			}
			return []Export{{Name: "default", Local: local, Default: true, Line: at}}
		}
		exports := make([]Export, 0, len(names))
		for _, name := range names {
			exports = append(exports, Export{Name: name, Local: name, Line: at})
		}
		return exports
	}

	if value := stmt.ChildByFieldName("value"); value != nil {
		exp := Export{Name: "default", Default: true, Line: at}
		switch value.Kind() {
		case "identifier":
			exp.Local = value.Utf8Text(source)
		case "function_expression", "function", "class":
			if name := value.ChildByFieldName("name"); name != nil {
				exp.Local = name.Utf8Text(source)
			}
		}
		return []Export{exp}
	}

	var exports []Export
	for _, child := range namedChildren(stmt) {
		switch child.Kind() {
		case "export_clause":
			for _, spec := range namedChildren(child) {
				if spec.Kind() != "export_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				if name == nil {
					continue
				}
				local := unquote(name.Utf8Text(source))
				exported := local
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					exported = unquote(alias.Utf8Text(source))
				}
				exports = append(exports, Export{Name: exported, Local: local, Default: exported == "default", Source: from, Line: at})
			}

		case "namespace_export":
			// export * as ns from "m"
			for _, id := range namedChildren(child) {
				exports = append(exports, Export{Name: unquote(id.Utf8Text(source)), Local: "*", Source: from, Line: at})
			}
		}
	}

	if exports == nil && from != "" {
		// export * from "m"
		exports = append(exports, Export{Name: "*", Source: from, Line: at})
	}
	return exports
}

// declaredNames lists the names introduced by an exported declaration.
func declaredNames(decl *ts.Node, source []byte) []string {
	switch decl.Kind() {
	case "lexical_declaration", "variable_declaration":
		var names []string
		for _, d := range namedChildren(decl) {
			if d.Kind() != "variable_declarator" {
				continue
			}
			if name := d.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
				names = append(names, name.Utf8Text(source))
			}
		}
		return names
	default:
		if name := decl.ChildByFieldName("name"); name != nil {
			return []string{name.Utf8Text(source)}
		}
		return nil
	}
}
