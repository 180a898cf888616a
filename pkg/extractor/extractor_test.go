package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/quickgen/pkg/parser"
	"github.com/gnana997/quickgen/pkg/parser/queries"
	"github.com/gnana997/quickgen/pkg/util"
)

func setupExtractor(t *testing.T) *Extractor {
	t.Helper()
	pm := parser.NewParserManager(util.NopLogger())
	qm := queries.NewQueryManager(pm, util.NopLogger())
	t.Cleanup(func() {
		qm.Close()
		pm.Close()
	})
	return NewExtractor(pm, qm, util.NopLogger())
}

func extract(t *testing.T, path, src string) *FileKnowledge {
	t.Helper()
	fk, err := setupExtractor(t).ExtractFile(path, path, []byte(src))
	require.NoError(t, err)
	require.NotNil(t, fk)
	return fk
}

func symbolByName(t *testing.T, fk *FileKnowledge, name string) Symbol {
	t.Helper()
	for _, s := range fk.Symbols {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("symbol %q not found in %v", name, fk.Symbols)
	return Symbol{}
}

func TestExtractFile_HookCallInsideComponent(t *testing.T) {
	src := `import { useState } from "react";

function App() {
  const [n, setN] = useState(0);
  return <div>{n}</div>;
}
`
	fk := extract(t, "src/App.jsx", src)

	assert.Equal(t, "src/App.jsx", fk.Path)
	assert.Equal(t, "javascript", fk.Language)

	require.Len(t, fk.Imports, 1)
	assert.Equal(t, "react", fk.Imports[0].Source)
	assert.Equal(t, []Specifier{{Type: ImportSpecifier, Local: "useState", Imported: "useState"}}, fk.Imports[0].Specifiers)
	assert.Equal(t, 1, fk.Imports[0].StartLine)

	require.Len(t, fk.Calls, 1)
	call := fk.Calls[0]
	assert.Equal(t, "useState", call.Name)
	assert.Equal(t, "App", call.Context)
	assert.Equal(t, []string{"NumericLiteral"}, call.Arguments)
	assert.Equal(t, 4, call.Line)
}

func TestExtractFile_Symbols(t *testing.T) {
	src := `class Base {}
export class Store extends Base {
  items = [];
  add(item) { this.items.push(item); }
  get size() { return this.items.length; }
}

export async function load(url, { retries = 3 } = {}, ...rest) {}
function* ids(start = 0) {}
const a = 1, b = () => {};
let c;
var d = 2;
`
	fk := extract(t, "store.js", src)

	var names []string
	for _, s := range fk.Symbols {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Base", "Store", "load", "ids", "a", "b", "c", "d"}, names)

	store := symbolByName(t, fk, "Store")
	assert.Equal(t, SymbolKindClass, store.Kind)
	assert.True(t, store.Exported)
	assert.Equal(t, "Base", store.SuperClass)
	assert.Equal(t, []string{"add", "size"}, store.Methods)
	assert.Equal(t, []string{"items"}, store.Properties)
	assert.Equal(t, 2, store.StartLine)
	assert.Equal(t, 6, store.EndLine)

	base := symbolByName(t, fk, "Base")
	assert.False(t, base.Exported)
	assert.Empty(t, base.SuperClass)

	load := symbolByName(t, fk, "load")
	assert.Equal(t, SymbolKindFunction, load.Kind)
	assert.True(t, load.Async)
	assert.False(t, load.Generator)
	assert.True(t, load.Exported)
	assert.Equal(t, []string{"url", "{ retries = 3 }", "...rest"}, load.Params)

	ids := symbolByName(t, fk, "ids")
	assert.True(t, ids.Generator)
	assert.Equal(t, []string{"start"}, ids.Params)

	assert.Equal(t, "const", symbolByName(t, fk, "a").Declaration)
	assert.Equal(t, "const", symbolByName(t, fk, "b").Declaration)
	assert.Equal(t, "let", symbolByName(t, fk, "c").Declaration)
	assert.Equal(t, "var", symbolByName(t, fk, "d").Declaration)
	assert.Equal(t, SymbolKindVariable, symbolByName(t, fk, "d").Kind)
}

func TestExtractFile_TypeScriptSymbols(t *testing.T) {
	src := `export interface User { id: string }
type ID = string;
enum Color { Red }
abstract class Base {}
class Service extends Base implements Named {
  private cache: Map<ID, User> = new Map();
  find(id: ID, opts?: { strict: boolean }): User | undefined { return this.cache.get(id); }
}
`
	fk := extract(t, "service.ts", src)
	assert.Equal(t, "typescript", fk.Language)

	assert.Equal(t, SymbolKindInterface, symbolByName(t, fk, "User").Kind)
	assert.True(t, symbolByName(t, fk, "User").Exported)
	assert.Equal(t, SymbolKindType, symbolByName(t, fk, "ID").Kind)
	assert.Equal(t, SymbolKindEnum, symbolByName(t, fk, "Color").Kind)
	assert.Equal(t, SymbolKindClass, symbolByName(t, fk, "Base").Kind)

	svc := symbolByName(t, fk, "Service")
	assert.Equal(t, "Base", svc.SuperClass)
	assert.Equal(t, []string{"find"}, svc.Methods)
	assert.Equal(t, []string{"cache"}, svc.Properties)
}

func TestExtractFile_ImportForms(t *testing.T) {
	src := `import React, { useEffect as useMount, memo } from 'react';
import * as utils from "./utils";
import "./styles.css";
`
	fk := extract(t, "App.jsx", src)
	require.Len(t, fk.Imports, 3)

	assert.Equal(t, []Specifier{
		{Type: ImportDefaultSpecifier, Local: "React", Imported: "React"},
		{Type: ImportSpecifier, Local: "useMount", Imported: "useEffect"},
		{Type: ImportSpecifier, Local: "memo", Imported: "memo"},
	}, fk.Imports[0].Specifiers)

	assert.Equal(t, "./utils", fk.Imports[1].Source)
	assert.Equal(t, []Specifier{{Type: ImportNamespaceSpecifier, Local: "utils", Imported: "utils"}}, fk.Imports[1].Specifiers)

	assert.Equal(t, "./styles.css", fk.Imports[2].Source)
	assert.Empty(t, fk.Imports[2].Specifiers)
	assert.Equal(t, 3, fk.Imports[2].StartLine)
}

func TestExtractFile_ExportForms(t *testing.T) {
	src := `export const a = 1, b = 2;
export function f() {}
const c = 3;
export { c, a as alias };
export { x as y } from "./x";
export * from "./all";
export * as ns from "./ns";
export default c;
`
	fk := extract(t, "mod.js", src)

	assert.Equal(t, []Export{
		{Name: "a", Local: "a", Line: 1},
		{Name: "b", Local: "b", Line: 1},
		{Name: "f", Local: "f", Line: 2},
		{Name: "c", Local: "c", Line: 4},
		{Name: "alias", Local: "a", Line: 4},
		{Name: "y", Local: "x", Source: "./x", Line: 5},
		{Name: "*", Source: "./all", Line: 6},
		{Name: "ns", Local: "*", Source: "./ns", Line: 7},
		{Name: "default", Local: "c", Default: true, Line: 8},
	}, fk.Exports)

	// exported through the clause rather than at the declaration
	assert.True(t, symbolByName(t, fk, "c").Exported)
}

func TestExtractFile_DefaultExports(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		local string
	}{
		{"named function", "export default function Page() {}\n", "Page"},
		{"named class", "export default class Shell {}\n", "Shell"},
		{"anonymous function", "export default function () {}\n", ""},
		{"arrow", "export default () => null;\n", ""},
		{"identifier", "const Card = 1;\nexport default Card;\n", "Card"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fk := extract(t, "index.js", tt.src)
			require.Len(t, fk.Exports, 1)
			assert.Equal(t, "default", fk.Exports[0].Name)
			assert.True(t, fk.Exports[0].Default)
			assert.Equal(t, tt.local, fk.Exports[0].Local)
		})
	}
}

func TestExtractFile_CallArguments(t *testing.T) {
	src := "run(id, 'a', `t`, 1, true, null, undefined, /x/, () => {}, function () {}, {}, [], f(), new X(), a.b, a[0], a + b, a && b, !a, i++, a ? b : c, x = 1, ...xs, (id), <div />, <></>, this);\n"
	fk := extract(t, "args.jsx", src)

	require.NotEmpty(t, fk.Calls)
	assert.Equal(t, "run", fk.Calls[0].Name)
	assert.Equal(t, []string{
		"id", "StringLiteral", "TemplateLiteral", "NumericLiteral", "BooleanLiteral",
		"NullLiteral", "undefined", "RegExpLiteral", "ArrowFunctionExpression",
		"FunctionExpression", "ObjectExpression", "ArrayExpression", "CallExpression",
		"NewExpression", "MemberExpression", "MemberExpression", "BinaryExpression",
		"LogicalExpression", "UnaryExpression", "UpdateExpression", "ConditionalExpression",
		"AssignmentExpression", "SpreadElement", "id", "JSXElement", "JSXFragment",
		"ThisExpression",
	}, fk.Calls[0].Arguments)
}

func TestExtractFile_CallContext(t *testing.T) {
	src := `init();

function outer() {
  a();
  [1].forEach(function () { b(); });
  items.map(() => c());
}

const Widget = () => {
  d();
};

class Api {
  fetchAll() { e(); }
  onClick = () => { f(); };
}

setTimeout(() => g(), 0);
`
	fk := extract(t, "ctx.js", src)

	got := map[string]string{}
	for _, c := range fk.Calls {
		got[c.Name] = c.Context
	}
	assert.Equal(t, map[string]string{
		"init":       GlobalContext,
		"a":          "outer",
		"forEach":    "outer",
		"b":          "outer",
		"map":        "outer",
		"c":          "outer",
		"d":          "Widget",
		"e":          "fetchAll",
		"f":          "onClick",
		"setTimeout": GlobalContext,
		"g":          GlobalContext,
	}, got)
}

func TestExtractFile_CallsInDocumentOrder(t *testing.T) {
	src := "api.users.fetch(1);\nload();\nclient?.close();\n"
	fk := extract(t, "order.js", src)

	var names []string
	for _, c := range fk.Calls {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"fetch", "load", "close"}, names)
}

func TestExtractFile_TSX(t *testing.T) {
	src := `import type { FC } from "react";
type Props = { title: string };
export const Title: FC<Props> = ({ title }) => <h1>{format(title as string)}</h1>;
`
	fk := extract(t, "Title.tsx", src)

	title := symbolByName(t, fk, "Title")
	assert.True(t, title.Exported)
	assert.Equal(t, SymbolKindType, symbolByName(t, fk, "Props").Kind)

	require.Len(t, fk.Calls, 1)
	assert.Equal(t, "format", fk.Calls[0].Name)
	assert.Equal(t, "Title", fk.Calls[0].Context)
	assert.Equal(t, []string{"TSAsExpression"}, fk.Calls[0].Arguments)
}

func TestExtractFile_ParseError(t *testing.T) {
	ext := setupExtractor(t)

	fk, err := ext.ExtractFile("/abs/src/broken.js", "src/broken.js", []byte("const x = ;\n"))
	assert.Nil(t, fk)

	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "src/broken.js", perr.Path)
	assert.Equal(t, uint(1), perr.Line)
}

func TestExtractFile_UnsupportedLanguage(t *testing.T) {
	_, err := setupExtractor(t).ExtractFile("styles.css", "styles.css", []byte("a {}"))
	assert.Error(t, err)
}
