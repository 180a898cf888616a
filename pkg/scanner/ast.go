package scanner

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// nodeKind is the closed set of syntax shapes the component core reasons
// about. Every other grammar node maps to kindOther.
type nodeKind int

const (
	kindOther nodeKind = iota
	kindJSX
	kindJSXText
	kindTernary
	kindBinary
	kindSequence
	kindParenthesized
	kindCall
	kindArrowFunction
	kindFunctionExpression
	kindFunctionDeclaration
	kindMethod
	kindStatementBlock
	kindReturn
	kindIf
	kindElse
	kindLoop
	kindSwitch
	kindVariableDeclarator
	kindVariableDeclaration
	kindExport
	kindComment
	kindIdentifier
	kindMemberExpression
	kindSubscriptExpression
	kindSpreadElement
	kindObjectPattern
	kindString
)

var grammarKinds = map[string]nodeKind{
	"jsx_element":                    kindJSX,
	"jsx_self_closing_element":       kindJSX,
	"jsx_fragment":                   kindJSX,
	"jsx_text":                       kindJSXText,
	"ternary_expression":             kindTernary,
	"binary_expression":              kindBinary,
	"sequence_expression":            kindSequence,
	"parenthesized_expression":       kindParenthesized,
	"call_expression":                kindCall,
	"arrow_function":                 kindArrowFunction,
	"function_expression":            kindFunctionExpression,
	"function":                       kindFunctionExpression,
	"generator_function":             kindFunctionExpression,
	"function_declaration":           kindFunctionDeclaration,
	"generator_function_declaration": kindFunctionDeclaration,
	"method_definition":              kindMethod,
	"statement_block":                kindStatementBlock,
	"return_statement":               kindReturn,
	"if_statement":                   kindIf,
	"else_clause":                    kindElse,
	"for_statement":                  kindLoop,
	"for_in_statement":               kindLoop,
	"while_statement":                kindLoop,
	"do_statement":                   kindLoop,
	"switch_statement":               kindSwitch,
	"variable_declarator":            kindVariableDeclarator,
	"lexical_declaration":            kindVariableDeclaration,
	"variable_declaration":           kindVariableDeclaration,
	"export_statement":               kindExport,
	"comment":                        kindComment,
	"identifier":                     kindIdentifier,
	"member_expression":              kindMemberExpression,
	"subscript_expression":           kindSubscriptExpression,
	"spread_element":                 kindSpreadElement,
	"object_pattern":                 kindObjectPattern,
	"string":                         kindString,
}

func kindOf(n *ts.Node) nodeKind {
	if n == nil {
		return kindOther
	}
	return grammarKinds[n.Kind()]
}

// isFunctionLike reports whether n has a parameter list and a body.
func isFunctionLike(n *ts.Node) bool {
	switch kindOf(n) {
	case kindArrowFunction, kindFunctionExpression, kindFunctionDeclaration, kindMethod:
		return true
	default:
		return false
	}
}

// function is the capability view of a function-like node.
type function struct {
	node     *ts.Node
	name     *ts.Node // nil for anonymous functions
	params   []*ts.Node
	body     *ts.Node
	exprBody bool
}

func functionParts(n *ts.Node) (function, bool) {
	if !isFunctionLike(n) {
		return function{}, false
	}

	fn := function{node: n, name: n.ChildByFieldName("name"), body: n.ChildByFieldName("body")}
	if fn.body == nil {
		return function{}, false
	}
	fn.exprBody = kindOf(fn.body) != kindStatementBlock

	// `x => ...` has a bare identifier in the "parameter" field
	if single := n.ChildByFieldName("parameter"); single != nil {
		fn.params = []*ts.Node{single}
	} else if list := n.ChildByFieldName("parameters"); list != nil {
		fn.params = namedChildren(list)
	}
	return fn, true
}

// firstParam returns the binding pattern of the first parameter with default
// values and TypeScript annotations peeled off.
func (f function) firstParam() *ts.Node {
	if len(f.params) == 0 {
		return nil
	}
	return bindingPattern(f.params[0])
}

func bindingPattern(p *ts.Node) *ts.Node {
	for p != nil {
		switch p.Kind() {
		case "required_parameter", "optional_parameter":
			p = p.ChildByFieldName("pattern")
		case "assignment_pattern":
			p = p.ChildByFieldName("left")
		default:
			return p
		}
	}
	return nil
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *ts.Node) []*ts.Node {
	if n == nil {
		return nil
	}
	count := n.NamedChildCount()
	out := make([]*ts.Node, 0, count)
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || kindOf(child) == kindComment {
			continue
		}
		out = append(out, child)
	}
	return out
}

func firstNamedChild(n *ts.Node) *ts.Node {
	if children := namedChildren(n); len(children) > 0 {
		return children[0]
	}
	return nil
}

// unwrapParens strips any number of enclosing parentheses.
func unwrapParens(n *ts.Node) *ts.Node {
	for kindOf(n) == kindParenthesized {
		n = firstNamedChild(n)
	}
	return n
}

// walk visits n and its descendants in document order. Returning false from
// visit skips the node's children.
func walk(n *ts.Node, visit func(*ts.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		walk(n.NamedChild(i), visit)
	}
}

// text returns the source text of n, or "" when n is nil or lies outside
// src.
func text(n *ts.Node, src []byte) string {
	if n == nil || int(n.EndByte()) > len(src) {
		return ""
	}
	return n.Utf8Text(src)
}

// stringContent returns the value of a string literal node without quotes.
func stringContent(n *ts.Node, src []byte) (string, bool) {
	if kindOf(n) != kindString {
		return "", false
	}
	raw := text(n, src)
	if len(raw) < 2 {
		return "", false
	}
	return raw[1 : len(raw)-1], true
}

// calleeName renders a call's callee as "name" or "object.property".
// Anything more complex yields "".
func calleeName(call *ts.Node, src []byte) string {
	callee := unwrapParens(call.ChildByFieldName("function"))
	switch kindOf(callee) {
	case kindIdentifier:
		return text(callee, src)
	case kindMemberExpression:
		obj := callee.ChildByFieldName("object")
		prop := callee.ChildByFieldName("property")
		if kindOf(obj) != kindIdentifier || prop == nil {
			return ""
		}
		return text(obj, src) + "." + text(prop, src)
	default:
		return ""
	}
}

// lineIndent returns the whitespace between the start of offset's line and
// offset, or "" when anything else precedes offset on that line.
func lineIndent(src []byte, offset int) string {
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	prefix := string(src[start:offset])
	if strings.TrimLeft(prefix, " \t") != "" {
		return ""
	}
	return prefix
}
