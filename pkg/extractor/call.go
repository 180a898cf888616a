package extractor

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/quickgen/pkg/parser/queries"
)

// extractCalls turns call query matches into Calls in document order.
func extractCalls(matches []queries.QueryMatch, source []byte) []Call {
	items := make([]positioned[Call], 0, len(matches))

	for _, match := range matches {
		name := match.Capture("call.name")
		expr := match.Capture("call.expression")
		if name == nil || expr == nil {
			continue
		}

		call := Call{
			Name:      name.Text,
			Arguments: []string{},
			Context:   callContext(expr.Node, source),
			Line:      line(expr.Node),
			EndLine:   endLine(expr.Node),
		}
		if args := match.Capture("call.arguments"); args != nil {
			for _, arg := range namedChildren(args.Node) {
				call.Arguments = append(call.Arguments, argumentName(arg, source))
			}
		}
		items = append(items, positioned[Call]{start: expr.Node.StartByte(), value: call})
	}

	return inDocumentOrder(items)
}

// expressionTypes names argument expressions the way ESTree does, so the
// recorded call lists read the same regardless of grammar.
var expressionTypes = map[string]string{
	"string":                   "StringLiteral",
	"template_string":          "TemplateLiteral",
	"number":                   "NumericLiteral",
	"true":                     "BooleanLiteral",
	"false":                    "BooleanLiteral",
	"null":                     "NullLiteral",
	"regex":                    "RegExpLiteral",
	"arrow_function":           "ArrowFunctionExpression",
	"function_expression":      "FunctionExpression",
	"function":                 "FunctionExpression",
	"generator_function":       "FunctionExpression",
	"object":                   "ObjectExpression",
	"array":                    "ArrayExpression",
	"call_expression":          "CallExpression",
	"new_expression":           "NewExpression",
	"member_expression":        "MemberExpression",
	"subscript_expression":     "MemberExpression",
	"unary_expression":         "UnaryExpression",
	"update_expression":        "UpdateExpression",
	"ternary_expression":       "ConditionalExpression",
	"assignment_expression":    "AssignmentExpression",
	"spread_element":           "SpreadElement",
	"jsx_element":              "JSXElement",
	"jsx_self_closing_element": "JSXElement",
	"await_expression":         "AwaitExpression",
	"yield_expression":         "YieldExpression",
	"this":                     "ThisExpression",
	"super":                    "Super",
	"class":                    "ClassExpression",
	"sequence_expression":      "SequenceExpression",
	"as_expression":            "TSAsExpression",
	"satisfies_expression":     "TSSatisfiesExpression",
	"non_null_expression":      "TSNonNullExpression",
}

// argumentName is the identifier name of a call argument, or the type of
// its expression.
func argumentName(arg *ts.Node, source []byte) string {
	for arg.Kind() == "parenthesized_expression" && arg.NamedChildCount() > 0 {
		arg = arg.NamedChild(0)
	}

	switch arg.Kind() {
	case "identifier", "undefined":
		return arg.Utf8Text(source)
	case "augmented_assignment_expression":
		return "AssignmentExpression"
	case "binary_expression":
		if op := arg.ChildByFieldName("operator"); op != nil {
			switch op.Kind() {
			case "&&", "||", "??":
				return "LogicalExpression"
			}
		}
		return "BinaryExpression"
	case "jsx_element", "jsx_self_closing_element":
		if arg.Kind() == "jsx_element" {
			if open := arg.ChildByFieldName("open_tag"); open != nil && open.ChildByFieldName("name") == nil {
				return "JSXFragment"
			}
		}
	}

	if name, ok := expressionTypes[arg.Kind()]; ok {
		return name
	}
	return camelKind(arg.Kind())
}

// camelKind renders an unmapped node kind such as "class_expression" as
// "ClassExpression".
func camelKind(kind string) string {
	var b strings.Builder
	for _, part := range strings.Split(kind, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// callContext returns the name of the nearest enclosing named function. An
// anonymous function counts as named when it is bound to a variable or a
// class field; other anonymous functions are looked through.
func callContext(n *ts.Node, source []byte) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "function_declaration", "generator_function_declaration", "method_definition":
			if name := p.ChildByFieldName("name"); name != nil {
				return name.Utf8Text(source)
			}

		case "function_expression", "function", "generator_function", "arrow_function":
			if name := p.ChildByFieldName("name"); name != nil {
				return name.Utf8Text(source)
			}
			if name := bindingName(p, source); name != "" {
				return name
			}
		}
	}
	return GlobalContext
}

func bindingName(fn *ts.Node, source []byte) string {
	parent := fn.Parent()
	if parent == nil {
		return ""
	}
	var name *ts.Node
	switch parent.Kind() {
	case "variable_declarator":
		name = parent.ChildByFieldName("name")
		if name != nil && name.Kind() != "identifier" {
			return ""
		}
	case "field_definition":
		name = parent.ChildByFieldName("property")
	case "public_field_definition":
		name = parent.ChildByFieldName("name")
	}
	if name == nil {
		return ""
	}
	return name.Utf8Text(source)
}
