package scanner

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// defaultParamName is used when the first parameter has no simple name.
const defaultParamName = "props"

// AnalyzeProps infers the prop contract of a component from its first
// parameter and fills info.
//
// A destructuring pattern in the parameter list contributes its keys
// directly. A plain identifier parameter becomes info.ParamName, and any
// `const {...} = <param>` in the body contributes its keys. In both cases the
// body is then scanned for `<param>.key` reads and `...<param>` spreads.
// Only the first parameter is considered.
func AnalyzeProps(fnNode *ts.Node, src []byte, info *ComponentInfo) {
	if info.Props == nil {
		info.Props = NewPropSet()
	}
	info.ParamName = defaultParamName

	fn, ok := functionParts(fnNode)
	if !ok {
		return
	}
	param := fn.firstParam()
	if param == nil {
		return
	}

	switch kindOf(param) {
	case kindIdentifier:
		info.ParamName = text(param, src)
		collectBodyDestructuring(fn.body, info.ParamName, src, info)
	case kindObjectPattern:
		collectPatternKeys(param, src, info)
	}

	collectMemberUsage(fn.body, info.ParamName, src, info)
}

// collectPatternKeys adds the keys bound by an object destructuring pattern.
func collectPatternKeys(pattern *ts.Node, src []byte, info *ComponentInfo) {
	for _, prop := range namedChildren(pattern) {
		switch prop.Kind() {
		case "shorthand_property_identifier_pattern":
			info.addProp(text(prop, src))

		case "pair_pattern":
			if key, ok := propertyKey(prop.ChildByFieldName("key"), src); ok {
				info.addProp(key)
			}

		case "object_assignment_pattern":
			// { size = "md" }
			left := prop.ChildByFieldName("left")
			if left != nil && left.Kind() == "shorthand_property_identifier_pattern" {
				info.addProp(text(left, src))
			}

		case "rest_pattern":
			info.HasSpreadProps = true
			if target := firstNamedChild(prop); kindOf(target) == kindIdentifier {
				info.Props.AddRest(text(target, src))
			}
		}
	}
}

// propertyKey resolves a destructuring key: identifiers, string and number
// literals, and computed string literals. Other computed keys are unknown.
func propertyKey(key *ts.Node, src []byte) (string, bool) {
	if key == nil {
		return "", false
	}
	switch key.Kind() {
	case "property_identifier", "identifier", "number":
		return text(key, src), true
	case "string":
		return stringContent(key, src)
	case "computed_property_name":
		return stringContent(firstNamedChild(key), src)
	default:
		return "", false
	}
}

// collectBodyDestructuring finds `const { a, b } = param` declarators.
func collectBodyDestructuring(body *ts.Node, param string, src []byte, info *ComponentInfo) {
	walk(body, func(n *ts.Node) bool {
		if kindOf(n) != kindVariableDeclarator {
			return true
		}
		value := unwrapParens(n.ChildByFieldName("value"))
		name := n.ChildByFieldName("name")
		if kindOf(value) == kindIdentifier && text(value, src) == param && kindOf(name) == kindObjectPattern {
			collectPatternKeys(name, src, info)
		}
		return true
	})
}

// collectMemberUsage records `param.key`, `param?.key`, `param["key"]` and
// marks `...param` spreads.
func collectMemberUsage(body *ts.Node, param string, src []byte, info *ComponentInfo) {
	isParam := func(n *ts.Node) bool {
		return kindOf(n) == kindIdentifier && text(n, src) == param
	}

	walk(body, func(n *ts.Node) bool {
		switch kindOf(n) {
		case kindMemberExpression:
			prop := n.ChildByFieldName("property")
			if isParam(n.ChildByFieldName("object")) && prop != nil && prop.Kind() == "property_identifier" {
				info.addProp(text(prop, src))
			}
		case kindSubscriptExpression:
			if isParam(n.ChildByFieldName("object")) {
				if key, ok := stringContent(n.ChildByFieldName("index"), src); ok {
					info.addProp(key)
				}
			}
		case kindSpreadElement:
			if isParam(firstNamedChild(n)) {
				info.HasSpreadProps = true
			}
		}
		return true
	})
}

// addProp records a plain key. A key may share the parameter's name:
// `({ props })` and `p.p` both read a prop called that.
func (ci *ComponentInfo) addProp(key string) {
	ci.Props.Add(key)
}
