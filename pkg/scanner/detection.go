package scanner

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// DefaultWrappers are the higher-order functions whose first argument is
// treated as the wrapped component.
var DefaultWrappers = []string{"memo", "forwardRef", "React.memo", "React.forwardRef"}

// maxClassifyDepth bounds the classifier/wrapper recursion. Each step already
// descends into a strict sub-node, so this only guards pathological input.
const maxClassifyDepth = 256

// ContainsJSX reports whether the expression can evaluate to JSX markup:
// an element, fragment or text node, possibly reached through ternary
// branches, logical operands, sequence operands or parentheses.
func ContainsJSX(n *ts.Node) bool {
	switch kindOf(n) {
	case kindJSX, kindJSXText:
		return true
	case kindTernary:
		return ContainsJSX(n.ChildByFieldName("consequence")) ||
			ContainsJSX(n.ChildByFieldName("alternative"))
	case kindBinary:
		if !isLogicalOperator(n) {
			return false
		}
		return ContainsJSX(n.ChildByFieldName("left")) ||
			ContainsJSX(n.ChildByFieldName("right"))
	case kindSequence:
		for _, operand := range namedChildren(n) {
			if ContainsJSX(operand) {
				return true
			}
		}
		return false
	case kindParenthesized:
		return ContainsJSX(firstNamedChild(n))
	default:
		return false
	}
}

func isLogicalOperator(n *ts.Node) bool {
	op := n.ChildByFieldName("operator")
	if op == nil {
		return false
	}
	switch op.Kind() {
	case "&&", "||", "??":
		return true
	default:
		return false
	}
}

// Classifier decides whether function-like nodes are components.
type Classifier struct {
	wrappers map[string]bool
}

// NewClassifier creates a classifier recognising the given wrapper names
// ("memo", "React.memo", ...). A nil list selects DefaultWrappers.
func NewClassifier(wrappers []string) *Classifier {
	if wrappers == nil {
		wrappers = DefaultWrappers
	}
	c := &Classifier{wrappers: make(map[string]bool, len(wrappers))}
	for _, w := range wrappers {
		c.wrappers[w] = true
	}
	return c
}

// IsComponent reports whether fn is a component. An expression body must be
// JSX or a recognised wrapper call; a block body must contain a reachable
// return of either.
func (c *Classifier) IsComponent(fn *ts.Node, src []byte) bool {
	return c.isComponent(fn, src, 0)
}

// IsWrappedComponent reports whether expr is a call to an allow-listed
// wrapper whose first argument is a component.
func (c *Classifier) IsWrappedComponent(expr *ts.Node, src []byte) bool {
	return c.isWrapped(expr, src, 0)
}

// WrappedFunction returns the function-like node inside a chain of wrapper
// calls (memo(forwardRef(fn)) yields fn), or nil.
func (c *Classifier) WrappedFunction(expr *ts.Node, src []byte) *ts.Node {
	for depth := 0; depth < maxClassifyDepth; depth++ {
		expr = unwrapParens(expr)
		if kindOf(expr) != kindCall || !c.wrappers[calleeName(expr, src)] {
			return nil
		}
		arg := unwrapParens(firstNamedChild(expr.ChildByFieldName("arguments")))
		if isFunctionLike(arg) {
			return arg
		}
		expr = arg
	}
	return nil
}

func (c *Classifier) isComponent(n *ts.Node, src []byte, depth int) bool {
	if depth > maxClassifyDepth {
		return false
	}
	fn, ok := functionParts(n)
	if !ok {
		return false
	}
	if fn.exprBody {
		return ContainsJSX(fn.body) || c.isWrapped(fn.body, src, depth+1)
	}
	return c.blockReturnsJSX(fn.body, src, depth+1)
}

func (c *Classifier) isWrapped(n *ts.Node, src []byte, depth int) bool {
	if depth > maxClassifyDepth {
		return false
	}
	n = unwrapParens(n)
	if kindOf(n) != kindCall || !c.wrappers[calleeName(n, src)] {
		return false
	}

	arg := unwrapParens(firstNamedChild(n.ChildByFieldName("arguments")))
	switch {
	case isFunctionLike(arg):
		return c.isComponent(arg, src, depth+1)
	case kindOf(arg) == kindCall:
		// memo(forwardRef(...))
		return c.isWrapped(arg, src, depth+1)
	default:
		return false
	}
}

// blockReturnsJSX searches a statement list for a return of JSX. Only the
// shapes handled by statementReturnsJSX are searched; anything else (try
// blocks, labels, returns hidden in nested callbacks) is not a match.
func (c *Classifier) blockReturnsJSX(block *ts.Node, src []byte, depth int) bool {
	for _, stmt := range namedChildren(block) {
		if c.statementReturnsJSX(stmt, src, depth) {
			return true
		}
	}
	return false
}

func (c *Classifier) statementReturnsJSX(stmt *ts.Node, src []byte, depth int) bool {
	if depth > maxClassifyDepth {
		return false
	}

	switch kindOf(stmt) {
	case kindReturn:
		value := firstNamedChild(stmt)
		return ContainsJSX(value) || c.isWrapped(value, src, depth+1)

	case kindIf:
		return c.branchReturnsJSX(stmt.ChildByFieldName("consequence"), src, depth+1) ||
			c.branchReturnsJSX(stmt.ChildByFieldName("alternative"), src, depth+1)

	case kindLoop:
		body := stmt.ChildByFieldName("body")
		if kindOf(body) != kindStatementBlock {
			return false
		}
		return c.blockReturnsJSX(body, src, depth+1)

	case kindSwitch:
		for _, clause := range namedChildren(stmt.ChildByFieldName("body")) {
			// case values are expressions and fall through to the default arm
			if c.blockReturnsJSX(clause, src, depth+1) {
				return true
			}
		}
		return false

	default:
		return false
	}
}

// branchReturnsJSX handles an if/else arm: a block, a lone return, a nested
// if, or an else clause wrapping one of those.
func (c *Classifier) branchReturnsJSX(branch *ts.Node, src []byte, depth int) bool {
	switch kindOf(branch) {
	case kindStatementBlock:
		return c.blockReturnsJSX(branch, src, depth+1)
	case kindElse:
		return c.branchReturnsJSX(firstNamedChild(branch), src, depth+1)
	case kindReturn, kindIf:
		return c.statementReturnsJSX(branch, src, depth+1)
	default:
		return false
	}
}
