package parser

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// ParseError reports malformed source. Line and Column are 1-based and point
// at the first ERROR or MISSING node in document order.
type ParseError struct {
	Path    string
	Line    uint
	Column  uint
	Message string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

func newParseError(root *ts.Node, source []byte) *ParseError {
	bad := firstErrorNode(root)
	if bad == nil {
		return &ParseError{Line: 1, Column: 1, Message: "syntax error"}
	}

	pos := bad.StartPosition()
	msg := "syntax error"
	if bad.IsMissing() {
		msg = fmt.Sprintf("missing %s", bad.Kind())
	} else if text := strings.TrimSpace(bad.Utf8Text(source)); text != "" {
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		msg = fmt.Sprintf("unexpected %q", text)
	}

	return &ParseError{
		Line:    pos.Row + 1,
		Column:  pos.Column + 1,
		Message: msg,
	}
}

// firstErrorNode descends only into subtrees that report errors.
func firstErrorNode(node *ts.Node) *ts.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
