package scanner

import (
	"fmt"
	"log/slog"
	"time"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/quickgen/pkg/jsdoc"
	"github.com/gnana997/quickgen/pkg/rewrite"
)

// CollectOptions tunes documentation output.
type CollectOptions struct {
	// Wrappers is the higher-order allow-list; nil selects DefaultWrappers.
	Wrappers []string
	// Timestamp adds an @generated line to each block.
	Timestamp bool
	// SkipEmptyProps suppresses blocks for components with no inferred props
	// and no spread.
	SkipEmptyProps bool
	// Now overrides the timestamp clock.
	Now func() time.Time
}

// SkipReason says why a recognised component produced no insertion.
type SkipReason string

const (
	SkipAnnotated       SkipReason = "annotated"
	SkipNoProps         SkipReason = "no-props"
	SkipMissingLocation SkipReason = "missing-location"
	SkipNested          SkipReason = "nested"
)

// SkippedCandidate is a component that was recognised but not documented.
type SkippedCandidate struct {
	Name   string     `json:"name"`
	Line   int        `json:"line"`
	Reason SkipReason `json:"reason"`
}

// CollectResult is the outcome for one file.
type CollectResult struct {
	Insertions []rewrite.Insertion
	Components []*ComponentInfo
	Skipped    []SkippedCandidate
}

// Collector finds documentable components in a parsed file and produces
// the insertions that document them.
type Collector struct {
	classifier *Classifier
	opts       CollectOptions
	log        *slog.Logger
}

// NewCollector creates a collector.
func NewCollector(opts CollectOptions, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		classifier: NewClassifier(opts.Wrappers),
		opts:       opts,
		log:        logger,
	}
}

// Classifier exposes the collector's classifier.
func (c *Collector) Classifier() *Classifier {
	return c.classifier
}

// candidate is a declaration form that may hold a component.
type candidate struct {
	name    string
	kind    ComponentKind
	node    *ts.Node // function-like node, or the wrapper call when wrapped
	anchor  *ts.Node // outermost statement the block is attached above
	wrapped bool
}

// fileState is the accumulator for one Collect call.
type fileState struct {
	src    []byte
	result *CollectResult
}

// Collect walks the tree once. Components are recognised at function
// declarations, variables bound to functions or wrapper calls, and default
// exports. The walk never enters a component, so components nested inside
// another component are not documented separately.
func (c *Collector) Collect(root *ts.Node, src []byte) (*CollectResult, error) {
	if root == nil {
		return nil, fmt.Errorf("collect: nil tree")
	}
	st := &fileState{src: src, result: &CollectResult{}}
	c.visit(root, st)
	return st.result, nil
}

func (c *Collector) visit(n *ts.Node, st *fileState) {
	if n == nil {
		return
	}
	if cand := c.candidateAt(n, st.src); cand != nil {
		if c.process(cand, st) {
			return
		}
	} else if isFunctionLike(n) && c.classifier.IsComponent(n, st.src) {
		// a component without a binding of its own, e.g. a render callback
		return
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		c.visit(n.NamedChild(i), st)
	}
}

// candidateAt recognises the declaration forms that can be documented.
func (c *Collector) candidateAt(n *ts.Node, src []byte) *candidate {
	switch kindOf(n) {
	case kindFunctionDeclaration:
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		return &candidate{name: text(name, src), kind: ComponentKindFunction, node: n, anchor: exportAnchor(n)}

	case kindVariableDeclarator:
		name := n.ChildByFieldName("name")
		if kindOf(name) != kindIdentifier {
			return nil
		}
		value := unwrapParens(n.ChildByFieldName("value"))
		cand := &candidate{name: text(name, src), node: value, anchor: declaratorAnchor(n)}
		switch kindOf(value) {
		case kindArrowFunction:
			cand.kind = ComponentKindArrow
		case kindFunctionExpression:
			cand.kind = ComponentKindFunction
		case kindCall:
			cand.kind = ComponentKindWrapped
			cand.wrapped = true
		default:
			return nil
		}
		return cand

	case kindExport:
		value := unwrapParens(n.ChildByFieldName("value"))
		cand := &candidate{name: anonymousDefaultName, node: value, anchor: n}
		switch {
		case isFunctionLike(value):
			cand.kind = ComponentKindDefaultExport
			if name := value.ChildByFieldName("name"); name != nil {
				cand.name = text(name, src)
			}
		case kindOf(value) == kindCall:
			cand.kind = ComponentKindWrapped
			cand.wrapped = true
			if fn := c.classifier.WrappedFunction(value, src); fn != nil {
				if name := fn.ChildByFieldName("name"); name != nil {
					cand.name = text(name, src)
				}
			}
		default:
			return nil
		}
		return cand

	default:
		return nil
	}
}

// process runs classification, the annotation check, prop analysis and
// synthesis for one candidate. It reports whether the candidate is a
// component, in which case its interior is not walked.
func (c *Collector) process(cand *candidate, st *fileState) bool {
	fn, ok := c.classify(cand, st.src)
	if !ok {
		return false
	}
	c.recordNested(fn, st)

	offset, err := anchorOffset(cand.anchor, st.src)
	if err != nil {
		c.log.Debug("component skipped", "component", cand.name, "error", err)
		st.result.Skipped = append(st.result.Skipped, SkippedCandidate{Name: cand.name, Reason: SkipMissingLocation})
		return true
	}
	line := int(cand.anchor.StartPosition().Row) + 1

	if hasComponentAnnotation(cand.anchor, st.src) {
		c.log.Debug("component already documented", "component", cand.name, "line", line)
		st.result.Skipped = append(st.result.Skipped, SkippedCandidate{Name: cand.name, Line: line, Reason: SkipAnnotated})
		return true
	}

	info := NewComponentInfo(cand.name, cand.kind)
	info.Line = line
	AnalyzeProps(fn, st.src, info)

	if c.opts.SkipEmptyProps && info.Props.Len() == 0 && !info.HasSpreadProps {
		st.result.Skipped = append(st.result.Skipped, SkippedCandidate{Name: cand.name, Line: line, Reason: SkipNoProps})
		return true
	}

	block := jsdoc.Generate(info.Doc(), jsdoc.Options{Timestamp: c.opts.Timestamp, Now: c.opts.Now})
	indent := lineIndent(st.src, offset)
	st.result.Insertions = append(st.result.Insertions, rewrite.Insertion{
		Offset: offset,
		Text:   jsdoc.Indent(block, indent) + "\n" + indent,
	})
	st.result.Components = append(st.result.Components, info)

	c.log.Debug("component documented",
		"component", info.Name,
		"kind", info.Kind,
		"props", info.Props.Len(),
		"line", line)
	return true
}

// classify returns the component function behind cand, or false when cand
// is not a component.
func (c *Collector) classify(cand *candidate, src []byte) (*ts.Node, bool) {
	if cand.wrapped {
		if !c.classifier.IsWrappedComponent(cand.node, src) {
			return nil, false
		}
		return c.classifier.WrappedFunction(cand.node, src), true
	}
	return cand.node, c.classifier.IsComponent(cand.node, src)
}

// recordNested lists the components declared inside outer as skipped. They
// are never documented on their own.
func (c *Collector) recordNested(outer *ts.Node, st *fileState) {
	for _, child := range namedChildren(outer) {
		walk(child, func(n *ts.Node) bool {
			cand := c.candidateAt(n, st.src)
			if cand == nil {
				return true
			}
			if _, ok := c.classify(cand, st.src); !ok || !c.classifier.IsNested(cand.node, st.src) {
				return true
			}
			st.result.Skipped = append(st.result.Skipped, SkippedCandidate{
				Name:   cand.name,
				Line:   int(n.StartPosition().Row) + 1,
				Reason: SkipNested,
			})
			return false
		})
	}
}

// exportAnchor lifts a declaration to its enclosing export statement.
func exportAnchor(n *ts.Node) *ts.Node {
	if parent := n.Parent(); kindOf(parent) == kindExport {
		return parent
	}
	return n
}

// declaratorAnchor returns the statement owning a variable declarator.
func declaratorAnchor(n *ts.Node) *ts.Node {
	decl := n.Parent()
	if kindOf(decl) != kindVariableDeclaration {
		return n
	}
	return exportAnchor(decl)
}

func anchorOffset(anchor *ts.Node, src []byte) (int, error) {
	if anchor == nil {
		return 0, ErrMissingLocation
	}
	start, end := anchor.StartByte(), anchor.EndByte()
	if end <= start || int(end) > len(src) {
		return 0, ErrMissingLocation
	}
	return int(start), nil
}

// hasComponentAnnotation inspects the comments directly above anchor for a
// JSDoc block carrying an @component tag.
func hasComponentAnnotation(anchor *ts.Node, src []byte) bool {
	for prev := anchor.PrevSibling(); kindOf(prev) == kindComment; prev = prev.PrevSibling() {
		if block, ok := jsdoc.Parse(text(prev, src)); ok && block.HasTag("component") {
			return true
		}
	}
	return false
}

// IsNested reports whether any function enclosing n is itself a component.
func (c *Classifier) IsNested(n *ts.Node, src []byte) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if isFunctionLike(p) && c.IsComponent(p, src) {
			return true
		}
	}
	return false
}
