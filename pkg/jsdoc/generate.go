// Package jsdoc renders component documentation blocks and parses existing
// JSDoc comments back into tags.
package jsdoc

import (
	"strconv"
	"strings"
	"time"
)

// RestPrefix marks a prop entry that names a captured rest binding.
const RestPrefix = "..."

// fallbackRestName labels an open-ended prop bag that has no bound name.
const fallbackRestName = "rest"

// Now is a replaceable clock for testing.
var Now = func() time.Time { return time.Now() }

// Doc is the input to Generate.
type Doc struct {
	Name           string
	ParamName      string
	Props          []string // insertion order; rest entries carry RestPrefix
	HasSpreadProps bool
}

// Options controls optional parts of the rendered block.
type Options struct {
	// Timestamp emits an "@generated <unix-ms>" line.
	Timestamp bool
	// Now overrides the package clock.
	Now func() time.Time
}

// Generate renders the documentation block for a component. The result has
// no indentation and no trailing newline.
func Generate(doc Doc, opts Options) string {
	paramName := doc.ParamName
	if paramName == "" {
		paramName = "props"
	}

	var b strings.Builder
	b.WriteString("/**\n")
	if opts.Timestamp {
		clock := opts.Now
		if clock == nil {
			clock = Now
		}
		b.WriteString(" * @generated ")
		b.WriteString(strconv.FormatInt(clock().UnixMilli(), 10))
		b.WriteString("\n")
	}
	b.WriteString(" * @component ")
	b.WriteString(strings.TrimLeft(doc.Name, "_"))
	b.WriteString("\n *\n")
	b.WriteString(" * @param {Object} " + paramName + " Component props\n")

	plain, rest := partition(doc.Props)
	for _, prop := range plain {
		b.WriteString(" * @param {*} " + paramName + "." + prop + " - [auto generate]\n")
	}

	switch {
	case rest != "":
		b.WriteString(" * @param {Object} " + paramName + "." + rest + " - [auto generate]\n")
	case doc.HasSpreadProps:
		b.WriteString(" * @param {Object} " + paramName + "." + fallbackRestName + " - [auto generate]\n")
	}

	b.WriteString(" * @returns {JSX.Element} React component\n")
	b.WriteString(" */")
	return b.String()
}

// partition splits props into plain keys and the first rest binding name.
func partition(props []string) (plain []string, rest string) {
	for _, p := range props {
		if name, ok := strings.CutPrefix(p, RestPrefix); ok {
			if rest == "" {
				rest = name
			}
			continue
		}
		plain = append(plain, p)
	}
	return plain, rest
}

// Indent prefixes every line after the first with indent, for insertion at a
// position that already sits after the indentation of its line.
func Indent(block, indent string) string {
	if indent == "" {
		return block
	}
	return strings.ReplaceAll(block, "\n", "\n"+indent)
}
