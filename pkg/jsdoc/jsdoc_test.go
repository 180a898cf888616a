package jsdoc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time { return time.UnixMilli(1700000000123) }

func TestGenerateWithRestEntry(t *testing.T) {
	got := Generate(Doc{
		Name:           "_Button",
		ParamName:      "props",
		Props:          []string{"a", "...rest", "b"},
		HasSpreadProps: true,
	}, Options{Timestamp: true, Now: fixedClock})

	want := `/**
 * @generated 1700000000123
 * @component Button
 *
 * @param {Object} props Component props
 * @param {*} props.a - [auto generate]
 * @param {*} props.b - [auto generate]
 * @param {Object} props.rest - [auto generate]
 * @returns {JSX.Element} React component
 */`
	assert.Equal(t, want, got)
}

func TestGenerateFallbackRestLabel(t *testing.T) {
	got := Generate(Doc{
		Name:           "Card",
		ParamName:      "data",
		Props:          []string{"title"},
		HasSpreadProps: true,
	}, Options{})

	assert.Contains(t, got, " * @param {*} data.title - [auto generate]\n")
	assert.Contains(t, got, " * @param {Object} data.rest - [auto generate]\n")
	assert.NotContains(t, got, "@generated")
}

func TestGenerateNamedRestWins(t *testing.T) {
	got := Generate(Doc{
		Name:           "Input",
		ParamName:      "props",
		Props:          []string{"...others"},
		HasSpreadProps: true,
	}, Options{})

	assert.Contains(t, got, "props.others - [auto generate]")
	assert.NotContains(t, got, "props.rest")
}

func TestGenerateNoProps(t *testing.T) {
	got := Generate(Doc{Name: "Empty"}, Options{})

	want := `/**
 * @component Empty
 *
 * @param {Object} props Component props
 * @returns {JSX.Element} React component
 */`
	assert.Equal(t, want, got)
}

func TestGenerateUsesPackageClock(t *testing.T) {
	orig := Now
	Now = fixedClock
	defer func() { Now = orig }()

	got := Generate(Doc{Name: "X"}, Options{Timestamp: true})
	assert.Contains(t, got, "@generated 1700000000123")
}

func TestGenerateIsDeterministicWithoutTimestamp(t *testing.T) {
	doc := Doc{Name: "Row", ParamName: "p", Props: []string{"id", "label"}}
	assert.Equal(t, Generate(doc, Options{}), Generate(doc, Options{}))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "/**\n   * x\n   */", Indent("/**\n * x\n */", "  "))
	assert.Equal(t, "a\nb", Indent("a\nb", ""))
}

func TestParseRoundTripsGeneratedBlock(t *testing.T) {
	text := Generate(Doc{Name: "Button", ParamName: "props", Props: []string{"label"}},
		Options{Timestamp: true, Now: fixedClock})

	block, ok := Parse(text)
	require.True(t, ok)
	assert.True(t, block.HasTag("component"))
	assert.True(t, block.HasTag("generated"))

	comp, _ := block.Tag("component")
	assert.Equal(t, "Button", comp.Text)

	var params []Tag
	for _, tag := range block.Tags {
		if tag.Name == "param" {
			params = append(params, tag)
		}
	}
	require.Len(t, params, 2)
	assert.Equal(t, "Object", params[0].Type)
	assert.Equal(t, "props", params[0].Param)
	assert.Equal(t, "props.label", params[1].Param)
	assert.Equal(t, "[auto generate]", params[1].Text)
}

func TestParseRejectsNonJSDoc(t *testing.T) {
	cases := []string{
		"// @component Foo",
		"/* @component Foo */",
		"/**/",
		"",
	}
	for _, c := range cases {
		_, ok := Parse(c)
		assert.False(t, ok, c)
	}
}

func TestParseIgnoresTagMentionedInProse(t *testing.T) {
	block, ok := Parse("/**\n * Use the @component marker to skip generation.\n */")
	require.True(t, ok)
	assert.False(t, block.HasTag("component"))
	assert.Contains(t, block.Description, "@component marker")
}

func TestParseSingleLineBlock(t *testing.T) {
	block, ok := Parse("/** @component Foo */")
	require.True(t, ok)
	assert.True(t, block.HasTag("component"))
}

func TestParseMultilineTagText(t *testing.T) {
	block, ok := Parse("/**\n * Summary line.\n * @deprecated use Other\n *   instead\n */")
	require.True(t, ok)
	assert.Equal(t, "Summary line.", block.Description)
	tag, found := block.Tag("deprecated")
	require.True(t, found)
	assert.Equal(t, "use Other instead", tag.Text)
}
