package jsdoc

import (
	"strings"
)

// Tag is one "@name {type} param text" entry of a block.
type Tag struct {
	Name  string
	Type  string
	Param string
	Text  string
}

// Block is a parsed "/** ... */" comment.
type Block struct {
	Description string
	Tags        []Tag
}

// HasTag reports whether the block carries a tag with the given name
// (without the "@").
func (b *Block) HasTag(name string) bool {
	if b == nil {
		return false
	}
	for _, t := range b.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Tag returns the first tag with the given name.
func (b *Block) Tag(name string) (Tag, bool) {
	if b != nil {
		for _, t := range b.Tags {
			if t.Name == name {
				return t, true
			}
		}
	}
	return Tag{}, false
}

// Parse parses a JSDoc block comment. Line comments, plain "/* */" comments
// and malformed blocks report false.
//
// A tag only starts at the beginning of a comment line, so "@component"
// mentioned inside prose is not a tag.
func Parse(comment string) (*Block, bool) {
	comment = strings.TrimSpace(comment)
	if !strings.HasPrefix(comment, "/**") || !strings.HasSuffix(comment, "*/") || len(comment) < 5 {
		return nil, false
	}
	// "/**/" is an empty plain comment
	if comment == "/**/" {
		return nil, false
	}

	body := comment[3 : len(comment)-2]
	block := &Block{}
	var desc []string
	var current *Tag

	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "@") {
			block.Tags = append(block.Tags, parseTag(line[1:]))
			current = &block.Tags[len(block.Tags)-1]
			continue
		}
		if current != nil {
			if line != "" {
				current.Text = strings.TrimSpace(current.Text + " " + line)
			}
			continue
		}
		desc = append(desc, line)
	}

	block.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	return block, true
}

func parseTag(s string) Tag {
	name, rest, _ := strings.Cut(s, " ")
	tag := Tag{Name: name}
	rest = strings.TrimSpace(rest)

	if strings.HasPrefix(rest, "{") {
		if end := strings.Index(rest, "}"); end > 0 {
			tag.Type = rest[1:end]
			rest = strings.TrimSpace(rest[end+1:])
		}
	}

	if name == "param" || name == "property" || name == "prop" {
		tag.Param, rest, _ = strings.Cut(rest, " ")
		rest = strings.TrimSpace(rest)
	}
	tag.Text = strings.TrimSpace(strings.TrimPrefix(rest, "- "))
	return tag
}
