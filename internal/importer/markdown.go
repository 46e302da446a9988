package importer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/snapedit/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownImporter reads Markdown with goldmark. Block text is kept as
// Markdown source so summaries render the way they were written.
type MarkdownImporter struct{}

func (MarkdownImporter) Import(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	o := newOutline()
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			o.Heading(h.Level, inlineText(h, src))
			continue
		}
		o.Text(blockSource(n, src))
	}
	return &doctree.DocTree{
		Title:    trimExt(filename, ".md", ".markdown"),
		Children: o.Nodes(),
	}, nil
}

// blockSource returns the source lines of a block and its nested blocks.
func blockSource(n ast.Node, src []byte) string {
	start, stop := -1, -1
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			if lines.Len() > 0 {
				first, last := lines.At(0), lines.At(lines.Len()-1)
				if start < 0 || first.Start < start {
					start = first.Start
				}
				stop = max(stop, last.Stop)
			}
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	if start < 0 {
		return ""
	}
	// Keep list markers and quote prefixes of the first line.
	start = bytes.LastIndexByte(src[:start], '\n') + 1
	out := strings.TrimSpace(string(src[start:stop]))
	if n.Kind() == ast.KindFencedCodeBlock {
		out = "```\n" + out + "\n```"
	}
	return out
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(inlineText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
