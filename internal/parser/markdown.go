package parser

import (
	"bytes"
	"strings"

	"github.com/dgallion1/docbuild/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Outline is the structural summary of a Markdown body.
type Outline struct {
	Headings []doctree.Heading
	Links    []doctree.Link
	Anchors  map[string]bool
}

// Block is one top-level text block, used for plain-text exports.
type Block struct {
	Level int // Heading level, 0 for non-heading blocks
	Text  string
}

// MarkdownParser extracts headings, links and anchors using goldmark.
type MarkdownParser struct {
	md goldmark.Markdown
}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Outline parses src, a page body that starts at offset base in the page's
// raw text. Link offsets and lines are relative to the raw text.
func (p *MarkdownParser) Outline(raw string, base int) *Outline {
	src := []byte(raw[base:])
	doc := p.md.Parser().Parse(text.NewReader(src))

	out := &Outline{Anchors: make(map[string]bool)}
	slugs := NewAnchorSet()

	addLink := func(target string, off int, image, html bool) {
		target = strings.TrimSpace(target)
		if target == "" {
			return
		}
		abs := base + off
		out.Links = append(out.Links, doctree.Link{
			Target: target,
			Offset: abs,
			Line:   doctree.LineAt(raw, abs),
			Image:  image,
			HTML:   html,
		})
	}
	addHTML := func(fragment string, off int) {
		frag := ParseHTMLFragment(fragment)
		for _, a := range frag.Anchors {
			out.Anchors[a] = true
		}
		for _, l := range frag.Links {
			addLink(l.Target, off, l.Image, true)
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			title := extractText(node, src)
			anchor := slugs.Add(title)
			out.Headings = append(out.Headings, doctree.Heading{Level: node.Level, Text: title, Anchor: anchor})
			out.Anchors[anchor] = true
		case *ast.Link:
			addLink(string(node.Destination), nodeOffset(node, src), false, false)
		case *ast.Image:
			addLink(string(node.Destination), nodeOffset(node, src), true, false)
		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				buf.Write(seg.Value(src))
			}
			off := 0
			if node.Segments.Len() > 0 {
				off = node.Segments.At(0).Start
			}
			addHTML(buf.String(), off)
		case *ast.HTMLBlock:
			var buf bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				buf.Write(line.Value(src))
			}
			if node.HasClosure() {
				buf.Write(node.ClosureLine.Value(src))
			}
			off := 0
			if lines.Len() > 0 {
				off = lines.At(0).Start
			}
			addHTML(buf.String(), off)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return out
}

// Blocks returns the top-level headings and text blocks of src in order.
func (p *MarkdownParser) Blocks(src []byte) []Block {
	doc := p.md.Parser().Parse(text.NewReader(src))

	var blocks []Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		t := extractText(n, src)
		if t == "" {
			continue
		}
		level := 0
		if h, ok := n.(*ast.Heading); ok {
			level = h.Level
		}
		blocks = append(blocks, Block{Level: level, Text: t})
	}
	return blocks
}

// nodeOffset finds a source position for an inline node by looking at its
// first text descendant, falling back to the enclosing block's first line.
func nodeOffset(n ast.Node, src []byte) int {
	var found = -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found >= 0 {
			return ast.WalkStop, nil
		}
		if t, ok := c.(*ast.Text); ok {
			found = t.Segment.Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if found >= 0 {
		return found
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock && p.Lines().Len() > 0 {
			return p.Lines().At(0).Start
		}
	}
	return 0
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		if lines.Len() > 0 && n.FirstChild() == nil {
			return strings.TrimSpace(buf.String())
		}
		buf.Reset()
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.CodeSpan:
			buf.WriteString(extractText(c, src))
		default:
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
