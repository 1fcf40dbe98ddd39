package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/docbuild/internal/parser"
	"github.com/fumiama/go-docx"
)

// BookPath is where the optional DOCX export is written.
const BookPath = "book.docx"

// BuildBook exports every page as a chapter of a single DOCX document: one
// Heading1 paragraph per page, then the page's headings and text blocks.
func BuildBook(site *Site) ([]byte, error) {
	md := parser.NewMarkdownParser()
	doc := docx.New().WithDefaultTheme()

	for _, sp := range site.Pages {
		doc.AddParagraph().Style("Heading1").AddText(sp.Title).Bold().Size("32")

		blocks := md.Blocks([]byte(StripDirectives(sp.Page)))
		for i, b := range blocks {
			// The page usually opens with its own title.
			if i == 0 && b.Level == 1 && b.Text == sp.Title {
				continue
			}
			para := doc.AddParagraph()
			if b.Level > 0 {
				para.Style(fmt.Sprintf("Heading%d", min(b.Level+1, 6))).AddText(b.Text).Bold()
				continue
			}
			para.AddText(b.Text)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, &RenderError{Op: "write", Path: BookPath, Err: err}
	}
	return buf.Bytes(), nil
}

// BookSection is a heading from an exported book with the text under it.
type BookSection struct {
	Level int
	Title string
	Text  string
}

// ReadBook lists the headed sections of a DOCX document in order.
func ReadBook(data []byte) ([]BookSection, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var sections []BookSection
	var currentText strings.Builder

	flushText := func() {
		t := strings.TrimSpace(currentText.String())
		if t != "" && len(sections) > 0 {
			top := &sections[len(sections)-1]
			if top.Text != "" {
				top.Text += "\n\n" + t
			} else {
				top.Text = t
			}
		}
		currentText.Reset()
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}

		level := docxHeadingLevel(para)
		text := docxParagraphText(para)

		if level > 0 && text != "" {
			flushText()
			sections = append(sections, BookSection{Level: level, Title: text})
		} else if text != "" {
			if currentText.Len() > 0 {
				currentText.WriteString("\n\n")
			}
			currentText.WriteString(text)
		}
	}
	flushText()

	return sections, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	var level int
	if _, err := fmt.Sscanf(style[len("heading"):], "%d", &level); err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
