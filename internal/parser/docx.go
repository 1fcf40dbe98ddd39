package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXChecker checks that linked Word attachments open.
type DOCXChecker struct{}

// Check parses data as a DOCX document and returns the number of headings
// in it, or 1 for a document without headings.
func (p *DOCXChecker) Check(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("parse docx: %v", r)
		}
	}()

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse docx: %w", err)
	}
	if len(doc.Document.Body.Items) == 0 {
		return 0, errors.New("parse docx: document has no body")
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok || para.Properties == nil || para.Properties.Style == nil {
			continue
		}
		if IsHeadingStyle(para.Properties.Style.Val) {
			n++
		}
	}
	return max(n, 1), nil
}

// IsHeadingStyle reports whether a paragraph style names a heading
// ("Heading1", "heading 2", ...).
func IsHeadingStyle(style string) bool {
	return HeadingStyleLevel(style) > 0
}

// HeadingStyleLevel returns the level of a heading paragraph style, or 0.
func HeadingStyleLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	rest, ok := strings.CutPrefix(s, "heading")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(rest)
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}
