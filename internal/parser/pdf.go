package parser

import (
	"bytes"
	"fmt"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFChecker checks that linked PDF attachments are readable documents.
type PDFChecker struct{}

// Check opens data as a PDF and returns its page count.
func (p *PDFChecker) Check(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	n := reader.NumPage()
	if n == 0 {
		return 0, fmt.Errorf("parse pdf: document has no pages")
	}
	return n, nil
}
