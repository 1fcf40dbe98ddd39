package parser

import (
	"path"
	"strings"
)

// AssetChecker verifies the contents of a linked asset. It returns the
// number of pages (or 1 for single-unit formats) and an error for
// unreadable files.
type AssetChecker interface {
	Check(data []byte) (int, error)
}

// MarkdownExtensions lists file extensions treated as pages.
var MarkdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// IsMarkdown checks if a file name has a page extension.
func IsMarkdown(filename string) bool {
	return MarkdownExtensions[strings.ToLower(path.Ext(filename))]
}

// CheckerFor returns the content checker for an asset, or nil when the format
// is only checked for existence.
func CheckerFor(filename string) AssetChecker {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return &PDFChecker{}
	case ".docx":
		return &DOCXChecker{}
	case ".txt":
		return &TextChecker{Format: FormatPlain}
	case ".csv":
		return &TextChecker{Format: FormatCSV}
	case ".json":
		return &TextChecker{Format: FormatJSON}
	case ".yaml", ".yml":
		return &TextChecker{Format: FormatYAML}
	default:
		return nil
	}
}
