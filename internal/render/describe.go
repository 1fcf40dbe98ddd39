package render

import (
	"strings"

	"github.com/dgallion1/docbuild/internal/chunker"
	"github.com/dgallion1/docbuild/internal/parser"
)

// descriptionTokens bounds the page summary used in site.json and the
// description meta tag.
const descriptionTokens = 40

// Describe summarizes a page by the first chunk of its prose, directive
// tags removed. Pages with headings only get an empty description.
func Describe(sp *SitePage) string {
	blocks := parser.NewMarkdownParser().Blocks([]byte(StripDirectives(sp.Page)))
	chunks := chunker.ChunkSections(chunker.Sections(blocks), chunker.Config{
		ChunkSize:    descriptionTokens,
		ChunkOverlap: descriptionTokens / 4,
		MinChunk:     1,
	})
	if len(chunks) == 0 {
		return ""
	}
	return strings.Join(strings.Fields(chunks[0].Text), " ")
}
